package config

const (
	defaultDataDir = "~/.local/share/subident"
	defaultLogDir  = "~/.local/share/subident/logs"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultMatchThreshold        = 70
	defaultSeparationMargin      = 10
	defaultInterestThreshold     = 40
	defaultTextFallbackThreshold = 55

	defaultTextRankTargetPercent    = 30
	defaultTextRankMinSentences     = 12
	defaultTextRankMinRetainPercent = 10

	defaultVectorDimensions     = 384
	defaultVectorMaxElements    = 100_000
	defaultVectorEfConstruction = 200
	defaultVectorEfSearch       = 64
	defaultVectorM              = 16
	defaultVectorTopK           = 5

	defaultIngestMaxWorkers      = 8
	defaultIngestMinFreeSpaceMiB = 256

	// MaxIngestWorkers caps the bulk ingestion worker pool.
	MaxIngestWorkers = 100
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Matcher: Matcher{
			MatchThreshold:        defaultMatchThreshold,
			SeparationMargin:      defaultSeparationMargin,
			InterestThreshold:     defaultInterestThreshold,
			TextFallbackEnabled:   true,
			TextFallbackThreshold: defaultTextFallbackThreshold,
		},
		TextRank: TextRank{
			Enabled:          false,
			TargetPercent:    defaultTextRankTargetPercent,
			MinSentenceCount: defaultTextRankMinSentences,
			MinRetainPercent: defaultTextRankMinRetainPercent,
		},
		VectorIndex: VectorIndex{
			Enabled:        true,
			Dimensions:     defaultVectorDimensions,
			MaxElements:    defaultVectorMaxElements,
			EfConstruction: defaultVectorEfConstruction,
			EfSearch:       defaultVectorEfSearch,
			M:              defaultVectorM,
			TopK:           defaultVectorTopK,
		},
		Ingest: Ingest{
			MaxWorkers:      defaultIngestMaxWorkers,
			MinFreeSpaceMiB: defaultIngestMinFreeSpaceMiB,
		},
	}
}
