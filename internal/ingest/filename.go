package ingest

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"subident/internal/corpus"
)

var subtitleExtensions = map[string]struct{}{
	".srt": {},
	".vtt": {},
	".ass": {},
	".txt": {},
}

var fileNamePattern = regexp.MustCompile(`^(.+?) - [Ss](\d{1,3})[Ee](\d{1,3})(?: - (.+?))?$`)

// ParseFileName derives an entry identity from a subtitle file name of the
// form "Series - SxxEyy - Title.ext"; the title segment is optional.
func ParseFileName(name string) (corpus.Identity, error) {
	base := filepath.Base(name)
	ext := strings.ToLower(filepath.Ext(base))
	if _, ok := subtitleExtensions[ext]; !ok {
		return corpus.Identity{}, fmt.Errorf("unsupported subtitle extension %q", ext)
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	groups := fileNamePattern.FindStringSubmatch(stem)
	if groups == nil {
		return corpus.Identity{}, fmt.Errorf("file name %q does not match \"Series - SxxEyy - Title\"", base)
	}

	season, err := strconv.Atoi(groups[2])
	if err != nil {
		return corpus.Identity{}, fmt.Errorf("parse season in %q: %w", base, err)
	}
	episode, err := strconv.Atoi(groups[3])
	if err != nil {
		return corpus.Identity{}, fmt.Errorf("parse episode in %q: %w", base, err)
	}

	return corpus.Identity{
		Series:  strings.TrimSpace(groups[1]),
		Season:  season,
		Episode: episode,
		Title:   strings.TrimSpace(groups[4]),
	}, nil
}

// IsSubtitleFile reports whether a path carries a supported subtitle
// extension.
func IsSubtitleFile(path string) bool {
	_, ok := subtitleExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}
