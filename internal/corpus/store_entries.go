package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"subident/internal/fuzzyhash"
	"subident/internal/textnorm"
)

const entryColumns = "id, series, season, episode, title, raw_text, embedding, created_at, updated_at"

// Put inserts a new entry. The (series, season, episode) triple must be
// unique; violating it returns ErrDuplicateEntry. Stored entries never
// change except through SetEmbedding.
func (s *Store) Put(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return errors.New("put entry: entry must not be nil")
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO corpus_entries (series, season, episode, title, raw_text, embedding, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Series,
		entry.Season,
		entry.Episode,
		nullableString(entry.Title),
		entry.RawText,
		encodeVector(entry.Embedding),
		now,
		now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrDuplicateEntry, entry.Label())
		}
		return fmt.Errorf("insert entry: %w", err)
	}

	entryID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	for variant, data := range entry.Variants {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO entry_variants (entry_id, variant, normalized_text, fuzzy_hash)
             VALUES (?, ?, ?, ?)`,
			entryID,
			string(variant),
			data.Normalized,
			data.Fingerprint.String(),
		); err != nil {
			return fmt.Errorf("insert variant %s: %w", variant, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit entry: %w", err)
	}
	return nil
}

// Get fetches one entry by identity triple.
func (s *Store) Get(ctx context.Context, series string, season, episode int) (*Entry, error) {
	row := s.db.QueryRowContext(
		ctx,
		"SELECT "+entryColumns+" FROM corpus_entries WHERE series = ? AND season = ? AND episode = ?",
		series, season, episode,
	)
	entry, id, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s s%02de%02d", ErrNotFound, series, season, episode)
		}
		return nil, err
	}
	if err := s.loadVariants(ctx, map[int64]*Entry{id: entry}); err != nil {
		return nil, err
	}
	return entry, nil
}

// GetAll returns every entry ordered by identity.
func (s *Store) GetAll(ctx context.Context) ([]*Entry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		"SELECT "+entryColumns+" FROM corpus_entries ORDER BY series, season, episode",
	)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]*Entry)
	var entries []*Entry
	for rows.Next() {
		entry, id, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		byID[id] = entry
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	if err := s.loadVariants(ctx, byID); err != nil {
		return nil, err
	}
	return entries, nil
}

// EntriesMissingEmbedding returns identities of entries without a stored
// embedding, for backfill runs.
func (s *Store) EntriesMissingEmbedding(ctx context.Context) ([]Identity, error) {
	rows, err := s.db.QueryContext(
		ctx,
		"SELECT series, season, episode, title FROM corpus_entries WHERE embedding IS NULL ORDER BY series, season, episode",
	)
	if err != nil {
		return nil, fmt.Errorf("query missing embeddings: %w", err)
	}
	defer rows.Close()

	var identities []Identity
	for rows.Next() {
		var identity Identity
		var title sql.NullString
		if err := rows.Scan(&identity.Series, &identity.Season, &identity.Episode, &title); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		identity.Title = title.String
		identities = append(identities, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return identities, nil
}

// SetEmbedding backfills an entry's missing embedding. Entries that already
// carry one are immutable and return ErrEmbeddingSet.
func (s *Store) SetEmbedding(ctx context.Context, series string, season, episode int, embedding []float32) error {
	if len(embedding) == 0 {
		return errors.New("set embedding: vector must not be empty")
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE corpus_entries SET embedding = ?, updated_at = ?
         WHERE series = ? AND season = ? AND episode = ? AND embedding IS NULL`,
		encodeVector(embedding),
		now,
		series, season, episode,
	)
	if err != nil {
		return fmt.Errorf("set embedding: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set embedding rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish a missing entry from an already-set embedding.
		if _, err := s.Get(ctx, series, season, episode); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s s%02de%02d", ErrEmbeddingSet, series, season, episode)
	}
	return nil
}

// Delete removes an entry and its variants. Deleting an absent identity
// returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, series string, season, episode int) error {
	res, err := s.db.ExecContext(
		ctx,
		"DELETE FROM corpus_entries WHERE series = ? AND season = ? AND episode = ?",
		series, season, episode,
	)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s s%02de%02d", ErrNotFound, series, season, episode)
	}
	return nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM corpus_entries").Scan(&count); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return count, nil
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, int64, error) {
	var (
		id         int64
		series     string
		season     int
		episode    int
		title      sql.NullString
		rawText    string
		embedding  []byte
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&id, &series, &season, &episode, &title, &rawText, &embedding, &createdRaw, &updatedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("scan entry: %w", err)
	}

	entry := &Entry{
		Identity: Identity{
			Series:  series,
			Season:  season,
			Episode: episode,
			Title:   title.String,
		},
		RawText:   rawText,
		Variants:  make(map[textnorm.Variant]VariantData),
		Embedding: decodeVector(embedding),
	}
	entry.CreatedAt = parseTimestamp(createdRaw)
	entry.UpdatedAt = parseTimestamp(updatedRaw)
	return entry, id, nil
}

func (s *Store) loadVariants(ctx context.Context, byID map[int64]*Entry) error {
	if len(byID) == 0 {
		return nil
	}
	rows, err := s.db.QueryContext(ctx, "SELECT entry_id, variant, normalized_text, fuzzy_hash FROM entry_variants")
	if err != nil {
		return fmt.Errorf("query variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			entryID    int64
			variant    string
			normalized string
			hashRaw    string
		)
		if err := rows.Scan(&entryID, &variant, &normalized, &hashRaw); err != nil {
			return fmt.Errorf("scan variant: %w", err)
		}
		entry, ok := byID[entryID]
		if !ok {
			continue
		}
		fingerprint, err := fuzzyhash.Parse(hashRaw)
		if err != nil {
			return fmt.Errorf("entry %s variant %s: %w", entry.Label(), variant, err)
		}
		entry.Variants[textnorm.Variant(variant)] = VariantData{
			Normalized:  normalized,
			Fingerprint: fingerprint,
		}
	}
	return rows.Err()
}

func parseTimestamp(raw string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}
