// Package corpus persists labeled subtitle entries in SQLite and exposes the
// lookup operations the matcher depends on.
//
// Each entry carries a (series, season, episode) identity, the raw extracted
// text, one normalized text and fuzzy fingerprint per variant, and an
// optional embedding vector. The identity triple is unique; entries are
// immutable once stored except for backfilling a missing embedding.
//
// SQLite's single-writer discipline (WAL journal plus a busy timeout)
// serializes writes while reads stay concurrent. Schema changes bump the
// version in schema.go; users clear the database to adopt the new schema.
package corpus
