package corpus

import "errors"

// ErrNotFound reports a lookup for an identity absent from the corpus.
var ErrNotFound = errors.New("corpus entry not found")

// ErrDuplicateEntry reports an insert that would violate the
// (series, season, episode) uniqueness invariant.
var ErrDuplicateEntry = errors.New("corpus entry already exists")

// ErrEmbeddingSet reports a backfill attempt against an entry that already
// carries an embedding; stored embeddings are immutable.
var ErrEmbeddingSet = errors.New("corpus entry embedding already set")
