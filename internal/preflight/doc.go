// Package preflight provides readiness checks for the filesystem state
// that bulk corpus operations depend on.
//
// The CLI runs RunAll before a bulk import or backfill: if the data
// directory is missing, the disk is nearly full, or the corpus database
// cannot be opened, the run stops before any work is wasted.
package preflight
