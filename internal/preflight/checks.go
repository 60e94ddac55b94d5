package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"subident/internal/config"
	"subident/internal/corpus"
)

// statfs is swappable so tests can simulate low-disk conditions. It
// returns available and total bytes for the filesystem holding path.
var statfs = func(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	blockSize := uint64(stat.Bsize)
	return stat.Bavail * blockSize, stat.Blocks * blockSize, nil
}

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the filesystem holding path has at least
// minFreeMiB available.
func CheckFreeSpace(path string, minFreeMiB int) Result {
	const name = "Free disk space"

	available, _, err := statfs(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	availableMiB := available / (1 << 20)
	if availableMiB < uint64(minFreeMiB) {
		return Result{Name: name, Detail: fmt.Sprintf("%d MiB available, %d MiB required", availableMiB, minFreeMiB)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d MiB available", availableMiB)}
}

// CheckCorpusStore verifies the corpus database can be opened, which also
// validates its schema version.
func CheckCorpusStore(ctx context.Context, cfg *config.Config) Result {
	const name = "Corpus database"

	store, err := corpus.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.CorpusDBPath(), err)}
	}
	defer store.Close()

	count, err := store.Count(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.CorpusDBPath(), err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d entries)", cfg.CorpusDBPath(), count)}
}
