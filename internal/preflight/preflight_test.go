package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subident/internal/config"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()

	result := CheckDirectoryAccess("Data directory", dir)
	if !result.Passed {
		t.Fatalf("expected pass for writable directory: %+v", result)
	}

	result = CheckDirectoryAccess("Data directory", filepath.Join(dir, "missing"))
	if result.Passed {
		t.Fatalf("expected failure for missing directory: %+v", result)
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}

	file := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	result = CheckDirectoryAccess("Data directory", file)
	if result.Passed {
		t.Fatalf("expected failure for non-directory: %+v", result)
	}
}

func TestCheckFreeSpace(t *testing.T) {
	original := statfs
	t.Cleanup(func() { statfs = original })

	statfs = func(string) (uint64, uint64, error) {
		return 512 << 20, 1024 << 20, nil
	}
	if result := CheckFreeSpace("/data", 256); !result.Passed {
		t.Fatalf("expected pass with 512 MiB free: %+v", result)
	}
	if result := CheckFreeSpace("/data", 1024); result.Passed {
		t.Fatalf("expected failure with 512 MiB free and 1024 MiB floor: %+v", result)
	}

	statfs = func(string) (uint64, uint64, error) {
		return 0, 0, errors.New("mount gone")
	}
	if result := CheckFreeSpace("/data", 1); result.Passed {
		t.Fatalf("expected failure on statfs error: %+v", result)
	}
}

func TestRunAll(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Ingest.MinFreeSpaceMiB = 0

	results := RunAll(context.Background(), &cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if !AllPassed(results) {
		t.Fatalf("expected all checks to pass: %+v", results)
	}

	cfg.Paths.DataDir = filepath.Join(cfg.Paths.DataDir, "never-created", "deep")
	results = RunAll(context.Background(), &cfg)
	if AllPassed(results) {
		t.Fatalf("expected directory check to fail: %+v", results)
	}
}
