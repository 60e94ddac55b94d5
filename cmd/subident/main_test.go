package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleSubtitle = `1
00:00:01,000 --> 00:00:03,500
Captain, the array is failing and the relay is dark.

2
00:00:04,000 --> 00:00:06,000
We need more time before the docking window closes.

3
00:00:07,000 --> 00:00:09,000
Tell the commander the station cannot hold this orbit.
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	cfgPath := filepath.Join(root, "config.toml")
	content := fmt.Sprintf("[paths]\ndata_dir = %q\nlog_dir = %q\n", filepath.Join(root, "data"), filepath.Join(root, "logs"))
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v\n%s", err, out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	_, err = runCommand(t, "config", "init", "--path", target)
	if err == nil {
		t.Fatal("expected error when target already exists")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCorpusAddListAndIdentify(t *testing.T) {
	cfgPath := writeTestConfig(t)

	subtitleDir := t.TempDir()
	subtitlePath := filepath.Join(subtitleDir, "Station Eleven - S01E04 - The Array.srt")
	if err := os.WriteFile(subtitlePath, []byte(sampleSubtitle), 0o644); err != nil {
		t.Fatalf("write subtitle: %v", err)
	}

	out, err := runCommand(t, "--config", cfgPath, "corpus", "add", subtitlePath)
	if err != nil {
		t.Fatalf("corpus add: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Station Eleven S01E04") {
		t.Fatalf("add output missing identity: %s", out)
	}

	out, err = runCommand(t, "--config", cfgPath, "corpus", "list", "--json")
	if err != nil {
		t.Fatalf("corpus list: %v\n%s", err, out)
	}
	var listing []map[string]any
	if err := json.Unmarshal([]byte(out), &listing); err != nil {
		t.Fatalf("parse listing %q: %v", out, err)
	}
	if len(listing) != 1 || listing[0]["series"] != "Station Eleven" {
		t.Fatalf("unexpected listing: %+v", listing)
	}

	out, err = runCommand(t, "--config", cfgPath, "identify", "--json", subtitlePath)
	if err != nil {
		t.Fatalf("identify: %v\n%s", err, out)
	}
	var result identifyOutput
	start := strings.Index(out, "{")
	if start < 0 {
		t.Fatalf("no JSON in output: %s", out)
	}
	if err := json.Unmarshal([]byte(out[start:]), &result); err != nil {
		t.Fatalf("parse identify output %q: %v", out, err)
	}
	if !result.Matched {
		t.Fatalf("expected a match: %+v", result)
	}
	if result.Method != "hash" {
		t.Fatalf("expected hash method, got %s", result.Method)
	}
	if result.SuggestedFileName != "Station Eleven - S01E04 - The Array.srt" {
		t.Fatalf("unexpected suggested filename: %s", result.SuggestedFileName)
	}
}

func TestIdentifyUnknownTextReportsNoMatch(t *testing.T) {
	cfgPath := writeTestConfig(t)

	subtitleDir := t.TempDir()
	knownPath := filepath.Join(subtitleDir, "Station Eleven - S01E04 - The Array.srt")
	if err := os.WriteFile(knownPath, []byte(sampleSubtitle), 0o644); err != nil {
		t.Fatalf("write subtitle: %v", err)
	}
	if out, err := runCommand(t, "--config", cfgPath, "corpus", "add", knownPath); err != nil {
		t.Fatalf("corpus add: %v\n%s", err, out)
	}

	unknownPath := filepath.Join(subtitleDir, "mystery.txt")
	if err := os.WriteFile(unknownPath, []byte("A completely unrelated harbor ballad about gulls and lanterns."), 0o644); err != nil {
		t.Fatalf("write unknown: %v", err)
	}

	out, err := runCommand(t, "--config", cfgPath, "identify", "--json", unknownPath)
	if err != nil {
		t.Fatalf("identify: %v\n%s", err, out)
	}
	var result identifyOutput
	start := strings.Index(out, "{")
	if start < 0 {
		t.Fatalf("no JSON in output: %s", out)
	}
	if err := json.Unmarshal([]byte(out[start:]), &result); err != nil {
		t.Fatalf("parse identify output %q: %v", out, err)
	}
	if result.Matched {
		t.Fatalf("expected no match: %+v", result)
	}
	if result.Method != "none" {
		t.Fatalf("expected method none, got %s", result.Method)
	}
	// The matcher's own result is rendered, carrying the best candidate's
	// scores rather than a zeroed placeholder.
	if result.CorrelationID == "" {
		t.Fatal("expected the matcher's correlation id in the output")
	}
	best := result.HashScore
	if result.TextScore > best {
		best = result.TextScore
	}
	if result.Confidence != float64(best)/100.0 {
		t.Fatalf("confidence %v does not reflect best score %d", result.Confidence, best)
	}
}
