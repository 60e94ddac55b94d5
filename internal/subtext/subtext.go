package subtext

import (
	"regexp"
	"strconv"
	"strings"
)

// Format identifies the subtitle container a payload was recognized as.
type Format string

const (
	FormatSRT       Format = "srt"
	FormatVTT       Format = "vtt"
	FormatASS       Format = "ass"
	FormatPlainText Format = "plaintext"
)

var adPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)opensubtitles`),
	regexp.MustCompile(`(?i)subtitles? by`),
	regexp.MustCompile(`(?i)synced? and corrected`),
	regexp.MustCompile(`(?i)http(s)?://`),
	regexp.MustCompile(`(?i)\bwww\.`),
	regexp.MustCompile(`(?i)\bsubscene\b`),
	regexp.MustCompile(`(?i)\byts\b`),
	regexp.MustCompile(`(?i)\byify\b`),
}

var (
	assOverridePattern = regexp.MustCompile(`\{[^}]*\}`)
	htmlTagPattern     = regexp.MustCompile(`<[^>]*>`)
	vttSettingsPattern = regexp.MustCompile(`-->\s*\S.*$`)
)

// Extract returns the dialogue text of a subtitle payload and the format it
// was recognized as. Unrecognized payloads pass through as plain text with
// line endings normalized.
func Extract(raw []byte) (string, Format) {
	content := strings.ReplaceAll(string(raw), "\r\n", "\n")
	content = strings.TrimPrefix(content, "\uFEFF")

	switch format := detectFormat(content); format {
	case FormatASS:
		return extractASS(content), format
	case FormatVTT:
		return extractCues(stripVTTHeader(content)), format
	case FormatSRT:
		return extractCues(content), format
	default:
		return strings.TrimSpace(content), FormatPlainText
	}
}

func detectFormat(content string) Format {
	trimmed := strings.TrimSpace(content)
	switch {
	case strings.HasPrefix(trimmed, "WEBVTT"):
		return FormatVTT
	case strings.Contains(trimmed, "[Script Info]") || strings.Contains(trimmed, "\nDialogue:") || strings.HasPrefix(trimmed, "Dialogue:"):
		return FormatASS
	case strings.Contains(trimmed, "-->"):
		return FormatSRT
	default:
		return FormatPlainText
	}
}

func stripVTTHeader(content string) string {
	blocks := splitBlocks(content)
	kept := make([]string, 0, len(blocks))
	for _, block := range blocks {
		first := strings.TrimSpace(strings.SplitN(block, "\n", 2)[0])
		if strings.HasPrefix(first, "WEBVTT") || strings.HasPrefix(first, "NOTE") || strings.HasPrefix(first, "STYLE") || strings.HasPrefix(first, "REGION") {
			continue
		}
		kept = append(kept, block)
	}
	return strings.Join(kept, "\n\n")
}

// extractCues walks cue blocks the way SRT lays them out: optional numeric
// index, a timecode line, then dialogue lines until the blank separator.
func extractCues(content string) string {
	var lines []string
	for _, block := range splitBlocks(content) {
		text := cueTextLines(strings.Split(block, "\n"))
		if len(text) == 0 || isAdvertisement(text) {
			continue
		}
		lines = append(lines, text...)
	}
	return strings.Join(lines, "\n")
}

func cueTextLines(lines []string) []string {
	start := 0
	if start < len(lines) && !strings.Contains(lines[start], "-->") {
		// Numeric SRT index or a VTT cue identifier ahead of the timecode.
		if isNumeric(lines[start]) || (start+1 < len(lines) && strings.Contains(lines[start+1], "-->")) {
			start++
		}
	}
	if start < len(lines) && strings.Contains(lines[start], "-->") {
		start++
	}
	if start >= len(lines) {
		return nil
	}
	text := make([]string, 0, len(lines)-start)
	for _, line := range lines[start:] {
		cleaned := strings.TrimSpace(htmlTagPattern.ReplaceAllString(line, ""))
		cleaned = vttSettingsPattern.ReplaceAllString(cleaned, "")
		if cleaned != "" {
			text = append(text, cleaned)
		}
	}
	return text
}

// extractASS reads Dialogue events. The text payload is the tenth
// comma-separated field; commas inside it are preserved.
func extractASS(content string) string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "Dialogue:") {
			continue
		}
		fields := strings.SplitN(strings.TrimPrefix(trimmed, "Dialogue:"), ",", 10)
		if len(fields) < 10 {
			continue
		}
		text := assOverridePattern.ReplaceAllString(fields[9], "")
		text = strings.ReplaceAll(text, `\N`, "\n")
		text = strings.ReplaceAll(text, `\n`, "\n")
		text = strings.ReplaceAll(text, `\h`, " ")
		for _, part := range strings.Split(text, "\n") {
			part = strings.TrimSpace(htmlTagPattern.ReplaceAllString(part, ""))
			if part == "" {
				continue
			}
			if isAdvertisement([]string{part}) {
				continue
			}
			lines = append(lines, part)
		}
	}
	return strings.Join(lines, "\n")
}

func isAdvertisement(textLines []string) bool {
	payload := strings.TrimSpace(strings.ToLower(strings.Join(textLines, " ")))
	if payload == "" {
		return false
	}
	for _, pattern := range adPatterns {
		if pattern.MatchString(payload) {
			return true
		}
	}
	return false
}

func splitBlocks(content string) []string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n\n")
}

func isNumeric(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	_, err := strconv.Atoi(value)
	return err == nil
}
