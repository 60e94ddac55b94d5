package subtext

import (
	"strings"
	"testing"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:03,500
Captain, the array is failing.

2
00:00:04,000 --> 00:00:06,000
<i>We need more time</i>
before the window closes.

3
00:00:07,000 --> 00:00:09,000
Subtitles by SomeGroup - www.example.com
`

const sampleVTT = `WEBVTT

NOTE This file was generated automatically.

intro
00:00:01.000 --> 00:00:03.500 align:start
Captain, the array is failing.

00:00:04.000 --> 00:00:06.000
We need more time
before the window closes.
`

const sampleASS = `[Script Info]
Title: Sample

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
Dialogue: 0,0:00:01.00,0:00:03.50,Default,,0,0,0,,{\pos(640,360)}Captain, the array is failing.
Dialogue: 0,0:00:04.00,0:00:06.00,Default,,0,0,0,,We need more time\Nbefore the window closes.
`

func TestExtractSRT(t *testing.T) {
	text, format := Extract([]byte(sampleSRT))
	if format != FormatSRT {
		t.Fatalf("expected format %s, got %s", FormatSRT, format)
	}
	want := "Captain, the array is failing.\nWe need more time\nbefore the window closes."
	if text != want {
		t.Fatalf("unexpected text:\n%q\nwant:\n%q", text, want)
	}
}

func TestExtractSRTWindowsLineEndings(t *testing.T) {
	text, format := Extract([]byte(strings.ReplaceAll(sampleSRT, "\n", "\r\n")))
	if format != FormatSRT {
		t.Fatalf("expected format %s, got %s", FormatSRT, format)
	}
	if !strings.Contains(text, "array is failing") {
		t.Fatalf("dialogue missing from %q", text)
	}
	if strings.Contains(text, "\r") {
		t.Fatal("carriage returns must be normalized away")
	}
}

func TestExtractVTT(t *testing.T) {
	text, format := Extract([]byte(sampleVTT))
	if format != FormatVTT {
		t.Fatalf("expected format %s, got %s", FormatVTT, format)
	}
	want := "Captain, the array is failing.\nWe need more time\nbefore the window closes."
	if text != want {
		t.Fatalf("unexpected text:\n%q\nwant:\n%q", text, want)
	}
}

func TestExtractASS(t *testing.T) {
	text, format := Extract([]byte(sampleASS))
	if format != FormatASS {
		t.Fatalf("expected format %s, got %s", FormatASS, format)
	}
	want := "Captain, the array is failing.\nWe need more time\nbefore the window closes."
	if text != want {
		t.Fatalf("unexpected text:\n%q\nwant:\n%q", text, want)
	}
}

func TestExtractPlainTextPassthrough(t *testing.T) {
	text, format := Extract([]byte("Just some dialogue with no structure.\n"))
	if format != FormatPlainText {
		t.Fatalf("expected format %s, got %s", FormatPlainText, format)
	}
	if text != "Just some dialogue with no structure." {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestExtractDropsAdvertisementCues(t *testing.T) {
	text, _ := Extract([]byte(sampleSRT))
	for _, banned := range []string{"SomeGroup", "www.example.com"} {
		if strings.Contains(text, banned) {
			t.Fatalf("advertisement cue leaked into output: %q", text)
		}
	}
}

func TestExtractEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\n  "} {
		text, format := Extract([]byte(input))
		if text != "" {
			t.Fatalf("input %q: expected empty output, got %q", input, text)
		}
		if format != FormatPlainText {
			t.Fatalf("input %q: expected plaintext format, got %s", input, format)
		}
	}
}
