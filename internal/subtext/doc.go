// Package subtext extracts plain dialogue text from subtitle payloads.
//
// It understands SRT, WebVTT, and ASS/SSA alongside plain text, dropping
// cue indexes, timecodes, positioning markup, and advertisement cues. The
// matching engine downstream only ever sees the extracted dialogue.
package subtext
