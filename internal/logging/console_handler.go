package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset  = "\x1b[0m"
	ansiDim    = "\x1b[2m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
	ansiCyan   = "\x1b[36m"
)

type consoleHandler struct {
	mu     sync.Mutex
	writer io.Writer
	level  *slog.LevelVar
	attrs  []slog.Attr
	groups []string
	color  bool
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar) slog.Handler {
	return &consoleHandler{writer: w, level: lvl, color: writerSupportsColor(w)}
}

func writerSupportsColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}

	timestamp := record.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	kvs := make([]kv, 0, record.NumAttrs()+len(h.attrs))
	flattenAttrs(&kvs, h.groups, h.attrs)
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(&kvs, h.groups, attr)
		return true
	})

	var component string
	filtered := make([]kv, 0, len(kvs))
	for _, pair := range kvs {
		if pair.key == FieldComponent && component == "" {
			component = pair.value
			continue
		}
		filtered = append(filtered, pair)
	}
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].key < filtered[j].key })

	var buf bytes.Buffer
	buf.WriteString(h.colorize(ansiDim, timestamp.Format("15:04:05")))
	buf.WriteByte(' ')
	buf.WriteString(h.levelLabel(record.Level))
	if component != "" {
		buf.WriteByte(' ')
		buf.WriteString(h.colorize(ansiCyan, component))
	}
	buf.WriteByte(' ')
	buf.WriteString(strings.TrimSpace(record.Message))
	for _, pair := range filtered {
		buf.WriteByte(' ')
		buf.WriteString(h.colorize(ansiDim, pair.key+"="))
		buf.WriteString(pair.value)
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := h.cloneHandler()
	clone.attrs = append(clone.attrs, attrs...)
	return clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := h.cloneHandler()
	clone.groups = append(clone.groups, name)
	return clone
}

func (h *consoleHandler) cloneHandler() *consoleHandler {
	return &consoleHandler{
		writer: h.writer,
		level:  h.level,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
		color:  h.color,
	}
}

func (h *consoleHandler) levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return h.colorize(ansiRed, "ERROR")
	case level >= slog.LevelWarn:
		return h.colorize(ansiYellow, "WARN ")
	case level >= slog.LevelInfo:
		return h.colorize(ansiBlue, "INFO ")
	default:
		return h.colorize(ansiDim, "DEBUG")
	}
}

func (h *consoleHandler) colorize(code, text string) string {
	if !h.color {
		return text
	}
	return code + text + ansiReset
}

type kv struct {
	key   string
	value string
}

func flattenAttrs(dst *[]kv, groups []string, attrs []slog.Attr) {
	for _, attr := range attrs {
		flattenAttr(dst, groups, attr)
	}
}

func flattenAttr(dst *[]kv, groups []string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		nested := groups
		if attr.Key != "" {
			nested = append(append([]string(nil), groups...), attr.Key)
		}
		flattenAttrs(dst, nested, value.Group())
		return
	}
	key := attr.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	*dst = append(*dst, kv{key: key, value: formatValue(value)})
}

func formatValue(value slog.Value) string {
	switch value.Kind() {
	case slog.KindString:
		s := value.String()
		if strings.ContainsAny(s, " \t") {
			return fmt.Sprintf("%q", s)
		}
		return s
	case slog.KindFloat64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", value.Float64()), "0"), ".")
	case slog.KindDuration:
		return value.Duration().Round(time.Millisecond).String()
	case slog.KindTime:
		return value.Time().UTC().Format(time.RFC3339)
	default:
		return value.String()
	}
}
