package logs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// ModuleKey is the attribute that fills the [module] part of a line.
const ModuleKey = "module"

// Publisher receives every entry written by a Handler.
type Publisher interface {
	PublishLog(ParsedLog)
}

// Handler is a slog.Handler producing log lines. Attributes other than the
// module are appended to the message as key=value pairs.
type Handler struct {
	level  slog.Leveler
	out    io.Writer
	pub    Publisher
	module string
	attrs  string
	group  string
	mu     *sync.Mutex
}

// NewHandler writes to out and, when pub is non-nil, publishes each entry.
func NewHandler(out io.Writer, pub Publisher, level slog.Leveler) *Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &Handler{level: level, out: out, pub: pub, module: "app", mu: &sync.Mutex{}}
}

func (h *Handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	module := h.module
	var b strings.Builder
	b.WriteString(r.Message)
	b.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		if h.group == "" && a.Key == ModuleKey {
			module = a.Value.String()
			return true
		}
		writeAttr(&b, h.group, a)
		return true
	})

	// one entry per line
	msg := strings.ReplaceAll(b.String(), "\n", `\n`)
	line := FormatLine(r.Time, LevelName(r.Level), module, msg)

	h.mu.Lock()
	_, err := io.WriteString(h.out, line+"\n")
	h.mu.Unlock()

	if h.pub != nil {
		entry, _ := ParseLine(line)
		h.pub.PublishLog(entry)
	}
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		if h.group == "" && a.Key == ModuleKey {
			h2.module = a.Value.String()
			continue
		}
		writeAttr(&b, h.group, a)
	}
	h2.attrs = b.String()
	return &h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.group = h.group + name + "."
	return &h2
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(b, prefix+a.Key+".", ga)
		}
		return
	}
	val := a.Value.String()
	if strings.ContainsAny(val, " \t\n\"") {
		val = fmt.Sprintf("%q", val)
	}
	b.WriteString(" ")
	b.WriteString(prefix + a.Key)
	b.WriteString("=")
	b.WriteString(val)
}
