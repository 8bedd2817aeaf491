package logging

import (
	"log/slog"
	"strings"
)

// NameTracer logs debug output for a fixed set of street or boundary names.
// Names are compared without any ":<k>" suffix, so tracing "Main St" also follows
// "Main St:2".
type NameTracer struct {
	names  map[string]struct{}
	logger *slog.Logger
}

// NewNameTracer traces the given names through logger (slog.Default when nil).
func NewNameTracer(names []string, logger *slog.Logger) *NameTracer {
	if logger == nil {
		logger = slog.Default()
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			set[n] = struct{}{}
		}
	}
	return &NameTracer{names: set, logger: logger.With("component", "trace")}
}

// Enabled reports whether name (or its base name) is traced.
func (t *NameTracer) Enabled(name string) bool {
	if len(t.names) == 0 {
		return false
	}
	if _, ok := t.names[name]; ok {
		return true
	}
	base, _, _ := strings.Cut(name, ":")
	_, ok := t.names[base]
	return ok
}

// Trace logs msg at info level when name is traced.
func (t *NameTracer) Trace(name, msg string, args ...any) {
	if !t.Enabled(name) {
		return
	}
	t.logger.Info(msg, append([]any{"name", name}, args...)...)
}
