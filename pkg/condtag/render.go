package condtag

import (
	"context"
	"log/slog"
	"strings"
)

// Renderer filters fragment sequences. The zero value is ready to use and
// logs to slog.Default(). A Renderer holds no per-render state and may be
// used from several goroutines.
type Renderer struct {
	Logger *slog.Logger
}

// NewRenderer returns a Renderer logging to logger.
func NewRenderer(logger *slog.Logger) *Renderer {
	return &Renderer{Logger: logger}
}

func (r *Renderer) logger() *slog.Logger {
	if r == nil || r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// Render filters items and concatenates the survivors. Deferred callables
// are invoked synchronously; one that returns a Promise fails with
// ErrPendingAsync.
func (r *Renderer) Render(items ...any) (string, error) {
	log := r.logger()
	log.Debug("rendering", "items", len(items))

	p, err := parse(items, log)
	if err != nil {
		return "", err
	}
	strs, err := resolveSync(p.output)
	if err != nil {
		return "", err
	}
	trim(strs, p.handled)
	return strings.Join(strs, ""), nil
}

// RenderAsync is like Render but invokes the surviving deferred callables
// concurrently and awaits any Promise they return before trimming and
// concatenating.
func (r *Renderer) RenderAsync(ctx context.Context, items ...any) (string, error) {
	log := r.logger()
	log.Debug("rendering (async)", "items", len(items))

	p, err := parse(items, log)
	if err != nil {
		return "", err
	}
	strs, err := resolveAsync(ctx, p.output)
	if err != nil {
		return "", err
	}
	trim(strs, p.handled)
	return strings.Join(strs, ""), nil
}

var defaultRenderer Renderer

// Render filters items with the default Renderer.
func Render(items ...any) (string, error) {
	return defaultRenderer.Render(items...)
}

// RenderAsync filters items with the default Renderer.
func RenderAsync(ctx context.Context, items ...any) (string, error) {
	return defaultRenderer.RenderAsync(ctx, items...)
}

// Interleave merges texts and values into one sequence
// [texts[0], values[0], texts[1], ...]. A host interpolation produces one
// more text than values; surplus entries on either side are appended in
// order.
func Interleave(texts []string, values []any) []any {
	out := make([]any, 0, len(texts)+len(values))
	n := max(len(texts), len(values))
	for i := 0; i < n; i++ {
		if i < len(texts) {
			out = append(out, texts[i])
		}
		if i < len(values) {
			out = append(out, values[i])
		}
	}
	return out
}
