// Package source reads template text from files, stdin or HTTP, caching
// remote templates on disk.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
)

// ErrNotFound reports a template that does not exist, locally or remotely.
var ErrNotFound = errors.New("template not found")

// Loader resolves template references.
type Loader struct {
	// Cache serves http(s) references. Without one they are fetched
	// directly on every load.
	Cache  *Cache
	Stdin  io.Reader
	Logger *slog.Logger
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

// IsRemote reports whether ref is an http(s) URL.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Load returns the contents of ref: a file path, "-" for stdin, or an
// http(s) URL.
func (l *Loader) Load(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case ref == "-":
		in := l.Stdin
		if in == nil {
			in = os.Stdin
		}
		b, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return b, nil

	case IsRemote(ref):
		cache := l.Cache
		if cache == nil {
			tmp, err := os.MkdirTemp("", "condtag-fetch-")
			if err != nil {
				return nil, err
			}
			defer os.RemoveAll(tmp)
			cache = NewCache(tmp)
			cache.Logger = l.logger()
		}
		path, fromCache, err := cache.Get(ctx, ref)
		if err != nil {
			return nil, err
		}
		l.logger().Debug("loaded remote template", "url", ref, "from_cache", fromCache)
		return os.ReadFile(path)

	default:
		b, err := os.ReadFile(ref)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", ref, ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("reading template: %w", err)
		}
		return b, nil
	}
}
