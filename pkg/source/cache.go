package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Cache is a persistent HTTP cache for remote templates with
// ETag/Last-Modified revalidation.
type Cache struct {
	Dir    string
	Client *http.Client
	// Attempts is the number of full fetches tried before giving up.
	Attempts int
	// Backoff is the delay before the second attempt; it doubles after
	// every failure.
	Backoff time.Duration
	Logger  *slog.Logger
}

// NewCache returns a Cache in dir with a reasonable default HTTP client.
func NewCache(dir string) *Cache {
	return &Cache{
		Dir:      dir,
		Client:   &http.Client{Timeout: 30 * time.Second},
		Attempts: 3,
		Backoff:  2 * time.Second,
	}
}

type meta struct {
	URL          string `json:"url"`
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	// DataFile is the basename of the cached payload file
	DataFile string `json:"data_file"`
}

func (c *Cache) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// statusError is a non-success HTTP response.
type statusError struct {
	code int
}

func (e *statusError) Error() string { return fmt.Sprintf("HTTP %d", e.code) }

func (e *statusError) retryable() bool { return e.code >= 500 || e.code == http.StatusTooManyRequests }

// Get fetches url through the cache and returns the local path of the
// payload. A valid cached copy is revalidated with a conditional GET and
// reused when the server answers 304 or cannot be reached.
// Returns (path, fromCache, error).
func (c *Cache) Get(ctx context.Context, url string) (string, bool, error) {
	log := c.logger()
	key := hash(url)
	mpath := filepath.Join(c.Dir, key+".json")
	dpath := filepath.Join(c.Dir, key+".data")

	m, haveMeta := readMeta(mpath, url, c.Dir)
	if haveMeta {
		path, fresh, err := c.revalidate(ctx, url, m, mpath, dpath)
		if err == nil {
			return path, fresh, nil
		}
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return "", false, fmt.Errorf("%s: %w", url, ErrNotFound)
		}
		// Network or server failure: the cached copy is better than nothing.
		log.Warn("revalidation failed, using cached template", "url", url, "error", err)
		return filepath.Join(c.Dir, m.DataFile), true, nil
	}

	attempts := max(c.Attempts, 1)
	backoff := c.Backoff
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			log.Debug("retrying template fetch", "url", url, "attempt", attempt+1, "error", lastErr)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", false, ctx.Err()
			}
			backoff *= 2
		}
		lastErr = c.fetch(ctx, url, nil, mpath, dpath)
		if lastErr == nil {
			return dpath, false, nil
		}
		var se *statusError
		if errors.As(lastErr, &se) {
			if se.code == http.StatusNotFound {
				return "", false, fmt.Errorf("%s: %w", url, ErrNotFound)
			}
			if !se.retryable() {
				break
			}
		}
	}
	return "", false, fmt.Errorf("fetching %s: %w", url, lastErr)
}

// revalidate issues a conditional GET for a cached entry.
func (c *Cache) revalidate(ctx context.Context, url string, m meta, mpath, dpath string) (string, bool, error) {
	h := http.Header{}
	if m.ETag != "" {
		h.Set("If-None-Match", m.ETag)
	}
	if m.LastModified != "" {
		h.Set("If-Modified-Since", m.LastModified)
	}
	err := c.fetch(ctx, url, h, mpath, dpath)
	if errors.Is(err, errNotModified) {
		c.logger().Debug("template not modified", "url", url)
		return filepath.Join(c.Dir, m.DataFile), true, nil
	}
	if err != nil {
		return "", false, err
	}
	return dpath, false, nil
}

var errNotModified = errors.New("not modified")

// fetch performs one GET and stores a successful body and its validators.
func (c *Cache) fetch(ctx context.Context, url string, h http.Header, mpath, dpath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	for k, v := range h {
		req.Header[k] = v
	}
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return errNotModified
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &statusError{code: resp.StatusCode}
	}

	if err := streamToFile(resp.Body, dpath, 0o644); err != nil {
		return err
	}
	return writeMeta(mpath, meta{
		URL:          url,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
		DataFile:     filepath.Base(dpath),
	})
}

func readMeta(path, url, dir string) (meta, bool) {
	var m meta
	b, err := os.ReadFile(path)
	if err != nil {
		return m, false
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, false
	}
	if m.URL != url || m.DataFile == "" || !fileExists(filepath.Join(dir, m.DataFile)) {
		return m, false
	}
	return m, true
}

func streamToFile(r io.Reader, dst string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp := dst + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

func writeMeta(path string, m meta) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
