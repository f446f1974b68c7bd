package docs

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// DefaultFetchTimeout bounds a single remote fetch when no timeout is
// configured.
const DefaultFetchTimeout = 15 * time.Second

// ErrOutsideRoot is returned for local paths that resolve outside the
// configured document root.
var ErrOutsideRoot = errors.New("docs: path escapes the document root")

// Fetcher retrieves remote documentation over HTTP. Each fetch is bounded
// by the configured timeout; exceeding it aborts the request and surfaces
// as an ordinary load failure.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
}

// NewFetcher returns a Fetcher with the given per-request timeout. A
// non-positive timeout falls back to DefaultFetchTimeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Fetcher{client: &http.Client{}, timeout: timeout}
}

// Fetch GETs url and returns the response body as text.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Wrapf(err, "building request for %s", url)
	}
	req.Header.Set("User-Agent", "patternfly-mcp")
	resp, err := f.client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "fetching %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", errors.Newf("fetching %s: unexpected status %s", url, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrapf(err, "reading response from %s", url)
	}
	return string(body), nil
}

// Reader reads local documentation files. When built with a root, every
// path is resolved under it and anything escaping the root is rejected.
// An empty root reads paths as given.
type Reader struct {
	root string
}

// NewReader returns a Reader confined to root, or unconfined if root is
// empty.
func NewReader(root string) *Reader {
	return &Reader{root: root}
}

// Read returns the content of the file at path.
func (r *Reader) Read(_ context.Context, path string) (string, error) {
	full := filepath.Clean(path)
	if r.root != "" {
		full = filepath.Join(r.root, path)
		rel, err := filepath.Rel(r.root, full)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", errors.Wrapf(ErrOutsideRoot, "%q", path)
		}
	}
	buf, err := os.ReadFile(full)
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", path)
	}
	return string(buf), nil
}
