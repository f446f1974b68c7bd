package docs

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/jenny-s51/patternfly-mcp/cache"
	"github.com/jenny-s51/patternfly-mcp/logger"
)

// separator joins rendered documents in the aggregate output.
const separator = "\n\n---\n\n"

// ErrNoSources is returned when the identifier list is empty after
// trimming and deduplication.
var ErrNoSources = errors.New("docs: no sources to load")

var urlPattern = regexp.MustCompile(`^https?://`)

// Config assembles an Aggregator. Zero fields get working defaults.
type Config struct {
	// Fetcher loads url identifiers. Defaults to NewFetcher(0).
	Fetcher *Fetcher
	// Reader loads local-path identifiers. Defaults to an unconfined
	// NewReader("").
	Reader *Reader
	// Sources resolves bare names before classification. Defaults to
	// DefaultSourceTable.
	Sources *SourceTable
	// URLCacheOptions configure the url-scoped cache generations.
	URLCacheOptions []cache.Option
	// FileCacheOptions configure the file-scoped cache generations.
	FileCacheOptions []cache.Option
	// Logger defaults to a console logger.
	Logger logger.Logger
}

// Aggregator loads batches of documentation identifiers through the
// document caches.
type Aggregator struct {
	store   *cache.Store
	sources *SourceTable
	log     logger.Logger
}

// NewAggregator wires the loaders into a cache store and returns the
// aggregator on top of it.
func NewAggregator(cfg Config) *Aggregator {
	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = NewFetcher(0)
	}
	reader := cfg.Reader
	if reader == nil {
		reader = NewReader("")
	}
	sources := cfg.Sources
	if sources == nil {
		sources = DefaultSourceTable()
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewConsoleLogger()
	}
	store := cache.NewStore(
		func() *cache.DocumentCache {
			return cache.New(cache.Loader[string, string](fetcher.Fetch), cfg.URLCacheOptions...)
		},
		func() *cache.DocumentCache {
			return cache.New(cache.Loader[string, string](reader.Read), cfg.FileCacheOptions...)
		},
	)
	return &Aggregator{
		store:   store,
		sources: sources,
		log:     log.WithPrefix("[docs]"),
	}
}

// Store exposes the document cache store, for the clear guard.
func (a *Aggregator) Store() *cache.Store {
	return a.store
}

// Sources exposes the source table, for the listing operation.
func (a *Aggregator) Sources() *SourceTable {
	return a.sources
}

// LoadAll loads every identifier concurrently and renders the outcomes into
// one string, joined in input order. Identifiers are trimmed, empties are
// dropped, and later repeats of an identifier are dropped in favor of its
// first occurrence. Per-item failures are rendered inline; the batch itself
// only fails when nothing is left to load.
func (a *Aggregator) LoadAll(ctx context.Context, identifiers []string) (string, error) {
	ids := normalize(identifiers)
	if len(ids) == 0 {
		return "", ErrNoSources
	}

	parts := make([]string, len(ids))
	var g errgroup.Group
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			parts[i] = a.loadOne(ctx, id)
			return nil
		})
	}
	// Workers capture failures as rendered output and never return errors,
	// so one identifier cannot cancel its siblings.
	_ = g.Wait()

	return strings.Join(parts, separator), nil
}

// loadOne resolves, classifies, and loads a single identifier, rendering
// either the document or a failure marker.
func (a *Aggregator) loadOne(ctx context.Context, id string) string {
	location := id
	if loc, ok := a.sources.Resolve(id); ok {
		location = loc
	}
	var text string
	var err error
	if urlPattern.MatchString(location) {
		text, err = a.store.URLs().GetOrLoad(ctx, location)
	} else {
		text, err = a.store.Files().GetOrLoad(ctx, location)
	}
	if err != nil {
		a.log.Warn("failed to load %s: %s", id, err)
		return renderFailure(id, err)
	}
	a.log.Debug("loaded %s (%d bytes)", id, len(text))
	return renderDocument(id, text)
}

func renderDocument(id, text string) string {
	return fmt.Sprintf("# Documentation from %s\n\n%s", id, strings.TrimRight(text, "\n"))
}

func renderFailure(id string, err error) string {
	return fmt.Sprintf("# Error loading %s\n\n%v", id, err)
}

// normalize trims, drops empties, and deduplicates preserving
// first-occurrence order.
func normalize(identifiers []string) []string {
	seen := make(map[string]struct{}, len(identifiers))
	out := make([]string, 0, len(identifiers))
	for _, id := range identifiers {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
