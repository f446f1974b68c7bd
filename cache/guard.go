package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

// DefaultClearCooldown is the minimum interval between successive cache
// clears when the guard is built with a non-positive cooldown.
const DefaultClearCooldown = 5 * time.Second

// Scope selects which document cache a clear applies to.
type Scope string

const (
	ScopeURL  Scope = "url"
	ScopeFile Scope = "file"
	ScopeAll  Scope = "all"
)

// ErrUnknownScope is returned by ParseScope for anything other than "url",
// "file", or "all".
var ErrUnknownScope = errors.New("cache: unknown clear scope")

// ParseScope validates a scope string from the protocol layer. The empty
// string means ScopeAll.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "":
		return ScopeAll, nil
	case ScopeURL, ScopeFile, ScopeAll:
		return Scope(s), nil
	}
	return "", errors.Wrapf(ErrUnknownScope, "%q", s)
}

// DocumentCache is the concrete cache shape used for document content:
// identifier in, document text out.
type DocumentCache = Cache[string, string]

// Store owns the URL-scoped and file-scoped document caches behind one
// swappable handle. Clearing replaces an instance with a freshly built one
// of identical configuration rather than mutating it, so loads in flight
// against the old generation cannot leak entries into the new one.
type Store struct {
	mu       sync.RWMutex
	urls     *DocumentCache
	files    *DocumentCache
	newURLs  func() *DocumentCache
	newFiles func() *DocumentCache
}

// NewStore builds a Store from two cache constructors. The constructors are
// retained and reused on every clear.
func NewStore(newURLs, newFiles func() *DocumentCache) *Store {
	return &Store{
		urls:     newURLs(),
		files:    newFiles(),
		newURLs:  newURLs,
		newFiles: newFiles,
	}
}

// URLs returns the current URL-scoped cache generation.
func (s *Store) URLs() *DocumentCache {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.urls
}

// Files returns the current file-scoped cache generation.
func (s *Store) Files() *DocumentCache {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.files
}

// Clear swaps the caches selected by scope for fresh, empty instances.
func (s *Store) Clear(scope Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if scope == ScopeURL || scope == ScopeAll {
		s.urls = s.newURLs()
	}
	if scope == ScopeFile || scope == ScopeAll {
		s.files = s.newFiles()
	}
}

// CooldownError reports a clear attempted inside the cooldown window.
type CooldownError struct {
	// Remaining is the exact wait until the next clear is allowed.
	Remaining time.Duration
}

// RemainingSeconds is Remaining rounded up to whole seconds, the form shown
// to callers.
func (e *CooldownError) RemainingSeconds() int64 {
	return int64((e.Remaining + time.Second - 1) / time.Second)
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cache was cleared recently, try again in %ds", e.RemainingSeconds())
}

// ClearGuard rate-limits cache clears. It is process-wide state with no
// teardown beyond process exit.
type ClearGuard struct {
	store    *Store
	cooldown time.Duration
	now      func() time.Time

	mu          sync.Mutex
	lastClearAt time.Time
}

// NewClearGuard wraps store with a cooldown. A non-positive cooldown falls
// back to DefaultClearCooldown.
func NewClearGuard(store *Store, cooldown time.Duration) *ClearGuard {
	if cooldown <= 0 {
		cooldown = DefaultClearCooldown
	}
	return &ClearGuard{store: store, cooldown: cooldown, now: time.Now}
}

// TryClear clears the caches selected by scope, unless a previous clear
// happened inside the cooldown window, in which case it returns a
// *CooldownError carrying the remaining wait.
func (g *ClearGuard) TryClear(scope Scope) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if !g.lastClearAt.IsZero() {
		if elapsed := now.Sub(g.lastClearAt); elapsed < g.cooldown {
			return &CooldownError{Remaining: g.cooldown - elapsed}
		}
	}
	g.store.Clear(scope)
	g.lastClearAt = now
	return nil
}
