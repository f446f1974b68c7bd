package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(urlCalls, fileCalls *int32) *Store {
	return NewStore(
		func() *DocumentCache {
			return New(func(_ context.Context, key string) (string, error) {
				atomic.AddInt32(urlCalls, 1)
				return "url:" + key, nil
			})
		},
		func() *DocumentCache {
			return New(func(_ context.Context, key string) (string, error) {
				atomic.AddInt32(fileCalls, 1)
				return "file:" + key, nil
			})
		},
	)
}

func TestParseScope(t *testing.T) {
	for in, want := range map[string]Scope{
		"":     ScopeAll,
		"all":  ScopeAll,
		"url":  ScopeURL,
		"file": ScopeFile,
	} {
		got, err := ParseScope(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseScope("disk")
	assert.ErrorIs(t, err, ErrUnknownScope)
}

func TestStoreClearSwapsSelectedScope(t *testing.T) {
	ctx := context.Background()
	var urlCalls, fileCalls int32
	s := newTestStore(&urlCalls, &fileCalls)

	_, err := s.URLs().GetOrLoad(ctx, "https://example.com/a")
	require.NoError(t, err)
	_, err = s.Files().GetOrLoad(ctx, "guide.md")
	require.NoError(t, err)

	before := s.Files()
	s.Clear(ScopeURL)
	assert.Equal(t, 0, s.URLs().Len())
	assert.Same(t, before, s.Files())
	assert.Equal(t, 1, s.Files().Len())

	s.Clear(ScopeAll)
	assert.Equal(t, 0, s.Files().Len())
}

func TestStaleLoadSettlesIntoOldGeneration(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	s := NewStore(
		func() *DocumentCache {
			return New(func(_ context.Context, key string) (string, error) {
				<-release
				return "slow", nil
			})
		},
		func() *DocumentCache {
			return New(func(_ context.Context, key string) (string, error) {
				return "file", nil
			})
		},
	)

	old := s.URLs()
	done := make(chan error, 1)
	go func() {
		_, err := old.GetOrLoad(ctx, "https://example.com/slow")
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)

	s.Clear(ScopeURL)
	close(release)
	require.NoError(t, <-done)

	// The pending load finished against the discarded generation only.
	assert.Equal(t, 1, old.Len())
	assert.Equal(t, 0, s.URLs().Len())
}

func TestClearGuardCooldown(t *testing.T) {
	var urlCalls, fileCalls int32
	s := newTestStore(&urlCalls, &fileCalls)
	g := NewClearGuard(s, 5*time.Second)

	now := time.Now()
	g.now = func() time.Time { return now }

	require.NoError(t, g.TryClear(ScopeAll))

	now = now.Add(time.Second)
	err := g.TryClear(ScopeAll)
	require.Error(t, err)
	var cooldown *CooldownError
	require.True(t, errors.As(err, &cooldown))
	assert.Equal(t, int64(4), cooldown.RemainingSeconds())
	assert.Contains(t, err.Error(), "try again in 4s")

	now = now.Add(5 * time.Second)
	require.NoError(t, g.TryClear(ScopeAll))
}

func TestClearGuardCooldownRoundsUp(t *testing.T) {
	var urlCalls, fileCalls int32
	g := NewClearGuard(newTestStore(&urlCalls, &fileCalls), 5*time.Second)

	now := time.Now()
	g.now = func() time.Time { return now }
	require.NoError(t, g.TryClear(ScopeAll))

	// 4.2s remaining rounds up to 5 for display.
	now = now.Add(800 * time.Millisecond)
	err := g.TryClear(ScopeAll)
	var cooldown *CooldownError
	require.True(t, errors.As(err, &cooldown))
	assert.Equal(t, int64(5), cooldown.RemainingSeconds())
}

func TestClearGuardDefaultCooldown(t *testing.T) {
	var urlCalls, fileCalls int32
	g := NewClearGuard(newTestStore(&urlCalls, &fileCalls), 0)
	assert.Equal(t, DefaultClearCooldown, g.cooldown)
}
