// Package cache provides a generic memoization cache for asynchronous
// loaders, plus the swappable store and rate-limited clear guard built on
// top of it.
//
// # Memoization Cache
//
// [New] wraps a [Loader] — any func(ctx, key) (value, error) — into a
// [Cache] whose [Cache.GetOrLoad] has the same observable success/failure
// behavior as the loader, differing only in latency and in how often the
// loader actually runs. Keys may be any Go value; they are indexed by their
// [github.com/jenny-s51/patternfly-mcp/fingerprint.Key], so structurally
// equal keys share an entry regardless of map ordering or pointer identity.
//
// Three policies govern residency, all fixed at construction:
//
//   - [WithCapacity] bounds the number of resident entries. Inserting past
//     the bound evicts the globally least-recently-used entry; recency is
//     updated by reads as well as writes. A full cache never fails — it
//     evicts.
//
//   - [WithTTL] sets a sliding expiration: every observation of an entry,
//     not just every write, pushes its deadline out by the full TTL. An
//     entry whose deadline has passed is indistinguishable from an absent
//     one.
//
//   - [WithCacheErrors] controls whether a failed load is retained. When
//     false (the default), a rejected entry is removed the instant it
//     settles, so the very next call retries the loader from scratch. When
//     true, the failure is served from cache until the TTL elapses.
//     Failures caused by context cancellation or deadline expiry are never
//     retained either way: they describe the caller's circumstances, not
//     the resource.
//
// Concurrent callers racing on one key collapse onto a single in-flight
// load: the first caller inserts a pending entry and runs the loader, later
// callers attach to the pending entry and wait for it to settle. The
// check-and-insert is a single atomic step under the instance mutex, so two
// racing callers can never both invoke the loader. Each cache instance has
// its own mutex; unrelated caches never contend.
//
// # Store and Clear Guard
//
// [Store] owns the URL-scoped and file-scoped document caches behind one
// swappable handle. Clearing a scope constructs a fresh, empty cache with
// identical configuration and swaps it in; the old instance is never
// mutated, so loads still in flight against it settle harmlessly into a
// discarded generation instead of leaking into the cleared one.
//
// [ClearGuard] rate-limits clearing. Inside the cooldown window
// [ClearGuard.TryClear] fails with a [CooldownError] carrying the remaining
// wait; otherwise it performs the swap and stamps the clear time.
package cache
