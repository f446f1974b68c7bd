// Package fingerprint derives stable cache keys from arbitrary Go values.
//
// [Canonical] produces a deterministic textual encoding of a value:
// structurally equal values encode identically regardless of map iteration
// order or map/set member insertion order, while ordered sequences keep
// element order as part of their identity. Every encoded fragment carries a
// type tag, so the number 1 and the string "1" never collide.
//
// [Key] digests the canonical form with xxhash64 and hex-encodes the result.
// This is the form the cache layer indexes on. The digest is fast and
// process-local; it is not collision resistant in the cryptographic sense
// and must not be used where an adversary controls the input space.
//
// Both functions are total: they never panic and never return an error, for
// any input shape. Values with no stable external representation (functions,
// channels, unsafe pointers) collapse to a single shared sentinel token, so
// two different functions legitimately share a fingerprint. Cyclic
// structures terminate with a distinct cycle marker at the point of
// revisitation instead of recursing forever.
package fingerprint
