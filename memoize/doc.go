// Package memoize caches the results of deterministic computations keyed by
// their inputs.
//
// A Memoizer wraps a compute function behind a bounded store: the first call
// with a given receiver/argument combination runs the computation, later
// calls replay the stored result. Keys come from a cache.KeyDeriver, so two
// structurally equal argument lists land on the same entry even across
// processes when the digest deriver is used.
//
// Typed call sites go through the generic wrappers (Func, Func1, Method1,
// Getter and friends), which preserve the original signature:
//
//	lookup := memoize.Func1(m, func(ctx context.Context, id string) (*User, error) {
//		return repo.FindUser(ctx, id)
//	})
//	user, err := lookup(ctx, "u-42")
//
// Computation errors are never cached and propagate unchanged. When the
// Memoizer carries a persistent backend, persistence stays best-effort:
// backend failures are logged and swallowed, never surfaced to callers.
package memoize
