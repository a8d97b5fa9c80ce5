package memoize

import (
	"context"
	"fmt"
)

// ResultTypeError reports a cached value whose dynamic type does not match
// the wrapper's result type. It indicates two wrappers with different result
// types sharing a Memoizer and colliding on a key.
type ResultTypeError struct {
	Key  string
	Want string
	Got  string
}

// Error implements the error interface.
func (e *ResultTypeError) Error() string {
	return fmt.Sprintf("memoize: cached value under %q is %s, want %s", e.Key, e.Got, e.Want)
}

// assertResult narrows the untyped cache value back to the wrapper's result
// type. A nil cached value maps to the zero value, which is how typed nil
// results (nil slices, nil pointers) come back out of the store.
func assertResult[R any](key string, value any, err error) (R, error) {
	var zero R
	if err != nil {
		return zero, err
	}
	if value == nil {
		return zero, nil
	}
	result, ok := value.(R)
	if !ok {
		return zero, &ResultTypeError{
			Key:  key,
			Want: fmt.Sprintf("%T", zero),
			Got:  fmt.Sprintf("%T", value),
		}
	}
	return result, nil
}

func call[R any](m *Memoizer, ctx context.Context, receiver any, args []any, compute func(context.Context) (R, error)) (R, error) {
	key, value, err := m.do(ctx, receiver, args, func(ctx context.Context) (any, error) {
		return compute(ctx)
	})
	return assertResult[R](key, value, err)
}

// Func memoizes a no-argument computation. Every call shares one entry.
func Func[R any](m *Memoizer, fn func(context.Context) (R, error)) func(context.Context) (R, error) {
	return func(ctx context.Context) (R, error) {
		return call(m, ctx, nil, nil, fn)
	}
}

// Func1 memoizes a single-argument function.
func Func1[A, R any](m *Memoizer, fn func(context.Context, A) (R, error)) func(context.Context, A) (R, error) {
	return func(ctx context.Context, a A) (R, error) {
		return call(m, ctx, nil, []any{a}, func(ctx context.Context) (R, error) {
			return fn(ctx, a)
		})
	}
}

// Func2 memoizes a two-argument function.
func Func2[A, B, R any](m *Memoizer, fn func(context.Context, A, B) (R, error)) func(context.Context, A, B) (R, error) {
	return func(ctx context.Context, a A, b B) (R, error) {
		return call(m, ctx, nil, []any{a, b}, func(ctx context.Context) (R, error) {
			return fn(ctx, a, b)
		})
	}
}

// Func3 memoizes a three-argument function.
func Func3[A, B, C, R any](m *Memoizer, fn func(context.Context, A, B, C) (R, error)) func(context.Context, A, B, C) (R, error) {
	return func(ctx context.Context, a A, b B, c C) (R, error) {
		return call(m, ctx, nil, []any{a, b, c}, func(ctx context.Context) (R, error) {
			return fn(ctx, a, b, c)
		})
	}
}

// Getter memoizes a no-argument method. The receiver feeds the key, so two
// receivers never share an entry under the context-sensitive mode.
func Getter[T, R any](m *Memoizer, fn func(context.Context, T) (R, error)) func(context.Context, T) (R, error) {
	return func(ctx context.Context, recv T) (R, error) {
		return call(m, ctx, recv, nil, func(ctx context.Context) (R, error) {
			return fn(ctx, recv)
		})
	}
}

// Method1 memoizes a single-argument method.
func Method1[T, A, R any](m *Memoizer, fn func(context.Context, T, A) (R, error)) func(context.Context, T, A) (R, error) {
	return func(ctx context.Context, recv T, a A) (R, error) {
		return call(m, ctx, recv, []any{a}, func(ctx context.Context) (R, error) {
			return fn(ctx, recv, a)
		})
	}
}

// Method2 memoizes a two-argument method.
func Method2[T, A, B, R any](m *Memoizer, fn func(context.Context, T, A, B) (R, error)) func(context.Context, T, A, B) (R, error) {
	return func(ctx context.Context, recv T, a A, b B) (R, error) {
		return call(m, ctx, recv, []any{a, b}, func(ctx context.Context) (R, error) {
			return fn(ctx, recv, a, b)
		})
	}
}
