package cache

import (
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-memoize/canonical"
)

type account struct {
	ID      string
	Balance int
}

func TestDigestKeyDeriverDeterminism(t *testing.T) {
	deriver := NewDigestKeyDeriver(KeyContextSensitive, nil)
	recv := &account{ID: "a-1", Balance: 100}
	args := []any{"statement", 2025}

	first, err := deriver.DeriveKey(recv, args)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := deriver.DeriveKey(&account{ID: "a-1", Balance: 100}, []any{"statement", 2025})
		if err != nil {
			t.Fatalf("DeriveKey: %v", err)
		}
		if again != first {
			t.Fatalf("key drifted on iteration %d: %s vs %s", i, again, first)
		}
	}
	if len(first) != 128 {
		t.Fatalf("expected 128 hex chars, got %d", len(first))
	}
}

func TestDigestKeyDeriverModes(t *testing.T) {
	recvA := &account{ID: "a-1"}
	recvB := &account{ID: "b-2"}
	args := []any{"balance"}

	t.Run("context sensitive separates receivers", func(t *testing.T) {
		deriver := NewDigestKeyDeriver(KeyContextSensitive, nil)
		keyA, err := deriver.DeriveKey(recvA, args)
		if err != nil {
			t.Fatalf("DeriveKey: %v", err)
		}
		keyB, err := deriver.DeriveKey(recvB, args)
		if err != nil {
			t.Fatalf("DeriveKey: %v", err)
		}
		if keyA == keyB {
			t.Fatal("expected distinct receivers to produce distinct keys")
		}
	})

	t.Run("args only ignores receiver", func(t *testing.T) {
		deriver := NewDigestKeyDeriver(KeyArgsOnly, nil)
		keyA, err := deriver.DeriveKey(recvA, args)
		if err != nil {
			t.Fatalf("DeriveKey: %v", err)
		}
		keyB, err := deriver.DeriveKey(recvB, args)
		if err != nil {
			t.Fatalf("DeriveKey: %v", err)
		}
		if keyA != keyB {
			t.Fatal("expected args-only keys to coincide across receivers")
		}

		keyC, err := deriver.DeriveKey(recvA, []any{"history"})
		if err != nil {
			t.Fatalf("DeriveKey: %v", err)
		}
		if keyC == keyA {
			t.Fatal("expected different args to produce a different key")
		}
	})

	t.Run("constant collapses everything", func(t *testing.T) {
		deriver := NewDigestKeyDeriver(KeyConstant, nil)
		keyA, err := deriver.DeriveKey(recvA, args)
		if err != nil {
			t.Fatalf("DeriveKey: %v", err)
		}
		keyB, err := deriver.DeriveKey(recvB, []any{"anything", 1, 2, 3})
		if err != nil {
			t.Fatalf("DeriveKey: %v", err)
		}
		if keyA != "" || keyB != "" {
			t.Fatalf("expected empty constant keys, got %q and %q", keyA, keyB)
		}
	})
}

func TestDigestKeyDeriverArgumentSensitivity(t *testing.T) {
	deriver := NewDigestKeyDeriver(KeyArgsOnly, nil)

	tests := []struct {
		name string
		a    []any
		b    []any
	}{
		{"different values", []any{1}, []any{2}},
		{"different arity", []any{1}, []any{1, 1}},
		{"type matters", []any{int64(1)}, []any{"1"}},
		{"order matters", []any{"x", "y"}, []any{"y", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keyA, err := deriver.DeriveKey(nil, tt.a)
			if err != nil {
				t.Fatalf("DeriveKey(a): %v", err)
			}
			keyB, err := deriver.DeriveKey(nil, tt.b)
			if err != nil {
				t.Fatalf("DeriveKey(b): %v", err)
			}
			if keyA == keyB {
				t.Fatal("expected distinct keys")
			}
		})
	}
}

func TestDigestKeyDeriverCyclicArgs(t *testing.T) {
	deriver := NewDigestKeyDeriver(KeyArgsOnly, nil)

	graph := map[string]any{"name": "root"}
	graph["self"] = graph

	key, err := deriver.DeriveKey(nil, []any{graph})
	if err != nil {
		t.Fatalf("DeriveKey on cyclic args: %v", err)
	}

	again := map[string]any{"name": "root"}
	again["self"] = again
	key2, err := deriver.DeriveKey(nil, []any{again})
	if err != nil {
		t.Fatalf("DeriveKey on cyclic args: %v", err)
	}
	if key != key2 {
		t.Fatal("expected structurally equal cyclic args to share a key")
	}
}

func TestDigestKeyDeriverNonEncodable(t *testing.T) {
	deriver := NewDigestKeyDeriver(KeyArgsOnly, nil)

	_, err := deriver.DeriveKey(nil, []any{func() {}})
	if err == nil {
		t.Fatal("expected error for non-encodable argument")
	}
	if !errors.Is(err, canonical.ErrNonEncodable) {
		t.Fatalf("expected ErrNonEncodable, got %v", err)
	}
	var nonEnc *canonical.NonEncodableError
	if !errors.As(err, &nonEnc) {
		t.Fatalf("expected NonEncodableError, got %T", err)
	}
}

func TestFastKeyDeriver(t *testing.T) {
	deriver := NewFastKeyDeriver(KeyArgsOnly, nil)

	key, err := deriver.DeriveKey(nil, []any{"report", 7})
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	parts := strings.SplitN(key, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		t.Fatalf("expected length:hash shape, got %q", key)
	}

	again, err := deriver.DeriveKey(nil, []any{"report", 7})
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	if again != key {
		t.Fatal("expected deterministic fast keys")
	}

	other, err := deriver.DeriveKey(nil, []any{"report", 8})
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	if other == key {
		t.Fatal("expected different args to produce a different fast key")
	}
}

func TestFastKeyDeriverConstantMode(t *testing.T) {
	deriver := NewFastKeyDeriver(KeyConstant, nil)
	key, err := deriver.DeriveKey(&account{ID: "x"}, []any{1, 2})
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	if key != "" {
		t.Fatalf("expected empty constant key, got %q", key)
	}
}

func TestKeyDeriverCustomRegistry(t *testing.T) {
	type money struct {
		amount   int64
		currency string
	}

	registry := canonical.DefaultRegistry().With("Money", canonical.Codec{
		Match: func(v any) bool {
			_, ok := v.(money)
			return ok
		},
		Decompose: func(v any) ([]any, error) {
			m := v.(money)
			return []any{m.amount, m.currency}, nil
		},
		Populate: func(_ any, parts []any) (any, error) {
			return money{
				amount:   parts[0].(int64),
				currency: parts[1].(string),
			}, nil
		},
	})

	deriver := NewDigestKeyDeriver(KeyArgsOnly, registry)
	key, err := deriver.DeriveKey(nil, []any{money{amount: 100, currency: "USD"}})
	if err != nil {
		t.Fatalf("DeriveKey with custom registry: %v", err)
	}
	if len(key) != 128 {
		t.Fatalf("expected digest-shaped key, got %q", key)
	}
}
