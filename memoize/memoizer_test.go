package memoize

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-memoize/cache"
	"github.com/goliatone/go-memoize/pkg/testsupport"
)

type report struct {
	Lines []string
}

func newMemoizer(t *testing.T, cfg Config) *Memoizer {
	t.Helper()
	m, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	if _, err := New(Config{MaxEntries: 0}); err == nil {
		t.Fatal("expected validation error for zero MaxEntries")
	}
}

func TestDoCachesByArguments(t *testing.T) {
	m := newMemoizer(t, Config{MaxEntries: 16, Mode: cache.KeyArgsOnly})
	ctx := context.Background()

	var calls int32
	compute := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return &report{Lines: []string{"a"}}, nil
	}

	first, err := m.Do(ctx, nil, []any{"q", 1}, compute)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	second, err := m.Do(ctx, nil, []any{"q", 1}, compute)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}

	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected 1 computation, got %d", calls)
	}
	// The cached value is the same object, not a copy.
	if first.(*report) != second.(*report) {
		t.Fatal("expected the identical cached result on a hit")
	}

	if _, err := m.Do(ctx, nil, []any{"q", 2}, compute); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected new args to recompute, got %d calls", calls)
	}
}

func TestDoNeverCachesErrors(t *testing.T) {
	m := newMemoizer(t, Config{MaxEntries: 16, Mode: cache.KeyArgsOnly})
	ctx := context.Background()

	boom := errors.New("upstream unavailable")
	var calls int
	flaky := func(ctx context.Context) (any, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return "recovered", nil
	}

	if _, err := m.Do(ctx, nil, []any{"k"}, flaky); !errors.Is(err, boom) {
		t.Fatalf("expected the computation error unchanged, got %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("expected no entry after a failed computation, got %d", m.Len())
	}

	got, err := m.Do(ctx, nil, []any{"k"}, flaky)
	if err != nil {
		t.Fatalf("Do after failure: %v", err)
	}
	if got != "recovered" {
		t.Fatalf("expected the retry's result, got %v", got)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestDoEvictionRecomputes(t *testing.T) {
	m := newMemoizer(t, Config{MaxEntries: 2, Mode: cache.KeyArgsOnly})
	ctx := context.Background()

	var calls int
	compute := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}

	for _, arg := range []int{1, 2, 3} {
		if _, err := m.Do(ctx, nil, []any{arg}, compute); err != nil {
			t.Fatalf("Do: %v", err)
		}
	}

	// Entry for 1 was the oldest-inserted and is gone.
	if _, err := m.Do(ctx, nil, []any{1}, compute); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 4 {
		t.Fatalf("expected eviction to force a recompute, got %d calls", calls)
	}
}

func TestDoNegativeTTLDisablesCaching(t *testing.T) {
	m := newMemoizer(t, Config{MaxEntries: 16, TTL: -1, Mode: cache.KeyArgsOnly})
	ctx := context.Background()

	var calls int
	compute := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}

	for i := 0; i < 3; i++ {
		if _, err := m.Do(ctx, nil, []any{"same"}, compute); err != nil {
			t.Fatalf("Do: %v", err)
		}
	}
	if calls != 3 {
		t.Fatalf("expected every call to compute, got %d", calls)
	}
}

func TestDoTTLExpiry(t *testing.T) {
	m := newMemoizer(t, Config{MaxEntries: 16, TTL: 30 * time.Millisecond, Mode: cache.KeyArgsOnly})
	ctx := context.Background()

	var calls int
	compute := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}

	if _, err := m.Do(ctx, nil, []any{"k"}, compute); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if _, err := m.Do(ctx, nil, []any{"k"}, compute); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a hit within the TTL, got %d calls", calls)
	}

	time.Sleep(60 * time.Millisecond)

	if _, err := m.Do(ctx, nil, []any{"k"}, compute); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected the expired entry to recompute, got %d calls", calls)
	}
}

func TestDoReceiversAreIsolated(t *testing.T) {
	m := newMemoizer(t, Config{MaxEntries: 16, MaxReceivers: 8})
	ctx := context.Background()

	type session struct{ ID string }
	alice := &session{ID: "alice"}
	bob := &session{ID: "bob"}

	var calls int
	compute := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}

	a1, err := m.Do(ctx, alice, []any{"profile"}, compute)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	b1, err := m.Do(ctx, bob, []any{"profile"}, compute)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if a1 == b1 {
		t.Fatal("expected distinct receivers to compute separately")
	}

	a2, err := m.Do(ctx, alice, []any{"profile"}, compute)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if a2 != a1 {
		t.Fatal("expected a hit for the same receiver")
	}
	if calls != 2 {
		t.Fatalf("expected 2 computations, got %d", calls)
	}
}

func TestDoReceiverStoresReachBackend(t *testing.T) {
	backend := testsupport.NewFakeBackend()
	ctx := context.Background()

	type session struct{ ID string }

	var calls int
	compute := func(ctx context.Context) (any, error) {
		calls++
		return "profile-data", nil
	}

	m := newMemoizer(t, Config{
		MaxEntries:   16,
		MaxReceivers: 8,
		Backend:      backend,
		Namespace:    "sessions",
	})
	if _, err := m.Do(ctx, &session{ID: "alice"}, []any{"profile"}, compute); err != nil {
		t.Fatalf("Do: %v", err)
	}
	m.Flush()

	persists, _, _ := backend.Calls()
	if persists != 1 {
		t.Fatalf("expected the receiver-bound entry to persist, got %d persist calls", persists)
	}

	// A fresh memoizer over the same backend warms from it: the receiver is
	// a new allocation with the same state, so it derives the same key.
	warm := newMemoizer(t, Config{
		MaxEntries:   16,
		MaxReceivers: 8,
		Backend:      backend,
		Namespace:    "sessions",
	})
	got, err := warm.Do(ctx, &session{ID: "alice"}, []any{"profile"}, compute)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got != "profile-data" {
		t.Fatalf("expected the persisted value, got %v", got)
	}
	if calls != 1 {
		t.Fatalf("expected the warm restart to skip the computation, got %d calls", calls)
	}
}

func TestDoConstantMode(t *testing.T) {
	m := newMemoizer(t, Config{MaxEntries: 16, Mode: cache.KeyConstant})
	ctx := context.Background()

	var calls int
	compute := func(ctx context.Context) (any, error) {
		calls++
		return "singleton", nil
	}

	if _, err := m.Do(ctx, "recv-a", []any{1}, compute); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if _, err := m.Do(ctx, "recv-b", []any{2, 3}, compute); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one computation ever, got %d", calls)
	}
}

func TestDoNonEncodableArgs(t *testing.T) {
	m := newMemoizer(t, Config{MaxEntries: 16, Mode: cache.KeyArgsOnly})

	_, err := m.Do(context.Background(), nil, []any{func() {}}, func(ctx context.Context) (any, error) {
		t.Fatal("compute must not run when key derivation fails")
		return nil, nil
	})
	if err == nil {
		t.Fatal("expected key derivation error")
	}
}

func TestSingleFlightCollapsesConcurrentMisses(t *testing.T) {
	m := newMemoizer(t, Config{MaxEntries: 16, Mode: cache.KeyArgsOnly, SingleFlight: true})
	ctx := context.Background()

	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	compute := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		close(started)
		<-release
		return "shared", nil
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make([]any, workers)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = m.Do(ctx, nil, []any{"hot"}, compute)
	}()
	<-started

	for i := 1; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = m.Do(ctx, nil, []any{"hot"}, compute)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected one computation under single-flight, got %d", got)
	}
	for i, r := range results {
		if r != "shared" {
			t.Fatalf("worker %d got %v", i, r)
		}
	}
}

func TestKeysAndInvalidate(t *testing.T) {
	m := newMemoizer(t, Config{MaxEntries: 16, Mode: cache.KeyArgsOnly})
	ctx := context.Background()

	var calls int
	compute := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}

	if _, err := m.Do(ctx, nil, []any{"a"}, compute); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if _, err := m.Do(ctx, nil, []any{"b"}, compute); err != nil {
		t.Fatalf("Do: %v", err)
	}

	keys := m.Keys()
	if len(keys) != 2 {
		t.Fatalf("expected 2 tracked keys, got %d", len(keys))
	}

	m.Invalidate(keys[0])
	if len(m.Keys()) != 1 {
		t.Fatalf("expected 1 tracked key after Invalidate, got %d", len(m.Keys()))
	}
	if m.Len() != 1 {
		t.Fatalf("expected 1 stored entry after Invalidate, got %d", m.Len())
	}
}

func TestClearDropsEverything(t *testing.T) {
	m := newMemoizer(t, Config{MaxEntries: 16, MaxReceivers: 4})
	ctx := context.Background()

	var calls int
	compute := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}

	recv := &report{}
	if _, err := m.Do(ctx, recv, []any{"x"}, compute); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if _, err := m.Do(ctx, nil, []any{"y"}, compute); err != nil {
		t.Fatalf("Do: %v", err)
	}

	m.Clear()

	if len(m.Keys()) != 0 {
		t.Fatalf("expected no tracked keys after Clear, got %d", len(m.Keys()))
	}
	if _, err := m.Do(ctx, recv, []any{"x"}, compute); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected recompute after Clear, got %d calls", calls)
	}
}

func TestStoreListClearAll(t *testing.T) {
	stores := NewStoreList()
	ctx := context.Background()

	first := newMemoizer(t, Config{MaxEntries: 16, Mode: cache.KeyArgsOnly, Stores: stores})
	second := newMemoizer(t, Config{MaxEntries: 16, Mode: cache.KeyArgsOnly, Stores: stores})

	var calls int
	compute := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}

	if _, err := first.Do(ctx, nil, []any{"a"}, compute); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if _, err := second.Do(ctx, nil, []any{"b"}, compute); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if stores.Len() != 2 {
		t.Fatalf("expected 2 registered caches, got %d", stores.Len())
	}

	stores.ClearAll()

	if first.Len() != 0 || second.Len() != 0 {
		t.Fatal("expected both memoizers empty after ClearAll")
	}
}
