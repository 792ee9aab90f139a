package intercept

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestResolverOnce(t *testing.T) {
	t.Parallel()

	var lookups atomic.Int32
	genuine := func(int, []byte) error { return nil }
	r := NewResolver(func() (ConnectFunc, error) {
		lookups.Add(1)
		return genuine, nil
	})

	const n = 64
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		fails atomic.Int32
	)
	for range n {
		wg.Go(func() {
			<-start
			fn, err := r.Resolve()
			if err != nil || fn == nil {
				fails.Add(1)
			}
		})
	}
	close(start)
	wg.Wait()

	if got := lookups.Load(); got != 1 {
		t.Fatalf("lookup ran %d times, want 1", got)
	}
	if got := fails.Load(); got != 0 {
		t.Fatalf("%d callers saw an unresolved handle", got)
	}
}

func TestResolverErrorIsSticky(t *testing.T) {
	t.Parallel()

	errLookup := errors.New("dlsym failed")
	var lookups int
	r := NewResolver(func() (ConnectFunc, error) {
		lookups++
		return nil, errLookup
	})

	for range 3 {
		fn, err := r.Resolve()
		if !errors.Is(err, errLookup) {
			t.Fatalf("err=%v want %v", err, errLookup)
		}
		if fn != nil {
			t.Fatal("expected nil ConnectFunc on failure")
		}
	}
	if lookups != 1 {
		t.Fatalf("lookup ran %d times, want 1", lookups)
	}
}

func TestResolverNilFunc(t *testing.T) {
	t.Parallel()

	r := NewResolver(func() (ConnectFunc, error) { return nil, nil })
	if _, err := r.Resolve(); !errors.Is(err, ErrNoGenuineConnect) {
		t.Fatalf("err=%v want ErrNoGenuineConnect", err)
	}
}
