package thread

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSemaphoreLimiterBound(t *testing.T) {
	t.Parallel()
	if newSemaphoreLimiter(0) != nil {
		t.Fatal("expected nil limiter for non-positive bound")
	}
	l := newSemaphoreLimiter(2)
	if !l.TryAcquire() || !l.TryAcquire() {
		t.Fatal("expected two slots")
	}
	if l.TryAcquire() {
		t.Fatal("third acquire should fail")
	}
	l.Release()
	if !l.TryAcquire() {
		t.Fatal("expected slot after release")
	}
}

func TestMaxThreadsBound(t *testing.T) {
	t.Parallel()
	const N = 4
	const M = 40
	s := New(WithMaxThreads(N))
	var cur, maxSeen atomic.Int64
	block := make(chan struct{})
	refused := 0
	for i := 0; i < M; i++ {
		_, err := s.Fork(func() {
			c := cur.Add(1)
			for {
				if m := maxSeen.Load(); c > m {
					maxSeen.CompareAndSwap(m, c)
				}
				select {
				case <-block:
					cur.Add(-1)
					return
				case <-time.After(time.Millisecond):
				}
			}
		})
		if err != nil {
			refused++
		}
	}
	close(block)
	_ = s.Wait()
	if observed := int(maxSeen.Load()); observed > N {
		t.Fatalf("observed %d live threads, limit %d", observed, N)
	}
	if refused != M-N {
		t.Fatalf("expected %d refusals, got %d", M-N, refused)
	}
}
