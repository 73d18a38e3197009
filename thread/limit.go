package thread

import "golang.org/x/sync/semaphore"

// Limiter bounds the number of live threads owned by a spawner.
type Limiter interface {
	TryAcquire() bool
	Release()
}

type semLimiter struct {
	sem *semaphore.Weighted
}

func newSemaphoreLimiter(n int) Limiter {
	if n <= 0 {
		return nil
	}
	return &semLimiter{sem: semaphore.NewWeighted(int64(n))}
}

func (l *semLimiter) TryAcquire() bool { return l.sem.TryAcquire(1) }

func (l *semLimiter) Release() { l.sem.Release(1) }
