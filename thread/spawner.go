package thread

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/NetPo4ki/go-realworld/fault"
)

var threadSeq atomic.Uint64

// Spawner forks threads and owns them until they exit. Wait joins all of
// them; Cancel kills all of them.
type Spawner struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	live   map[uint64]*Thread
	first  error

	opts Options
	obs  Observer
	log  logrus.FieldLogger
	lim  Limiter
}

func New(optFns ...Option) *Spawner {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = defaultOptions().Logger
	}
	ctx, cancel := context.WithCancelCause(opts.Context)
	s := &Spawner{
		ctx:    ctx,
		cancel: cancel,
		live:   make(map[uint64]*Thread),
		opts:   opts,
		obs:    opts.Observer,
		log:    opts.Logger,
	}
	if opts.MaxThreads > 0 {
		s.lim = newSemaphoreLimiter(opts.MaxThreads)
	}
	return s
}

func (s *Spawner) Context() context.Context { return s.ctx }

// Fork starts work on a new OS thread and returns once that thread runs.
func (s *Spawner) Fork(work func()) (*Thread, error) {
	if work == nil {
		return nil, ErrNilWork
	}
	return s.fork(noAffinity, func(context.Context) { work() })
}

// ForkContext is Fork for work that observes the thread's context.
func (s *Spawner) ForkContext(work func(ctx context.Context)) (*Thread, error) {
	if work == nil {
		return nil, ErrNilWork
	}
	return s.fork(noAffinity, work)
}

// ForkOnto is Fork with a hint to run the thread on the logical CPU at index
// cpu. The hint is applied on the new thread; if the OS rejects it the thread
// still runs and AffinityErr reports why.
func (s *Spawner) ForkOnto(cpu int, work func()) (*Thread, error) {
	if work == nil {
		return nil, ErrNilWork
	}
	if err := checkCPU(cpu); err != nil {
		return nil, err
	}
	return s.fork(cpu, func(context.Context) { work() })
}

func (s *Spawner) ForkOntoContext(cpu int, work func(ctx context.Context)) (*Thread, error) {
	if work == nil {
		return nil, ErrNilWork
	}
	if err := checkCPU(cpu); err != nil {
		return nil, err
	}
	return s.fork(cpu, work)
}

// Active returns the number of live threads.
func (s *Spawner) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Threads returns the live threads in no particular order.
func (s *Spawner) Threads() []*Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Thread, 0, len(s.live))
	for _, t := range s.live {
		out = append(out, t)
	}
	return out
}

// Cancel kills every live thread and refuses further forks.
func (s *Spawner) Cancel(cause error) {
	if cause == nil {
		s.cancel(ErrKilled)
	} else {
		s.cancel(fmt.Errorf("%w: %w", ErrKilled, cause))
	}
	s.log.WithError(context.Cause(s.ctx)).Debug("thread: spawner cancelled")
}

// Wait blocks until every forked thread has exited and returns the first
// non-nil thread error.
func (s *Spawner) Wait() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.first
}

func checkCPU(cpu int) error {
	if n := CPUCount(); cpu < 0 || cpu >= n {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidAffinity, cpu, n)
	}
	return nil
}

func (s *Spawner) fork(cpu int, work func(ctx context.Context)) (*Thread, error) {
	if s.ctx.Err() != nil {
		return nil, s.refuse(fmt.Errorf("%w: %w", ErrThreadCreation, context.Cause(s.ctx)))
	}
	if s.lim != nil && !s.lim.TryAcquire() {
		return nil, s.refuse(fmt.Errorf("%w: limit of %d threads reached", ErrThreadCreation, s.opts.MaxThreads))
	}
	t := newThread(s.ctx, threadSeq.Add(1), cpu)
	s.mu.Lock()
	s.live[t.id] = t
	s.mu.Unlock()
	s.wg.Add(1)

	started := make(chan struct{})
	go s.run(t, work, started)
	<-started
	return t, nil
}

func (s *Spawner) refuse(err error) error {
	s.log.WithError(err).Warn("thread: fork refused")
	if s.obs != nil {
		s.obs.ForkRefused(s.ctx, err)
	}
	return err
}

func (s *Spawner) run(t *Thread, work func(ctx context.Context), started chan<- struct{}) {
	// Never unlocked: the OS thread is torn down when this goroutine exits.
	runtime.LockOSThread()
	t.tid = currentTID()
	register(t)

	if t.cpu != noAffinity {
		if err := setAffinity(t.cpu); err != nil {
			t.affinityErr = err
			s.log.WithError(err).WithField("cpu", t.cpu).Warn("thread: affinity hint not applied")
		}
	}
	close(started)

	log := s.log.WithFields(logrus.Fields{"thread": t.id, "tid": t.tid})
	log.Debug("thread: started")
	start := time.Now()
	if s.obs != nil {
		s.obs.ThreadStarted(t.ctx, t)
	}

	defer func() {
		r := recover()
		var err error
		switch {
		case r != nil:
			err = fault.FromPanic(r)
		case t.ctx.Err() != nil:
			err = context.Cause(t.ctx)
		}
		s.finish(t, err)
		log.WithError(err).WithField("dur", time.Since(start)).Debug("thread: finished")
		if s.obs != nil {
			s.obs.ThreadFinished(t.ctx, t, time.Since(start), err)
		}
		s.wg.Done()
		if r != nil && !s.opts.PanicAsError {
			panic(r)
		}
	}()

	t.checkpoint()
	work(t.ctx)
}

func (s *Spawner) finish(t *Thread, err error) {
	unregister(t)
	s.mu.Lock()
	delete(s.live, t.id)
	if s.first == nil && err != nil {
		s.first = err
	}
	s.mu.Unlock()
	if s.lim != nil {
		s.lim.Release()
	}
	t.exit(err)
}
