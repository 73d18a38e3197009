package thread

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

type Option func(*Options)

type Options struct {
	// Context is the parent of every thread context. Cancelling it kills
	// the spawner's threads at their next cancellation point.
	Context context.Context
	// PanicAsError stores an unhandled panic on the thread handle instead
	// of terminating the process.
	PanicAsError bool
	Observer     Observer
	// MaxThreads caps live threads; forks beyond it fail with ErrThreadCreation.
	MaxThreads int
	Logger     logrus.FieldLogger
}

func defaultOptions() Options {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return Options{Context: context.Background(), Logger: l}
}

func WithContext(ctx context.Context) Option { return func(o *Options) { o.Context = ctx } }

func WithPanicAsError(v bool) Option { return func(o *Options) { o.PanicAsError = v } }

func WithObserver(obs Observer) Option { return func(o *Options) { o.Observer = obs } }

func WithMaxThreads(n int) Option { return func(o *Options) { o.MaxThreads = n } }

func WithLogger(l logrus.FieldLogger) Option { return func(o *Options) { o.Logger = l } }

// Observer receives thread lifecycle events. ThreadStarted runs on the new
// thread before its work; ThreadFinished runs on it after the work ended.
type Observer interface {
	ThreadStarted(ctx context.Context, t *Thread)
	ThreadFinished(ctx context.Context, t *Thread, dur time.Duration, err error)
	ForkRefused(ctx context.Context, err error)
}
