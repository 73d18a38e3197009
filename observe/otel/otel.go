// Package otel records one OpenTelemetry span per forked thread, from start
// to exit, with faults and kills reported on the span.
package otel

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/NetPo4ki/go-realworld/fault"
	"github.com/NetPo4ki/go-realworld/thread"
)

const instrumentationName = "github.com/NetPo4ki/go-realworld/observe/otel"

// Tracer implements thread.Observer.
type Tracer struct {
	tracer trace.Tracer
	spans  sync.Map // thread id -> trace.Span
}

var _ thread.Observer = (*Tracer)(nil)

// New returns a Tracer that creates spans with tp.
func New(tp trace.TracerProvider) *Tracer {
	return &Tracer{tracer: tp.Tracer(instrumentationName)}
}

func (o *Tracer) ThreadStarted(ctx context.Context, t *thread.Thread) {
	attrs := []attribute.KeyValue{
		attribute.Int64("thread.id", int64(t.ID())),
		attribute.Int("thread.tid", t.TID()),
	}
	if t.CPU() >= 0 {
		attrs = append(attrs, attribute.Int("thread.cpu", t.CPU()))
	}
	_, span := o.tracer.Start(ctx, "thread", trace.WithAttributes(attrs...))
	if err := t.AffinityErr(); err != nil {
		span.AddEvent("affinity.refused", trace.WithAttributes(attribute.String("error", err.Error())))
	}
	o.spans.Store(t.ID(), span)
}

func (o *Tracer) ThreadFinished(_ context.Context, t *thread.Thread, dur time.Duration, err error) {
	v, ok := o.spans.LoadAndDelete(t.ID())
	if !ok {
		return
	}
	span := v.(trace.Span)
	if name := t.Name(); name != "" {
		span.SetAttributes(attribute.String("thread.name", name))
	}
	span.SetAttributes(attribute.Int64("thread.duration_ns", dur.Nanoseconds()))
	switch {
	case err == nil:
	case errors.Is(err, thread.ErrKilled):
		span.AddEvent("killed")
		span.SetStatus(codes.Error, err.Error())
	default:
		var fe *fault.Error
		if errors.As(err, &fe) {
			span.AddEvent("fault", trace.WithAttributes(attribute.String("fault.domain", fe.Domain)))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (o *Tracer) ForkRefused(ctx context.Context, err error) {
	trace.SpanFromContext(ctx).AddEvent("fork.refused", trace.WithAttributes(attribute.String("error", err.Error())))
}

// Pending returns the number of spans not yet ended.
func (o *Tracer) Pending() int {
	n := 0
	o.spans.Range(func(_, _ any) bool { n++; return true })
	return n
}
