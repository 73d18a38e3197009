package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/goleak"

	"github.com/NetPo4ki/go-realworld/thread"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSpansEndWithThreads(t *testing.T) {
	tr := New(noop.NewTracerProvider())
	s := thread.New(thread.WithObserver(tr), thread.WithPanicAsError(true), thread.WithMaxThreads(3))

	_, err := s.Fork(func() {})
	require.NoError(t, err)
	_, err = s.Fork(func() { panic(errors.New("broken")) })
	require.NoError(t, err)
	_, err = s.ForkContext(func(ctx context.Context) { <-ctx.Done() })
	require.NoError(t, err)

	s.Cancel(nil)
	werr := s.Wait()
	assert.Error(t, werr)
	assert.Equal(t, 0, tr.Pending())

	_, err = s.Fork(func() {})
	assert.ErrorIs(t, err, thread.ErrThreadCreation)
}
