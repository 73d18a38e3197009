package prom

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/NetPo4ki/go-realworld/fault"
	"github.com/NetPo4ki/go-realworld/thread"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMetricsTrackLifecycle(t *testing.T) {
	m := New("test")
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, m.Register(reg))

	s := thread.New(thread.WithObserver(m), thread.WithPanicAsError(true), thread.WithMaxThreads(2))
	block := make(chan struct{})
	_, err := s.Fork(func() { <-block })
	require.NoError(t, err)
	_, err = s.ForkOnto(0, func() { fault.Raise("bad") })
	require.NoError(t, err)

	// Both slots are taken until block is closed, or the fault already freed one.
	if _, err := s.Fork(func() {}); err != nil {
		assert.ErrorIs(t, err, thread.ErrThreadCreation)
	}
	close(block)
	_ = s.Wait()

	started := testutil.ToFloat64(m.started)
	assert.Equal(t, started, testutil.ToFloat64(m.finished.WithLabelValues(OutcomeOK))+1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.finished.WithLabelValues(OutcomeFault)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pinned))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.active))
	assert.Equal(t, 3.0, started+testutil.ToFloat64(m.refused))
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil is ok", err: nil, want: OutcomeOK},
		{name: "fault", err: fault.FromPanic("x"), want: OutcomeFault},
		{name: "killed", err: thread.ErrKilled, want: OutcomeKilled},
		{name: "other", err: context.Canceled, want: OutcomeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, outcome(tt.err))
		})
	}
}

func TestRegisterTwiceFails(t *testing.T) {
	m := New("dup")
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))
	assert.Error(t, m.Register(reg))
}
