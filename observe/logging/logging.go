// Package logging reports thread lifecycle events through a logrus logger.
package logging

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/NetPo4ki/go-realworld/fault"
	"github.com/NetPo4ki/go-realworld/thread"
)

// Observer implements thread.Observer.
type Observer struct {
	log logrus.FieldLogger
}

var _ thread.Observer = (*Observer)(nil)

func New(log logrus.FieldLogger) *Observer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Observer{log: log}
}

func fields(t *thread.Thread) logrus.Fields {
	f := logrus.Fields{"thread": t.ID(), "tid": t.TID()}
	if t.CPU() >= 0 {
		f["cpu"] = t.CPU()
	}
	if name := t.Name(); name != "" {
		f["name"] = name
	}
	return f
}

func (o *Observer) ThreadStarted(_ context.Context, t *thread.Thread) {
	entry := o.log.WithFields(fields(t))
	if err := t.AffinityErr(); err != nil {
		entry.WithError(err).Warn("thread started without affinity")
		return
	}
	entry.Info("thread started")
}

func (o *Observer) ThreadFinished(_ context.Context, t *thread.Thread, dur time.Duration, err error) {
	entry := o.log.WithFields(fields(t)).WithField("dur", dur)
	var fe *fault.Error
	switch {
	case err == nil:
		entry.Info("thread finished")
	case errors.Is(err, thread.ErrKilled):
		entry.WithError(err).Warn("thread killed")
	case errors.As(err, &fe):
		entry.WithError(err).WithField("stack", string(fe.Stack)).Error("thread faulted")
	default:
		entry.WithError(err).Error("thread failed")
	}
}

func (o *Observer) ForkRefused(_ context.Context, err error) {
	o.log.WithError(err).Warn("fork refused")
}
