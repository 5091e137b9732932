// Package mirror copies the controller status to external stores so dashboards and other
// services can read it without calling the API.
package mirror

import (
	"context"
	"encoding/json"
	"time"

	"terrarium_control/internal/control"
	"terrarium_control/internal/logger"
)

// StatusSource provides the snapshot to mirror.
type StatusSource interface {
	Status() control.Status
}

// Sink receives the encoded snapshot.
type Sink interface {
	Name() string
	Publish(ctx context.Context, payload []byte) error
}

// Mirror periodically pushes the status to every sink.
type Mirror struct {
	src      StatusSource
	sinks    []Sink
	interval time.Duration
	timeout  time.Duration
	log      *logger.Logger

	failing map[string]bool
}

// New builds a mirror. timeout bounds each sink publish.
func New(src StatusSource, interval, timeout time.Duration, log *logger.Logger, sinks ...Sink) *Mirror {
	return &Mirror{
		src:      src,
		sinks:    sinks,
		interval: interval,
		timeout:  timeout,
		log:      log,
		failing:  map[string]bool{},
	}
}

// Run publishes every interval until ctx is cancelled.
func (m *Mirror) Run(ctx context.Context) {
	if len(m.sinks) == 0 {
		return
	}
	t := time.NewTicker(m.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.PublishOnce(ctx)
		}
	}
}

// PublishOnce pushes the current snapshot. Sink errors are logged once per outage.
func (m *Mirror) PublishOnce(ctx context.Context) {
	payload, err := json.Marshal(m.src.Status())
	if err != nil {
		m.log.Errorw("mirror_encode_failed", "err", err)
		return
	}

	for _, s := range m.sinks {
		pctx, cancel := context.WithTimeout(ctx, m.timeout)
		err := s.Publish(pctx, payload)
		cancel()

		switch {
		case err != nil && !m.failing[s.Name()]:
			m.failing[s.Name()] = true
			m.log.Warnw("mirror_publish_failed", "sink", s.Name(), "err", err)
		case err == nil && m.failing[s.Name()]:
			m.failing[s.Name()] = false
			m.log.Infow("mirror_publish_recovered", "sink", s.Name())
		}
	}
}
