package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/opd-queue/internal/queue"
	"github.com/jwalitptl/opd-queue/internal/store"
	"github.com/jwalitptl/opd-queue/pkg/metrics"
)

// Refresher periodically reruns the ETA pass so displayed estimates
// drift over time even when nothing is admitted or transitioned.
type Refresher struct {
	store     *store.Store
	estimator *queue.Estimator
	interval  time.Duration
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewRefresher(st *store.Store, est *queue.Estimator, interval time.Duration, m *metrics.Metrics, logger zerolog.Logger) *Refresher {
	return &Refresher{
		store:     st,
		estimator: est,
		interval:  interval,
		metrics:   m,
		logger:    logger,
	}
}

// Start runs the refresh loop until ctx is cancelled. Each pass holds
// the store's exclusive update for its duration, so it never interleaves
// with an admission or transition and leaves no partial state behind
// on shutdown.
func (r *Refresher) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info().Dur("interval", r.interval).Msg("eta refresher started")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("eta refresher stopped")
			return
		case <-ticker.C:
			r.refresh()
		}
	}
}

func (r *Refresher) refresh() {
	start := time.Now()
	_ = r.store.Update(func(tx *store.Tx) error {
		r.estimator.RecomputeAll(tx.All())
		return nil
	})

	if r.metrics != nil {
		r.metrics.RefreshPassesTotal.Inc()
		r.metrics.RecomputeDuration.Observe(time.Since(start).Seconds())
	}
	r.logger.Debug().Dur("took", time.Since(start)).Msg("eta refresh pass")
}
