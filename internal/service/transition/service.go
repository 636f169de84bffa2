package transition

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/opd-queue/internal/model"
	"github.com/jwalitptl/opd-queue/internal/queue"
	"github.com/jwalitptl/opd-queue/internal/store"
	"github.com/jwalitptl/opd-queue/pkg/errors"
	"github.com/jwalitptl/opd-queue/pkg/metrics"
)

// allowedTransitions is the status state machine. Anything not listed
// here is rejected; completed and skipped are terminal.
var allowedTransitions = map[model.Status][]model.Status{
	model.StatusWaiting:    {model.StatusInside, model.StatusSkipped},
	model.StatusInside:     {model.StatusCompleted, model.StatusSentToScan},
	model.StatusSentToScan: {model.StatusWaiting, model.StatusInside, model.StatusCompleted},
}

func allowed(from, to model.Status) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type TransitionService interface {
	Transition(ctx context.Context, requestID uuid.UUID, newStatus model.Status) error
}

// Service applies status transitions. A request entering sent_to_scan
// is requeued to the tail of its provider's active queue; every
// applied transition ends with a full ETA pass, all inside one
// exclusive store update.
type Service struct {
	store     *store.Store
	estimator *queue.Estimator
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewService(st *store.Store, est *queue.Estimator, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		store:     st,
		estimator: est,
		metrics:   m,
		logger:    logger,
	}
}

func (s *Service) Transition(ctx context.Context, requestID uuid.UUID, newStatus model.Status) error {
	if !newStatus.Valid() {
		return errors.Validation(fmt.Sprintf("unknown status %q", newStatus), nil)
	}

	var from model.Status
	var providerID string
	err := s.store.Update(func(tx *store.Tx) error {
		req, ok := tx.Get(requestID)
		if !ok {
			return errors.NotFound("request", fmt.Errorf("request %s", requestID))
		}
		if !allowed(req.Status, newStatus) {
			return errors.InvalidTransition(
				fmt.Sprintf("cannot transition from %s to %s", req.Status, newStatus), nil)
		}

		from = req.Status
		providerID = req.ProviderID

		// Back of the line: after an interruption the request loses
		// its place and requeues behind every other active request.
		if newStatus == model.StatusSentToScan {
			req.Position = tx.MaxPosition(req.ProviderID, req.ID) + 1
		}
		req.Status = newStatus

		s.estimator.RecomputeAll(tx.All())
		return nil
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.TransitionsTotal.WithLabelValues(string(newStatus)).Inc()
		if newStatus.Terminal() {
			s.metrics.QueueDepth.WithLabelValues(providerID).Dec()
		}
	}
	s.logger.Info().
		Str("request_id", requestID.String()).
		Str("provider_id", providerID).
		Str("from", string(from)).
		Str("to", string(newStatus)).
		Msg("request transitioned")

	return nil
}
