package admission

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/opd-queue/internal/model"
	"github.com/jwalitptl/opd-queue/internal/queue"
	"github.com/jwalitptl/opd-queue/internal/registry"
	"github.com/jwalitptl/opd-queue/internal/store"
	"github.com/jwalitptl/opd-queue/pkg/errors"
	"github.com/jwalitptl/opd-queue/pkg/metrics"
)

// tokenAttempts bounds token generation; with 900 token values the
// active set would have to be nearly full for this to trip.
const tokenAttempts = 5000

type AdmissionService interface {
	Admit(ctx context.Context, providerID string, info model.RequesterInfo) (string, error)
}

// Service admits new requests: it assigns token and position, inserts
// the request as waiting and runs a full ETA pass, all inside one
// exclusive store update.
type Service struct {
	store     *store.Store
	registry  *registry.Registry
	estimator *queue.Estimator
	rng       *rand.Rand
	validate  *validator.Validate
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(st *store.Store, reg *registry.Registry, est *queue.Estimator, rng *rand.Rand, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		store:     st,
		registry:  reg,
		estimator: est,
		rng:       rng,
		validate:  validator.New(),
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Admit validates the requester info, admits a new waiting request for
// the provider and returns its token. The token identifies the request
// until it reaches a terminal status.
func (s *Service) Admit(ctx context.Context, providerID string, info model.RequesterInfo) (string, error) {
	if err := s.validate.Struct(info); err != nil {
		return "", errors.Validation("missing required requester fields", err)
	}

	provider, ok := s.registry.Get(providerID)
	if !ok {
		return "", errors.NotFound("provider", fmt.Errorf("provider %s", providerID))
	}

	req := &model.Request{
		ID:         uuid.New(),
		ProviderID: provider.ID,
		Status:     model.StatusWaiting,
		BookedAt:   s.now(),
		Name:       info.Name,
		Contact:    info.Contact,
		CaseType:   info.CaseType,
	}

	err := s.store.Update(func(tx *store.Tx) error {
		token, err := s.newToken(tx)
		if err != nil {
			return err
		}
		req.Token = token
		req.Position = tx.MaxPosition(provider.ID, uuid.Nil) + 1

		if err := tx.Insert(req); err != nil {
			return err
		}
		s.estimator.RecomputeAll(tx.All())
		return nil
	})
	if err != nil {
		return "", errors.Internal(err)
	}

	if s.metrics != nil {
		s.metrics.AdmissionsTotal.Inc()
		s.metrics.QueueDepth.WithLabelValues(provider.ID).Inc()
	}
	s.logger.Info().
		Str("request_id", req.ID.String()).
		Str("provider_id", provider.ID).
		Str("token", req.Token).
		Int("position", req.Position).
		Msg("request admitted")

	return req.Token, nil
}

// newToken draws tokens in the T100..T999 format until one is free
// among active requests.
func (s *Service) newToken(tx *store.Tx) (string, error) {
	for i := 0; i < tokenAttempts; i++ {
		token := fmt.Sprintf("T%03d", s.rng.Intn(900)+100)
		if !tx.TokenInUse(token) {
			return token, nil
		}
	}
	return "", fmt.Errorf("token space exhausted")
}
