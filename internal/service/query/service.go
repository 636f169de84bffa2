package query

import (
	"fmt"

	"github.com/jwalitptl/opd-queue/internal/model"
	"github.com/jwalitptl/opd-queue/internal/queue"
	"github.com/jwalitptl/opd-queue/internal/registry"
	"github.com/jwalitptl/opd-queue/internal/store"
	"github.com/jwalitptl/opd-queue/pkg/errors"
)

// Service is the read-only side of the engine. Every lookup works on a
// point-in-time snapshot of the store, so results are internally
// consistent even while mutations run.
type Service struct {
	store    *store.Store
	registry *registry.Registry
}

func NewService(st *store.Store, reg *registry.Registry) *Service {
	return &Service{
		store:    st,
		registry: reg,
	}
}

func (s *Service) ListProviders() []model.ProviderView {
	providers := s.registry.List()
	out := make([]model.ProviderView, 0, len(providers))
	for _, p := range providers {
		out = append(out, p.View())
	}
	return out
}

// QueueFor returns the provider's active queue in service order.
func (s *Service) QueueFor(providerID string) ([]model.RequestView, error) {
	if !s.registry.Exists(providerID) {
		return nil, errors.NotFound("provider", fmt.Errorf("provider %s", providerID))
	}
	return views(queue.ActiveQueue(s.store.Snapshot(), providerID)), nil
}

// SessionFor resolves a token to the requester's live session view. A
// token with no active request yields an empty session, not an error;
// that is the normal first-visit case.
func (s *Service) SessionFor(token string) *model.Session {
	snapshot := s.store.Snapshot()

	var req model.Request
	found := false
	for _, r := range snapshot {
		if r.Token == token && !r.Status.Terminal() {
			req = r
			found = true
			break
		}
	}
	if !found {
		return &model.Session{Queue: []model.RequestView{}}
	}

	activeQueue := queue.ActiveQueue(snapshot, req.ProviderID)
	position := 0
	for i, r := range activeQueue {
		if r.ID == req.ID {
			position = i + 1
			break
		}
	}

	view := req.View()
	return &model.Session{
		Request:  &view,
		Queue:    views(activeQueue),
		Position: position,
	}
}

func views(requests []model.Request) []model.RequestView {
	out := make([]model.RequestView, 0, len(requests))
	for _, r := range requests {
		out = append(out, r.View())
	}
	return out
}
