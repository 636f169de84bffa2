package registry

import (
	"sort"

	"github.com/jwalitptl/opd-queue/internal/config"
	"github.com/jwalitptl/opd-queue/internal/model"
)

// Registry is the static provider catalog. It is built once at startup
// and read concurrently without locking.
type Registry struct {
	providers map[string]model.Provider
	order     []string
}

func New(providers []config.ProviderConfig) *Registry {
	r := &Registry{
		providers: make(map[string]model.Provider, len(providers)),
	}
	for _, p := range providers {
		r.providers[p.ID] = model.Provider{
			ID:                p.ID,
			Name:              p.Name,
			Specialization:    p.Specialization,
			AvgServiceMinutes: p.AvgServiceMinutes,
		}
		r.order = append(r.order, p.ID)
	}
	sort.Strings(r.order)
	return r
}

func (r *Registry) Get(id string) (model.Provider, bool) {
	p, ok := r.providers[id]
	return p, ok
}

func (r *Registry) Exists(id string) bool {
	_, ok := r.providers[id]
	return ok
}

// List returns the catalog in stable id order.
func (r *Registry) List() []model.Provider {
	out := make([]model.Provider, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.providers[id])
	}
	return out
}
