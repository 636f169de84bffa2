package queue

import (
	"math"
	"math/rand"
	"sort"

	"github.com/google/uuid"

	"github.com/jwalitptl/opd-queue/internal/model"
	"github.com/jwalitptl/opd-queue/internal/registry"
)

// Estimator recomputes wait estimates from queue depth. The randomness
// source is injected so a seeded source makes every pass reproducible;
// jitterMinutes bounds the symmetric jitter term (0 disables it).
//
// Estimator is not safe for concurrent use on its own: every call runs
// inside the store's exclusive update, which is what serializes it.
type Estimator struct {
	registry      *registry.Registry
	rng           *rand.Rand
	jitterMinutes float64
}

func NewEstimator(reg *registry.Registry, rng *rand.Rand, jitterMinutes float64) *Estimator {
	return &Estimator{
		registry:      reg,
		rng:           rng,
		jitterMinutes: jitterMinutes,
	}
}

// RecomputeAll assigns a fresh ETA to every request. Queued requests
// (waiting, sent_to_scan) get index-in-queue * provider average plus
// bounded jitter, clamped at zero; everything else gets zero. New
// values are computed for the whole store first and applied in one
// sweep, so a pass is all-or-nothing.
//
// Jitter is drawn in provider-id order, then queue order, to keep a
// seeded pass deterministic.
func (e *Estimator) RecomputeAll(requests []*model.Request) {
	snapshot := make([]model.Request, 0, len(requests))
	providerSet := make(map[string]struct{})
	for _, r := range requests {
		snapshot = append(snapshot, *r)
		providerSet[r.ProviderID] = struct{}{}
	}

	providerIDs := make([]string, 0, len(providerSet))
	for id := range providerSet {
		providerIDs = append(providerIDs, id)
	}
	sort.Strings(providerIDs)

	etas := make(map[uuid.UUID]int, len(requests))
	for _, providerID := range providerIDs {
		active := ActiveQueue(snapshot, providerID)
		for idx, r := range active {
			if !r.Status.Queued() {
				continue
			}
			etas[r.ID] = e.estimate(providerID, idx)
		}
	}

	for _, r := range requests {
		r.ETA = etas[r.ID]
	}
}

func (e *Estimator) estimate(providerID string, queueIndex int) int {
	provider, ok := e.registry.Get(providerID)
	if !ok {
		return 0
	}

	base := float64(queueIndex * provider.AvgServiceMinutes)
	jitter := 0.0
	if e.jitterMinutes > 0 {
		jitter = (e.rng.Float64()*2 - 1) * e.jitterMinutes
	}

	eta := math.Round(base + jitter)
	if eta < 0 {
		return 0
	}
	return int(eta)
}
