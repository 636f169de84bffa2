package queue

import (
	"sort"

	"github.com/jwalitptl/opd-queue/internal/model"
)

// ActiveQueue returns the provider's active queue as a fresh ordered
// slice: terminal requests are excluded, a request being served
// (status inside) sorts first, the rest sort by ascending position.
// The input is not mutated.
func ActiveQueue(requests []model.Request, providerID string) []model.Request {
	var out []model.Request
	for _, r := range requests {
		if r.ProviderID == providerID && !r.Status.Terminal() {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if (out[i].Status == model.StatusInside) != (out[j].Status == model.StatusInside) {
			return out[i].Status == model.StatusInside
		}
		return out[i].Position < out[j].Position
	})
	return out
}
