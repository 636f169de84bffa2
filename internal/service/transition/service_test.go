package transition

import (
	"context"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/opd-queue/internal/config"
	"github.com/jwalitptl/opd-queue/internal/model"
	"github.com/jwalitptl/opd-queue/internal/queue"
	"github.com/jwalitptl/opd-queue/internal/registry"
	"github.com/jwalitptl/opd-queue/internal/store"
	apperrors "github.com/jwalitptl/opd-queue/pkg/errors"
)

func newTestService() (*Service, *store.Store) {
	reg := registry.New([]config.ProviderConfig{
		{ID: "doc1", Name: "Dr. Sarah Johnson", Specialization: "General Physician", AvgServiceMinutes: 15},
	})
	st := store.New()
	est := queue.NewEstimator(reg, rand.New(rand.NewSource(7)), 0)
	return NewService(st, est, nil, zerolog.Nop()), st
}

func seed(t *testing.T, st *store.Store, token string, status model.Status, position int) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, st.Update(func(tx *store.Tx) error {
		return tx.Insert(&model.Request{
			ID:         id,
			Token:      token,
			ProviderID: "doc1",
			Status:     status,
			Position:   position,
		})
	}))
	return id
}

func TestTransitionLegalityMatrix(t *testing.T) {
	all := []model.Status{
		model.StatusWaiting, model.StatusInside, model.StatusCompleted,
		model.StatusSkipped, model.StatusSentToScan,
	}
	legal := map[model.Status]map[model.Status]bool{
		model.StatusWaiting:    {model.StatusInside: true, model.StatusSkipped: true},
		model.StatusInside:     {model.StatusCompleted: true, model.StatusSentToScan: true},
		model.StatusSentToScan: {model.StatusWaiting: true, model.StatusInside: true, model.StatusCompleted: true},
		model.StatusCompleted:  {},
		model.StatusSkipped:    {},
	}

	for _, from := range all {
		for _, to := range all {
			svc, st := newTestService()
			id := seed(t, st, "T101", from, 2)

			err := svc.Transition(context.Background(), id, to)

			if legal[from][to] {
				assert.NoError(t, err, "%s -> %s should be allowed", from, to)
			} else {
				assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidTransition),
					"%s -> %s should be rejected, got %v", from, to, err)

				// A rejected transition must leave the request untouched.
				r, ok := st.Get(id)
				require.True(t, ok)
				assert.Equal(t, from, r.Status)
				assert.Equal(t, 2, r.Position)
			}
		}
	}
}

func TestTransitionUnknownRequest(t *testing.T) {
	svc, _ := newTestService()

	err := svc.Transition(context.Background(), uuid.New(), model.StatusInside)

	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestTransitionUnknownStatus(t *testing.T) {
	svc, st := newTestService()
	id := seed(t, st, "T101", model.StatusWaiting, 1)

	err := svc.Transition(context.Background(), id, model.Status("vanished"))

	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))
	r, _ := st.Get(id)
	assert.Equal(t, model.StatusWaiting, r.Status)
}

func TestSentToScanRequeuesToTail(t *testing.T) {
	svc, st := newTestService()
	first := seed(t, st, "T101", model.StatusInside, 1)
	seed(t, st, "T102", model.StatusWaiting, 2)
	seed(t, st, "T103", model.StatusWaiting, 5)

	require.NoError(t, svc.Transition(context.Background(), first, model.StatusSentToScan))

	r, ok := st.Get(first)
	require.True(t, ok)
	assert.Equal(t, model.StatusSentToScan, r.Status)
	assert.Equal(t, 6, r.Position, "requeued request must sit behind every other active request")
}

func TestOtherTransitionsPreservePosition(t *testing.T) {
	svc, st := newTestService()
	id := seed(t, st, "T101", model.StatusWaiting, 4)

	require.NoError(t, svc.Transition(context.Background(), id, model.StatusInside))

	r, _ := st.Get(id)
	assert.Equal(t, 4, r.Position)
}

// Mirrors the worked flow: two waiting requests, the first goes inside,
// is sent to scan and lands behind the second with ETAs swapped.
func TestScanFlowRepositionsAndRecomputes(t *testing.T) {
	svc, st := newTestService()
	r1 := seed(t, st, "T101", model.StatusWaiting, 1)
	r2 := seed(t, st, "T102", model.StatusWaiting, 2)

	require.NoError(t, svc.Transition(context.Background(), r1, model.StatusInside))

	q := queue.ActiveQueue(st.Snapshot(), "doc1")
	require.Len(t, q, 2)
	assert.Equal(t, r1, q[0].ID, "inside request sorts first")

	require.NoError(t, svc.Transition(context.Background(), r1, model.StatusSentToScan))

	first, _ := st.Get(r1)
	assert.Equal(t, 3, first.Position)

	q = queue.ActiveQueue(st.Snapshot(), "doc1")
	require.Len(t, q, 2)
	assert.Equal(t, r2, q[0].ID)
	assert.Equal(t, r1, q[1].ID)

	second, _ := st.Get(r2)
	assert.Equal(t, 0, second.ETA)
	assert.Equal(t, 15, first.ETA)
}

func TestTerminalRequestsLeaveActiveQueue(t *testing.T) {
	svc, st := newTestService()
	id := seed(t, st, "T101", model.StatusWaiting, 1)
	seed(t, st, "T102", model.StatusWaiting, 2)

	require.NoError(t, svc.Transition(context.Background(), id, model.StatusSkipped))

	q := queue.ActiveQueue(st.Snapshot(), "doc1")
	require.Len(t, q, 1)
	assert.Equal(t, "T102", q[0].Token)
}
