package store

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jwalitptl/opd-queue/internal/model"
)

// Store is the single source of truth for all requests. Mutations run
// serialized under the write lock via Update; readers take the read
// lock and only ever receive copies, so a reader can never observe a
// half-applied mutation. Requests are never deleted: terminal ones
// stay as history for the lifetime of the process.
type Store struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]*model.Request
}

func New() *Store {
	return &Store{
		requests: make(map[uuid.UUID]*model.Request),
	}
}

// Tx grants exclusive access to the request set for the duration of
// one Update call. Callers must validate before mutating: an error
// returned after a mutation would leave that mutation in place.
type Tx struct {
	s *Store
}

// Update runs fn with exclusive access to the store. Admission,
// transitions and the scheduled ETA refresh all go through here, which
// serializes position and ETA computation.
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&Tx{s: s})
}

func (tx *Tx) Get(id uuid.UUID) (*model.Request, bool) {
	r, ok := tx.s.requests[id]
	return r, ok
}

// Insert adds a new request. The token must be unique among active
// requests; tokens of terminal requests are free for reuse.
func (tx *Tx) Insert(r *model.Request) error {
	if _, exists := tx.s.requests[r.ID]; exists {
		return fmt.Errorf("request %s already exists", r.ID)
	}
	if tx.TokenInUse(r.Token) {
		return fmt.Errorf("token %s already held by an active request", r.Token)
	}
	tx.s.requests[r.ID] = r
	return nil
}

// TokenInUse reports whether an active request currently holds token.
func (tx *Tx) TokenInUse(token string) bool {
	for _, r := range tx.s.requests {
		if r.Token == token && !r.Status.Terminal() {
			return true
		}
	}
	return false
}

// All returns the live request pointers for in-place mutation within
// the transaction.
func (tx *Tx) All() []*model.Request {
	out := make([]*model.Request, 0, len(tx.s.requests))
	for _, r := range tx.s.requests {
		out = append(out, r)
	}
	return out
}

// Active returns the provider's non-terminal requests in map order;
// callers that need queue order go through the ordering policy.
func (tx *Tx) Active(providerID string) []*model.Request {
	var out []*model.Request
	for _, r := range tx.s.requests {
		if r.ProviderID == providerID && !r.Status.Terminal() {
			out = append(out, r)
		}
	}
	return out
}

// MaxPosition returns the highest position among the provider's active
// requests, excluding the given id (uuid.Nil to exclude none). Zero
// when the provider has no other active requests.
func (tx *Tx) MaxPosition(providerID string, exclude uuid.UUID) int {
	max := 0
	for _, r := range tx.s.requests {
		if r.ID == exclude || r.ProviderID != providerID || r.Status.Terminal() {
			continue
		}
		if r.Position > max {
			max = r.Position
		}
	}
	return max
}

// Snapshot returns copies of every request, taken under the read lock.
func (s *Store) Snapshot() []model.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Request, 0, len(s.requests))
	for _, r := range s.requests {
		out = append(out, *r)
	}
	return out
}

// Get returns a copy of the request with the given id.
func (s *Store) Get(id uuid.UUID) (model.Request, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return model.Request{}, false
	}
	return *r, true
}

// FindActiveByToken returns a copy of the active request holding the
// token, if any. Terminal requests keep their token value but no
// longer answer to it.
func (s *Store) FindActiveByToken(token string) (model.Request, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.requests {
		if r.Token == token && !r.Status.Terminal() {
			return *r, true
		}
	}
	return model.Request{}, false
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.requests)
}
