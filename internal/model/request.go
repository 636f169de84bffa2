package model

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInside     Status = "inside"
	StatusCompleted  Status = "completed"
	StatusSkipped    Status = "skipped"
	StatusSentToScan Status = "sent_to_scan"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusInside, StatusCompleted, StatusSkipped, StatusSentToScan:
		return true
	}
	return false
}

// Terminal statuses are never left again; a terminal request stays in
// the store as history but is excluded from every active-queue view.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusSkipped
}

// Queued reports whether the request is waiting for service and gets
// an ETA computed for it.
func (s Status) Queued() bool {
	return s == StatusWaiting || s == StatusSentToScan
}

// Request is a queued unit of work (a patient) for a single provider.
// Position orders requests of the same provider; it only needs to be
// consistent in relative order, not contiguous.
type Request struct {
	ID         uuid.UUID `json:"id"`
	Token      string    `json:"token"`
	ProviderID string    `json:"provider_id"`
	Status     Status    `json:"status"`
	Position   int       `json:"position"`
	ETA        int       `json:"eta"`
	BookedAt   time.Time `json:"booked_at"`
	Name       string    `json:"name"`
	Contact    string    `json:"contact"`
	CaseType   string    `json:"case_type"`
}

// RequesterInfo is the descriptive payload required to admit a request.
type RequesterInfo struct {
	Name     string `json:"name" binding:"required" validate:"required"`
	Contact  string `json:"contact" binding:"required" validate:"required"`
	CaseType string `json:"case_type" binding:"required" validate:"required"`
}

// RequestView is the read model exposed to clients.
type RequestView struct {
	ID         uuid.UUID `json:"id"`
	Token      string    `json:"token"`
	ProviderID string    `json:"provider_id"`
	Status     Status    `json:"status"`
	Position   int       `json:"position"`
	ETA        int       `json:"eta"`
	BookedAt   time.Time `json:"booked_at"`
	Name       string    `json:"name"`
	CaseType   string    `json:"case_type"`
}

func (r Request) View() RequestView {
	return RequestView{
		ID:         r.ID,
		Token:      r.Token,
		ProviderID: r.ProviderID,
		Status:     r.Status,
		Position:   r.Position,
		ETA:        r.ETA,
		BookedAt:   r.BookedAt,
		Name:       r.Name,
		CaseType:   r.CaseType,
	}
}

// Session is the live view a requester gets for their token. Request
// is nil when the token has no active session, which is a normal
// result rather than an error.
type Session struct {
	Request  *RequestView  `json:"request,omitempty"`
	Queue    []RequestView `json:"queue"`
	Position int           `json:"position"`
}

type AdmitRequest struct {
	ProviderID string `json:"provider_id" binding:"required"`
	RequesterInfo
}

type TransitionRequest struct {
	Status Status `json:"status" binding:"required"`
}
