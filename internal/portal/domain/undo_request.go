package domain

import "time"

// UndoStatus is the state of a check-in reversal request. Pending is the
// only mutable state; approved and rejected are terminal.
type UndoStatus string

const (
	UndoStatusPending  UndoStatus = "pending"
	UndoStatusApproved UndoStatus = "approved"
	UndoStatusRejected UndoStatus = "rejected"
)

type UndoRequest struct {
	ID              string
	ShareholderID   ShareholderID
	ShareholderName string
	RequestedBy     string
	Reason          string

	Status     UndoStatus
	ResolvedBy string
	ResolvedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
