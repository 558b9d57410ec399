package domain

import "time"

// PropertyTransfer is the append-only audit record of an ownership change.
// It is written best-effort before the ownership update, so the audit log
// can run ahead of property state if the update later fails.
type PropertyTransfer struct {
	ID                string
	PropertyID        string
	MeetingID         string
	FromShareholderID ShareholderID
	ToShareholderID   ShareholderID
	TransferredAt     time.Time
}
