package domain

import "time"

// Party is a name/address pair as printed on mailers and notices.
type Party struct {
	Name    string
	Address string
}

// Property is a benefit unit tied to a service address. Exactly one
// shareholder owns it at a time; ownership moves via transfer, never by
// deleting and recreating the row.
type Property struct {
	ID            string
	MeetingID     string
	ShareholderID ShareholderID

	AccountNumber  string
	ServiceAddress string

	// Owner follows ownership transfers. Customer identity is independent
	// of ownership and is never touched by a transfer. Resident follows
	// the occupant and is carried over unless a transfer overrides it.
	Owner    Party
	Customer Party
	Resident Party

	CheckedIn bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
