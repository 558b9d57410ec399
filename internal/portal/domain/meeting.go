package domain

import "time"

type Meeting struct {
	ID   string
	Year int
	Date time.Time

	// TotalShareholders is set by bulk import (and bumped by manual adds).
	// CheckedIn is the aggregate attendance counter. It never goes below
	// zero and is clamped to TotalShareholders at the store level.
	TotalShareholders int
	CheckedIn         int

	HasInitialData   bool
	MailersGenerated bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
