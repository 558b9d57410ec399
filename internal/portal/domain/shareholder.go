package domain

import (
	"errors"
	"strings"
	"time"
)

// ShareholderID is the external shareholder identifier used as the join key
// between shareholders and properties. It is a plain string in the schema
// (legacy mailing-list data), so we keep it opaque here and enforce
// referential integrity at the store boundary instead of via foreign keys.
type ShareholderID string

// ErrInvalidShareholderID reports a blank or malformed shareholder id.
var ErrInvalidShareholderID = errors.New("domain: invalid shareholder id")

func ParseShareholderID(s string) (ShareholderID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalidShareholderID
	}
	return ShareholderID(s), nil
}

func (id ShareholderID) String() string { return string(id) }
func (id ShareholderID) IsZero() bool   { return id == "" }

type Shareholder struct {
	ID        ShareholderID
	MeetingID string
	Name      string

	MailingStreet string
	MailingCity   string
	MailingState  string
	MailingZip    string

	CheckedIn   bool
	CheckedInAt *time.Time

	// Signature captured at the check-in desk. Hash is the hex SHA-256 of
	// the image bytes so tampering is detectable after the fact.
	SignatureImage []byte
	SignatureHash  string

	CreatedAt time.Time
	UpdatedAt time.Time
}
