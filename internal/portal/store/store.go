package store

import (
	"context"
	"errors"
	"time"

	"github.com/openwaterco/agmdesk/internal/portal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface for the meeting registry.
// Concrete drivers (sqlite for now) implement it. Sub-repositories keep
// the surface tidy. No business logic lives behind this interface: it
// only fails with ErrNotFound when a row is absent and surfaces driver
// errors otherwise.
type Store interface {
	Meetings() Meetings
	Shareholders() Shareholders
	Properties() Properties
	Transfers() Transfers
	UndoRequests() UndoRequests

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing on nil and
	// rolling back on error. Prefer this over Tx directly.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Meetings interface {
	// GetMeetingByID returns a meeting by id.
	GetMeetingByID(ctx context.Context, id string) (domain.Meeting, error)

	// GetMeetingByYear returns the meeting for a given year (one per year).
	GetMeetingByYear(ctx context.Context, year int) (domain.Meeting, error)

	// ListMeetings returns all meetings, newest year first.
	ListMeetings(ctx context.Context) ([]domain.Meeting, error)

	// CreateMeeting inserts a new meeting (id is provided via ULID).
	CreateMeeting(ctx context.Context, m domain.Meeting) error

	// SetTotalShareholders sets the aggregate total (bulk import).
	SetTotalShareholders(ctx context.Context, meetingID string, total int) error

	// SetHasInitialData flags that the meeting has been populated.
	SetHasInitialData(ctx context.Context, meetingID string, v bool) error

	// SetMailersGenerated flags that the mailer batch has been produced.
	SetMailersGenerated(ctx context.Context, meetingID string, v bool) error

	// AtomicIncrementCheckedIn bumps checked_in by one, clamped to
	// total_shareholders, in a single statement. This is the only
	// operation in the system that must be a database-level atomic
	// read-modify-write: two check-ins racing for the last slot must not
	// lose an update or exceed the cap.
	AtomicIncrementCheckedIn(ctx context.Context, meetingID string) error

	// AtomicDecrementCheckedIn lowers checked_in by one with a floor of
	// zero, in a single statement. Only used when undo approvals are
	// configured to adjust the aggregate.
	AtomicDecrementCheckedIn(ctx context.Context, meetingID string) error
}

type Shareholders interface {
	// GetShareholder returns a shareholder by its external id.
	GetShareholder(ctx context.Context, id domain.ShareholderID) (domain.Shareholder, error)

	// ListShareholdersByMeeting returns all shareholders for a meeting ordered by name.
	ListShareholdersByMeeting(ctx context.Context, meetingID string) ([]domain.Shareholder, error)

	// CountShareholdersByMeeting returns the number of shareholders in a meeting.
	CountShareholdersByMeeting(ctx context.Context, meetingID string) (int, error)

	// CreateShareholder inserts a new shareholder. Fails with
	// ErrAlreadyExists when the id is taken.
	CreateShareholder(ctx context.Context, s domain.Shareholder) error

	// UpdateShareholderCheckin sets the checked_in flag and timestamp.
	// A nil checkedInAt clears the timestamp (undo approval).
	UpdateShareholderCheckin(ctx context.Context, id domain.ShareholderID, checkedIn bool, checkedInAt *time.Time) error

	// UpdateShareholderSignature stores the signature image and its hash.
	UpdateShareholderSignature(ctx context.Context, id domain.ShareholderID, image []byte, hash string) error

	// ClearShareholderSignature removes any captured signature (undo approval).
	ClearShareholderSignature(ctx context.Context, id domain.ShareholderID) error

	// UpdateShareholderMailingAddress replaces the mailing address fields.
	UpdateShareholderMailingAddress(ctx context.Context, id domain.ShareholderID, street, city, state, zip string) error

	// DeleteShareholder removes a shareholder record (orphan cleanup after
	// transfer, or explicit admin action).
	DeleteShareholder(ctx context.Context, id domain.ShareholderID) error
}

type Properties interface {
	// GetProperty returns a property by id.
	GetProperty(ctx context.Context, id string) (domain.Property, error)

	// ListPropertiesByShareholder returns all properties owned by a shareholder.
	ListPropertiesByShareholder(ctx context.Context, id domain.ShareholderID) ([]domain.Property, error)

	// CountPropertiesByShareholder returns the number of properties owned
	// by a shareholder (orphan detection after transfer).
	CountPropertiesByShareholder(ctx context.Context, id domain.ShareholderID) (int, error)

	// ListPropertiesByMeeting returns all properties for a meeting.
	ListPropertiesByMeeting(ctx context.Context, meetingID string) ([]domain.Property, error)

	// CreateProperty inserts a new property. The referenced shareholder
	// must exist; the insert fails with ErrNotFound otherwise (the join
	// key is a plain string, so the store enforces the reference).
	CreateProperty(ctx context.Context, p domain.Property) error

	// UpdatePropertyOwnership rewrites the owning shareholder and the
	// owner/customer/resident fields on a property row. The new
	// shareholder must exist; fails with ErrNotFound otherwise.
	UpdatePropertyOwnership(ctx context.Context, propertyID string, newOwner domain.ShareholderID, owner, customer, resident domain.Party) error

	// SetPropertiesCheckedInByShareholder marks every property owned by a
	// shareholder as checked in or not.
	SetPropertiesCheckedInByShareholder(ctx context.Context, id domain.ShareholderID, checkedIn bool) error

	// DeleteProperty removes a property row (explicit admin action only).
	DeleteProperty(ctx context.Context, id string) error
}

type Transfers interface {
	// InsertTransferRecord appends an audit record. Append-only; nothing
	// ever updates or deletes these rows.
	InsertTransferRecord(ctx context.Context, t domain.PropertyTransfer) error

	// ListTransfersByMeeting returns transfer records newest first.
	ListTransfersByMeeting(ctx context.Context, meetingID string) ([]domain.PropertyTransfer, error)

	// ListTransfersByProperty returns the audit trail for one property.
	ListTransfersByProperty(ctx context.Context, propertyID string) ([]domain.PropertyTransfer, error)
}

type UndoRequests interface {
	// CreateUndoRequest inserts a pending request.
	CreateUndoRequest(ctx context.Context, r domain.UndoRequest) error

	// GetUndoRequest returns a request by id.
	GetUndoRequest(ctx context.Context, id string) (domain.UndoRequest, error)

	// ListUndoRequestsByStatus returns requests in a given status, oldest first.
	ListUndoRequestsByStatus(ctx context.Context, status domain.UndoStatus) ([]domain.UndoRequest, error)

	// ResolveUndoRequest moves a pending request to a terminal status and
	// records the approver. Only rows still pending are updated; fails
	// with ErrNotFound when the request is absent or no longer pending.
	ResolveUndoRequest(ctx context.Context, id string, status domain.UndoStatus, resolvedBy string, resolvedAt time.Time) error
}
