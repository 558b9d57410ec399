// Package agmsdk holds the request/response types for the portal's HTTP
// API, plus a small client for other services and scripts. Keeping them
// here means the server handlers and client code can never drift apart.
package agmsdk

import "time"

// ErrorResponse is the error shape every endpoint returns on failure.
type ErrorResponse struct {
	// Error is the machine-readable error code (e.g. "not_found", "invalid_request")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`
}

// CheckinRequest marks a shareholder as present. The shareholder id
// usually comes from a barcode scan at the desk.
type CheckinRequest struct {
	ShareholderID string `json:"shareholder_id"`
}

// CheckinResponse returns the meeting aggregates after a check-in.
type CheckinResponse struct {
	ShareholderID     string `json:"shareholder_id"`
	MeetingID         string `json:"meeting_id"`
	CheckedIn         int    `json:"checked_in"`
	TotalShareholders int    `json:"total_shareholders"`
}

// PartyInfo is a name/address pair as printed on notices.
type PartyInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// PropertyResponse is one benefit unit and its current state.
type PropertyResponse struct {
	ID             string    `json:"id"`
	MeetingID      string    `json:"meeting_id"`
	ShareholderID  string    `json:"shareholder_id"`
	AccountNumber  string    `json:"account_number"`
	ServiceAddress string    `json:"service_address"`
	Owner          PartyInfo `json:"owner"`
	Customer       PartyInfo `json:"customer"`
	Resident       PartyInfo `json:"resident"`
	CheckedIn      bool      `json:"checked_in"`
}

// ShareholderResponse is a shareholder with its owned properties.
type ShareholderResponse struct {
	ShareholderID string     `json:"shareholder_id"`
	MeetingID     string     `json:"meeting_id"`
	Name          string     `json:"name"`
	MailingStreet string     `json:"mailing_street"`
	MailingCity   string     `json:"mailing_city"`
	MailingState  string     `json:"mailing_state"`
	MailingZip    string     `json:"mailing_zip"`
	CheckedIn     bool       `json:"checked_in"`
	CheckedInAt   *time.Time `json:"checked_in_at,omitempty"`
	HasSignature  bool       `json:"has_signature"`

	Properties []PropertyResponse `json:"properties,omitempty"`
}

// CreateShareholderRequest adds a shareholder manually (outside bulk
// import), together with their first property.
type CreateShareholderRequest struct {
	// ShareholderID may be blank; the portal assigns a 6-digit id then.
	ShareholderID string `json:"shareholder_id,omitempty"`
	MeetingID     string `json:"meeting_id"`
	Name          string `json:"name"`
	MailingStreet string `json:"mailing_street,omitempty"`
	MailingCity   string `json:"mailing_city,omitempty"`
	MailingState  string `json:"mailing_state,omitempty"`
	MailingZip    string `json:"mailing_zip,omitempty"`

	AccountNumber  string `json:"account_number"`
	ServiceAddress string `json:"service_address"`
}

// UpdateMailingAddressRequest replaces a shareholder's mailing address.
type UpdateMailingAddressRequest struct {
	MailingStreet string `json:"mailing_street"`
	MailingCity   string `json:"mailing_city"`
	MailingState  string `json:"mailing_state"`
	MailingZip    string `json:"mailing_zip"`
}

// TransferRequest reassigns a property to an existing shareholder.
type TransferRequest struct {
	TargetShareholderID string `json:"target_shareholder_id"`

	// Optional owner/resident overrides; blank means "use the target
	// shareholder's own identity" for owner and "carry over" for resident.
	OwnerName       string `json:"owner_name,omitempty"`
	OwnerAddress    string `json:"owner_address,omitempty"`
	ResidentName    string `json:"resident_name,omitempty"`
	ResidentAddress string `json:"resident_address,omitempty"`

	// KeepExistingService forces the resident fields to stay as-is even
	// when overrides are supplied.
	KeepExistingService bool `json:"keep_existing_service,omitempty"`
}

// TransferResponse returns the updated property. Warnings report
// best-effort sub-steps (audit record, orphan cleanup) that failed
// without aborting the transfer.
type TransferResponse struct {
	Property PropertyResponse `json:"property"`
	Warnings []string         `json:"warnings,omitempty"`
}

// CreateUndoRequest asks for a shareholder's check-in to be reversed.
type CreateUndoRequest struct {
	ShareholderID   string `json:"shareholder_id"`
	ShareholderName string `json:"shareholder_name"`
	Reason          string `json:"reason,omitempty"`
}

// UndoRequestResponse is one reversal request and its workflow state.
type UndoRequestResponse struct {
	ID              string     `json:"id"`
	ShareholderID   string     `json:"shareholder_id"`
	ShareholderName string     `json:"shareholder_name"`
	RequestedBy     string     `json:"requested_by"`
	Reason          string     `json:"reason,omitempty"`
	Status          string     `json:"status"`
	ResolvedBy      string     `json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ResolveUndoRequest approves or rejects a pending reversal.
type ResolveUndoRequest struct {
	// Action is "approve" or "reject".
	Action string `json:"action"`
}

// MeetingResponse is a meeting and its aggregate counters.
type MeetingResponse struct {
	ID                string    `json:"id"`
	Year              int       `json:"year"`
	Date              time.Time `json:"date"`
	TotalShareholders int       `json:"total_shareholders"`
	CheckedIn         int       `json:"checked_in"`
	HasInitialData    bool      `json:"has_initial_data"`
	MailersGenerated  bool      `json:"mailers_generated"`
}

// ImportResponse summarises a bulk CSV import.
type ImportResponse struct {
	MeetingID           string `json:"meeting_id"`
	Year                int    `json:"year"`
	ShareholdersCreated int    `json:"shareholders_created"`
	PropertiesCreated   int    `json:"properties_created"`
	RowsSkipped         int    `json:"rows_skipped"`
}

// HealthChecks reports the state of critical dependencies.
type HealthChecks struct {
	Database string `json:"database"`
}

// HealthResponse is returned by the livez/readyz endpoints.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
