package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/openwaterco/agmdesk/internal/portal/domain"
	"github.com/openwaterco/agmdesk/internal/portal/store"
	"github.com/openwaterco/agmdesk/pkg/idx"
	"github.com/openwaterco/agmdesk/pkg/slogx"
)

var (
	ErrInvalidImportFile = errors.New("invalid import file")
	ErrImportYearInvalid = errors.New("invalid meeting year")
)

// importColumns is the header the mailing-list export produces. Order is
// fixed; extra columns are ignored.
var importColumns = []string{
	"shareholder_id", "shareholder_name",
	"mailing_street", "mailing_city", "mailing_state", "mailing_zip",
	"account_number", "service_address",
	"owner_name", "owner_address",
	"customer_name", "customer_address",
	"resident_name", "resident_address",
}

// ImportSummary reports what a bulk import did.
type ImportSummary struct {
	MeetingID           string
	Year                int
	ShareholdersCreated int
	PropertiesCreated   int
	RowsSkipped         int
}

// ImportService populates a meeting from the annual mailing-list CSV
// export. It writes shareholder and property rows directly; transfers
// and check-ins are not involved in seeding a meeting.
type ImportService struct {
	Store store.Store
}

// ImportCSV reads the export and creates the meeting (if needed), its
// shareholders, and their properties. Rows missing a shareholder name or
// account number are skipped and counted, not fatal: the desk would
// rather work with a partial roll than none on meeting day.
func (s *ImportService) ImportCSV(ctx context.Context, year int, meetingDate time.Time, r io.Reader) (ImportSummary, error) {
	log := slogx.FromContext(ctx)

	if year < 1900 || year > 2200 {
		return ImportSummary{}, ErrImportYearInvalid
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows are handled per-row below
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return ImportSummary{}, fmt.Errorf("%w: %v", ErrInvalidImportFile, err)
	}
	cols, err := mapHeader(header)
	if err != nil {
		return ImportSummary{}, err
	}

	// 1. Find or create the meeting for this year.
	meeting, err := s.Store.Meetings().GetMeetingByYear(ctx, year)
	if errors.Is(err, store.ErrNotFound) {
		meeting = domain.Meeting{
			ID:   idx.New().String(),
			Year: year,
			Date: meetingDate.UTC(),
		}
		if err := s.Store.Meetings().CreateMeeting(ctx, meeting); err != nil {
			return ImportSummary{}, err
		}
	} else if err != nil {
		return ImportSummary{}, err
	}

	summary := ImportSummary{MeetingID: meeting.ID, Year: year}

	// 2. Walk the rows. One property per row; rows sharing a shareholder
	// id accumulate under one shareholder record.
	seen := make(map[domain.ShareholderID]bool)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ImportSummary{}, fmt.Errorf("%w: line %d: %v", ErrInvalidImportFile, line, err)
		}

		row := newImportRow(record, cols)
		if row.name == "" || row.accountNumber == "" {
			log.Warn("import row skipped", slog.Int("line", line))
			summary.RowsSkipped++
			continue
		}

		shID, created, err := s.ensureShareholder(ctx, meeting.ID, row, seen)
		if err != nil {
			return summary, fmt.Errorf("line %d: %w", line, err)
		}
		if created {
			summary.ShareholdersCreated++
		}

		prop := domain.Property{
			ID:             idx.New().String(),
			MeetingID:      meeting.ID,
			ShareholderID:  shID,
			AccountNumber:  row.accountNumber,
			ServiceAddress: row.serviceAddress,
			Owner:          row.owner,
			Customer:       row.customer,
			Resident:       row.resident,
		}
		if prop.Owner.Name == "" {
			prop.Owner = domain.Party{Name: row.name, Address: row.mailingLine()}
		}
		if err := s.Store.Properties().CreateProperty(ctx, prop); err != nil {
			return summary, fmt.Errorf("line %d: %w", line, err)
		}
		summary.PropertiesCreated++
	}

	// 3. Refresh the aggregates and flag the meeting as populated.
	total, err := s.Store.Shareholders().CountShareholdersByMeeting(ctx, meeting.ID)
	if err != nil {
		return summary, err
	}
	if err := s.Store.Meetings().SetTotalShareholders(ctx, meeting.ID, total); err != nil {
		return summary, err
	}
	if err := s.Store.Meetings().SetHasInitialData(ctx, meeting.ID, true); err != nil {
		return summary, err
	}

	log.Info("bulk import complete",
		slog.String("meeting_id", meeting.ID),
		slog.Int("year", year),
		slog.Int("shareholders_created", summary.ShareholdersCreated),
		slog.Int("properties_created", summary.PropertiesCreated),
		slog.Int("rows_skipped", summary.RowsSkipped),
	)

	return summary, nil
}

// ensureShareholder creates the row's shareholder unless it already exists
// (earlier row in this file, or a previous import). Blank ids get a random
// 6-digit id, retried on the off chance of a collision.
func (s *ImportService) ensureShareholder(
	ctx context.Context,
	meetingID string,
	row importRow,
	seen map[domain.ShareholderID]bool,
) (domain.ShareholderID, bool, error) {
	if row.shareholderID != "" {
		id := domain.ShareholderID(row.shareholderID)
		if seen[id] {
			return id, false, nil
		}
		seen[id] = true

		_, err := s.Store.Shareholders().GetShareholder(ctx, id)
		if err == nil {
			return id, false, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return "", false, err
		}

		if err := s.createShareholder(ctx, meetingID, id, row); err != nil {
			return "", false, err
		}
		return id, true, nil
	}

	for attempt := 0; attempt < 5; attempt++ {
		id := domain.ShareholderID(idx.Digits(6))
		err := s.createShareholder(ctx, meetingID, id, row)
		if err == nil {
			seen[id] = true
			return id, true, nil
		}
		if !errors.Is(err, store.ErrAlreadyExists) {
			return "", false, err
		}
	}
	return "", false, fmt.Errorf("could not allocate a shareholder id for %q", row.name)
}

func (s *ImportService) createShareholder(ctx context.Context, meetingID string, id domain.ShareholderID, row importRow) error {
	return s.Store.Shareholders().CreateShareholder(ctx, domain.Shareholder{
		ID:            id,
		MeetingID:     meetingID,
		Name:          row.name,
		MailingStreet: row.mailingStreet,
		MailingCity:   row.mailingCity,
		MailingState:  row.mailingState,
		MailingZip:    row.mailingZip,
	})
}

type importRow struct {
	shareholderID string
	name          string
	mailingStreet string
	mailingCity   string
	mailingState  string
	mailingZip    string

	accountNumber  string
	serviceAddress string

	owner    domain.Party
	customer domain.Party
	resident domain.Party
}

func (r importRow) mailingLine() string {
	return mailingAddressLine(domain.Shareholder{
		MailingStreet: r.mailingStreet,
		MailingCity:   r.mailingCity,
		MailingState:  r.mailingState,
		MailingZip:    r.mailingZip,
	})
}

func newImportRow(record []string, cols map[string]int) importRow {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	return importRow{
		shareholderID:  get("shareholder_id"),
		name:           get("shareholder_name"),
		mailingStreet:  get("mailing_street"),
		mailingCity:    get("mailing_city"),
		mailingState:   get("mailing_state"),
		mailingZip:     get("mailing_zip"),
		accountNumber:  get("account_number"),
		serviceAddress: get("service_address"),
		owner:          domain.Party{Name: get("owner_name"), Address: get("owner_address")},
		customer:       domain.Party{Name: get("customer_name"), Address: get("customer_address")},
		resident:       domain.Party{Name: get("resident_name"), Address: get("resident_address")},
	}
}

func mapHeader(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"shareholder_name", "account_number"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidImportFile, required)
		}
	}
	return cols, nil
}
