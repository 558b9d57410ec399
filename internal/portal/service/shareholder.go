package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/openwaterco/agmdesk/internal/portal/domain"
	"github.com/openwaterco/agmdesk/internal/portal/store"
	"github.com/openwaterco/agmdesk/pkg/idx"
	"github.com/openwaterco/agmdesk/pkg/slogx"
)

var (
	ErrInvalidShareholderReq = errors.New("invalid shareholder request")
	ErrShareholderIDTaken    = errors.New("shareholder id already in use")
)

// ShareholderService handles the admin-side shareholder operations that
// fall outside check-in and transfers: late registrations added on meeting
// day, address corrections, and property removal.
type ShareholderService struct {
	Store store.Store
}

// CreateShareholderInput is a late registration. ID is optional; a random
// 6-digit id is allocated when blank. The initial property is created in
// the same transaction so a shareholder never exists without one.
type CreateShareholderInput struct {
	ID        string
	MeetingID string
	Name      string

	MailingStreet string
	MailingCity   string
	MailingState  string
	MailingZip    string

	AccountNumber  string
	ServiceAddress string
	Owner          domain.Party
	Customer       domain.Party
	Resident       domain.Party
}

// ShareholderDetail is a shareholder with the properties they hold.
type ShareholderDetail struct {
	Shareholder domain.Shareholder
	Properties  []domain.Property
}

func (s *ShareholderService) Create(ctx context.Context, in CreateShareholderInput) (ShareholderDetail, error) {
	log := slogx.FromContext(ctx)

	in.Name = strings.TrimSpace(in.Name)
	in.AccountNumber = strings.TrimSpace(in.AccountNumber)
	if in.Name == "" || in.MeetingID == "" || in.AccountNumber == "" {
		return ShareholderDetail{}, ErrInvalidShareholderReq
	}

	// 1. Confirm the meeting exists before allocating anything.
	if _, err := s.Store.Meetings().GetMeetingByID(ctx, in.MeetingID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ShareholderDetail{}, ErrMeetingNotFound
		}
		return ShareholderDetail{}, err
	}

	id := domain.ShareholderID(strings.TrimSpace(in.ID))
	generated := id.IsZero()
	if generated {
		id = domain.ShareholderID(idx.Digits(6))
	}

	sh := domain.Shareholder{
		ID:            id,
		MeetingID:     in.MeetingID,
		Name:          in.Name,
		MailingStreet: in.MailingStreet,
		MailingCity:   in.MailingCity,
		MailingState:  in.MailingState,
		MailingZip:    in.MailingZip,
	}

	owner := in.Owner
	if owner.Name == "" {
		owner = domain.Party{Name: sh.Name, Address: mailingAddressLine(sh)}
	}
	prop := domain.Property{
		ID:             idx.New().String(),
		MeetingID:      in.MeetingID,
		ShareholderID:  id,
		AccountNumber:  in.AccountNumber,
		ServiceAddress: in.ServiceAddress,
		Owner:          owner,
		Customer:       in.Customer,
		Resident:       in.Resident,
	}

	// 2. Insert both rows in one transaction; retry once on a generated id
	// collision, surface the conflict for caller-supplied ids.
	for attempt := 0; ; attempt++ {
		err := s.Store.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.Shareholders().CreateShareholder(ctx, sh); err != nil {
				return err
			}
			return tx.Properties().CreateProperty(ctx, prop)
		})
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrAlreadyExists) {
			if generated && attempt < 5 {
				sh.ID = domain.ShareholderID(idx.Digits(6))
				prop.ShareholderID = sh.ID
				continue
			}
			return ShareholderDetail{}, ErrShareholderIDTaken
		}
		return ShareholderDetail{}, err
	}

	log.Info("shareholder registered",
		slog.String("shareholder_id", sh.ID.String()),
		slog.String("meeting_id", in.MeetingID),
	)

	return s.Get(ctx, sh.ID)
}

// Get returns a shareholder with all properties they hold.
func (s *ShareholderService) Get(ctx context.Context, id domain.ShareholderID) (ShareholderDetail, error) {
	sh, err := s.Store.Shareholders().GetShareholder(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ShareholderDetail{}, ErrShareholderNotFound
	}
	if err != nil {
		return ShareholderDetail{}, err
	}

	props, err := s.Store.Properties().ListPropertiesByShareholder(ctx, id)
	if err != nil {
		return ShareholderDetail{}, err
	}

	return ShareholderDetail{Shareholder: sh, Properties: props}, nil
}

// ListByMeeting returns every shareholder in a meeting with their properties
// omitted; the dashboard fetches details per row on demand.
func (s *ShareholderService) ListByMeeting(ctx context.Context, meetingID string) ([]domain.Shareholder, error) {
	if _, err := s.Store.Meetings().GetMeetingByID(ctx, meetingID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMeetingNotFound
		}
		return nil, err
	}
	return s.Store.Shareholders().ListShareholdersByMeeting(ctx, meetingID)
}

// UpdateMailingAddress replaces the mailing address on a shareholder. The
// owner/customer/resident blocks on existing properties are left alone;
// those only change through transfers.
func (s *ShareholderService) UpdateMailingAddress(ctx context.Context, id domain.ShareholderID, street, city, state, zip string) (domain.Shareholder, error) {
	err := s.Store.Shareholders().UpdateShareholderMailingAddress(ctx, id, street, city, state, zip)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Shareholder{}, ErrShareholderNotFound
	}
	if err != nil {
		return domain.Shareholder{}, err
	}
	return s.Store.Shareholders().GetShareholder(ctx, id)
}

// DeleteProperty removes a property row and, when it was the holder's last
// one, the now-empty shareholder record with it.
func (s *ShareholderService) DeleteProperty(ctx context.Context, propertyID string) error {
	log := slogx.FromContext(ctx)

	prop, err := s.Store.Properties().GetProperty(ctx, propertyID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrPropertyNotFound
	}
	if err != nil {
		return err
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Properties().DeleteProperty(ctx, propertyID); err != nil {
			return err
		}
		remaining, err := tx.Properties().CountPropertiesByShareholder(ctx, prop.ShareholderID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			if err := tx.Shareholders().DeleteShareholder(ctx, prop.ShareholderID); err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			log.Info("shareholder removed with last property",
				slog.String("shareholder_id", prop.ShareholderID.String()),
				slog.String("property_id", propertyID),
			)
		}
		return nil
	})
}
