package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openwaterco/agmdesk/internal/portal/domain"
	"github.com/openwaterco/agmdesk/internal/portal/store"
	"github.com/openwaterco/agmdesk/pkg/idx"
	"github.com/openwaterco/agmdesk/pkg/slogx"
)

var (
	ErrPropertyNotFound    = errors.New("property not found")
	ErrShareholderNotFound = errors.New("shareholder not found")
)

// TransferOverrides adjust the party fields written during a transfer.
// A nil Owner means "use the target shareholder's own name and mailing
// address"; a nil Resident means "carry the current resident over".
// Customer fields are never overridable: customer identity is independent
// of ownership and always survives a transfer unchanged.
type TransferOverrides struct {
	Owner    *domain.Party
	Resident *domain.Party

	// KeepExistingService forces the resident fields to stay as-is even
	// when a Resident override is supplied.
	KeepExistingService bool
}

// TransferResult is the two-phase outcome of a transfer: the primary
// ownership write always succeeded when a result is returned; Warnings
// carry any best-effort sub-steps (audit record, orphan cleanup) that
// failed without aborting the transfer.
type TransferResult struct {
	Property domain.Property
	Warnings []string
}

type TransferService struct {
	Store store.Store
}

// Transfer moves ownership of a property to an existing shareholder. The
// target must already exist; callers create a new shareholder first when
// transferring to someone new.
func (s *TransferService) Transfer(
	ctx context.Context,
	propertyID string,
	targetID domain.ShareholderID,
	ov TransferOverrides,
) (TransferResult, error) {
	log := slogx.FromContext(ctx)

	// 1. Resolve the property being transferred.
	prop, err := s.Store.Properties().GetProperty(ctx, propertyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("transfer attempted for unknown property",
				slog.String("property_id", propertyID),
			)
			return TransferResult{}, ErrPropertyNotFound
		}
		log.Error("failed to fetch property", slog.Any("error", err))
		return TransferResult{}, err
	}

	// 2. Resolve the target shareholder.
	target, err := s.Store.Shareholders().GetShareholder(ctx, targetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("transfer attempted to unknown shareholder",
				slog.String("property_id", propertyID),
				slog.String("target_shareholder_id", targetID.String()),
			)
			return TransferResult{}, ErrShareholderNotFound
		}
		log.Error("failed to fetch target shareholder", slog.Any("error", err))
		return TransferResult{}, err
	}

	previousOwner := prop.ShareholderID

	// 3. Compute the party fields for the updated row.
	owner, customer, resident := computeTransferParties(prop, target, ov)

	var warnings []string

	// 4. Append the audit record. Best effort: a failed audit insert must
	// not block the transfer itself, and a later write failure does not
	// roll it back, so the audit log can run ahead of property state.
	record := domain.PropertyTransfer{
		ID:                idx.New().String(),
		PropertyID:        prop.ID,
		MeetingID:         prop.MeetingID,
		FromShareholderID: previousOwner,
		ToShareholderID:   targetID,
		TransferredAt:     time.Now().UTC(),
	}
	if err := s.Store.Transfers().InsertTransferRecord(ctx, record); err != nil {
		log.Error("failed to insert transfer audit record",
			slog.String("property_id", prop.ID),
			slog.Any("error", err),
		)
		warnings = append(warnings, fmt.Sprintf("audit record not written: %v", err))
	}

	// 5+6. Primary ownership write, then orphan cleanup of the previous
	// owner, in one transaction. The store rejects the write if the target
	// shareholder vanished in the meantime.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Properties().UpdatePropertyOwnership(ctx, prop.ID, targetID, owner, customer, resident); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrShareholderNotFound
			}
			return err
		}

		if previousOwner == targetID {
			return nil // self-transfer rewrites fields only; no orphan possible
		}

		remaining, err := tx.Properties().CountPropertiesByShareholder(ctx, previousOwner)
		if err != nil {
			// Cleanup is best effort; the ownership write stands.
			log.Warn("failed to count remaining properties after transfer",
				slog.String("shareholder_id", previousOwner.String()),
				slog.Any("error", err),
			)
			warnings = append(warnings, fmt.Sprintf("orphan check skipped: %v", err))
			return nil
		}

		if remaining == 0 {
			if err := tx.Shareholders().DeleteShareholder(ctx, previousOwner); err != nil {
				log.Warn("failed to delete orphaned shareholder",
					slog.String("shareholder_id", previousOwner.String()),
					slog.Any("error", err),
				)
				warnings = append(warnings, fmt.Sprintf("orphaned shareholder not removed: %v", err))
			}
		}
		return nil
	})
	if err != nil {
		log.Error("transfer failed",
			slog.String("property_id", prop.ID),
			slog.String("target_shareholder_id", targetID.String()),
			slog.Any("error", err),
		)
		return TransferResult{}, err
	}

	updated, err := s.Store.Properties().GetProperty(ctx, prop.ID)
	if err != nil {
		return TransferResult{}, err
	}

	log.Info("property transferred",
		slog.String("property_id", prop.ID),
		slog.String("from_shareholder_id", previousOwner.String()),
		slog.String("to_shareholder_id", targetID.String()),
		slog.Int("warnings", len(warnings)),
	)

	return TransferResult{Property: updated, Warnings: warnings}, nil
}

// computeTransferParties applies the override rules: owner defaults to the
// target shareholder's identity, customer always carries over unchanged,
// resident carries over unless overridden (and KeepExistingService wins).
func computeTransferParties(
	prop domain.Property,
	target domain.Shareholder,
	ov TransferOverrides,
) (owner, customer, resident domain.Party) {
	owner = domain.Party{
		Name:    target.Name,
		Address: mailingAddressLine(target),
	}
	if ov.Owner != nil {
		owner = *ov.Owner
	}

	customer = prop.Customer

	resident = prop.Resident
	if ov.Resident != nil && !ov.KeepExistingService {
		resident = *ov.Resident
	}

	return owner, customer, resident
}

func mailingAddressLine(s domain.Shareholder) string {
	line := s.MailingStreet
	rest := joinNonEmpty(", ", s.MailingCity, s.MailingState)
	if rest != "" {
		line = joinNonEmpty(", ", line, rest)
	}
	if s.MailingZip != "" {
		line = joinNonEmpty(" ", line, s.MailingZip)
	}
	return line
}

func joinNonEmpty(sep string, parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out == "" {
			out = p
			continue
		}
		out += sep + p
	}
	return out
}
