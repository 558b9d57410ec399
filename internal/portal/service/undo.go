package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/openwaterco/agmdesk/internal/portal/domain"
	"github.com/openwaterco/agmdesk/internal/portal/store"
	"github.com/openwaterco/agmdesk/pkg/idx"
	"github.com/openwaterco/agmdesk/pkg/slogx"
)

var (
	ErrInvalidUndoRequest  = errors.New("invalid undo request")
	ErrUndoRequestNotFound = errors.New("undo request not found")
	ErrUndoAlreadyResolved = errors.New("undo request already resolved")
	ErrInvalidUndoAction   = errors.New("invalid undo action")
	ErrForbidden           = errors.New("admin capability required")
)

// Undo actions accepted by Resolve.
const (
	UndoActionApprove = "approve"
	UndoActionReject  = "reject"
)

// UndoService runs the approval workflow for reversing a check-in. Clerks
// file requests; only admins decide them.
type UndoService struct {
	Store store.Store

	// AdjustAggregate controls whether approving an undo also decrements
	// the meeting's checked_in counter. Historically the counter was left
	// alone, so approved undos overcount attendance; the flag exists for
	// deployments that want the counter to track per-shareholder state.
	AdjustAggregate bool
}

// Request files a pending undo request on behalf of requestedBy.
func (s *UndoService) Request(
	ctx context.Context,
	shareholderID domain.ShareholderID,
	shareholderName string,
	requestedBy string,
	reason string,
) (domain.UndoRequest, error) {
	log := slogx.FromContext(ctx)

	if shareholderID.IsZero() || shareholderName == "" || requestedBy == "" {
		return domain.UndoRequest{}, ErrInvalidUndoRequest
	}

	req := domain.UndoRequest{
		ID:              idx.New().String(),
		ShareholderID:   shareholderID,
		ShareholderName: shareholderName,
		RequestedBy:     requestedBy,
		Reason:          reason,
		Status:          domain.UndoStatusPending,
	}

	if err := s.Store.UndoRequests().CreateUndoRequest(ctx, req); err != nil {
		log.Error("failed to create undo request",
			slog.String("shareholder_id", shareholderID.String()),
			slog.Any("error", err),
		)
		return domain.UndoRequest{}, err
	}

	log.Info("undo request filed",
		slog.String("undo_request_id", req.ID),
		slog.String("shareholder_id", shareholderID.String()),
		slog.String("requested_by", requestedBy),
	)

	return s.Store.UndoRequests().GetUndoRequest(ctx, req.ID)
}

// ListPending returns undecided requests. Admin capability required.
func (s *UndoService) ListPending(ctx context.Context, principal domain.Principal) ([]domain.UndoRequest, error) {
	if !principal.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.Store.UndoRequests().ListUndoRequestsByStatus(ctx, domain.UndoStatusPending)
}

// Resolve approves or rejects a pending request. Approval clears the
// shareholder's check-in state (flag, timestamp, signature) and marks all
// their properties as not checked in; rejection changes nothing but the
// request status. Pending is the only state Resolve accepts.
func (s *UndoService) Resolve(
	ctx context.Context,
	principal domain.Principal,
	requestID string,
	action string,
) (domain.UndoRequest, error) {
	log := slogx.FromContext(ctx)

	// 1. Capability gate. The HTTP layer enforces scopes too, but the
	// decision itself is part of this workflow's contract.
	if !principal.HasScope(domain.ScopeAdminWrite) {
		log.Warn("undo resolution attempted without admin capability",
			slog.String("undo_request_id", requestID),
			slog.String("subject", principal.Subject),
		)
		return domain.UndoRequest{}, ErrForbidden
	}

	if action != UndoActionApprove && action != UndoActionReject {
		return domain.UndoRequest{}, ErrInvalidUndoAction
	}

	// 2. Resolve the request and check it is still pending.
	req, err := s.Store.UndoRequests().GetUndoRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.UndoRequest{}, ErrUndoRequestNotFound
		}
		log.Error("failed to fetch undo request", slog.Any("error", err))
		return domain.UndoRequest{}, err
	}
	if req.Status != domain.UndoStatusPending {
		log.Warn("undo resolution attempted on already-resolved request",
			slog.String("undo_request_id", requestID),
			slog.String("status", string(req.Status)),
		)
		return domain.UndoRequest{}, ErrUndoAlreadyResolved
	}

	status := domain.UndoStatusRejected
	if action == UndoActionApprove {
		status = domain.UndoStatusApproved
	}
	now := time.Now().UTC()

	// 3. Flip the request and, on approval, reverse the check-in state,
	// atomically. The conditional status update keeps a racing second
	// admin from processing the same request twice.
	var meetingID string
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.UndoRequests().ResolveUndoRequest(ctx, requestID, status, principal.Subject, now); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUndoAlreadyResolved
			}
			return err
		}

		if status != domain.UndoStatusApproved {
			return nil
		}

		if err := tx.Shareholders().UpdateShareholderCheckin(ctx, req.ShareholderID, false, nil); err != nil {
			// The shareholder may have been removed by a transfer since
			// the request was filed; the request still resolves.
			if errors.Is(err, store.ErrNotFound) {
				log.Warn("undo approved for missing shareholder",
					slog.String("shareholder_id", req.ShareholderID.String()),
				)
				return nil
			}
			return err
		}
		if err := tx.Shareholders().ClearShareholderSignature(ctx, req.ShareholderID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err := tx.Properties().SetPropertiesCheckedInByShareholder(ctx, req.ShareholderID, false); err != nil {
			return err
		}

		if s.AdjustAggregate {
			sh, err := tx.Shareholders().GetShareholder(ctx, req.ShareholderID)
			if err != nil {
				return err
			}
			meetingID = sh.MeetingID
			return tx.Meetings().AtomicDecrementCheckedIn(ctx, meetingID)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrUndoAlreadyResolved) {
			log.Error("failed to resolve undo request",
				slog.String("undo_request_id", requestID),
				slog.Any("error", err),
			)
		}
		return domain.UndoRequest{}, err
	}

	log.Info("undo request resolved",
		slog.String("undo_request_id", requestID),
		slog.String("status", string(status)),
		slog.String("resolved_by", principal.Subject),
		slog.Bool("aggregate_adjusted", s.AdjustAggregate && status == domain.UndoStatusApproved),
	)

	return s.Store.UndoRequests().GetUndoRequest(ctx, requestID)
}
