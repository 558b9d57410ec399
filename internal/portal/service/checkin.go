package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/openwaterco/agmdesk/internal/portal/domain"
	"github.com/openwaterco/agmdesk/internal/portal/store"
	"github.com/openwaterco/agmdesk/pkg/slogx"
)

var (
	ErrMeetingNotFound   = errors.New("meeting not found")
	ErrInvalidSignature  = errors.New("invalid signature image")
	ErrInvalidCheckinReq = errors.New("invalid check-in request")
)

type CheckinService struct {
	Store store.Store
}

// CheckIn marks a shareholder (and all their properties) as present and
// bumps the meeting's aggregate counter.
//
// Re-checking-in an already-present shareholder is deliberately permitted:
// desks re-scan badges all day and a duplicate scan must not error. The
// aggregate increments again below the cap; only the clamp at
// total_shareholders bounds it. There is no per-shareholder duplicate
// guard, matching how the desk workflow has always behaved.
func (s *CheckinService) CheckIn(ctx context.Context, id domain.ShareholderID) (domain.Meeting, error) {
	log := slogx.FromContext(ctx)

	if id.IsZero() {
		return domain.Meeting{}, ErrInvalidCheckinReq
	}

	// 1. Resolve the shareholder.
	sh, err := s.Store.Shareholders().GetShareholder(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("check-in attempted for unknown shareholder",
				slog.String("shareholder_id", id.String()),
			)
			return domain.Meeting{}, ErrShareholderNotFound
		}
		log.Error("failed to fetch shareholder", slog.Any("error", err))
		return domain.Meeting{}, err
	}

	// 2. Resolve the shareholder's meeting.
	meeting, err := s.Store.Meetings().GetMeetingByID(ctx, sh.MeetingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("check-in attempted for unknown meeting",
				slog.String("shareholder_id", id.String()),
				slog.String("meeting_id", sh.MeetingID),
			)
			return domain.Meeting{}, ErrMeetingNotFound
		}
		log.Error("failed to fetch meeting", slog.Any("error", err))
		return domain.Meeting{}, err
	}

	// 3. Bump the aggregate. This is the single racy spot in the whole
	// system, so it runs as one atomic clamped statement in the store.
	if err := s.Store.Meetings().AtomicIncrementCheckedIn(ctx, meeting.ID); err != nil {
		log.Error("failed to increment checked-in counter",
			slog.String("meeting_id", meeting.ID),
			slog.Any("error", err),
		)
		return domain.Meeting{}, err
	}

	// 4. Mark the shareholder and every owned property as present.
	now := time.Now().UTC()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Shareholders().UpdateShareholderCheckin(ctx, id, true, &now); err != nil {
			return err
		}
		return tx.Properties().SetPropertiesCheckedInByShareholder(ctx, id, true)
	})
	if err != nil {
		log.Error("failed to mark shareholder checked in",
			slog.String("shareholder_id", id.String()),
			slog.Any("error", err),
		)
		return domain.Meeting{}, err
	}

	// 5. Re-read so the caller sees the post-increment aggregates.
	updated, err := s.Store.Meetings().GetMeetingByID(ctx, meeting.ID)
	if err != nil {
		return domain.Meeting{}, err
	}

	log.Info("shareholder checked in",
		slog.String("shareholder_id", id.String()),
		slog.String("meeting_id", meeting.ID),
		slog.Int("checked_in", updated.CheckedIn),
		slog.Int("total_shareholders", updated.TotalShareholders),
	)

	return updated, nil
}

// SaveSignature stores the signature image captured at the desk together
// with its SHA-256 hash.
func (s *CheckinService) SaveSignature(ctx context.Context, id domain.ShareholderID, image []byte) error {
	log := slogx.FromContext(ctx)

	if len(image) == 0 {
		return ErrInvalidSignature
	}

	sum := sha256.Sum256(image)
	hash := hex.EncodeToString(sum[:])

	if err := s.Store.Shareholders().UpdateShareholderSignature(ctx, id, image, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrShareholderNotFound
		}
		log.Error("failed to store signature",
			slog.String("shareholder_id", id.String()),
			slog.Any("error", err),
		)
		return err
	}

	log.Debug("signature captured",
		slog.String("shareholder_id", id.String()),
		slog.String("signature_hash", hash),
	)
	return nil
}
