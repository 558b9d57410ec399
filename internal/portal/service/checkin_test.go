package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openwaterco/agmdesk/internal/portal/domain"
)

func TestCheckIn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	meeting := seedMeeting(t, st, 2026, 3)
	for i, id := range []domain.ShareholderID{"600001", "600002", "600003"} {
		sh := seedShareholder(t, st, meeting.ID, id, "Holder "+string(rune('A'+i)))
		seedProperty(t, st, meeting.ID, sh.ID, "ACC-"+id.String())
	}

	svc := &CheckinService{Store: st}

	t.Run("marks shareholder and properties present", func(t *testing.T) {
		m, err := svc.CheckIn(ctx, "600001")
		require.NoError(t, err)
		require.Equal(t, 1, m.CheckedIn)

		sh, err := st.Shareholders().GetShareholder(ctx, "600001")
		require.NoError(t, err)
		require.True(t, sh.CheckedIn)
		require.NotNil(t, sh.CheckedInAt)

		props, err := st.Properties().ListPropertiesByShareholder(ctx, "600001")
		require.NoError(t, err)
		require.Len(t, props, 1)
		require.True(t, props[0].CheckedIn)
	})

	t.Run("counter tracks sequential check-ins", func(t *testing.T) {
		m, err := svc.CheckIn(ctx, "600002")
		require.NoError(t, err)
		require.Equal(t, 2, m.CheckedIn)

		m, err = svc.CheckIn(ctx, "600003")
		require.NoError(t, err)
		require.Equal(t, 3, m.CheckedIn)
	})

	t.Run("counter clamps at total shareholders", func(t *testing.T) {
		// All three are in; a duplicate scan increments but the clamp holds.
		m, err := svc.CheckIn(ctx, "600001")
		require.NoError(t, err)
		require.Equal(t, 3, m.CheckedIn)
		require.Equal(t, 3, m.TotalShareholders)
	})

	t.Run("unknown shareholder", func(t *testing.T) {
		_, err := svc.CheckIn(ctx, "999999")
		require.ErrorIs(t, err, ErrShareholderNotFound)
	})

	t.Run("blank id", func(t *testing.T) {
		_, err := svc.CheckIn(ctx, "")
		require.ErrorIs(t, err, ErrInvalidCheckinReq)
	})
}

func TestCheckInDuplicateScanBelowCap(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	meeting := seedMeeting(t, st, 2026, 5)
	sh := seedShareholder(t, st, meeting.ID, "610001", "Rescanned Holder")
	seedProperty(t, st, meeting.ID, sh.ID, "ACC-RESCAN")

	svc := &CheckinService{Store: st}

	m, err := svc.CheckIn(ctx, sh.ID)
	require.NoError(t, err)
	require.Equal(t, 1, m.CheckedIn)

	// A duplicate scan is not an error and bumps the aggregate again while
	// below the cap. Per-shareholder state stays simply "checked in".
	m, err = svc.CheckIn(ctx, sh.ID)
	require.NoError(t, err)
	require.Equal(t, 2, m.CheckedIn)
}

func TestSaveSignature(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	meeting := seedMeeting(t, st, 2026, 2)
	sh := seedShareholder(t, st, meeting.ID, "620001", "Signer")

	svc := &CheckinService{Store: st}
	image := []byte("png-bytes-of-a-signature")

	require.NoError(t, svc.SaveSignature(ctx, sh.ID, image))

	stored, err := st.Shareholders().GetShareholder(ctx, sh.ID)
	require.NoError(t, err)
	require.Equal(t, image, stored.SignatureImage)

	sum := sha256.Sum256(image)
	require.Equal(t, hex.EncodeToString(sum[:]), stored.SignatureHash)

	t.Run("empty image rejected", func(t *testing.T) {
		require.ErrorIs(t, svc.SaveSignature(ctx, sh.ID, nil), ErrInvalidSignature)
	})

	t.Run("unknown shareholder", func(t *testing.T) {
		require.ErrorIs(t, svc.SaveSignature(ctx, "999999", image), ErrShareholderNotFound)
	})
}
