package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openwaterco/agmdesk/internal/portal/domain"
	"github.com/openwaterco/agmdesk/internal/portal/store"
)

func TestCreateShareholder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	meeting := seedMeeting(t, st, 2026, 4)
	svc := &ShareholderService{Store: st}

	t.Run("creates shareholder with initial property", func(t *testing.T) {
		detail, err := svc.Create(ctx, CreateShareholderInput{
			ID:            "950001",
			MeetingID:     meeting.ID,
			Name:          "Walk-in Holder",
			MailingStreet: "7 Gate Rd",
			MailingCity:   "Cooma",
			MailingState:  "NSW",
			MailingZip:    "2630",
			AccountNumber: "ACC-WALKIN",
		})
		require.NoError(t, err)
		require.Equal(t, domain.ShareholderID("950001"), detail.Shareholder.ID)
		require.Len(t, detail.Properties, 1)
		require.Equal(t, "Walk-in Holder", detail.Properties[0].Owner.Name)
		require.Equal(t, "7 Gate Rd, Cooma, NSW 2630", detail.Properties[0].Owner.Address)
	})

	t.Run("allocates a 6 digit id when blank", func(t *testing.T) {
		detail, err := svc.Create(ctx, CreateShareholderInput{
			MeetingID:     meeting.ID,
			Name:          "Generated Holder",
			AccountNumber: "ACC-GEN2",
		})
		require.NoError(t, err)
		require.Len(t, detail.Shareholder.ID.String(), 6)
	})

	t.Run("duplicate explicit id rejected", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateShareholderInput{
			ID:            "950001",
			MeetingID:     meeting.ID,
			Name:          "Duplicate",
			AccountNumber: "ACC-DUP",
		})
		require.ErrorIs(t, err, ErrShareholderIDTaken)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateShareholderInput{MeetingID: meeting.ID, Name: "No Account"})
		require.ErrorIs(t, err, ErrInvalidShareholderReq)
	})

	t.Run("unknown meeting rejected", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateShareholderInput{
			MeetingID:     "missing-meeting",
			Name:          "Nobody",
			AccountNumber: "ACC-X",
		})
		require.ErrorIs(t, err, ErrMeetingNotFound)
	})
}

func TestUpdateMailingAddress(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	meeting := seedMeeting(t, st, 2026, 2)
	sh := seedShareholder(t, st, meeting.ID, "960001", "Mover")
	prop := seedProperty(t, st, meeting.ID, sh.ID, "ACC-MOVE")

	svc := &ShareholderService{Store: st}
	updated, err := svc.UpdateMailingAddress(ctx, sh.ID, "9 New St", "Jindabyne", "NSW", "2627")
	require.NoError(t, err)
	require.Equal(t, "9 New St", updated.MailingStreet)
	require.Equal(t, "Jindabyne", updated.MailingCity)

	// Party blocks on properties only move via transfers.
	got, err := st.Properties().GetProperty(ctx, prop.ID)
	require.NoError(t, err)
	require.Equal(t, prop.Owner, got.Owner)

	_, err = svc.UpdateMailingAddress(ctx, "999999", "x", "y", "z", "0")
	require.ErrorIs(t, err, ErrShareholderNotFound)
}

func TestDeleteProperty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	meeting := seedMeeting(t, st, 2026, 2)
	sh := seedShareholder(t, st, meeting.ID, "970001", "Two Lots")
	first := seedProperty(t, st, meeting.ID, sh.ID, "ACC-L1")
	second := seedProperty(t, st, meeting.ID, sh.ID, "ACC-L2")

	svc := &ShareholderService{Store: st}

	t.Run("holder survives while properties remain", func(t *testing.T) {
		require.NoError(t, svc.DeleteProperty(ctx, first.ID))

		_, err := st.Shareholders().GetShareholder(ctx, sh.ID)
		require.NoError(t, err)
	})

	t.Run("holder removed with last property", func(t *testing.T) {
		require.NoError(t, svc.DeleteProperty(ctx, second.ID))

		_, err := st.Shareholders().GetShareholder(ctx, sh.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("unknown property", func(t *testing.T) {
		require.ErrorIs(t, svc.DeleteProperty(ctx, "missing"), ErrPropertyNotFound)
	})
}

func TestShareholderGetAndList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	meeting := seedMeeting(t, st, 2026, 2)
	sh := seedShareholder(t, st, meeting.ID, "980001", "Listed Holder")
	seedProperty(t, st, meeting.ID, sh.ID, "ACC-LIST")

	svc := &ShareholderService{Store: st}

	detail, err := svc.Get(ctx, sh.ID)
	require.NoError(t, err)
	require.Equal(t, sh.ID, detail.Shareholder.ID)
	require.Len(t, detail.Properties, 1)

	list, err := svc.ListByMeeting(ctx, meeting.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = svc.Get(ctx, "999999")
	require.ErrorIs(t, err, ErrShareholderNotFound)

	_, err = svc.ListByMeeting(ctx, "missing-meeting")
	require.ErrorIs(t, err, ErrMeetingNotFound)
}
