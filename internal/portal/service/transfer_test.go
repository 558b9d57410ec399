package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openwaterco/agmdesk/internal/portal/domain"
	"github.com/openwaterco/agmdesk/internal/portal/store"
)

func TestTransferMovesOwnership(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	meeting := seedMeeting(t, st, 2026, 10)
	seedShareholder(t, st, meeting.ID, "100001", "Alice Seller")
	bob := seedShareholder(t, st, meeting.ID, "100002", "Bob Buyer")
	prop := seedProperty(t, st, meeting.ID, "100001", "ACC-001")

	svc := &TransferService{Store: st}
	res, err := svc.Transfer(ctx, prop.ID, bob.ID, TransferOverrides{})
	require.NoError(t, err)
	require.Empty(t, res.Warnings)

	t.Run("property reassigned with owner fields from target", func(t *testing.T) {
		require.Equal(t, bob.ID, res.Property.ShareholderID)
		require.Equal(t, "Bob Buyer", res.Property.Owner.Name)
		require.Equal(t, "12 Ridge Rd, Cooma, NSW 2630", res.Property.Owner.Address)
	})

	t.Run("customer fields survive unchanged", func(t *testing.T) {
		require.Equal(t, prop.Customer, res.Property.Customer)
	})

	t.Run("resident carried over by default", func(t *testing.T) {
		require.Equal(t, prop.Resident, res.Property.Resident)
	})

	t.Run("previous owner deleted when left with no properties", func(t *testing.T) {
		_, err := st.Shareholders().GetShareholder(ctx, "100001")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("audit record written", func(t *testing.T) {
		records, err := st.Transfers().ListTransfersByProperty(ctx, prop.ID)
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, domain.ShareholderID("100001"), records[0].FromShareholderID)
		require.Equal(t, bob.ID, records[0].ToShareholderID)
	})
}

func TestTransferKeepsSellerWithRemainingProperties(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	meeting := seedMeeting(t, st, 2026, 10)
	seedShareholder(t, st, meeting.ID, "200001", "Multi Holder")
	seedShareholder(t, st, meeting.ID, "200002", "New Owner")
	first := seedProperty(t, st, meeting.ID, "200001", "ACC-A")
	seedProperty(t, st, meeting.ID, "200001", "ACC-B")

	svc := &TransferService{Store: st}
	_, err := svc.Transfer(ctx, first.ID, "200002", TransferOverrides{})
	require.NoError(t, err)

	sh, err := st.Shareholders().GetShareholder(ctx, "200001")
	require.NoError(t, err)
	require.Equal(t, "Multi Holder", sh.Name)

	remaining, err := st.Properties().CountPropertiesByShareholder(ctx, "200001")
	require.NoError(t, err)
	require.Equal(t, 1, remaining)
}

func TestTransferOverrides(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	meeting := seedMeeting(t, st, 2026, 10)
	seedShareholder(t, st, meeting.ID, "300001", "Seller")
	seedShareholder(t, st, meeting.ID, "300002", "Buyer")

	svc := &TransferService{Store: st}

	t.Run("explicit owner and resident overrides applied", func(t *testing.T) {
		prop := seedProperty(t, st, meeting.ID, "300001", "ACC-OV1")
		owner := domain.Party{Name: "Buyer Trust", Address: "1 Trust Pl"}
		resident := domain.Party{Name: "New Tenant", Address: "45 Creek Ln"}

		res, err := svc.Transfer(ctx, prop.ID, "300002", TransferOverrides{Owner: &owner, Resident: &resident})
		require.NoError(t, err)
		require.Equal(t, owner, res.Property.Owner)
		require.Equal(t, resident, res.Property.Resident)
	})

	t.Run("keep existing service wins over resident override", func(t *testing.T) {
		prop := seedProperty(t, st, meeting.ID, "300002", "ACC-OV2")
		resident := domain.Party{Name: "Should Not Apply", Address: "nowhere"}

		res, err := svc.Transfer(ctx, prop.ID, "300002", TransferOverrides{
			Resident:            &resident,
			KeepExistingService: true,
		})
		require.NoError(t, err)
		require.Equal(t, prop.Resident, res.Property.Resident)
	})
}

func TestTransferSelfRewritesFieldsOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	meeting := seedMeeting(t, st, 2026, 10)
	seedShareholder(t, st, meeting.ID, "400001", "Solo Holder")
	prop := seedProperty(t, st, meeting.ID, "400001", "ACC-SELF")

	svc := &TransferService{Store: st}
	res, err := svc.Transfer(ctx, prop.ID, "400001", TransferOverrides{})
	require.NoError(t, err)
	require.Equal(t, domain.ShareholderID("400001"), res.Property.ShareholderID)

	// The holder still exists: a self-transfer never orphans.
	_, err = st.Shareholders().GetShareholder(ctx, "400001")
	require.NoError(t, err)
}

func TestTransferNotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	meeting := seedMeeting(t, st, 2026, 10)
	seedShareholder(t, st, meeting.ID, "500001", "Holder")
	prop := seedProperty(t, st, meeting.ID, "500001", "ACC-NF")

	svc := &TransferService{Store: st}

	t.Run("unknown property", func(t *testing.T) {
		_, err := svc.Transfer(ctx, "missing-property", "500001", TransferOverrides{})
		require.ErrorIs(t, err, ErrPropertyNotFound)
	})

	t.Run("unknown target shareholder", func(t *testing.T) {
		_, err := svc.Transfer(ctx, prop.ID, "999999", TransferOverrides{})
		require.ErrorIs(t, err, ErrShareholderNotFound)
	})
}
