package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openwaterco/agmdesk/internal/portal/domain"
	"github.com/openwaterco/agmdesk/internal/portal/store"
	"github.com/openwaterco/agmdesk/internal/portal/store/drivers/sqlite"
	"github.com/openwaterco/agmdesk/pkg/idx"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedMeeting(t *testing.T, st store.Store, year, total int) domain.Meeting {
	t.Helper()

	ctx := context.Background()
	m := domain.Meeting{
		ID:   idx.New().String(),
		Year: year,
		Date: time.Date(year, time.March, 14, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, st.Meetings().CreateMeeting(ctx, m))
	require.NoError(t, st.Meetings().SetTotalShareholders(ctx, m.ID, total))
	require.NoError(t, st.Meetings().SetHasInitialData(ctx, m.ID, true))

	m, err := st.Meetings().GetMeetingByID(ctx, m.ID)
	require.NoError(t, err)
	return m
}

func seedShareholder(t *testing.T, st store.Store, meetingID string, id domain.ShareholderID, name string) domain.Shareholder {
	t.Helper()

	ctx := context.Background()
	sh := domain.Shareholder{
		ID:            id,
		MeetingID:     meetingID,
		Name:          name,
		MailingStreet: "12 Ridge Rd",
		MailingCity:   "Cooma",
		MailingState:  "NSW",
		MailingZip:    "2630",
	}
	require.NoError(t, st.Shareholders().CreateShareholder(ctx, sh))
	return sh
}

func seedProperty(t *testing.T, st store.Store, meetingID string, owner domain.ShareholderID, account string) domain.Property {
	t.Helper()

	ctx := context.Background()
	p := domain.Property{
		ID:             idx.New().String(),
		MeetingID:      meetingID,
		ShareholderID:  owner,
		AccountNumber:  account,
		ServiceAddress: "45 Creek Ln",
		Owner:          domain.Party{Name: "Original Owner", Address: "12 Ridge Rd, Cooma"},
		Customer:       domain.Party{Name: "Billing Contact", Address: "PO Box 9, Cooma"},
		Resident:       domain.Party{Name: "Current Tenant", Address: "45 Creek Ln"},
	}
	require.NoError(t, st.Properties().CreateProperty(ctx, p))
	return p
}

func adminPrincipal() domain.Principal {
	return domain.Principal{
		Subject: "admin-1",
		Name:    "Admin",
		Scopes:  []string{domain.ScopeAdminRead, domain.ScopeAdminWrite, domain.ScopeCheckinRead, domain.ScopeCheckinWrite},
	}
}

func clerkPrincipal() domain.Principal {
	return domain.Principal{
		Subject: "clerk-1",
		Name:    "Clerk",
		Scopes:  []string{domain.ScopeCheckinRead, domain.ScopeCheckinWrite},
	}
}
