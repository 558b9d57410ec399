package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const importHeader = "shareholder_id,shareholder_name,mailing_street,mailing_city,mailing_state,mailing_zip," +
	"account_number,service_address,owner_name,owner_address,customer_name,customer_address,resident_name,resident_address\n"

func TestImportCSV(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	svc := &ImportService{Store: st}

	csvData := importHeader +
		"800001,Ada Holder,1 Main St,Cooma,NSW,2630,ACC-1,10 Creek Ln,Ada Holder,1 Main St,Billing Co,PO Box 1,Tenant One,10 Creek Ln\n" +
		"800001,Ada Holder,1 Main St,Cooma,NSW,2630,ACC-2,12 Creek Ln,Ada Holder,1 Main St,Billing Co,PO Box 1,Tenant Two,12 Creek Ln\n" +
		"800002,Ben Holder,2 Side St,Cooma,NSW,2630,ACC-3,14 Creek Ln,,,,,,\n"

	date := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	summary, err := svc.ImportCSV(ctx, 2026, date, strings.NewReader(csvData))
	require.NoError(t, err)

	t.Run("summary counts", func(t *testing.T) {
		require.Equal(t, 2026, summary.Year)
		require.Equal(t, 2, summary.ShareholdersCreated)
		require.Equal(t, 3, summary.PropertiesCreated)
		require.Equal(t, 0, summary.RowsSkipped)
	})

	t.Run("meeting created and flagged", func(t *testing.T) {
		m, err := st.Meetings().GetMeetingByYear(ctx, 2026)
		require.NoError(t, err)
		require.Equal(t, summary.MeetingID, m.ID)
		require.True(t, m.HasInitialData)
		require.Equal(t, 2, m.TotalShareholders)
		require.Equal(t, 0, m.CheckedIn)
	})

	t.Run("rows sharing an id become one shareholder with two properties", func(t *testing.T) {
		props, err := st.Properties().ListPropertiesByShareholder(ctx, "800001")
		require.NoError(t, err)
		require.Len(t, props, 2)
	})

	t.Run("blank owner defaults to shareholder identity", func(t *testing.T) {
		props, err := st.Properties().ListPropertiesByShareholder(ctx, "800002")
		require.NoError(t, err)
		require.Len(t, props, 1)
		require.Equal(t, "Ben Holder", props[0].Owner.Name)
		require.Equal(t, "2 Side St, Cooma, NSW 2630", props[0].Owner.Address)
	})
}

func TestImportCSVGeneratesIDs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	svc := &ImportService{Store: st}

	csvData := importHeader +
		",No-ID Holder,3 Back St,Cooma,NSW,2630,ACC-GEN,16 Creek Ln,,,,,,\n"

	summary, err := svc.ImportCSV(ctx, 2026, time.Now(), strings.NewReader(csvData))
	require.NoError(t, err)
	require.Equal(t, 1, summary.ShareholdersCreated)

	shs, err := st.Shareholders().ListShareholdersByMeeting(ctx, summary.MeetingID)
	require.NoError(t, err)
	require.Len(t, shs, 1)
	require.Len(t, shs[0].ID.String(), 6)
	require.NotEqual(t, byte('0'), shs[0].ID.String()[0])
}

func TestImportCSVSkipsIncompleteRows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	svc := &ImportService{Store: st}

	csvData := importHeader +
		"810001,,1 Main St,Cooma,NSW,2630,ACC-NONAME,,,,,,,\n" +
		"810002,Named Holder,1 Main St,Cooma,NSW,2630,,,,,,,,\n" +
		"810003,Kept Holder,1 Main St,Cooma,NSW,2630,ACC-OK,,,,,,,\n"

	summary, err := svc.ImportCSV(ctx, 2026, time.Now(), strings.NewReader(csvData))
	require.NoError(t, err)
	require.Equal(t, 2, summary.RowsSkipped)
	require.Equal(t, 1, summary.ShareholdersCreated)
	require.Equal(t, 1, summary.PropertiesCreated)
}

func TestImportCSVReusesExistingMeeting(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	meeting := seedMeeting(t, st, 2027, 0)

	svc := &ImportService{Store: st}
	csvData := importHeader +
		"820001,Late Addition,4 New St,Cooma,NSW,2630,ACC-LATE,,,,,,,\n"

	summary, err := svc.ImportCSV(ctx, 2027, time.Now(), strings.NewReader(csvData))
	require.NoError(t, err)
	require.Equal(t, meeting.ID, summary.MeetingID)
}

func TestImportCSVValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	svc := &ImportService{Store: st}

	t.Run("bad year", func(t *testing.T) {
		_, err := svc.ImportCSV(ctx, 3, time.Now(), strings.NewReader(importHeader))
		require.ErrorIs(t, err, ErrImportYearInvalid)
	})

	t.Run("missing required columns", func(t *testing.T) {
		_, err := svc.ImportCSV(ctx, 2026, time.Now(), strings.NewReader("id,name\n1,2\n"))
		require.ErrorIs(t, err, ErrInvalidImportFile)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := svc.ImportCSV(ctx, 2026, time.Now(), strings.NewReader(""))
		require.ErrorIs(t, err, ErrInvalidImportFile)
	})
}
