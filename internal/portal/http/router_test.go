package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/openwaterco/agmdesk/internal/portal/domain"
	"github.com/openwaterco/agmdesk/internal/portal/service"
	"github.com/openwaterco/agmdesk/internal/portal/store"
	"github.com/openwaterco/agmdesk/internal/portal/store/drivers/sqlite"
	"github.com/openwaterco/agmdesk/pkg/agmsdk"
	"github.com/openwaterco/agmdesk/pkg/idx"
	"github.com/openwaterco/agmdesk/pkg/jwtx"
	"github.com/openwaterco/agmdesk/pkg/slogx"
)

const (
	testSecret = "test-shared-secret"
	testIssuer = "https://idp.test"
)

func newTestRouter(t *testing.T) (*Router, store.Store) {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	verifier := jwtx.NewHS256Verifier([]byte(testSecret), testIssuer, nil)
	r := NewRouter(verifier, "test", st, slogx.New(slogx.Config{Level: "error", Format: "text"}))
	r.CheckinService = &service.CheckinService{Store: st}
	r.TransferService = &service.TransferService{Store: st}
	r.UndoService = &service.UndoService{Store: st}
	r.ImportService = &service.ImportService{Store: st}
	r.MailerService = &service.MailerService{Store: st}
	r.ShareholderService = &service.ShareholderService{Store: st}
	r.MeetingService = &service.MeetingService{Store: st}
	r.ApplyRoutes()
	return r, st
}

func mintToken(t *testing.T, subject string, scopes ...string) string {
	t.Helper()

	claims := jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Scopes:        scopes,
		PreferredName: subject,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, r *Router, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func seedHTTPFixture(t *testing.T, st store.Store) (domain.Meeting, domain.Shareholder) {
	t.Helper()
	ctx := context.Background()

	m := domain.Meeting{ID: idx.New().String(), Year: 2026, Date: time.Now().UTC()}
	require.NoError(t, st.Meetings().CreateMeeting(ctx, m))
	require.NoError(t, st.Meetings().SetTotalShareholders(ctx, m.ID, 5))

	sh := domain.Shareholder{ID: "123456", MeetingID: m.ID, Name: "Desk Tester"}
	require.NoError(t, st.Shareholders().CreateShareholder(ctx, sh))
	require.NoError(t, st.Properties().CreateProperty(ctx, domain.Property{
		ID:            idx.New().String(),
		MeetingID:     m.ID,
		ShareholderID: sh.ID,
		AccountNumber: "ACC-HTTP",
	}))
	return m, sh
}

func TestCheckinEndpoint(t *testing.T) {
	r, st := newTestRouter(t)
	_, sh := seedHTTPFixture(t, st)
	token := mintToken(t, "clerk", "checkin:read", "checkin:write")

	t.Run("requires a token", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/v1/checkin", "", agmsdk.CheckinRequest{ShareholderID: sh.ID.String()})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("requires checkin:write", func(t *testing.T) {
		readOnly := mintToken(t, "viewer", "checkin:read")
		rec := doJSON(t, r, http.MethodPost, "/v1/checkin", readOnly, agmsdk.CheckinRequest{ShareholderID: sh.ID.String()})
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("checks in and returns aggregates", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/v1/checkin", token, agmsdk.CheckinRequest{ShareholderID: sh.ID.String()})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp agmsdk.CheckinResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, 1, resp.CheckedIn)
		require.Equal(t, 5, resp.TotalShareholders)
	})

	t.Run("unknown shareholder is 404", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/v1/checkin", token, agmsdk.CheckinRequest{ShareholderID: "999999"})
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestShareholderEndpoints(t *testing.T) {
	r, st := newTestRouter(t)
	m, sh := seedHTTPFixture(t, st)
	admin := mintToken(t, "admin", "checkin:read", "admin:read", "admin:write")

	t.Run("get returns properties", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodGet, "/v1/shareholders/"+sh.ID.String(), admin, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp agmsdk.ShareholderResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "Desk Tester", resp.Name)
		require.Len(t, resp.Properties, 1)
	})

	t.Run("barcode png", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodGet, "/v1/shareholders/"+sh.ID.String()+"/barcode.png", admin, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	})

	t.Run("create needs admin:write", func(t *testing.T) {
		clerk := mintToken(t, "clerk", "checkin:write")
		rec := doJSON(t, r, http.MethodPost, "/v1/shareholders", clerk, agmsdk.CreateShareholderRequest{
			MeetingID: m.ID, Name: "Nope", AccountNumber: "ACC-X",
		})
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("create allocates id", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/v1/shareholders", admin, agmsdk.CreateShareholderRequest{
			MeetingID: m.ID, Name: "Walk In", AccountNumber: "ACC-WI",
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp agmsdk.ShareholderResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.ShareholderID, 6)
	})

	t.Run("mailing address update", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPatch, "/v1/shareholders/"+sh.ID.String()+"/mailing-address", admin,
			agmsdk.UpdateMailingAddressRequest{MailingStreet: "1 New St", MailingCity: "Cooma", MailingState: "NSW", MailingZip: "2630"})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp agmsdk.ShareholderResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "1 New St", resp.MailingStreet)
	})
}

func TestTransferEndpoint(t *testing.T) {
	r, st := newTestRouter(t)
	m, sh := seedHTTPFixture(t, st)
	admin := mintToken(t, "admin", "admin:write")

	ctx := context.Background()
	buyer := domain.Shareholder{ID: "654321", MeetingID: m.ID, Name: "Buyer"}
	require.NoError(t, st.Shareholders().CreateShareholder(ctx, buyer))

	props, err := st.Properties().ListPropertiesByShareholder(ctx, sh.ID)
	require.NoError(t, err)
	require.Len(t, props, 1)

	rec := doJSON(t, r, http.MethodPost, "/v1/properties/"+props[0].ID+"/transfer", admin,
		agmsdk.TransferRequest{TargetShareholderID: buyer.ID.String()})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp agmsdk.TransferResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, buyer.ID.String(), resp.Property.ShareholderID)
	require.Equal(t, "Buyer", resp.Property.Owner.Name)
}

func TestUndoEndpoints(t *testing.T) {
	r, st := newTestRouter(t)
	_, sh := seedHTTPFixture(t, st)
	clerk := mintToken(t, "clerk", "checkin:read", "checkin:write")
	admin := mintToken(t, "admin", "admin:read", "admin:write")

	rec := doJSON(t, r, http.MethodPost, "/v1/undo-requests", clerk, agmsdk.CreateUndoRequest{
		ShareholderID:   sh.ID.String(),
		ShareholderName: sh.Name,
		Reason:          "wrong badge",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created agmsdk.UndoRequestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "pending", created.Status)
	require.Equal(t, "clerk", created.RequestedBy)

	t.Run("listing is admin only", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodGet, "/v1/undo-requests", clerk, nil)
		require.Equal(t, http.StatusForbidden, rec.Code)

		rec = doJSON(t, r, http.MethodGet, "/v1/undo-requests", admin, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var pending []agmsdk.UndoRequestResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
		require.Len(t, pending, 1)
	})

	t.Run("resolution", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/v1/undo-requests/"+created.ID+"/resolve", admin,
			agmsdk.ResolveUndoRequest{Action: "approve"})
		require.Equal(t, http.StatusOK, rec.Code)

		var resolved agmsdk.UndoRequestResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resolved))
		require.Equal(t, "approved", resolved.Status)
		require.Equal(t, "admin", resolved.ResolvedBy)

		rec = doJSON(t, r, http.MethodPost, "/v1/undo-requests/"+created.ID+"/resolve", admin,
			agmsdk.ResolveUndoRequest{Action: "reject"})
		require.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestImportEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	admin := mintToken(t, "admin", "admin:write")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("year", "2026"))
	part, err := mw.CreateFormFile("file", "roll.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(
		"shareholder_id,shareholder_name,mailing_street,mailing_city,mailing_state,mailing_zip,account_number,service_address,owner_name,owner_address,customer_name,customer_address,resident_name,resident_address\n" +
			"111111,Imported Holder,1 Main St,Cooma,NSW,2630,ACC-1,,,,,,,\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/meetings/import", &body)
	req.Header.Set("Authorization", "Bearer "+admin)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp agmsdk.ImportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.ShareholdersCreated)
	require.Equal(t, 1, resp.PropertiesCreated)
}

func TestMailersEndpoint(t *testing.T) {
	r, st := newTestRouter(t)
	m, _ := seedHTTPFixture(t, st)
	admin := mintToken(t, "admin", "admin:write")

	rec := doJSON(t, r, http.MethodPost, "/v1/meetings/"+m.ID+"/mailers", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	require.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}

func TestHealthEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp agmsdk.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "ok", resp.Status)
	require.Equal(t, "ok", resp.Checks.Database)
}
