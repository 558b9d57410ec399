package agmsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// APIError is a decoded error response from the portal.
type APIError struct {
	Status      int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("agmsdk: %d %s: %s", e.Status, e.Code, e.Description)
}

// Client is a minimal portal API client. Token is a bearer token issued
// by the identity provider; the client never acquires tokens itself.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{
			Status:      resp.StatusCode,
			Code:        apiErr.Error,
			Description: apiErr.ErrorDescription,
		}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// CheckIn marks a shareholder as present and returns the meeting aggregates.
func (c *Client) CheckIn(ctx context.Context, shareholderID string) (CheckinResponse, error) {
	var out CheckinResponse
	err := c.do(ctx, http.MethodPost, "/v1/checkin", CheckinRequest{ShareholderID: shareholderID}, &out)
	return out, err
}

// GetShareholder fetches a shareholder with its owned properties.
func (c *Client) GetShareholder(ctx context.Context, shareholderID string) (ShareholderResponse, error) {
	var out ShareholderResponse
	err := c.do(ctx, http.MethodGet, "/v1/shareholders/"+url.PathEscape(shareholderID), nil, &out)
	return out, err
}

// TransferProperty reassigns a property to an existing shareholder.
func (c *Client) TransferProperty(ctx context.Context, propertyID string, req TransferRequest) (TransferResponse, error) {
	var out TransferResponse
	err := c.do(ctx, http.MethodPost, "/v1/properties/"+url.PathEscape(propertyID)+"/transfer", req, &out)
	return out, err
}

// RequestUndo files a pending check-in reversal request.
func (c *Client) RequestUndo(ctx context.Context, req CreateUndoRequest) (UndoRequestResponse, error) {
	var out UndoRequestResponse
	err := c.do(ctx, http.MethodPost, "/v1/undo-requests", req, &out)
	return out, err
}

// ListPendingUndoRequests returns undecided reversal requests (admin only).
func (c *Client) ListPendingUndoRequests(ctx context.Context) ([]UndoRequestResponse, error) {
	var out []UndoRequestResponse
	err := c.do(ctx, http.MethodGet, "/v1/undo-requests", nil, &out)
	return out, err
}

// ResolveUndo approves or rejects a pending reversal request (admin only).
func (c *Client) ResolveUndo(ctx context.Context, requestID, action string) (UndoRequestResponse, error) {
	var out UndoRequestResponse
	err := c.do(ctx, http.MethodPost,
		"/v1/undo-requests/"+url.PathEscape(requestID)+"/resolve",
		ResolveUndoRequest{Action: action}, &out)
	return out, err
}

// ListMeetings returns all meetings, newest first.
func (c *Client) ListMeetings(ctx context.Context) ([]MeetingResponse, error) {
	var out []MeetingResponse
	err := c.do(ctx, http.MethodGet, "/v1/meetings", nil, &out)
	return out, err
}
