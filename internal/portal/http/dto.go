package http

import (
	"net/http"

	"github.com/openwaterco/agmdesk/internal/portal/domain"
	"github.com/openwaterco/agmdesk/pkg/agmsdk"
	"github.com/openwaterco/agmdesk/pkg/httpx"
)

func principalFrom(r *http.Request) domain.Principal {
	ctx := r.Context()
	return domain.Principal{
		Subject: httpx.UserIDFromContext(ctx),
		Name:    httpx.NameFromContext(ctx),
		Scopes:  httpx.ScopesFromContext(ctx),
	}
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	httpx.WriteJSON(w, status, agmsdk.ErrorResponse{
		Error:            code,
		ErrorDescription: description,
	})
}

func toPartyInfo(p domain.Party) agmsdk.PartyInfo {
	return agmsdk.PartyInfo{Name: p.Name, Address: p.Address}
}

func toPropertyResponse(p domain.Property) agmsdk.PropertyResponse {
	return agmsdk.PropertyResponse{
		ID:             p.ID,
		MeetingID:      p.MeetingID,
		ShareholderID:  p.ShareholderID.String(),
		AccountNumber:  p.AccountNumber,
		ServiceAddress: p.ServiceAddress,
		Owner:          toPartyInfo(p.Owner),
		Customer:       toPartyInfo(p.Customer),
		Resident:       toPartyInfo(p.Resident),
		CheckedIn:      p.CheckedIn,
	}
}

func toShareholderResponse(sh domain.Shareholder, props []domain.Property) agmsdk.ShareholderResponse {
	resp := agmsdk.ShareholderResponse{
		ShareholderID: sh.ID.String(),
		MeetingID:     sh.MeetingID,
		Name:          sh.Name,
		MailingStreet: sh.MailingStreet,
		MailingCity:   sh.MailingCity,
		MailingState:  sh.MailingState,
		MailingZip:    sh.MailingZip,
		CheckedIn:     sh.CheckedIn,
		CheckedInAt:   sh.CheckedInAt,
		HasSignature:  len(sh.SignatureImage) > 0,
	}
	for _, p := range props {
		resp.Properties = append(resp.Properties, toPropertyResponse(p))
	}
	return resp
}

func toUndoRequestResponse(req domain.UndoRequest) agmsdk.UndoRequestResponse {
	return agmsdk.UndoRequestResponse{
		ID:              req.ID,
		ShareholderID:   req.ShareholderID.String(),
		ShareholderName: req.ShareholderName,
		RequestedBy:     req.RequestedBy,
		Reason:          req.Reason,
		Status:          string(req.Status),
		ResolvedBy:      req.ResolvedBy,
		ResolvedAt:      req.ResolvedAt,
		CreatedAt:       req.CreatedAt,
	}
}

func toMeetingResponse(m domain.Meeting) agmsdk.MeetingResponse {
	return agmsdk.MeetingResponse{
		ID:                m.ID,
		Year:              m.Year,
		Date:              m.Date,
		TotalShareholders: m.TotalShareholders,
		CheckedIn:         m.CheckedIn,
		HasInitialData:    m.HasInitialData,
		MailersGenerated:  m.MailersGenerated,
	}
}
