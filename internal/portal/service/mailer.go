package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"log/slog"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/go-pdf/fpdf"

	"github.com/openwaterco/agmdesk/internal/portal/domain"
	"github.com/openwaterco/agmdesk/internal/portal/store"
	"github.com/openwaterco/agmdesk/pkg/slogx"
)

var (
	ErrNoShareholders = errors.New("meeting has no shareholders to mail")
)

// MailerService produces the annual mailer batch: one PDF page per
// shareholder carrying the meeting notice, the mailing address block, and
// a Code 128 barcode of the shareholder id for the check-in desk scanner.
type MailerService struct {
	Store store.Store
}

// MailerBatch is the rendered output of GenerateMailers.
type MailerBatch struct {
	MeetingID string
	Pages     int
	PDF       []byte
}

// GenerateMailers renders the full batch for a meeting and flags the
// meeting as having mailers generated. Re-running regenerates the whole
// batch; pages are ordered by shareholder name so the output matches the
// postal presort.
func (s *MailerService) GenerateMailers(ctx context.Context, meetingID string) (MailerBatch, error) {
	log := slogx.FromContext(ctx)

	meeting, err := s.Store.Meetings().GetMeetingByID(ctx, meetingID)
	if errors.Is(err, store.ErrNotFound) {
		return MailerBatch{}, ErrMeetingNotFound
	}
	if err != nil {
		return MailerBatch{}, err
	}

	shareholders, err := s.Store.Shareholders().ListShareholdersByMeeting(ctx, meetingID)
	if err != nil {
		return MailerBatch{}, err
	}
	if len(shareholders) == 0 {
		return MailerBatch{}, ErrNoShareholders
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetTitle(fmt.Sprintf("Annual Meeting Mailers %d", meeting.Year), false)
	pdf.SetAutoPageBreak(false, 0)

	for _, sh := range shareholders {
		if err := renderMailerPage(pdf, meeting, sh); err != nil {
			return MailerBatch{}, fmt.Errorf("render mailer for %s: %w", sh.ID, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return MailerBatch{}, fmt.Errorf("write mailer pdf: %w", err)
	}

	if err := s.Store.Meetings().SetMailersGenerated(ctx, meetingID, true); err != nil {
		return MailerBatch{}, err
	}

	log.Info("mailer batch generated",
		slog.String("meeting_id", meetingID),
		slog.Int("pages", len(shareholders)),
	)

	return MailerBatch{MeetingID: meetingID, Pages: len(shareholders), PDF: buf.Bytes()}, nil
}

func renderMailerPage(pdf *fpdf.Fpdf, meeting domain.Meeting, sh domain.Shareholder) error {
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(20, 20)
	pdf.CellFormat(0, 10, fmt.Sprintf("Notice of %d Annual Shareholder Meeting", meeting.Year), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetXY(20, 32)
	pdf.CellFormat(0, 6, meeting.Date.Format("Monday, January 2, 2006"), "", 1, "L", false, 0, "")

	// Address block positioned for a #10 window envelope.
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetXY(25, 55)
	pdf.CellFormat(0, 6, sh.Name, "", 1, "L", false, 0, "")
	pdf.SetX(25)
	pdf.CellFormat(0, 6, sh.MailingStreet, "", 1, "L", false, 0, "")
	pdf.SetX(25)
	pdf.CellFormat(0, 6, joinNonEmpty(" ", joinNonEmpty(", ", sh.MailingCity, sh.MailingState), sh.MailingZip), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(20, 95)
	pdf.MultiCell(0, 5,
		"Please bring this notice to the meeting. The barcode below identifies "+
			"your shareholder record and speeds up check-in at the registration desk. "+
			"If you cannot attend, a proxy form is available at the district office.",
		"", "L", false)

	bcPNG, err := BarcodePNG(sh.ID, 600, 160)
	if err != nil {
		return err
	}

	name := "bc-" + sh.ID.String()
	pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(bcPNG))
	pdf.ImageOptions(name, 55, 130, 100, 26, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	pdf.SetFont("Courier", "", 11)
	pdf.SetXY(55, 158)
	pdf.CellFormat(100, 5, sh.ID.String(), "", 1, "C", false, 0, "")

	return pdf.Error()
}

// BarcodePNG encodes a shareholder id as a Code 128 barcode scaled to the
// given pixel size. Also served standalone for desk reprints.
func BarcodePNG(id domain.ShareholderID, width, height int) ([]byte, error) {
	code, err := code128.Encode(id.String())
	if err != nil {
		return nil, fmt.Errorf("encode barcode: %w", err)
	}
	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, fmt.Errorf("scale barcode: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("encode barcode png: %w", err)
	}
	return buf.Bytes(), nil
}
