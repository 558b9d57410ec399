package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/openwaterco/agmdesk/internal/portal/domain"
)

type shareholdersRepo struct {
	db dbtx
}

const shareholderColumns = `shareholder_id, meeting_id, name,
	mailing_street, mailing_city, mailing_state, mailing_zip,
	checked_in, checked_in_at, signature_image, signature_hash,
	created_at, updated_at`

func scanShareholder(row interface{ Scan(...any) error }) (domain.Shareholder, error) {
	var (
		s           domain.Shareholder
		checkedInAt sql.NullTime
		sigHash     sql.NullString
	)
	err := row.Scan(
		&s.ID, &s.MeetingID, &s.Name,
		&s.MailingStreet, &s.MailingCity, &s.MailingState, &s.MailingZip,
		&s.CheckedIn, &checkedInAt, &s.SignatureImage, &sigHash,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return domain.Shareholder{}, err
	}
	s.CheckedInAt = mapNullTimePtr(checkedInAt)
	s.SignatureHash = mapNullString(sigHash)
	return s, nil
}

func (r *shareholdersRepo) GetShareholder(ctx context.Context, id domain.ShareholderID) (domain.Shareholder, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+shareholderColumns+` FROM shareholders WHERE shareholder_id = ?`,
		id.String())
	s, err := scanShareholder(row)
	if err != nil {
		return domain.Shareholder{}, mapNotFound(err)
	}
	return s, nil
}

func (r *shareholdersRepo) ListShareholdersByMeeting(ctx context.Context, meetingID string) ([]domain.Shareholder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+shareholderColumns+` FROM shareholders WHERE meeting_id = ? ORDER BY name`,
		meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Shareholder
	for rows.Next() {
		s, err := scanShareholder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *shareholdersRepo) CountShareholdersByMeeting(ctx context.Context, meetingID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM shareholders WHERE meeting_id = ?`, meetingID).Scan(&n)
	return n, err
}

func (r *shareholdersRepo) CreateShareholder(ctx context.Context, s domain.Shareholder) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shareholders (shareholder_id, meeting_id, name,
			mailing_street, mailing_city, mailing_state, mailing_zip,
			checked_in, checked_in_at, signature_image, signature_hash,
			created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID.String(), s.MeetingID, s.Name,
		s.MailingStreet, s.MailingCity, s.MailingState, s.MailingZip,
		s.CheckedIn, mapOptionalTime(s.CheckedInAt), s.SignatureImage,
		mapStringNull(s.SignatureHash), now, now,
	)
	return mapConstraint(err)
}

func (r *shareholdersRepo) UpdateShareholderCheckin(ctx context.Context, id domain.ShareholderID, checkedIn bool, checkedInAt *time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE shareholders SET checked_in = ?, checked_in_at = ?, updated_at = ?
		 WHERE shareholder_id = ?`,
		checkedIn, mapOptionalTime(checkedInAt), time.Now().UTC(), id.String())
	if err != nil {
		return err
	}
	return oneRow(res)
}

func (r *shareholdersRepo) UpdateShareholderSignature(ctx context.Context, id domain.ShareholderID, image []byte, hash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE shareholders SET signature_image = ?, signature_hash = ?, updated_at = ?
		 WHERE shareholder_id = ?`,
		image, mapStringNull(hash), time.Now().UTC(), id.String())
	if err != nil {
		return err
	}
	return oneRow(res)
}

func (r *shareholdersRepo) ClearShareholderSignature(ctx context.Context, id domain.ShareholderID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE shareholders SET signature_image = NULL, signature_hash = NULL, updated_at = ?
		 WHERE shareholder_id = ?`,
		time.Now().UTC(), id.String())
	if err != nil {
		return err
	}
	return oneRow(res)
}

func (r *shareholdersRepo) UpdateShareholderMailingAddress(ctx context.Context, id domain.ShareholderID, street, city, state, zip string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE shareholders
		 SET mailing_street = ?, mailing_city = ?, mailing_state = ?, mailing_zip = ?, updated_at = ?
		 WHERE shareholder_id = ?`,
		street, city, state, zip, time.Now().UTC(), id.String())
	if err != nil {
		return err
	}
	return oneRow(res)
}

func (r *shareholdersRepo) DeleteShareholder(ctx context.Context, id domain.ShareholderID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM shareholders WHERE shareholder_id = ?`, id.String())
	if err != nil {
		return err
	}
	return oneRow(res)
}
