package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/openwaterco/agmdesk/internal/portal/domain"
	"github.com/openwaterco/agmdesk/internal/portal/store"
)

type meetingsRepo struct {
	db dbtx
}

const meetingColumns = `id, year, meeting_date, total_shareholders, checked_in,
	has_initial_data, mailers_generated, created_at, updated_at`

func scanMeeting(row interface{ Scan(...any) error }) (domain.Meeting, error) {
	var m domain.Meeting
	err := row.Scan(
		&m.ID, &m.Year, &m.Date, &m.TotalShareholders, &m.CheckedIn,
		&m.HasInitialData, &m.MailersGenerated, &m.CreatedAt, &m.UpdatedAt,
	)
	return m, err
}

func (r *meetingsRepo) GetMeetingByID(ctx context.Context, id string) (domain.Meeting, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+meetingColumns+` FROM meetings WHERE id = ?`, id)
	m, err := scanMeeting(row)
	if err != nil {
		return domain.Meeting{}, mapNotFound(err)
	}
	return m, nil
}

func (r *meetingsRepo) GetMeetingByYear(ctx context.Context, year int) (domain.Meeting, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+meetingColumns+` FROM meetings WHERE year = ?`, year)
	m, err := scanMeeting(row)
	if err != nil {
		return domain.Meeting{}, mapNotFound(err)
	}
	return m, nil
}

func (r *meetingsRepo) ListMeetings(ctx context.Context) ([]domain.Meeting, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+meetingColumns+` FROM meetings ORDER BY year DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *meetingsRepo) CreateMeeting(ctx context.Context, m domain.Meeting) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO meetings (id, year, meeting_date, total_shareholders, checked_in,
			has_initial_data, mailers_generated, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Year, m.Date, m.TotalShareholders, m.CheckedIn,
		m.HasInitialData, m.MailersGenerated, now, now,
	)
	return mapConstraint(err)
}

func (r *meetingsRepo) SetTotalShareholders(ctx context.Context, meetingID string, total int) error {
	return r.execOne(ctx,
		`UPDATE meetings SET total_shareholders = ?, updated_at = ? WHERE id = ?`,
		total, time.Now().UTC(), meetingID)
}

func (r *meetingsRepo) SetHasInitialData(ctx context.Context, meetingID string, v bool) error {
	return r.execOne(ctx,
		`UPDATE meetings SET has_initial_data = ?, updated_at = ? WHERE id = ?`,
		v, time.Now().UTC(), meetingID)
}

func (r *meetingsRepo) SetMailersGenerated(ctx context.Context, meetingID string, v bool) error {
	return r.execOne(ctx,
		`UPDATE meetings SET mailers_generated = ?, updated_at = ? WHERE id = ?`,
		v, time.Now().UTC(), meetingID)
}

// AtomicIncrementCheckedIn is a single read-modify-write statement so two
// check-ins racing for the last slot cannot lose an update or push the
// counter past total_shareholders.
func (r *meetingsRepo) AtomicIncrementCheckedIn(ctx context.Context, meetingID string) error {
	return r.execOne(ctx,
		`UPDATE meetings
		 SET checked_in = MIN(checked_in + 1, total_shareholders), updated_at = ?
		 WHERE id = ?`,
		time.Now().UTC(), meetingID)
}

func (r *meetingsRepo) AtomicDecrementCheckedIn(ctx context.Context, meetingID string) error {
	return r.execOne(ctx,
		`UPDATE meetings
		 SET checked_in = MAX(checked_in - 1, 0), updated_at = ?
		 WHERE id = ?`,
		time.Now().UTC(), meetingID)
}

// execOne runs an update that must touch exactly one row, translating a
// zero-row result into ErrNotFound.
func (r *meetingsRepo) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return oneRow(res)
}

func oneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
