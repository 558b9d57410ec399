package sqlite

import (
	"context"

	"github.com/openwaterco/agmdesk/internal/portal/domain"
)

type transfersRepo struct {
	db dbtx
}

const transferColumns = `id, property_id, meeting_id, from_shareholder_id, to_shareholder_id, transferred_at`

func (r *transfersRepo) InsertTransferRecord(ctx context.Context, t domain.PropertyTransfer) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO property_transfers (id, property_id, meeting_id,
			from_shareholder_id, to_shareholder_id, transferred_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.PropertyID, t.MeetingID,
		t.FromShareholderID.String(), t.ToShareholderID.String(), t.TransferredAt,
	)
	return mapConstraint(err)
}

func (r *transfersRepo) ListTransfersByMeeting(ctx context.Context, meetingID string) ([]domain.PropertyTransfer, error) {
	return r.list(ctx,
		`SELECT `+transferColumns+` FROM property_transfers
		 WHERE meeting_id = ? ORDER BY transferred_at DESC`, meetingID)
}

func (r *transfersRepo) ListTransfersByProperty(ctx context.Context, propertyID string) ([]domain.PropertyTransfer, error) {
	return r.list(ctx,
		`SELECT `+transferColumns+` FROM property_transfers
		 WHERE property_id = ? ORDER BY transferred_at DESC`, propertyID)
}

func (r *transfersRepo) list(ctx context.Context, query string, args ...any) ([]domain.PropertyTransfer, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PropertyTransfer
	for rows.Next() {
		var t domain.PropertyTransfer
		if err := rows.Scan(&t.ID, &t.PropertyID, &t.MeetingID,
			&t.FromShareholderID, &t.ToShareholderID, &t.TransferredAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
