package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/openwaterco/agmdesk/internal/portal/domain"
)

type undoRequestsRepo struct {
	db dbtx
}

const undoRequestColumns = `id, shareholder_id, shareholder_name, requested_by, reason,
	status, resolved_by, resolved_at, created_at, updated_at`

func scanUndoRequest(row interface{ Scan(...any) error }) (domain.UndoRequest, error) {
	var (
		u          domain.UndoRequest
		reason     sql.NullString
		resolvedBy sql.NullString
		resolvedAt sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.ShareholderID, &u.ShareholderName, &u.RequestedBy, &reason,
		&u.Status, &resolvedBy, &resolvedAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.UndoRequest{}, err
	}
	u.Reason = mapNullString(reason)
	u.ResolvedBy = mapNullString(resolvedBy)
	u.ResolvedAt = mapNullTimePtr(resolvedAt)
	return u, nil
}

func (r *undoRequestsRepo) CreateUndoRequest(ctx context.Context, u domain.UndoRequest) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO undo_requests (id, shareholder_id, shareholder_name, requested_by,
			reason, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.ShareholderID.String(), u.ShareholderName, u.RequestedBy,
		mapStringNull(u.Reason), string(u.Status), now, now,
	)
	return mapConstraint(err)
}

func (r *undoRequestsRepo) GetUndoRequest(ctx context.Context, id string) (domain.UndoRequest, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+undoRequestColumns+` FROM undo_requests WHERE id = ?`, id)
	u, err := scanUndoRequest(row)
	if err != nil {
		return domain.UndoRequest{}, mapNotFound(err)
	}
	return u, nil
}

func (r *undoRequestsRepo) ListUndoRequestsByStatus(ctx context.Context, status domain.UndoStatus) ([]domain.UndoRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+undoRequestColumns+` FROM undo_requests
		 WHERE status = ? ORDER BY created_at`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UndoRequest
	for rows.Next() {
		u, err := scanUndoRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ResolveUndoRequest only touches rows still pending, so a request can
// never be processed twice even if two admins race on it.
func (r *undoRequestsRepo) ResolveUndoRequest(ctx context.Context, id string, status domain.UndoStatus, resolvedBy string, resolvedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE undo_requests
		 SET status = ?, resolved_by = ?, resolved_at = ?, updated_at = ?
		 WHERE id = ? AND status = 'pending'`,
		string(status), resolvedBy, resolvedAt, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return oneRow(res)
}
