package sqlite

import (
	"context"
	"time"

	"github.com/openwaterco/agmdesk/internal/portal/domain"
)

type propertiesRepo struct {
	db dbtx
}

const propertyColumns = `id, meeting_id, shareholder_id, account_number, service_address,
	owner_name, owner_address, customer_name, customer_address,
	resident_name, resident_address, checked_in, created_at, updated_at`

func scanProperty(row interface{ Scan(...any) error }) (domain.Property, error) {
	var p domain.Property
	err := row.Scan(
		&p.ID, &p.MeetingID, &p.ShareholderID, &p.AccountNumber, &p.ServiceAddress,
		&p.Owner.Name, &p.Owner.Address, &p.Customer.Name, &p.Customer.Address,
		&p.Resident.Name, &p.Resident.Address, &p.CheckedIn, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *propertiesRepo) GetProperty(ctx context.Context, id string) (domain.Property, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE id = ?`, id)
	p, err := scanProperty(row)
	if err != nil {
		return domain.Property{}, mapNotFound(err)
	}
	return p, nil
}

func (r *propertiesRepo) ListPropertiesByShareholder(ctx context.Context, id domain.ShareholderID) ([]domain.Property, error) {
	return r.list(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE shareholder_id = ? ORDER BY account_number`,
		id.String())
}

func (r *propertiesRepo) ListPropertiesByMeeting(ctx context.Context, meetingID string) ([]domain.Property, error) {
	return r.list(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE meeting_id = ? ORDER BY account_number`,
		meetingID)
}

func (r *propertiesRepo) list(ctx context.Context, query string, args ...any) ([]domain.Property, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *propertiesRepo) CountPropertiesByShareholder(ctx context.Context, id domain.ShareholderID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM properties WHERE shareholder_id = ?`, id.String()).Scan(&n)
	return n, err
}

// CreateProperty inserts conditionally on the owning shareholder existing.
// shareholder_id is a plain string join key, so the reference is enforced
// here rather than by the schema.
func (r *propertiesRepo) CreateProperty(ctx context.Context, p domain.Property) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO properties (id, meeting_id, shareholder_id, account_number, service_address,
			owner_name, owner_address, customer_name, customer_address,
			resident_name, resident_address, checked_in, created_at, updated_at)
		 SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		 WHERE EXISTS (SELECT 1 FROM shareholders WHERE shareholder_id = ?)`,
		p.ID, p.MeetingID, p.ShareholderID.String(), p.AccountNumber, p.ServiceAddress,
		p.Owner.Name, p.Owner.Address, p.Customer.Name, p.Customer.Address,
		p.Resident.Name, p.Resident.Address, p.CheckedIn, now, now,
		p.ShareholderID.String(),
	)
	if err != nil {
		return mapConstraint(err)
	}
	return oneRow(res)
}

// UpdatePropertyOwnership rewrites the owning shareholder and the party
// fields in one statement, conditional on the new shareholder existing.
func (r *propertiesRepo) UpdatePropertyOwnership(ctx context.Context, propertyID string, newOwner domain.ShareholderID, owner, customer, resident domain.Party) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE properties
		 SET shareholder_id = ?,
			owner_name = ?, owner_address = ?,
			customer_name = ?, customer_address = ?,
			resident_name = ?, resident_address = ?,
			updated_at = ?
		 WHERE id = ?
		   AND EXISTS (SELECT 1 FROM shareholders WHERE shareholder_id = ?)`,
		newOwner.String(),
		owner.Name, owner.Address,
		customer.Name, customer.Address,
		resident.Name, resident.Address,
		time.Now().UTC(),
		propertyID,
		newOwner.String(),
	)
	if err != nil {
		return err
	}
	return oneRow(res)
}

func (r *propertiesRepo) SetPropertiesCheckedInByShareholder(ctx context.Context, id domain.ShareholderID, checkedIn bool) error {
	// Zero owned properties is fine here; no rows is not an error.
	_, err := r.db.ExecContext(ctx,
		`UPDATE properties SET checked_in = ?, updated_at = ? WHERE shareholder_id = ?`,
		checkedIn, time.Now().UTC(), id.String())
	return err
}

func (r *propertiesRepo) DeleteProperty(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM properties WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return oneRow(res)
}
