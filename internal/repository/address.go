package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sushovancpp/urmart/internal/domain/address"
)

const (
	listAddressesSQL = `SELECT id, user_id, label, line1, city, state, pincode, is_default, created_at
		FROM addresses WHERE user_id = $1
		ORDER BY is_default DESC, created_at, id`

	// createAddressSQL marks the row default when it is the user's first.
	createAddressSQL = `INSERT INTO addresses (id, user_id, label, line1, city, state, pincode, is_default, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7,
			NOT EXISTS (SELECT 1 FROM addresses WHERE user_id = $2), $8)
		RETURNING is_default`

	deleteAddressSQL = `DELETE FROM addresses WHERE user_id = $1 AND id = $2`

	setDefaultAddressSQL = `UPDATE addresses SET is_default = (id = $2)
		WHERE user_id = $1 AND EXISTS (SELECT 1 FROM addresses WHERE user_id = $1 AND id = $2)`
)

var _ address.Repository = (*AddressRepository)(nil)

// AddressRepository implements address.Repository backed by PostgreSQL.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// List returns the user's addresses, default first.
func (r *AddressRepository) List(ctx context.Context, userID string) ([]address.Address, error) {
	rows, err := r.pool.Query(ctx, listAddressesSQL, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list addresses")
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[address.Address])
}

// Create inserts a and records whether it became the default.
func (r *AddressRepository) Create(ctx context.Context, a *address.Address) error {
	err := r.pool.QueryRow(ctx, createAddressSQL,
		a.ID, a.UserID, a.Label, a.Line1, a.City, a.State, a.Pincode, a.CreatedAt,
	).Scan(&a.Default)
	if err != nil {
		return errors.Wrap(err, "create address")
	}
	return nil
}

// Delete removes an address of the user.
func (r *AddressRepository) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.pool.Exec(ctx, deleteAddressSQL, userID, id)
	if err != nil {
		return errors.Wrap(err, "delete address")
	}
	if tag.RowsAffected() == 0 {
		return address.ErrNotFound
	}
	return nil
}

// SetDefault flips the default flag across all the user's addresses in one
// statement.
func (r *AddressRepository) SetDefault(ctx context.Context, userID, id string) error {
	tag, err := r.pool.Exec(ctx, setDefaultAddressSQL, userID, id)
	if err != nil {
		return errors.Wrap(err, "set default address")
	}
	if tag.RowsAffected() == 0 {
		return address.ErrNotFound
	}
	return nil
}
