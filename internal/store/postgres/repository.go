// Package postgres provides a durable implementation of the domain entry
// store backed by PostgreSQL.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/carbonbuddy/internal/domain"
)

// Repository persists activity entries in Postgres. The entries table is
// append-only; seq preserves insertion order per user.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// schema keeps entry_date as TEXT: the engine compares YYYY-MM-DD strings
// lexicographically and the stored form must match that contract.
const schema = `CREATE TABLE IF NOT EXISTS entries (
    seq BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    entry_id TEXT NOT NULL UNIQUE,
    user_id TEXT NOT NULL,
    entry_date TEXT NOT NULL,
    category TEXT NOT NULL,
    subcategory TEXT NOT NULL DEFAULT '',
    distance_km DOUBLE PRECISION,
    amount DOUBLE PRECISION,
    units TEXT NOT NULL DEFAULT '',
    city TEXT NOT NULL DEFAULT '',
    notes TEXT NOT NULL DEFAULT '',
    emission_factor_override DOUBLE PRECISION,
    emissions_kg DOUBLE PRECISION NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS entries_user_idx ON entries (user_id, seq)`

// EnsureSchema creates the entries table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

// Append implements domain.EntryStore.
func (r *Repository) Append(ctx context.Context, userID string, entry domain.ActivityEntry) error {
	const insert = `INSERT INTO entries
        (entry_id, user_id, entry_date, category, subcategory, distance_km, amount, units, city, notes, emission_factor_override, emissions_kg, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

	_, err := r.pool.Exec(ctx, insert,
		entry.ID,
		userID,
		entry.Date,
		entry.Category,
		entry.Subcategory,
		entry.DistanceKm,
		entry.Amount,
		entry.Units,
		entry.City,
		entry.Notes,
		entry.EmissionFactorOverride,
		entry.EmissionsKg,
		entry.CreatedAt,
	)
	return err
}

// ListByUser returns the user's entries in insertion order.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.ActivityEntry, error) {
	const query = `SELECT entry_id, user_id, entry_date, category, subcategory, distance_km, amount, units, city, notes, emission_factor_override, emissions_kg, created_at
        FROM entries WHERE user_id=$1 ORDER BY seq`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.ActivityEntry
	for rows.Next() {
		var entry domain.ActivityEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Date,
			&entry.Category,
			&entry.Subcategory,
			&entry.DistanceKm,
			&entry.Amount,
			&entry.Units,
			&entry.City,
			&entry.Notes,
			&entry.EmissionFactorOverride,
			&entry.EmissionsKg,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
