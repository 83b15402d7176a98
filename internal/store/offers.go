package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hiretrack/internal/types"
)

// "position" stays quoted: it is a reserved word in Postgres.
const offerColumns = `id, application_id, start_date, "position", salary, content, created_at`

func scanOffer(row interface{ Scan(...any) error }) (*types.Offer, error) {
	var o types.Offer
	var position, salary, content sql.NullString
	err := row.Scan(&o.ID, &o.ApplicationID, &o.StartDate, &position, &salary, &content, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	o.Position = position.String
	o.Salary = salary.String
	o.Content = content.String
	return &o, nil
}

// CreateOffer records an extended offer and fills in its generated id
// and creation timestamp.
func (s *Store) CreateOffer(ctx context.Context, o *types.Offer) error {
	o.CreatedAt = now()
	err := s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO offers (application_id, start_date, "position", salary, content, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`),
		o.ApplicationID, o.StartDate, nullStr(o.Position), nullStr(o.Salary), nullStr(o.Content), o.CreatedAt,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("inserting offer: %w", err)
	}
	return nil
}

// ListOffers returns offers, newest first.
func (s *Store) ListOffers(ctx context.Context) ([]types.Offer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+offerColumns+` FROM offers ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing offers: %w", err)
	}
	defer rows.Close()

	var offers []types.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning offer: %w", err)
		}
		offers = append(offers, *o)
	}
	return offers, rows.Err()
}

// GetOfferByID returns the offer, or nil when the id does not resolve.
func (s *Store) GetOfferByID(ctx context.Context, id int64) (*types.Offer, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+offerColumns+` FROM offers WHERE id=$1`), id)
	o, err := scanOffer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying offer: %w", err)
	}
	return o, nil
}
