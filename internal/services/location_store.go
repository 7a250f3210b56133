package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/AnshRaj112/weatherlist-backend/internal/database"
	"github.com/AnshRaj112/weatherlist-backend/internal/models"
)

// pqUniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const pqUniqueViolation = "23505"

var (
	ErrLocationExists   = errors.New("location already saved")
	ErrLocationNotFound = errors.New("location not found")
	// ErrIncompleteOrder means a reorder did not name every saved location.
	ErrIncompleteOrder = errors.New("reorder must list every saved location")
)

// MissingLocationError reports the first reorder name with no matching row.
type MissingLocationError struct {
	Name string
}

func (e *MissingLocationError) Error() string {
	return fmt.Sprintf("location not found: %s", e.Name)
}

// NewLocation is the input of LocationStore.Insert.
type NewLocation struct {
	UserID    string
	Name      string
	Latitude  *float64
	Longitude *float64
}

// LocationStore persists saved locations. Every write keeps a user's
// display_order values equal to 0..n-1.
type LocationStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.SavedLocation, error)
	Get(ctx context.Context, userID, name string) (*models.SavedLocation, error)
	Insert(ctx context.Context, loc NewLocation) (id int64, order int, err error)
	Delete(ctx context.Context, userID, name string) error
	Reorder(ctx context.Context, userID string, names []string) error
}

type postgresLocationStore struct {
	db *sqlx.DB
}

func NewPostgresLocationStore(db *sqlx.DB) LocationStore {
	return &postgresLocationStore{db: db}
}

const locationColumns = `id, user_id, location_name, latitude, longitude, display_order, created_at`

// lockUser serializes writers of one user's list until the transaction ends.
func lockUser(ctx context.Context, tx *sqlx.Tx, userID string) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID); err != nil {
		return fmt.Errorf("lock user %s: %w", userID, err)
	}
	return nil
}

func (s *postgresLocationStore) ListByUser(ctx context.Context, userID string) ([]models.SavedLocation, error) {
	locations := []models.SavedLocation{}
	err := s.db.SelectContext(ctx, &locations,
		`SELECT `+locationColumns+` FROM saved_locations WHERE user_id = $1 ORDER BY display_order ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}

func (s *postgresLocationStore) Get(ctx context.Context, userID, name string) (*models.SavedLocation, error) {
	var loc models.SavedLocation
	err := s.db.GetContext(ctx, &loc,
		`SELECT `+locationColumns+` FROM saved_locations WHERE user_id = $1 AND location_name = $2`,
		userID, name,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLocationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &loc, nil
}

func (s *postgresLocationStore) Insert(ctx context.Context, loc NewLocation) (int64, int, error) {
	var (
		id    int64
		order int
	)
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := lockUser(ctx, tx, loc.UserID); err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &order,
			`SELECT COALESCE(MAX(display_order) + 1, 0) FROM saved_locations WHERE user_id = $1`,
			loc.UserID,
		); err != nil {
			return fmt.Errorf("next display order: %w", err)
		}
		return tx.QueryRowxContext(ctx,
			`INSERT INTO saved_locations (user_id, location_name, latitude, longitude, display_order)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			loc.UserID, loc.Name, loc.Latitude, loc.Longitude, order,
		).Scan(&id)
	})
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return 0, 0, ErrLocationExists
		}
		return 0, 0, fmt.Errorf("insert location: %w", err)
	}
	return id, order, nil
}

func (s *postgresLocationStore) Delete(ctx context.Context, userID, name string) error {
	return database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}

		var removed int
		err := tx.GetContext(ctx, &removed,
			`DELETE FROM saved_locations WHERE user_id = $1 AND location_name = $2 RETURNING display_order`,
			userID, name,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrLocationNotFound
		}
		if err != nil {
			return fmt.Errorf("delete location: %w", err)
		}

		// close the gap left by the removed row
		if _, err := tx.ExecContext(ctx,
			`UPDATE saved_locations SET display_order = display_order - 1 WHERE user_id = $1 AND display_order > $2`,
			userID, removed,
		); err != nil {
			return fmt.Errorf("compact display order: %w", err)
		}
		return nil
	})
}

// Reorder assigns display_order = index for each name. Any name without a row
// aborts the whole transaction with a *MissingLocationError.
func (s *postgresLocationStore) Reorder(ctx context.Context, userID string, names []string) error {
	return database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}

		for i, name := range names {
			res, err := tx.ExecContext(ctx,
				`UPDATE saved_locations SET display_order = $1 WHERE user_id = $2 AND location_name = $3`,
				i, userID, name,
			)
			if err != nil {
				return fmt.Errorf("update order of %q: %w", name, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			if n == 0 {
				return &MissingLocationError{Name: name}
			}
		}

		var total int
		if err := tx.GetContext(ctx, &total,
			`SELECT COUNT(*) FROM saved_locations WHERE user_id = $1`, userID,
		); err != nil {
			return fmt.Errorf("count locations: %w", err)
		}
		if total != len(names) {
			return ErrIncompleteOrder
		}
		return nil
	})
}
