package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/AnshRaj112/weatherlist-backend/internal/models"
)

var ErrProfileNotFound = errors.New("user profile not found")

// ProfileStore reads and upserts rows of the relational users table.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
	Upsert(ctx context.Context, userID, userName string) error
}

type postgresProfileStore struct {
	db *sqlx.DB
}

func NewPostgresProfileStore(db *sqlx.DB) ProfileStore {
	return &postgresProfileStore{db: db}
}

func (s *postgresProfileStore) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	var p models.UserProfile
	err := s.db.GetContext(ctx, &p,
		`SELECT user_id, user_name, created_at FROM users WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (s *postgresProfileStore) Upsert(ctx context.Context, userID, userName string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, user_name) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET user_name = EXCLUDED.user_name`,
		userID, userName)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// ProfileService exposes the legacy relational user profile.
type ProfileService struct {
	store ProfileStore
}

func NewProfileService(store ProfileStore) *ProfileService {
	return &ProfileService{store: store}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	if userID == "" {
		return nil, validationError("userId is required")
	}
	p, err := s.store.Get(ctx, userID)
	if errors.Is(err, ErrProfileNotFound) {
		return nil, notFoundError("User not found")
	}
	if err != nil {
		return nil, storeError("Failed to fetch user", err)
	}
	return p, nil
}

// Save creates or renames a profile; an empty userName defaults to userID.
func (s *ProfileService) Save(ctx context.Context, userID, userName string) error {
	if userID == "" {
		return validationError("userId is required")
	}
	if userName == "" {
		userName = userID
	}
	if err := s.store.Upsert(ctx, userID, userName); err != nil {
		return storeError("Failed to create/update user", err)
	}
	return nil
}
