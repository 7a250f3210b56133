package services

import (
	"context"
	"errors"

	"github.com/AnshRaj112/weatherlist-backend/internal/models"
)

// AddLocationInput is the payload of LocationService.Add.
type AddLocationInput struct {
	UserID    string
	Name      string
	Latitude  *float64
	Longitude *float64
}

// LocationService manages a user's ordered list of saved locations.
type LocationService struct {
	store LocationStore
}

func NewLocationService(store LocationStore) *LocationService {
	return &LocationService{store: store}
}

// List returns the user's locations by ascending display order.
func (s *LocationService) List(ctx context.Context, userID string) ([]models.SavedLocation, error) {
	if userID == "" {
		return nil, validationError("userId is required")
	}
	locations, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeError("Failed to fetch locations", err)
	}
	return locations, nil
}

// Get returns one saved location.
func (s *LocationService) Get(ctx context.Context, userID, name string) (*models.SavedLocation, error) {
	if userID == "" || name == "" {
		return nil, validationError("userId and location are required")
	}
	loc, err := s.store.Get(ctx, userID, name)
	if errors.Is(err, ErrLocationNotFound) {
		return nil, notFoundError("Location not found")
	}
	if err != nil {
		return nil, storeError("Failed to fetch location", err)
	}
	return loc, nil
}

// Add appends a location at the end of the list and returns its id.
func (s *LocationService) Add(ctx context.Context, in AddLocationInput) (int64, error) {
	if in.UserID == "" || in.Name == "" {
		return 0, validationError("userId and location are required")
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return 0, validationError("latitude and longitude must be provided together")
	}

	id, _, err := s.store.Insert(ctx, NewLocation(in))
	if errors.Is(err, ErrLocationExists) {
		return 0, &Error{Kind: KindDuplicateLocation, Message: "Location already exists"}
	}
	if err != nil {
		return 0, storeError("Failed to add location", err)
	}
	return id, nil
}

// Delete removes the location named exactly name.
func (s *LocationService) Delete(ctx context.Context, userID, name string) error {
	if userID == "" || name == "" {
		return validationError("userId and location are required")
	}
	err := s.store.Delete(ctx, userID, name)
	if errors.Is(err, ErrLocationNotFound) {
		return notFoundError("Location not found")
	}
	if err != nil {
		return storeError("Failed to delete location", err)
	}
	return nil
}

// Reorder sets the list order to exactly names. The list must name every
// saved location once; otherwise nothing changes.
func (s *LocationService) Reorder(ctx context.Context, userID string, names []string) error {
	if userID == "" || len(names) == 0 {
		return validationError("userId and locations array are required")
	}

	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			return validationError("location names must not be empty")
		}
		if _, dup := seen[n]; dup {
			return validationError("duplicate location in order: " + n)
		}
		seen[n] = struct{}{}
	}

	err := s.store.Reorder(ctx, userID, names)
	var missing *MissingLocationError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &missing):
		return &Error{Kind: KindNotFound, Message: "Location not found: " + missing.Name, Err: err}
	case errors.Is(err, ErrIncompleteOrder):
		return validationError("locations must include every saved location")
	default:
		return storeError("Failed to update location order", err)
	}
}
