package models

import "time"

// SavedLocation is one entry of a user's ordered location list.
type SavedLocation struct {
	ID           int64     `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	LocationName string    `db:"location_name" json:"location_name"`
	Latitude     *float64  `db:"latitude" json:"latitude"`
	Longitude    *float64  `db:"longitude" json:"longitude"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (l SavedLocation) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}
