package models

import "time"

// User is the account record kept in Redis under user:{userId}.
type User struct {
	UserID       string `json:"userId"`
	PasswordHash string `json:"passwordHash,omitempty"`
	// LegacyPassword holds plaintext credentials of accounts created before
	// hashing; it is replaced by PasswordHash on the next successful login.
	LegacyPassword string    `json:"password,omitempty"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	CreatedAt      time.Time `json:"createdAt"`
}

// UserProfile is the relational users row.
type UserProfile struct {
	UserID    string    `db:"user_id" json:"user_id"`
	UserName  string    `db:"user_name" json:"user_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
