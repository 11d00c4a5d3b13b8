package models

import "time"

// APIKey represents a row in the PostgreSQL api_keys table. Only the bcrypt
// hash of the secret is stored; the secret itself is shown once at issue time.
type APIKey struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	KeyHash    string     `json:"-"` // never serialize
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}
