package domain

import "time"

// Instance represents the singleton server instance configuration.
type Instance struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Version    string    `json:"version"`
	Configured bool      `json:"configured"` // true once the admin password is set
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Admin holds the gate credential. Access is one shared password, so
// there is exactly one of these per instance.
type Admin struct {
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
