package domain

import "time"

// User represents a registered account of the user API.
type User struct {
	ID           int64
	Username     string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Credentials is the username/password/name triple a flow run registers with.
type Credentials struct {
	Username string
	Password string
	Name     string
}

// Profile is the public view of a user as returned by the validate endpoint.
type Profile struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}
