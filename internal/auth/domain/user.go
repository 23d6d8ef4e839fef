package domain

import "time"

type User struct {
	ID           string
	Email        string // unique, matched case-insensitively
	DisplayName  string
	PasswordHash string // argon2 encoded
	Roles        []string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
