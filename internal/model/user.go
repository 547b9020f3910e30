package model

import (
	"errors"
	"time"
)

const (
	// MinPasswordLength is the shortest password accepted on registration.
	MinPasswordLength = 8
	// MaxPasswordLength is bcrypt's input limit in bytes.
	MaxPasswordLength = 72
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
)

// User is a marketplace account. Users create items and write reviews.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username" validate:"notblank,max=50"`
	Email        string    `json:"email" validate:"required,email,max=254"`
	FirstName    string    `json:"first_name" validate:"max=50"`
	LastName     string    `json:"last_name" validate:"max=50"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`

	Address
}

// OwnerID reports the user itself as the owner of its account.
func (u *User) OwnerID() (int64, bool) {
	return u.ID, true
}

// ValidatePassword checks the password policy for new and changed passwords.
func ValidatePassword(password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(password) > MaxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}
