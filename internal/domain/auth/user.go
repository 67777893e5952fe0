package auth

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrUserNotFound is returned when a user id or email is unknown.
	ErrUserNotFound = errors.New("User not found")
	// ErrEmailTaken is returned by Create when the email already exists.
	ErrEmailTaken = errors.New("Email already registered")
)

// User is a storefront account. PasswordHash never leaves the service layer.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Avatar       string    `json:"avatar"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserRepository persists accounts.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, id, name, phone string) error
	UpdatePassword(ctx context.Context, id, hash string) error
	List(ctx context.Context) ([]User, error)
}
