package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicatePhone    = errors.New("phone number already registered")
	ErrUsernameRequired  = errors.New("username is required")
	ErrPhoneRequired     = errors.New("phone is required")
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone"`
	Age          *int      `json:"age,omitempty"`
	MACAddress   *string   `json:"mac_address,omitempty"`
	ImageURL     *string   `json:"image_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UpdateProfileInput carries a partial profile update; nil fields stay untouched.
type UpdateProfileInput struct {
	Username   *string
	Phone      *string
	Age        *int
	MACAddress *string
}
