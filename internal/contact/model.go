package contact

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNameRequired     = errors.New("contact name is required")
	ErrEmptyPhoneNumber = errors.New("phone number must not be empty")
)

// Contact is a contact aggregate: the parent row plus its phone numbers.
type Contact struct {
	ID           uuid.UUID     `json:"id"`
	UserID       uuid.UUID     `json:"user_id"`
	Name         string        `json:"name"`
	Emergency    bool          `json:"emergency"`
	Relationship *string       `json:"relationship,omitempty"`
	ImageURL     *string       `json:"image_url,omitempty"`
	Phones       []PhoneNumber `json:"phones"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// PhoneNumber is one number owned by a contact.
type PhoneNumber struct {
	ID     uuid.UUID `json:"id"`
	Number string    `json:"number"`
}

// CreateInput carries the fields for a new contact.
type CreateInput struct {
	Name         string
	Emergency    bool
	Relationship *string
	Phones       []string
}

// UpdateInput carries a partial update. Nil means the field was omitted and
// stays untouched. Phones distinguishes omitted (nil, keep existing) from
// present-but-empty (replace with zero numbers).
type UpdateInput struct {
	Name         *string
	Emergency    *bool
	Relationship *string
	Phones       *[]string
}
