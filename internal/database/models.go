package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the users table row.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID `bun:"id,pk"`
	Username     string    `bun:"username,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Phone        string    `bun:"phone,notnull,unique"`
	Age          *int      `bun:"age"`
	MACAddress   *string   `bun:"mac_address"`
	ImageURL     *string   `bun:"image_url"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

// Contact is the contacts table row. Phone numbers live in their own table
// and are loaded separately.
type Contact struct {
	bun.BaseModel `bun:"table:contacts,alias:c"`

	ID           uuid.UUID `bun:"id,pk"`
	UserID       uuid.UUID `bun:"user_id,notnull"`
	Name         string    `bun:"name,notnull"`
	Emergency    bool      `bun:"emergency,notnull"`
	Relationship *string   `bun:"relationship"`
	ImageURL     *string   `bun:"image_url"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

// PhoneNumber is the phone_numbers table row, always owned by exactly one contact.
type PhoneNumber struct {
	bun.BaseModel `bun:"table:phone_numbers,alias:pn"`

	ID        uuid.UUID `bun:"id,pk"`
	ContactID uuid.UUID `bun:"contact_id,notnull"`
	Number    string    `bun:"number,notnull"`
}
