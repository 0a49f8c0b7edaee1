package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"contactbook/internal/crud"
	"contactbook/internal/database"
)

// Repository handles user persistence.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, username, passwordHash, phone string, age *int, macAddress *string) (*User, error) {
	now := time.Now()
	dbUser := &database.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		Phone:        phone,
		Age:          age,
		MACAddress:   macAddress,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := r.db.NewInsert().Model(dbUser).Exec(ctx); err != nil {
		if dupErr := mapUniqueViolation(err); dupErr != nil {
			return nil, dupErr
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return mapDBUserToModel(dbUser), nil
}

// GetByUsername retrieves a user by username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("username = ?", username).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return mapDBUserToModel(dbUser), nil
}

// GetByPhone retrieves a user by phone number.
func (r *Repository) GetByPhone(ctx context.Context, phone string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("phone = ?", phone).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by phone: %w", err)
	}
	return mapDBUserToModel(dbUser), nil
}

// UpdateProfile applies a partial update built by the caller. Fields the
// caller did not mention are never touched.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, patch *crud.UpdatePatch) (*User, error) {
	q := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Where("id = ?", id)
	q, err := patch.Apply(q)
	if err != nil {
		return nil, err
	}
	q = q.Set("updated_at = ?", time.Now())

	result, err := q.Exec(ctx)
	if err != nil {
		if dupErr := mapUniqueViolation(err); dupErr != nil {
			return nil, dupErr
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, id)
}

// UpdatePassword replaces the password hash.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateImage stores the uploaded image URL on the user.
func (r *Repository) UpdateImage(ctx context.Context, id uuid.UUID, imageURL string) (*User, error) {
	return r.UpdateProfile(ctx, id, crud.NewUpdatePatch().Set("image_url", imageURL))
}

// Delete removes the user together with their contacts and the contacts'
// phone numbers, in one transaction.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*database.PhoneNumber)(nil)).
			Where("contact_id IN (SELECT id FROM contacts WHERE user_id = ?)", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete phone numbers: %w", err)
		}

		_, err = tx.NewDelete().
			Model((*database.Contact)(nil)).
			Where("user_id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete contacts: %w", err)
		}

		result, err := tx.NewDelete().
			Model((*database.User)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// mapUniqueViolation translates driver unique-constraint failures into the
// package's sentinel errors, nil when the error is something else.
func mapUniqueViolation(err error) error {
	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value violates unique constraint") &&
		!strings.Contains(msg, "UNIQUE constraint failed") {
		return nil
	}
	if strings.Contains(msg, "username") {
		return ErrDuplicateUsername
	}
	if strings.Contains(msg, "phone") {
		return ErrDuplicatePhone
	}
	return ErrDuplicateUsername
}

func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:           dbu.ID,
		Username:     dbu.Username,
		PasswordHash: dbu.PasswordHash,
		Phone:        dbu.Phone,
		Age:          dbu.Age,
		MACAddress:   dbu.MACAddress,
		ImageURL:     dbu.ImageURL,
		CreatedAt:    dbu.CreatedAt,
		UpdatedAt:    dbu.UpdatedAt,
	}
}
