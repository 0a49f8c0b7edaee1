package user

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"contactbook/internal/crud"
)

// Service handles profile operations. Callers only ever act on their own
// profile; the actor id from the verified token is the resource id.
type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Get loads the actor's own profile.
func (s *Service) Get(ctx context.Context, actorID uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, actorID)
}

// UpdateProfile applies a partial update to the actor's profile. Returns
// crud.ErrNothingToUpdate when no field was supplied.
func (s *Service) UpdateProfile(ctx context.Context, actorID uuid.UUID, input UpdateProfileInput) (*User, error) {
	patch := crud.NewUpdatePatch()
	if input.Username != nil {
		if strings.TrimSpace(*input.Username) == "" {
			return nil, ErrUsernameRequired
		}
		patch.Set("username", *input.Username)
	}
	if input.Phone != nil {
		if strings.TrimSpace(*input.Phone) == "" {
			return nil, ErrPhoneRequired
		}
		patch.Set("phone", *input.Phone)
	}
	if input.Age != nil {
		patch.Set("age", *input.Age)
	}
	if input.MACAddress != nil {
		patch.Set("mac_address", *input.MACAddress)
	}

	if patch.IsEmpty() {
		return nil, crud.ErrNothingToUpdate
	}

	return s.repo.UpdateProfile(ctx, actorID, patch)
}

// UpdateImage stores the uploaded image URL on the actor's profile.
func (s *Service) UpdateImage(ctx context.Context, actorID uuid.UUID, imageURL string) (*User, error) {
	return s.repo.UpdateImage(ctx, actorID, imageURL)
}

// Delete removes the actor's account and everything it owns.
func (s *Service) Delete(ctx context.Context, actorID uuid.UUID) error {
	return s.repo.Delete(ctx, actorID)
}
