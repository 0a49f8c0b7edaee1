package contact

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"contactbook/internal/crud"
	"contactbook/internal/database"
)

// Schema ties the contacts and phone_numbers tables to the CRUD engine.
// Listing orders emergency contacts first, then by name, with id as the
// stable tie-break.
func Schema() crud.Schema[database.Contact, database.PhoneNumber] {
	return crud.Schema[database.Contact, database.PhoneNumber]{
		OwnerColumn:  "user_id",
		ParentColumn: "contact_id",
		TouchColumn:  "updated_at",
		SortExprs:    []string{"emergency DESC", "name ASC", "id ASC"},

		ParentID:  func(c *database.Contact) uuid.UUID { return c.ID },
		OwnerID:   func(c *database.Contact) uuid.UUID { return c.UserID },
		BindOwner: func(c *database.Contact, owner uuid.UUID) { c.UserID = owner },
		ChildParentID: func(p *database.PhoneNumber) uuid.UUID {
			return p.ContactID
		},
		BindParent: func(p *database.PhoneNumber, parent uuid.UUID) {
			p.ContactID = parent
		},
	}
}

// Service exposes contact operations on top of the transactional CRUD engine.
type Service struct {
	engine *crud.Engine[database.Contact, database.PhoneNumber]
}

func NewService(db *bun.DB) *Service {
	return &Service{engine: crud.NewEngine(db, Schema())}
}

// Create inserts a contact owned by actorID, with its phone numbers, atomically.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, input CreateInput) (*Contact, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrNameRequired
	}
	children, err := buildPhoneRows(input.Phones)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	parent := &database.Contact{
		ID:           uuid.New(),
		Name:         input.Name,
		Emergency:    input.Emergency,
		Relationship: input.Relationship,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	agg, err := s.engine.Create(ctx, actorID, parent, children)
	if err != nil {
		return nil, err
	}
	return mapAggregate(agg), nil
}

// Get loads one contact aggregate after an ownership check.
func (s *Service) Get(ctx context.Context, contactID, actorID uuid.UUID) (*Contact, error) {
	agg, err := s.engine.Get(ctx, contactID, actorID)
	if err != nil {
		return nil, err
	}
	return mapAggregate(agg), nil
}

// Update applies a partial update. An omitted phones field keeps the existing
// numbers; an explicitly empty list clears them.
func (s *Service) Update(ctx context.Context, contactID, actorID uuid.UUID, input UpdateInput) (*Contact, error) {
	patch := crud.NewUpdatePatch()
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, ErrNameRequired
		}
		patch.Set("name", *input.Name)
	}
	if input.Emergency != nil {
		patch.Set("emergency", *input.Emergency)
	}
	if input.Relationship != nil {
		patch.Set("relationship", *input.Relationship)
	}

	var newChildren *[]*database.PhoneNumber
	if input.Phones != nil {
		children, err := buildPhoneRows(*input.Phones)
		if err != nil {
			return nil, err
		}
		newChildren = &children
	}

	agg, err := s.engine.Update(ctx, contactID, actorID, patch, newChildren)
	if err != nil {
		return nil, err
	}
	return mapAggregate(agg), nil
}

// UpdateImage stores the uploaded image URL on the contact.
func (s *Service) UpdateImage(ctx context.Context, contactID, actorID uuid.UUID, imageURL string) (*Contact, error) {
	patch := crud.NewUpdatePatch().Set("image_url", imageURL)
	agg, err := s.engine.Update(ctx, contactID, actorID, patch, nil)
	if err != nil {
		return nil, err
	}
	return mapAggregate(agg), nil
}

// Delete removes the contact and its phone numbers.
func (s *Service) Delete(ctx context.Context, contactID, actorID uuid.UUID) error {
	return s.engine.Delete(ctx, contactID, actorID)
}

// ListPage is one page of contacts plus pagination metadata.
type ListPage struct {
	Contacts []*Contact
	Meta     crud.PageMeta
}

// List returns one page of the actor's contacts.
func (s *Service) List(ctx context.Context, actorID uuid.UUID, page, pageSize int) (*ListPage, error) {
	result, err := s.engine.List(ctx, actorID, actorID, page, pageSize)
	if err != nil {
		return nil, err
	}

	contacts := make([]*Contact, len(result.Items))
	for i, agg := range result.Items {
		contacts[i] = mapAggregate(agg)
	}
	return &ListPage{Contacts: contacts, Meta: result.Meta}, nil
}

func buildPhoneRows(numbers []string) ([]*database.PhoneNumber, error) {
	rows := make([]*database.PhoneNumber, 0, len(numbers))
	for _, n := range numbers {
		if strings.TrimSpace(n) == "" {
			return nil, ErrEmptyPhoneNumber
		}
		rows = append(rows, &database.PhoneNumber{
			ID:     uuid.New(),
			Number: n,
		})
	}
	return rows, nil
}

func mapAggregate(agg *crud.Aggregate[database.Contact, database.PhoneNumber]) *Contact {
	phones := make([]PhoneNumber, len(agg.Children))
	for i, p := range agg.Children {
		phones[i] = PhoneNumber{ID: p.ID, Number: p.Number}
	}
	c := agg.Parent
	return &Contact{
		ID:           c.ID,
		UserID:       c.UserID,
		Name:         c.Name,
		Emergency:    c.Emergency,
		Relationship: c.Relationship,
		ImageURL:     c.ImageURL,
		Phones:       phones,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
