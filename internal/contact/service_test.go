package contact

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	_ "modernc.org/sqlite"

	"contactbook/internal/crud"
	"contactbook/internal/database"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// One connection keeps the in-memory database alive for the whole test.
	sqldb.SetMaxOpenConns(1)

	db := database.NewSQLiteBunDB(sqldb)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	for _, model := range []any{
		(*database.Contact)(nil),
		(*database.PhoneNumber)(nil),
	} {
		_, err := db.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err)
	}
	return db
}

func countRows(t *testing.T, db *bun.DB, model any) int {
	t.Helper()
	count, err := db.NewSelect().Model(model).Count(context.Background())
	require.NoError(t, err)
	return count
}

func phoneNumbers(c *Contact) []string {
	numbers := make([]string, len(c.Phones))
	for i, p := range c.Phones {
		numbers[i] = p.Number
	}
	return numbers
}

func strPtr(s string) *string { return &s }

func TestCreateReadRoundTrip(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	actor := uuid.New()

	created, err := svc.Create(ctx, actor, CreateInput{
		Name:         "Bob",
		Emergency:    false,
		Relationship: strPtr("brother"),
		Phones:       []string{"555-0100", "555-0101"},
	})
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID, actor)
	require.NoError(t, err)

	assert.Equal(t, "Bob", got.Name)
	assert.False(t, got.Emergency)
	require.NotNil(t, got.Relationship)
	assert.Equal(t, "brother", *got.Relationship)
	assert.Equal(t, actor, got.UserID)
	assert.ElementsMatch(t, []string{"555-0100", "555-0101"}, phoneNumbers(got))
}

func TestCreateValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	actor := uuid.New()

	_, err := svc.Create(ctx, actor, CreateInput{Name: "  "})
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = svc.Create(ctx, actor, CreateInput{Name: "Bob", Phones: []string{""}})
	assert.ErrorIs(t, err, ErrEmptyPhoneNumber)

	assert.Zero(t, countRows(t, db, (*database.Contact)(nil)))
}

func TestCreateRollsBackOnChildFailure(t *testing.T) {
	db := newTestDB(t)
	engine := crud.NewEngine(db, Schema())
	ctx := context.Background()
	actor := uuid.New()

	// Duplicate child primary keys make the bulk insert fail after the
	// parent insert already succeeded inside the transaction.
	dup := uuid.New()
	parent := &database.Contact{ID: uuid.New(), Name: "Bob"}
	children := []*database.PhoneNumber{
		{ID: dup, Number: "555-0100"},
		{ID: dup, Number: "555-0101"},
	}

	_, err := engine.Create(ctx, actor, parent, children)
	require.Error(t, err)

	assert.Zero(t, countRows(t, db, (*database.Contact)(nil)))
	assert.Zero(t, countRows(t, db, (*database.PhoneNumber)(nil)))
}

func TestUpdateEmptyPhonesClearsOmittedKeeps(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	actor := uuid.New()

	created, err := svc.Create(ctx, actor, CreateInput{
		Name:   "Bob",
		Phones: []string{"555-0100", "555-0101"},
	})
	require.NoError(t, err)

	// Explicit empty list clears the numbers.
	empty := []string{}
	updated, err := svc.Update(ctx, created.ID, actor, UpdateInput{Phones: &empty})
	require.NoError(t, err)
	assert.Empty(t, updated.Phones)

	// Omitting the phones field leaves them untouched (still empty).
	name := "Bobby"
	updated, err = svc.Update(ctx, created.ID, actor, UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Bobby", updated.Name)
	assert.Empty(t, updated.Phones)
}

func TestUpdateOmittedPhonesKeepsExisting(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	actor := uuid.New()

	created, err := svc.Create(ctx, actor, CreateInput{
		Name:   "Bob",
		Phones: []string{"555-0100"},
	})
	require.NoError(t, err)

	emergency := true
	updated, err := svc.Update(ctx, created.ID, actor, UpdateInput{Emergency: &emergency})
	require.NoError(t, err)

	assert.True(t, updated.Emergency)
	assert.ElementsMatch(t, []string{"555-0100"}, phoneNumbers(updated))
}

func TestUpdateReplacesPhonesAtomically(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	actor := uuid.New()

	created, err := svc.Create(ctx, actor, CreateInput{
		Name:   "Bob",
		Phones: []string{"555-0100"},
	})
	require.NoError(t, err)

	replacement := []string{"555-0200", "555-0201", "555-0202"}
	updated, err := svc.Update(ctx, created.ID, actor, UpdateInput{Phones: &replacement})
	require.NoError(t, err)

	assert.ElementsMatch(t, replacement, phoneNumbers(updated))
	assert.Equal(t, 3, countRows(t, db, (*database.PhoneNumber)(nil)))
}

func TestUpdatePhonesOnlyBumpsUpdatedAt(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	actor := uuid.New()

	created, err := svc.Create(ctx, actor, CreateInput{
		Name:   "Bob",
		Phones: []string{"555-0100"},
	})
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	replacement := []string{"555-0200"}
	updated, err := svc.Update(ctx, created.ID, actor, UpdateInput{Phones: &replacement})
	require.NoError(t, err)

	// The aggregate changed even though no parent field was patched.
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, "Bob", updated.Name)
	assert.ElementsMatch(t, replacement, phoneNumbers(updated))
}

func TestUpdateNothingToUpdate(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	actor := uuid.New()

	created, err := svc.Create(ctx, actor, CreateInput{Name: "Bob"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, actor, UpdateInput{})
	assert.ErrorIs(t, err, crud.ErrNothingToUpdate)
}

func TestMutationsForbiddenForOtherActor(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	owner := uuid.New()
	stranger := uuid.New()

	created, err := svc.Create(ctx, owner, CreateInput{
		Name:   "Bob",
		Phones: []string{"555-0100"},
	})
	require.NoError(t, err)

	name := "Hijacked"
	_, err = svc.Update(ctx, created.ID, stranger, UpdateInput{Name: &name})
	assert.ErrorIs(t, err, crud.ErrForbidden)

	err = svc.Delete(ctx, created.ID, stranger)
	assert.ErrorIs(t, err, crud.ErrForbidden)

	_, err = svc.Get(ctx, created.ID, stranger)
	assert.ErrorIs(t, err, crud.ErrForbidden)

	// No writes happened.
	got, err := svc.Get(ctx, created.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "Bob", got.Name)
	assert.ElementsMatch(t, []string{"555-0100"}, phoneNumbers(got))
}

func TestOperationsOnMissingContact(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	actor := uuid.New()
	missing := uuid.New()

	_, err := svc.Get(ctx, missing, actor)
	assert.ErrorIs(t, err, crud.ErrNotFound)

	name := "x"
	_, err = svc.Update(ctx, missing, actor, UpdateInput{Name: &name})
	assert.ErrorIs(t, err, crud.ErrNotFound)

	err = svc.Delete(ctx, missing, actor)
	assert.ErrorIs(t, err, crud.ErrNotFound)
}

func TestDeleteCascadesToPhones(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	actor := uuid.New()

	created, err := svc.Create(ctx, actor, CreateInput{
		Name:   "Bob",
		Phones: []string{"555-0100", "555-0101"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID, actor))

	assert.Zero(t, countRows(t, db, (*database.Contact)(nil)))
	assert.Zero(t, countRows(t, db, (*database.PhoneNumber)(nil)))

	_, err = svc.Get(ctx, created.ID, actor)
	assert.ErrorIs(t, err, crud.ErrNotFound)
}

func TestListPaginationAndOrdering(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	actor := uuid.New()
	other := uuid.New()

	names := []string{"Eve", "Carol", "Dan", "Alice", "Bob"}
	for _, name := range names {
		_, err := svc.Create(ctx, actor, CreateInput{Name: name})
		require.NoError(t, err)
	}
	// An emergency contact sorts before everything else.
	_, err := svc.Create(ctx, actor, CreateInput{Name: "Zed", Emergency: true})
	require.NoError(t, err)
	// Another user's contact must not leak into the listing.
	_, err = svc.Create(ctx, other, CreateInput{Name: "Mallory"})
	require.NoError(t, err)

	page1, err := svc.List(ctx, actor, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 6, page1.Meta.Total)
	assert.Equal(t, 2, page1.Meta.TotalPages)
	assert.True(t, page1.Meta.HasNext)
	assert.False(t, page1.Meta.HasPrevious)
	require.Len(t, page1.Contacts, 4)
	assert.Equal(t, "Zed", page1.Contacts[0].Name)
	assert.Equal(t, "Alice", page1.Contacts[1].Name)
	assert.Equal(t, "Bob", page1.Contacts[2].Name)
	assert.Equal(t, "Carol", page1.Contacts[3].Name)

	page2, err := svc.List(ctx, actor, 2, 4)
	require.NoError(t, err)
	assert.False(t, page2.Meta.HasNext)
	assert.True(t, page2.Meta.HasPrevious)
	require.Len(t, page2.Contacts, 2)
	assert.Equal(t, "Dan", page2.Contacts[0].Name)
	assert.Equal(t, "Eve", page2.Contacts[1].Name)
}

func TestListBatchesChildren(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	actor := uuid.New()

	_, err := svc.Create(ctx, actor, CreateInput{Name: "Alice", Phones: []string{"1"}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, actor, CreateInput{Name: "Bob", Phones: []string{"2", "3"}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, actor, CreateInput{Name: "Carol"})
	require.NoError(t, err)

	page, err := svc.List(ctx, actor, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Contacts, 3)

	byName := map[string][]string{}
	for _, c := range page.Contacts {
		byName[c.Name] = phoneNumbers(c)
	}
	assert.ElementsMatch(t, []string{"1"}, byName["Alice"])
	assert.ElementsMatch(t, []string{"2", "3"}, byName["Bob"])
	assert.Empty(t, byName["Carol"])
}

// The full scenario: clear the list, then confirm a later update that omits
// the field does not resurrect anything.
func TestEmptyThenOmittedScenario(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	alice := uuid.New()

	created, err := svc.Create(ctx, alice, CreateInput{
		Name:      "Bob",
		Emergency: false,
		Phones:    []string{"555-0100", "555-0101"},
	})
	require.NoError(t, err)

	empty := []string{}
	_, err = svc.Update(ctx, created.ID, alice, UpdateInput{Phones: &empty})
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID, alice)
	require.NoError(t, err)
	assert.Empty(t, got.Phones)

	relationship := "colleague"
	_, err = svc.Update(ctx, created.ID, alice, UpdateInput{Relationship: &relationship})
	require.NoError(t, err)

	got, err = svc.Get(ctx, created.ID, alice)
	require.NoError(t, err)
	assert.Empty(t, got.Phones)
	require.NotNil(t, got.Relationship)
	assert.Equal(t, "colleague", *got.Relationship)
}
