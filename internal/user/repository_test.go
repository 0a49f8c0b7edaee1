package user

import (
	"context"
	"database/sql"
	"testing"

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
		(*database.User)(nil),
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

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestCreateAndLookups(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, "alice", "hash", "+15550100", intPtr(30), strPtr("00:1B:44:11:3A:B7"))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byUsername, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byUsername.ID)

	byPhone, err := repo.GetByPhone(ctx, "+15550100")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byPhone.ID)
	require.NotNil(t, byPhone.Age)
	assert.Equal(t, 30, *byPhone.Age)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateDuplicates(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, "alice", "hash", "+15550100", nil, nil)
	require.NoError(t, err)

	_, err = repo.Create(ctx, "alice", "hash", "+15550199", nil, nil)
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	_, err = repo.Create(ctx, "bob", "hash", "+15550100", nil, nil)
	assert.ErrorIs(t, err, ErrDuplicatePhone)
}

func TestUpdateProfilePartial(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(NewRepository(db))
	ctx := context.Background()

	created, err := svc.repo.Create(ctx, "alice", "hash", "+15550100", intPtr(30), nil)
	require.NoError(t, err)

	// Only age supplied: username and phone must stay untouched.
	updated, err := svc.UpdateProfile(ctx, created.ID, UpdateProfileInput{Age: intPtr(31)})
	require.NoError(t, err)
	assert.Equal(t, "alice", updated.Username)
	assert.Equal(t, "+15550100", updated.Phone)
	require.NotNil(t, updated.Age)
	assert.Equal(t, 31, *updated.Age)

	// Rename keeps everything else.
	updated, err = svc.UpdateProfile(ctx, created.ID, UpdateProfileInput{Username: strPtr("alice2")})
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Username)
	require.NotNil(t, updated.Age)
	assert.Equal(t, 31, *updated.Age)
}

func TestUpdateProfileValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(NewRepository(db))
	ctx := context.Background()

	created, err := svc.repo.Create(ctx, "alice", "hash", "+15550100", nil, nil)
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, created.ID, UpdateProfileInput{})
	assert.ErrorIs(t, err, crud.ErrNothingToUpdate)

	_, err = svc.UpdateProfile(ctx, created.ID, UpdateProfileInput{Username: strPtr("  ")})
	assert.ErrorIs(t, err, ErrUsernameRequired)

	_, err = svc.UpdateProfile(ctx, created.ID, UpdateProfileInput{Phone: strPtr("")})
	assert.ErrorIs(t, err, ErrPhoneRequired)
}

func TestUpdateProfileConflictsAndMissing(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(NewRepository(db))
	ctx := context.Background()

	_, err := svc.repo.Create(ctx, "alice", "hash", "+15550100", nil, nil)
	require.NoError(t, err)
	bob, err := svc.repo.Create(ctx, "bob", "hash", "+15550101", nil, nil)
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, bob.ID, UpdateProfileInput{Username: strPtr("alice")})
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	_, err = svc.UpdateProfile(ctx, bob.ID, UpdateProfileInput{Phone: strPtr("+15550100")})
	assert.ErrorIs(t, err, ErrDuplicatePhone)

	_, err = svc.UpdateProfile(ctx, uuid.New(), UpdateProfileInput{Age: intPtr(40)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePassword(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, "alice", "old-hash", "+15550100", nil, nil)
	require.NoError(t, err)

	require.NoError(t, repo.UpdatePassword(ctx, created.ID, "new-hash"))

	reloaded, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", reloaded.PasswordHash)

	err = repo.UpdatePassword(ctx, uuid.New(), "whatever")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateImage(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(NewRepository(db))
	ctx := context.Background()

	created, err := svc.repo.Create(ctx, "alice", "hash", "+15550100", nil, nil)
	require.NoError(t, err)

	updated, err := svc.UpdateImage(ctx, created.ID, "http://localhost:9000/contactbook/users/x.png")
	require.NoError(t, err)
	require.NotNil(t, updated.ImageURL)
	assert.Equal(t, "http://localhost:9000/contactbook/users/x.png", *updated.ImageURL)
}

func TestDeleteRemovesOwnedData(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(NewRepository(db))
	ctx := context.Background()

	alice, err := svc.repo.Create(ctx, "alice", "hash", "+15550100", nil, nil)
	require.NoError(t, err)
	bob, err := svc.repo.Create(ctx, "bob", "hash", "+15550101", nil, nil)
	require.NoError(t, err)

	seedContact := func(owner uuid.UUID, numbers ...string) {
		contactID := uuid.New()
		_, err := db.NewInsert().Model(&database.Contact{
			ID:     contactID,
			UserID: owner,
			Name:   "someone",
		}).Exec(ctx)
		require.NoError(t, err)
		for _, n := range numbers {
			_, err := db.NewInsert().Model(&database.PhoneNumber{
				ID:        uuid.New(),
				ContactID: contactID,
				Number:    n,
			}).Exec(ctx)
			require.NoError(t, err)
		}
	}
	seedContact(alice.ID, "555-0100", "555-0101")
	seedContact(alice.ID, "555-0102")
	seedContact(bob.ID, "555-0200")

	require.NoError(t, svc.Delete(ctx, alice.ID))

	_, err = svc.Get(ctx, alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Bob's data survives.
	assert.Equal(t, 1, countRows(t, db, (*database.User)(nil)))
	assert.Equal(t, 1, countRows(t, db, (*database.Contact)(nil)))
	assert.Equal(t, 1, countRows(t, db, (*database.PhoneNumber)(nil)))

	err = svc.Delete(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
