package notes

import (
	"context"
	"errors"
	"testing"
	"time"

	"mintylist/backend/internal/docstore"
	"mintylist/backend/internal/errs"
	"mintylist/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepClock hands out increasing timestamps so ordering is deterministic.
func stepClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

// countingStore records writes so tests can assert the store was not called.
type countingStore struct {
	docstore.Store
	adds int
}

func (c *countingStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	c.adds++
	return c.Store.Add(ctx, collection, data)
}

type failingStore struct {
	docstore.Store
}

func (failingStore) Query(context.Context, string, docstore.Query) ([]docstore.Record, error) {
	return nil, errors.New("permission denied")
}

func strPtr(s string) *string { return &s }

func newService() (*Service, *countingStore) {
	store := &countingStore{Store: docstore.NewMemory()}
	return NewService(store, WithClock(stepClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))), store
}

// =============================================================================
// Create
// =============================================================================

func TestCreate_StampsOwnerAndCreatedAt(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	id, err := svc.Create(ctx, "alice", "Groceries", "Milk, eggs")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	note, err := svc.Get(ctx, "alice", id)
	require.NoError(t, err)
	assert.Equal(t, "alice", note.OwnerID)
	assert.Equal(t, "Groceries", note.Title)
	assert.Equal(t, "Milk, eggs", note.Content)
	assert.False(t, note.CreatedAt.IsZero())
}

func TestCreate_RejectsBlankFieldsWithoutTouchingStore(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		content string
		field   string
	}{
		{"empty title", "", "body", "title"},
		{"whitespace title", "   ", "body", "title"},
		{"empty content", "title", "", "content"},
		{"whitespace content", "title", "\n\t ", "content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newService()
			ctx := context.Background()

			_, err := svc.Create(ctx, "alice", tt.title, tt.content)

			var verr *errs.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Zero(t, store.adds)

			list, err := svc.ListByOwner(ctx, "alice")
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

// =============================================================================
// ListByOwner
// =============================================================================

func TestListByOwner_MostRecentFirstAndOwnerScoped(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", "first", "a")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "bob", "other", "b")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "alice", "second", "c")
	require.NoError(t, err)

	list, err := svc.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Title)
	assert.Equal(t, "first", list[1].Title)
	for _, n := range list {
		assert.Equal(t, "alice", n.OwnerID)
	}
}

func TestListByOwner_StoreFailureIsAccessError(t *testing.T) {
	svc := NewService(failingStore{Store: docstore.NewMemory()})

	_, err := svc.ListByOwner(context.Background(), "alice")

	assert.True(t, errs.IsAccess(err))
}

// =============================================================================
// Update
// =============================================================================

func TestUpdate_ChangesOnlySuppliedFields(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	id, err := svc.Create(ctx, "alice", "Groceries", "Milk")
	require.NoError(t, err)
	before, err := svc.Get(ctx, "alice", id)
	require.NoError(t, err)

	err = svc.Update(ctx, "alice", id, models.NoteFields{Content: strPtr("Milk, eggs")})
	require.NoError(t, err)

	after, err := svc.Get(ctx, "alice", id)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", after.Title)
	assert.Equal(t, "Milk, eggs", after.Content)
	assert.Equal(t, before.OwnerID, after.OwnerID)
	assert.True(t, before.CreatedAt.Equal(after.CreatedAt))
}

func TestUpdate_MissingNoteIsNotFound(t *testing.T) {
	svc, _ := newService()

	err := svc.Update(context.Background(), "alice", "nope", models.NoteFields{Title: strPtr("x")})

	assert.True(t, errs.IsNotFound(err))
}

func TestUpdate_ForeignNoteIsNotFound(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	id, err := svc.Create(ctx, "bob", "mine", "secret")
	require.NoError(t, err)

	err = svc.Update(ctx, "alice", id, models.NoteFields{Title: strPtr("stolen")})
	assert.True(t, errs.IsNotFound(err))

	note, err := svc.Get(ctx, "bob", id)
	require.NoError(t, err)
	assert.Equal(t, "mine", note.Title)
}

func TestUpdate_RejectsBlankOrEmptyPatch(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	id, err := svc.Create(ctx, "alice", "t", "c")
	require.NoError(t, err)

	assert.True(t, errs.IsValidation(svc.Update(ctx, "alice", id, models.NoteFields{})))
	assert.True(t, errs.IsValidation(svc.Update(ctx, "alice", id, models.NoteFields{Title: strPtr(" ")})))
}

// =============================================================================
// Delete
// =============================================================================

func TestDelete_RemovesAndIsIdempotent(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	id, err := svc.Create(ctx, "alice", "t", "c")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "alice", id))
	require.NoError(t, svc.Delete(ctx, "alice", id))

	list, err := svc.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDelete_ForeignNoteIsNotFoundAndKept(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	id, err := svc.Create(ctx, "bob", "t", "c")
	require.NoError(t, err)

	err = svc.Delete(ctx, "alice", id)
	assert.True(t, errs.IsNotFound(err))

	_, err = svc.Get(ctx, "bob", id)
	assert.NoError(t, err)
}
