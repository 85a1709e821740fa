// Package notes translates note intents into document store calls, stamping
// ownership and creation time on writes.
package notes

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"mintylist/backend/internal/docstore"
	"mintylist/backend/internal/errs"
	"mintylist/backend/internal/metrics"
	"mintylist/backend/internal/models"
)

const (
	Collection = "notes"

	fieldOwner     = "userId"
	fieldTitle     = "title"
	fieldContent   = "content"
	fieldCreatedAt = "createdAt"
)

type Service struct {
	store docstore.Store
	now   func() time.Time
}

type Option func(*Service)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store docstore.Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create persists a new note and returns its id. Empty title or content is
// rejected before the store is touched.
func (s *Service) Create(ctx context.Context, ownerID, title, content string) (string, error) {
	if err := requireText("title", title); err != nil {
		metrics.NoteOp("create", "invalid")
		return "", err
	}
	if err := requireText("content", content); err != nil {
		metrics.NoteOp("create", "invalid")
		return "", err
	}

	id, err := s.store.Add(ctx, Collection, map[string]any{
		fieldOwner:     ownerID,
		fieldTitle:     title,
		fieldContent:   content,
		fieldCreatedAt: s.now().UTC(),
	})
	if err != nil {
		metrics.NoteOp("create", "error")
		slog.Error("creating note", "owner", ownerID, "error", err)
		return "", &errs.AccessError{Op: "create note", Err: err}
	}
	metrics.NoteOp("create", "ok")
	return id, nil
}

// ListByOwner returns the owner's notes, most recent first.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]models.Note, error) {
	records, err := s.store.Query(ctx, Collection, docstore.Query{
		Where:   []docstore.Where{{Field: fieldOwner, Value: ownerID}},
		OrderBy: []docstore.OrderBy{{Field: fieldCreatedAt, Desc: true}},
	})
	if err != nil {
		metrics.NoteOp("list", "error")
		slog.Error("listing notes", "owner", ownerID, "error", err)
		return nil, &errs.AccessError{Op: "list notes", Err: err}
	}

	notes := make([]models.Note, 0, len(records))
	for _, r := range records {
		notes = append(notes, fromRecord(r))
	}
	metrics.NoteOp("list", "ok")
	return notes, nil
}

// Get returns one note. Notes owned by someone else are reported as missing.
func (s *Service) Get(ctx context.Context, ownerID, id string) (models.Note, error) {
	rec, err := s.store.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.Note{}, &errs.NotFoundError{ID: id}
	}
	if err != nil {
		return models.Note{}, &errs.AccessError{Op: "get note", Err: err}
	}
	note := fromRecord(rec)
	if note.OwnerID != ownerID {
		return models.Note{}, &errs.NotFoundError{ID: id}
	}
	return note, nil
}

// Update overwrites only the supplied fields. Owner and creation time are
// never written.
func (s *Service) Update(ctx context.Context, ownerID, id string, fields models.NoteFields) error {
	if fields.Empty() {
		metrics.NoteOp("update", "invalid")
		return &errs.ValidationError{Field: "title", Message: "nothing to update"}
	}
	set := make(map[string]any, 2)
	if fields.Title != nil {
		if err := requireText("title", *fields.Title); err != nil {
			metrics.NoteOp("update", "invalid")
			return err
		}
		set[fieldTitle] = *fields.Title
	}
	if fields.Content != nil {
		if err := requireText("content", *fields.Content); err != nil {
			metrics.NoteOp("update", "invalid")
			return err
		}
		set[fieldContent] = *fields.Content
	}

	if _, err := s.Get(ctx, ownerID, id); err != nil {
		metrics.NoteOp("update", outcome(err))
		return err
	}

	err := s.store.Update(ctx, Collection, id, set)
	if errors.Is(err, docstore.ErrNotFound) {
		metrics.NoteOp("update", "not_found")
		return &errs.NotFoundError{ID: id}
	}
	if err != nil {
		metrics.NoteOp("update", "error")
		slog.Error("updating note", "id", id, "error", err)
		return &errs.AccessError{Op: "update note", Err: err}
	}
	metrics.NoteOp("update", "ok")
	return nil
}

// Delete removes the note. Deleting an id that is already gone is not an
// error; deleting someone else's note is reported as NotFoundError.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	rec, err := s.store.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		metrics.NoteOp("delete", "absent")
		return nil
	}
	if err != nil {
		metrics.NoteOp("delete", "error")
		return &errs.AccessError{Op: "delete note", Err: err}
	}
	if fromRecord(rec).OwnerID != ownerID {
		metrics.NoteOp("delete", "not_found")
		return &errs.NotFoundError{ID: id}
	}

	if err := s.store.Delete(ctx, Collection, id); err != nil {
		metrics.NoteOp("delete", "error")
		slog.Error("deleting note", "id", id, "error", err)
		return &errs.AccessError{Op: "delete note", Err: err}
	}
	metrics.NoteOp("delete", "ok")
	return nil
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &errs.ValidationError{Field: field}
	}
	return nil
}

func outcome(err error) string {
	switch {
	case errs.IsNotFound(err):
		return "not_found"
	case errs.IsValidation(err):
		return "invalid"
	default:
		return "error"
	}
}

func fromRecord(r docstore.Record) models.Note {
	n := models.Note{ID: r.ID}
	n.OwnerID, _ = r.Data[fieldOwner].(string)
	n.Title, _ = r.Data[fieldTitle].(string)
	n.Content, _ = r.Data[fieldContent].(string)
	if t, ok := r.Data[fieldCreatedAt].(time.Time); ok {
		n.CreatedAt = t
	}
	return n
}
