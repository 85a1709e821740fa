package viewstate

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"mintylist/backend/internal/errs"
	"mintylist/backend/internal/identity"
	"mintylist/backend/internal/models"
)

// ErrSignedOut is returned by operations that need a session when there is none.
var ErrSignedOut = errors.New("not signed in")

const (
	NoticeRequired   = "Please enter a title and content."
	NoticeFailed     = "Something went wrong. Please try again."
	NoticeLoadFailed = "Could not load your notes. Please try again."
)

// NoteAccess is the subset of the note layer the controller drives.
type NoteAccess interface {
	Create(ctx context.Context, ownerID, title, content string) (string, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Note, error)
	Update(ctx context.Context, ownerID, id string, fields models.NoteFields) error
	Delete(ctx context.Context, ownerID, id string) error
}

// Draft is the pending create/update form content.
type Draft struct {
	Title   string
	Content string
}

// View is everything a notes page render needs.
type View struct {
	Page
	User      *models.User
	Search    string
	EditingID string
	Draft     Draft
	Busy      bool
}

// Editing reports whether the form updates an existing note.
func (v View) Editing() bool { return v.EditingID != "" }

// Controller is safe for concurrent use. Remote calls run without the lock
// held; their results are applied only if the session has not changed in
// the meantime.
type Controller struct {
	notes    NoteAccess
	pageSize int

	mu        sync.Mutex
	user      *models.User
	epoch     uint64
	lastEvent time.Time
	all       []models.Note
	search    string
	page      int
	editingID string
	draft     Draft
	busy      bool
	writes    uint64
	notice    string

	// fetch ordering: the highest issued and the highest applied request
	issued  uint64
	applied uint64
}

func NewController(notes NoteAccess) *Controller {
	return &Controller{notes: notes, pageSize: PageSize, page: 1}
}

// Run applies session events until ctx is done or the stream ends.
func (c *Controller) Run(ctx context.Context, events <-chan identity.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := c.HandleEvent(ctx, ev); err != nil {
				slog.Warn("applying session event", "error", err)
			}
		}
	}
}

// HandleEvent moves between the signed-out and signed-in states. Signing in
// fetches the user's notes immediately; signing out drops all note state.
// An event older than one already applied is ignored.
func (c *Controller) HandleEvent(ctx context.Context, ev identity.Event) error {
	c.mu.Lock()
	if ev.At.Before(c.lastEvent) {
		c.mu.Unlock()
		return nil
	}
	c.lastEvent = ev.At
	if !ev.SignedIn() {
		if c.user != nil {
			c.epoch++
		}
		c.user = nil
		c.resetLocked()
		c.mu.Unlock()
		return nil
	}

	if c.user == nil || c.user.ID != ev.User.ID {
		c.epoch++
		c.resetLocked()
	}
	u := *ev.User
	c.user = &u
	c.mu.Unlock()

	return c.Refresh(ctx)
}

// Refresh replaces the held notes with a fresh fetch. A fetch that completes
// after a newer one was applied, or after the session changed, is dropped.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.user == nil {
		c.mu.Unlock()
		return ErrSignedOut
	}
	c.issued++
	seq, epoch, uid := c.issued, c.epoch, c.user.ID
	c.mu.Unlock()

	fetched, err := c.notes.ListByOwner(ctx, uid)

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch || seq <= c.applied {
		return nil
	}
	if err != nil {
		c.notice = NoticeLoadFailed
		return err
	}
	c.applied = seq

	owned := make([]models.Note, 0, len(fetched))
	for _, n := range fetched {
		if n.OwnerID != uid {
			slog.Warn("dropping note with foreign owner", "note", n.ID, "owner", n.OwnerID, "session", uid)
			continue
		}
		owned = append(owned, n)
	}
	c.all = owned

	if c.editingID != "" && !slices.ContainsFunc(owned, func(n models.Note) bool { return n.ID == c.editingID }) {
		c.clearEditLocked()
	}
	return nil
}

func (c *Controller) SetSearch(search string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.search = search
}

// SetPage selects a page; out-of-range values are clamped on the next View.
func (c *Controller) SetPage(page int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = page
}

func (c *Controller) NextPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := Derive(c.all, c.search, c.page, c.pageSize)
	c.page = clamp(p.Page+1, p.TotalPages)
}

func (c *Controller) PrevPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := Derive(c.all, c.search, c.page, c.pageSize)
	c.page = clamp(p.Page-1, p.TotalPages)
}

// BeginEdit loads a held note into the draft and makes it the edit target.
func (c *Controller) BeginEdit(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.IndexFunc(c.all, func(n models.Note) bool { return n.ID == id })
	if i < 0 {
		return &errs.NotFoundError{ID: id}
	}
	c.editingID = id
	c.draft = Draft{Title: c.all[i].Title, Content: c.all[i].Content}
	return nil
}

func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearEditLocked()
}

func (c *Controller) SetDraft(title, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = Draft{Title: title, Content: content}
}

// Submit creates a note from the draft, or updates the edit target when one
// is set, then clears the form and re-fetches.
func (c *Controller) Submit(ctx context.Context) error {
	uid, epoch, done, err := c.begin()
	if err != nil {
		return err
	}
	defer done()

	c.mu.Lock()
	draft, editingID := c.draft, c.editingID
	c.mu.Unlock()

	if editingID != "" {
		err = c.notes.Update(ctx, uid, editingID, models.NoteFields{Title: &draft.Title, Content: &draft.Content})
	} else {
		_, err = c.notes.Create(ctx, uid, draft.Title, draft.Content)
	}

	switch {
	case err == nil, errs.IsNotFound(err):
		c.mu.Lock()
		current := epoch == c.epoch
		if current {
			c.clearEditLocked()
		}
		c.mu.Unlock()
		if !current {
			return nil
		}
		return c.Refresh(ctx)
	case errs.IsValidation(err):
		c.notifyIn(epoch, NoticeRequired)
		return err
	default:
		c.notifyIn(epoch, NoticeFailed)
		return err
	}
}

// Delete removes a note and re-fetches. A note that is already gone is not an
// error. If the deleted note was the edit target the draft is cleared.
func (c *Controller) Delete(ctx context.Context, id string) error {
	uid, epoch, done, err := c.begin()
	if err != nil {
		return err
	}
	defer done()

	if err := c.notes.Delete(ctx, uid, id); err != nil && !errs.IsNotFound(err) {
		c.notifyIn(epoch, NoticeFailed)
		return err
	}

	c.mu.Lock()
	current := epoch == c.epoch
	if current && c.editingID == id {
		c.clearEditLocked()
	}
	c.mu.Unlock()
	if !current {
		return nil
	}
	return c.Refresh(ctx)
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := Derive(c.all, c.search, c.page, c.pageSize)
	c.page = p.Page
	v := View{
		Page:      p,
		Search:    c.search,
		EditingID: c.editingID,
		Draft:     c.draft,
		Busy:      c.busy,
	}
	if c.user != nil {
		u := *c.user
		v.User = &u
	}
	return v
}

// TakeNotice returns and clears the pending inline message.
func (c *Controller) TakeNotice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.notice
	c.notice = ""
	return n
}

func (c *Controller) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user != nil
}

func (c *Controller) User() *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// begin marks a write as outstanding. The returned func releases it and must
// run on every path; it is a no-op once a later write has taken the flag.
func (c *Controller) begin() (string, uint64, func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return "", 0, nil, ErrSignedOut
	}
	if c.busy {
		return "", 0, nil, errs.ErrBusy
	}
	c.busy = true
	c.writes++
	seq := c.writes
	return c.user.ID, c.epoch, func() {
		c.mu.Lock()
		if c.writes == seq {
			c.busy = false
		}
		c.mu.Unlock()
	}, nil
}

// Notify queues an inline message for the next render.
func (c *Controller) Notify(msg string) {
	c.mu.Lock()
	c.notice = msg
	c.mu.Unlock()
}

// notifyIn queues msg only if the session has not changed since epoch.
func (c *Controller) notifyIn(epoch uint64, msg string) {
	c.mu.Lock()
	if epoch == c.epoch {
		c.notice = msg
	}
	c.mu.Unlock()
}

func (c *Controller) clearEditLocked() {
	c.editingID = ""
	c.draft = Draft{}
}

func (c *Controller) resetLocked() {
	c.all = nil
	c.search = ""
	c.page = 1
	c.busy = false
	c.notice = ""
	c.clearEditLocked()
}
