package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"mintylist/backend/internal/errs"
	"mintylist/backend/internal/middleware"
	"mintylist/backend/internal/viewstate"

	"github.com/gin-gonic/gin"
)

const noticeBusy = "Please wait for the current operation to finish."

type notesPage struct {
	viewstate.View
	Title   string
	Error   string
	Success string
}

// NoteForm is the create/update form of the notes view. Empty fields are
// reported by the note layer, not rejected here.
type NoteForm struct {
	Title   string `form:"title"`
	Content string `form:"content"`
}

// ShowNotes renders the notes view. It re-fetches the session's notes and
// applies the search (q) and page (a number, "prev" or "next") parameters.
func ShowNotes(c *gin.Context) {
	s := middleware.CurrentSession(c)
	if err := s.Sync(c.Request.Context()); err != nil {
		if errors.Is(err, viewstate.ErrSignedOut) {
			c.Redirect(http.StatusSeeOther, "/login")
			return
		}
		slog.Warn("syncing notes view", "session", s.ID, "error", err)
	}

	if q, ok := c.GetQuery("q"); ok {
		s.View.SetSearch(q)
	}
	switch page := c.Query("page"); page {
	case "":
	case "prev":
		s.View.PrevPage()
	case "next":
		s.View.NextPage()
	default:
		if n, err := strconv.Atoi(page); err == nil {
			s.View.SetPage(n)
		}
	}

	c.HTML(http.StatusOK, "notes.html", notesPage{
		View:  s.View.View(),
		Title: "My Notes",
		Error: s.View.TakeNotice(),
	})
}

// SaveNote submits the form as a new note, or as an update of the note being
// edited.
func SaveNote(c *gin.Context) {
	s := middleware.CurrentSession(c)
	var form NoteForm
	if err := c.ShouldBind(&form); err != nil {
		c.Redirect(http.StatusSeeOther, "/notes")
		return
	}
	s.View.SetDraft(form.Title, form.Content)
	c.Redirect(http.StatusSeeOther, afterWrite(c, "saving note", s.View.Submit(c.Request.Context())))
}

func EditNote(c *gin.Context) {
	s := middleware.CurrentSession(c)
	if err := s.View.BeginEdit(c.Param("id")); err != nil {
		slog.Info("edit target not loaded", "session", s.ID, "note", c.Param("id"))
	}
	c.Redirect(http.StatusSeeOther, "/notes")
}

func CancelEdit(c *gin.Context) {
	middleware.CurrentSession(c).View.CancelEdit()
	c.Redirect(http.StatusSeeOther, "/notes")
}

func RemoveNote(c *gin.Context) {
	s := middleware.CurrentSession(c)
	c.Redirect(http.StatusSeeOther, afterWrite(c, "deleting note", s.View.Delete(c.Request.Context(), c.Param("id"))))
}

// afterWrite handles the outcome of a write and returns where to redirect.
// The controller has already queued the inline notice for the next render,
// except for a rejected concurrent write.
func afterWrite(c *gin.Context, action string, err error) string {
	s := middleware.CurrentSession(c)
	switch {
	case err == nil, errs.IsValidation(err):
	case errors.Is(err, viewstate.ErrSignedOut):
		return "/login"
	case errors.Is(err, errs.ErrBusy):
		s.View.Notify(noticeBusy)
	default:
		slog.Error(action, "session", s.ID, "error", err)
	}
	return "/notes"
}
