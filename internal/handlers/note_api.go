package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"mintylist/backend/internal/errs"
	"mintylist/backend/internal/middleware"
	"mintylist/backend/internal/models"
	"mintylist/backend/internal/viewstate"

	"github.com/gin-gonic/gin"
)

// NoteService is the note layer as the JSON API uses it.
type NoteService interface {
	Create(ctx context.Context, ownerID, title, content string) (string, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Note, error)
	Get(ctx context.Context, ownerID, id string) (models.Note, error)
	Update(ctx context.Context, ownerID, id string, fields models.NoteFields) error
	Delete(ctx context.Context, ownerID, id string) error
}

// CreateNotePayload defines the expected JSON for a new note
type CreateNotePayload struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// NoteList is one page of a user's notes.
type NoteList struct {
	Notes      []models.Note `json:"notes"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
	Total      int           `json:"total"`
}

// ListNotes returns the caller's notes, most recent first, filtered by q and
// paginated like the notes view.
func ListNotes(svc NoteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.ForContext(c.Request.Context())
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		page := 1
		if raw := c.Query("page"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a number"})
				return
			}
			page = n
		}

		notes, err := svc.ListByOwner(c.Request.Context(), user.ID)
		if err != nil {
			writeError(c, "Failed to fetch notes", err)
			return
		}
		p := viewstate.Derive(notes, c.Query("q"), page, viewstate.PageSize)
		c.JSON(http.StatusOK, NoteList{Notes: p.Notes, Page: p.Page, TotalPages: p.TotalPages, Total: p.Matches})
	}
}

func GetNote(svc NoteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.ForContext(c.Request.Context())
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		note, err := svc.Get(c.Request.Context(), user.ID, c.Param("id"))
		if err != nil {
			writeError(c, "Failed to fetch note", err)
			return
		}
		c.JSON(http.StatusOK, note)
	}
}

func CreateNote(svc NoteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.ForContext(c.Request.Context())
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var payload CreateNotePayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
			return
		}

		ctx := c.Request.Context()
		id, err := svc.Create(ctx, user.ID, payload.Title, payload.Content)
		if err != nil {
			writeError(c, "Failed to save note", err)
			return
		}
		note, err := svc.Get(ctx, user.ID, id)
		if err != nil {
			writeError(c, "Failed to fetch note", err)
			return
		}
		c.JSON(http.StatusCreated, note)
	}
}

// UpdateNote applies a partial update; omitted fields are left as they are.
func UpdateNote(svc NoteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.ForContext(c.Request.Context())
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var payload models.NoteFields
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
			return
		}
		if err := svc.Update(c.Request.Context(), user.ID, c.Param("id"), payload); err != nil {
			writeError(c, "Failed to update note", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Note updated successfully"})
	}
}

// DeleteNote succeeds for a note that no longer exists.
func DeleteNote(svc NoteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.ForContext(c.Request.Context())
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if err := svc.Delete(c.Request.Context(), user.ID, c.Param("id")); err != nil {
			writeError(c, "Failed to delete note", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Note deleted successfully"})
	}
}

// writeError maps note-layer errors to a status and a JSON error body.
func writeError(c *gin.Context, msg string, err error) {
	switch {
	case errs.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errs.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "Note not found or you don't have permission"})
	case errors.Is(err, errs.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errs.IsAccess(err):
		slog.Error(msg, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": msg})
	default:
		slog.Error(msg, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
