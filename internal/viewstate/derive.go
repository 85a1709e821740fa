// Package viewstate holds one session's notes view: the signed-in user, the
// fetched notes, search text, page and edit target, and the filtered page
// derived from them.
package viewstate

import (
	"strings"

	"mintylist/backend/internal/models"
)

// PageSize is the number of notes shown per page.
const PageSize = 10

// Page is the derived view for one render.
type Page struct {
	Notes      []models.Note
	Page       int
	TotalPages int
	// Matches is the number of notes that passed the search filter.
	Matches int
}

func (p Page) HasPrev() bool { return p.Page > 1 }
func (p Page) HasNext() bool { return p.Page < p.TotalPages }

// Prev and Next are the neighbouring page numbers, for absolute page links.
func (p Page) Prev() int { return clamp(p.Page-1, p.TotalPages) }
func (p Page) Next() int { return clamp(p.Page+1, p.TotalPages) }

// Filter keeps notes whose title or content contains search, ignoring case.
// An empty search keeps everything. Order is preserved.
func Filter(notes []models.Note, search string) []models.Note {
	if search == "" {
		return notes
	}
	needle := strings.ToLower(search)
	out := make([]models.Note, 0, len(notes))
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n.Title), needle) ||
			strings.Contains(strings.ToLower(n.Content), needle) {
			out = append(out, n)
		}
	}
	return out
}

// Derive filters notes and cuts out the requested page, clamping page into
// [1, TotalPages]. With no matches the page is 1 and empty.
func Derive(notes []models.Note, search string, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = PageSize
	}
	filtered := Filter(notes, search)
	total := (len(filtered) + pageSize - 1) / pageSize

	page = clamp(page, total)
	start := (page - 1) * pageSize
	end := min(start+pageSize, len(filtered))

	slice := []models.Note{}
	if start < end {
		slice = append(slice, filtered[start:end]...)
	}
	return Page{Notes: slice, Page: page, TotalPages: total, Matches: len(filtered)}
}

func clamp(page, total int) int {
	return max(1, min(page, total))
}
