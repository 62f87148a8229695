package services

import "strings"

// Pagination limits shared by the catalogue and directory lists.
const (
	DefaultPerPage = 10
	MaxPerPage     = 50
)

// Page is a normalised page request.
type Page struct {
	Page    int
	PerPage int
}

// NewPage clamps page to >= 1 and perPage to 1..50, defaulting perPage to 10.
func NewPage(page, perPage int) Page {
	if page < 1 {
		page = 1
	}
	switch {
	case perPage == 0:
		perPage = DefaultPerPage
	case perPage < 1:
		perPage = 1
	case perPage > MaxPerPage:
		perPage = MaxPerPage
	}
	return Page{Page: page, PerPage: perPage}
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// TotalPages is the number of pages needed for total rows.
func (p Page) TotalPages(total int64) int {
	return int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// likePattern builds a case-insensitive contains pattern for LOWER(col) LIKE ?.
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}
