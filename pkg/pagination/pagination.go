package pagination

import (
	"net/http"
	"strconv"
)

// DefaultLimit is the page size used when the caller supplies none.
const DefaultLimit = 20

// MaxLimit caps the page size a caller may request.
const MaxLimit = 100

// Params holds pagination parameters extracted from query strings.
// Page and Limit are 1-based and positive.
type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// DefaultParams returns sensible pagination defaults.
func DefaultParams() Params {
	return Params{Page: 1, Limit: DefaultLimit}
}

// FromRequest extracts pagination parameters from an HTTP request,
// clamping limit to MaxLimit.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()

	if page := r.URL.Query().Get("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 0 {
			p.Page = v
		}
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil && v > 0 {
			if v > MaxLimit {
				v = MaxLimit
			}
			p.Limit = v
		}
	}

	return p
}

// Offset returns the zero-based offset for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta is the pagination metadata returned alongside result pages.
type Meta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// NewMeta computes pagination metadata for the given total and params.
func NewMeta(total int, p Params) Meta {
	totalPages := total / p.Limit
	if total%p.Limit > 0 {
		totalPages++
	}
	return Meta{
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: totalPages,
	}
}
