package repokit

// Page is one slice of an ordered listing
type Page[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"total_count"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

// PageQuery is the 1 based page window a listing asks for
type PageQuery struct {
	Page    int
	PerPage int
}

// Norm clamps the window to page >= 1 and 1 <= per page <= maxPer
func (p PageQuery) Norm(defPer, maxPer int) PageQuery {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = defPer
	}
	if maxPer > 0 && p.PerPage > maxPer {
		p.PerPage = maxPer
	}
	return p
}

// Offset is the number of rows skipped before this page
func (p PageQuery) Offset() int { return (p.Page - 1) * p.PerPage }

// NewPage assembles a page, a nil item slice becomes empty
func NewPage[T any](items []T, total int, q PageQuery) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		TotalCount: total,
		Page:       q.Page,
		PerPage:    q.PerPage,
		TotalPages: TotalPages(total, q.PerPage),
	}
}

// TotalPages is ceil(total / per), zero when either side is empty
func TotalPages(total, per int) int {
	if total <= 0 || per <= 0 {
		return 0
	}
	return (total + per - 1) / per
}
