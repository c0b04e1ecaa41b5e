package models

// PageInfo describes one page of a list response.
type PageInfo struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalItems int  `json:"total_items"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewPageInfo clamps page/perPage and derives the navigation flags.
func NewPageInfo(page, perPage, total, defaultPerPage, maxPerPage int) PageInfo {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if maxPerPage > 0 && perPage > maxPerPage {
		perPage = maxPerPage
	}
	if page < 1 {
		page = 1
	}
	totalPages := 0
	if total > 0 {
		totalPages = (total + perPage - 1) / perPage
	}
	return PageInfo{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// Bounds returns the slice window [start, end) for the page over total items.
func (p PageInfo) Bounds() (int, int) {
	start := (p.Page - 1) * p.PerPage
	if start > p.TotalItems {
		start = p.TotalItems
	}
	end := start + p.PerPage
	if end > p.TotalItems {
		end = p.TotalItems
	}
	return start, end
}

// Paginate slices items according to the page settings.
func Paginate[T any](items []T, page, perPage, defaultPerPage, maxPerPage int) ([]T, PageInfo) {
	info := NewPageInfo(page, perPage, len(items), defaultPerPage, maxPerPage)
	start, end := info.Bounds()
	out := make([]T, 0, end-start)
	out = append(out, items[start:end]...)
	return out, info
}
