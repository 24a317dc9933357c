// Package pagination slices ordered listings into fixed-size pages.
package pagination

// DefaultPageSize is the number of posts shown per listing page unless
// configuration overrides it.
const DefaultPageSize = 10

// Page describes one page of an ordered listing.
type Page struct {
	Number     int  `json:"page"`
	Size       int  `json:"-"`
	Offset     int  `json:"-"`
	TotalItems int  `json:"total_items"`
	TotalPages int  `json:"total_pages"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
}

// Paginate resolves a 1-based requested page number against a listing of
// `total` items. Requests below 1 clamp to the first page and requests past
// the end clamp to the last page instead of erroring. An empty listing still
// yields a single valid (empty) page, so Number and TotalPages are always >= 1.
func Paginate(total, requested, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	if total < 0 {
		total = 0
	}

	totalPages := (total + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}

	number := requested
	if number < 1 {
		number = 1
	}
	if number > totalPages {
		number = totalPages
	}

	return Page{
		Number:     number,
		Size:       size,
		Offset:     (number - 1) * size,
		TotalItems: total,
		TotalPages: totalPages,
		HasPrev:    number > 1,
		HasNext:    number < totalPages,
	}
}

// Slice returns the items belonging to p from an already ordered in-memory listing.
func Slice[T any](items []T, p Page) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	end := p.Offset + p.Size
	if end > len(items) {
		end = len(items)
	}
	return items[p.Offset:end]
}
