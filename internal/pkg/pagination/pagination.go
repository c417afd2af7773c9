package pagination

import "math"

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Pagination represents pagination metadata
type Pagination struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

// Request is the query string shape shared by list endpoints
type Request struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// Normalize clamps page and limit into their valid ranges. Page is capped so
// that the offset of the page end still fits in an int.
func (r Request) Normalize() Request {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 {
		r.Limit = DefaultLimit
	}
	if r.Limit > MaxLimit {
		r.Limit = MaxLimit
	}
	if maxPage := math.MaxInt / r.Limit; r.Page > maxPage {
		r.Page = maxPage
	}
	return r
}

// Skip is the number of documents to skip for this page.
func (r Request) Skip() int64 {
	n := r.Normalize()
	return int64((n.Page - 1) * n.Limit)
}

// New creates a new pagination instance
func New(page, limit int, total int64) *Pagination {
	r := Request{Page: page, Limit: limit}.Normalize()

	pages := int(math.Ceil(float64(total) / float64(r.Limit)))
	if pages < 1 {
		pages = 1
	}

	return &Pagination{
		Page:    r.Page,
		Limit:   r.Limit,
		Total:   total,
		Pages:   pages,
		HasNext: r.Page < pages,
		HasPrev: r.Page > 1,
	}
}

// Window returns the [start, end) slice bounds of this page over n items.
func Window(r Request, n int) (int, int) {
	r = r.Normalize()
	start := (r.Page - 1) * r.Limit
	if start > n {
		start = n
	}
	end := start + r.Limit
	if end > n {
		end = n
	}
	return start, end
}
