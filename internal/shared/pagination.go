package shared

import (
	"net/url"
	"strconv"
)

// MaxPageSize caps the limit a listing may request.
const MaxPageSize = 500

// Page is a limit/offset window. A zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

// ParsePage reads limit and offset query parameters. Limits above MaxPageSize are
// clamped; malformed or negative values are validation errors.
func ParsePage(q url.Values) (Page, error) {
	var p Page
	for name, dst := range map[string]*int{"limit": &p.Limit, "offset": &p.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Page{}, NewValidationError(name, "must be a non-negative integer")
		}
		*dst = n
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p, nil
}
