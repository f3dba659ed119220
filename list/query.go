package list

import (
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 200
)

// Reserved query parameters. Every other parameter is a filter.
const (
	ParamPage  = "page"
	ParamLimit = "limit"
	ParamSort  = "sort"
	ParamOrder = "order"
)

// Query is the list state a record source needs to serve one page.
type Query struct {
	Filters map[string]string
	Sort    string
	Order   Direction
	Page    int
	Limit   int
}

// Offset is the zero-based index of the first row on the page.
func (q Query) Offset() int {
	return (max(q.Page, 1) - 1) * q.Limit
}

// Values encodes q as URL query parameters. Inactive filters are omitted.
func (q Query) Values() url.Values {
	v := url.Values{}
	for _, k := range slices.Sorted(maps.Keys(q.Filters)) {
		if Active(q.Filters[k]) {
			v.Set(k, q.Filters[k])
		}
	}
	if q.Sort != "" {
		v.Set(ParamSort, q.Sort)
		v.Set(ParamOrder, string(q.Order.normalize()))
	}
	v.Set(ParamPage, strconv.Itoa(max(q.Page, 1)))
	v.Set(ParamLimit, strconv.Itoa(ClampLimit(q.Limit)))
	return v
}

// ParseQuery reads a Query from URL parameters. Missing or invalid page and
// limit fall back to 1 and DefaultPageSize; limit is capped at MaxPageSize.
// When filterKeys is non-empty only those parameters are taken as filters.
func ParseQuery(v url.Values, filterKeys ...string) Query {
	q := Query{
		Page:    1,
		Limit:   DefaultPageSize,
		Sort:    strings.TrimSpace(v.Get(ParamSort)),
		Order:   Direction(strings.ToLower(v.Get(ParamOrder))).normalize(),
		Filters: map[string]string{},
	}
	if s := v.Get(ParamPage); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			q.Page = n
		}
	}
	if s := v.Get(ParamLimit); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			q.Limit = ClampLimit(n)
		}
	}

	for k, vals := range v {
		switch k {
		case ParamPage, ParamLimit, ParamSort, ParamOrder:
			continue
		}
		if len(filterKeys) > 0 && !slices.Contains(filterKeys, k) {
			continue
		}
		if len(vals) > 0 && Active(vals[0]) {
			q.Filters[k] = vals[0]
		}
	}
	return q
}

// ClampLimit applies the page size rules: non-positive means
// DefaultPageSize, anything above MaxPageSize is capped.
func ClampLimit(n int) int {
	if n <= 0 {
		return DefaultPageSize
	}
	return min(n, MaxPageSize)
}
