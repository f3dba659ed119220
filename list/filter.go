package list

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Predicate reports whether a record passes a filter set to value.
type Predicate[R any] func(r R, value string) bool

// FieldFunc extracts a sort key from a record. Return nil when the record
// has no value for the column.
type FieldFunc[R any] func(r R) any

// Active reports whether a filter value constrains the result. Empty and
// "all" (any case) do not.
func Active(value string) bool {
	v := strings.TrimSpace(value)
	return v != "" && !strings.EqualFold(v, "all")
}

// Equals matches records whose field equals the filter value exactly.
func Equals[R any](field func(R) string) Predicate[R] {
	return func(r R, value string) bool {
		return field(r) == value
	}
}

// OneOf matches records whose field equals any of the comma-separated values.
func OneOf[R any](field func(R) string) Predicate[R] {
	return func(r R, value string) bool {
		got := field(r)
		return slices.ContainsFunc(strings.Split(value, ","), func(v string) bool {
			return strings.TrimSpace(v) == got
		})
	}
}

// Contains matches records where any of fields contains the filter value,
// ignoring case. It backs the free-text search box.
func Contains[R any](fields ...func(R) string) Predicate[R] {
	return func(r R, value string) bool {
		fold := cases.Fold()
		needle := fold.String(strings.TrimSpace(value))
		for _, f := range fields {
			if strings.Contains(fold.String(f(r)), needle) {
				return true
			}
		}
		return false
	}
}
