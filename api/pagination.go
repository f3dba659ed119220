package api

import (
	"github.com/jmcleod/erpdesk/list"
	"github.com/jmcleod/erpdesk/source/rest"
)

// paginationMeta describes the page a list view served. Page is the page
// actually served, which may be lower than the one requested when the
// filtered set shrank.
func paginationMeta[R any](view list.View[R], limit int) *rest.Pagination {
	return &rest.Pagination{
		Page:       view.CurrentPage,
		Limit:      limit,
		Total:      view.TotalCount,
		TotalPages: view.TotalPages,
	}
}

// pageRows returns the page slice, never nil, so it encodes as [].
func pageRows[R any](view list.View[R]) []R {
	if view.Page == nil {
		return []R{}
	}
	return view.Page
}
