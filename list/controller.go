package list

import (
	"maps"
	"slices"
	"strings"
	"sync"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

func (d Direction) normalize() Direction {
	if d == Desc {
		return Desc
	}
	return Asc
}

// Mode selects where filtering, sorting and paging happen.
type Mode int

const (
	// ClientSide derives every view locally from the full record set.
	ClientSide Mode = iota
	// ServerSide treats records as an already filtered, sorted page and takes
	// the total count from the server.
	ServerSide
)

func (m Mode) String() string {
	if m == ServerSide {
		return "server"
	}
	return "client"
}

// Config describes one table. ID is required.
type Config[R any] struct {
	PageSize int
	ID       func(R) string
	Filters  map[string]Predicate[R]
	Columns  map[string]FieldFunc[R]
	Mode     Mode
}

// State is a copy of the controller's interaction state.
type State struct {
	Filters       map[string]string
	SortColumn    string
	SortDirection Direction
	Page          int
	PageSize      int
	Selected      []string
}

// View is the derived table. Page holds the rows to render.
type View[R any] struct {
	Filtered    []R
	Sorted      []R
	Page        []R
	CurrentPage int
	TotalPages  int
	TotalCount  int
}

// Controller drives one table. Operations never fail; callers pick filter
// keys and columns from the page's own Config.
type Controller[R any] struct {
	mu  sync.Mutex
	cfg Config[R]

	records []R
	ids     map[string]struct{}
	total   int // ServerSide only

	filters  map[string]string
	sortCol  string
	sortDir  Direction
	page     int
	selected map[string]struct{}

	// Derivation caches. sorted depends on records, filters and sort;
	// view additionally on page.
	filtered []R
	sorted   []R
	haveSort bool
	view     *View[R]
}

// New returns a controller with no records, no filters and page 1.
func New[R any](cfg Config[R]) *Controller[R] {
	if cfg.ID == nil {
		panic("list: Config.ID is required")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	return &Controller[R]{
		cfg:      cfg,
		ids:      map[string]struct{}{},
		filters:  map[string]string{},
		sortDir:  Asc,
		page:     1,
		selected: map[string]struct{}{},
	}
}

// Mode reports the configured mode.
func (c *Controller[R]) Mode() Mode { return c.cfg.Mode }

// PageSize reports the fixed page size.
func (c *Controller[R]) PageSize() int { return c.cfg.PageSize }

// SetFilter sets one filter and returns to page 1. An empty value removes
// the filter.
func (c *Controller[R]) SetFilter(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if value == "" {
		delete(c.filters, key)
	} else {
		c.filters[key] = value
	}
	c.page = 1
	c.invalidateLocked(true)
}

// ClearFilters removes every filter and returns to page 1.
func (c *Controller[R]) ClearFilters() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.filters)
	c.page = 1
	c.invalidateLocked(true)
}

// SetSort sorts by column ascending, or flips the direction when column is
// already the sort column. The page is kept, clamped if needed.
func (c *Controller[R]) SetSort(column string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if column == c.sortCol {
		if c.sortDir == Asc {
			c.sortDir = Desc
		} else {
			c.sortDir = Asc
		}
	} else {
		c.sortCol = column
		c.sortDir = Asc
	}
	c.invalidateLocked(true)
}

// SetPage moves to page n clamped into [1, TotalPages] and returns the page
// actually stored.
func (c *Controller[R]) SetPage(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = n
	c.invalidateLocked(false)
	return c.page
}

// ToggleSelect flips the selection of id and reports whether it is now
// selected. IDs outside the current record set are ignored.
func (c *Controller[R]) ToggleSelect(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.ids[id]; !ok {
		return false
	}
	if _, ok := c.selected[id]; ok {
		delete(c.selected, id)
		return false
	}
	c.selected[id] = struct{}{}
	return true
}

// ToggleSelectAllOnPage deselects the visible rows when all of them are
// selected and selects them all otherwise. Rows on other pages are left
// alone.
func (c *Controller[R]) ToggleSelectAllOnPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	rows := c.deriveLocked().Page
	if len(rows) == 0 {
		return
	}
	all := true
	for _, r := range rows {
		if _, ok := c.selected[c.cfg.ID(r)]; !ok {
			all = false
			break
		}
	}
	for _, r := range rows {
		if all {
			delete(c.selected, c.cfg.ID(r))
		} else {
			c.selected[c.cfg.ID(r)] = struct{}{}
		}
	}
}

// ClearSelection deselects everything.
func (c *Controller[R]) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.selected)
}

// ReplaceRecords swaps in a freshly fetched record set. Selected IDs not in
// records are dropped and the page is clamped.
func (c *Controller[R]) ReplaceRecords(records []R) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setRecordsLocked(records)
	c.total = len(records)
	c.invalidateLocked(true)
}

// ReplacePage is ReplaceRecords for ServerSide mode: records is the page the
// server returned and total the size of the whole filtered set.
func (c *Controller[R]) ReplacePage(records []R, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setRecordsLocked(records)
	c.total = max(total, 0)
	c.invalidateLocked(true)
}

// Derive returns the current view. Calls with no state change in between
// return the same slices.
func (c *Controller[R]) Derive() View[R] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.deriveLocked()
}

// State returns a copy of the interaction state. Selected is sorted.
func (c *Controller[R]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Filters:       maps.Clone(c.filters),
		SortColumn:    c.sortCol,
		SortDirection: c.sortDir,
		Page:          c.page,
		PageSize:      c.cfg.PageSize,
		Selected:      c.selectedLocked(),
	}
}

// Query returns the state as a record source query.
func (c *Controller[R]) Query() Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	q := Query{
		Filters: map[string]string{},
		Sort:    c.sortCol,
		Order:   c.sortDir,
		Page:    c.page,
		Limit:   c.cfg.PageSize,
	}
	for k, v := range c.filters {
		if Active(v) {
			q.Filters[k] = v
		}
	}
	return q
}

// Selected returns the selected IDs in ascending order.
func (c *Controller[R]) Selected() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedLocked()
}

// IsSelected reports whether id is selected.
func (c *Controller[R]) IsSelected(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.selected[id]
	return ok
}

// SelectedRecords returns the selected records in record-set order.
func (c *Controller[R]) SelectedRecords() []R {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []R
	for _, r := range c.records {
		if _, ok := c.selected[c.cfg.ID(r)]; ok {
			out = append(out, r)
		}
	}
	return out
}

func (c *Controller[R]) selectedLocked() []string {
	return slices.Sorted(maps.Keys(c.selected))
}

func (c *Controller[R]) setRecordsLocked(records []R) {
	c.records = slices.Clone(records)
	c.ids = make(map[string]struct{}, len(records))
	for _, r := range c.records {
		c.ids[c.cfg.ID(r)] = struct{}{}
	}
	for id := range c.selected {
		if _, ok := c.ids[id]; !ok {
			delete(c.selected, id)
		}
	}
}

// invalidateLocked drops cached derivations and clamps the page.
func (c *Controller[R]) invalidateLocked(data bool) {
	if data {
		c.haveSort = false
		c.filtered, c.sorted = nil, nil
	}
	c.view = nil
	c.page = min(max(c.page, 1), c.totalPagesLocked())
}

func (c *Controller[R]) totalCountLocked() int {
	if c.cfg.Mode == ServerSide {
		return c.total
	}
	c.sortLocked()
	return len(c.filtered)
}

func (c *Controller[R]) totalPagesLocked() int {
	n := c.totalCountLocked()
	return max(1, (n+c.cfg.PageSize-1)/c.cfg.PageSize)
}

func (c *Controller[R]) sortLocked() {
	if c.haveSort {
		return
	}
	c.haveSort = true
	if c.cfg.Mode == ServerSide {
		c.filtered, c.sorted = c.records, c.records
		return
	}

	c.filtered = c.filterLocked()
	if c.sortCol == "" {
		c.sorted = c.filtered
		return
	}
	col, ok := c.cfg.Columns[c.sortCol]
	if !ok {
		c.filtered, c.sorted = []R{}, []R{}
		return
	}
	sorted := slices.Clone(c.filtered)
	desc := c.sortDir == Desc
	slices.SortStableFunc(sorted, func(a, b R) int {
		n := Compare(col(a), col(b))
		if desc {
			return -n
		}
		return n
	})
	c.sorted = sorted
}

func (c *Controller[R]) filterLocked() []R {
	type active struct {
		pred  Predicate[R]
		value string
	}
	var preds []active
	for _, k := range slices.Sorted(maps.Keys(c.filters)) {
		v := c.filters[k]
		if !Active(v) {
			continue
		}
		p, ok := c.cfg.Filters[k]
		if !ok {
			return []R{}
		}
		preds = append(preds, active{pred: p, value: strings.TrimSpace(v)})
	}
	if len(preds) == 0 {
		return c.records
	}

	out := make([]R, 0, len(c.records))
next:
	for _, r := range c.records {
		for _, p := range preds {
			if !p.pred(r, p.value) {
				continue next
			}
		}
		out = append(out, r)
	}
	return out
}

func (c *Controller[R]) deriveLocked() *View[R] {
	if c.view != nil {
		return c.view
	}
	c.sortLocked()
	v := &View[R]{
		Filtered:    c.filtered,
		Sorted:      c.sorted,
		CurrentPage: c.page,
		TotalPages:  c.totalPagesLocked(),
		TotalCount:  c.totalCountLocked(),
	}
	if c.cfg.Mode == ServerSide {
		v.Page = c.records
	} else {
		start := min((c.page-1)*c.cfg.PageSize, len(c.sorted))
		end := min(start+c.cfg.PageSize, len(c.sorted))
		v.Page = c.sorted[start:end:end]
	}
	c.view = v
	return v
}
