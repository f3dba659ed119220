package list

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID       int
	SKU      string
	Name     string
	Status   string
	Quantity int
	Price    float64
	Note     *string
}

func itemConfig(pageSize int) Config[item] {
	return Config[item]{
		PageSize: pageSize,
		ID:       func(i item) string { return strconv.Itoa(i.ID) },
		Filters: map[string]Predicate[item]{
			"status": Equals(func(i item) string { return i.Status }),
			"search": Contains(
				func(i item) string { return i.SKU },
				func(i item) string { return i.Name },
			),
		},
		Columns: map[string]FieldFunc[item]{
			"id":       func(i item) any { return i.ID },
			"name":     func(i item) any { return i.Name },
			"quantity": func(i item) any { return i.Quantity },
			"price":    func(i item) any { return i.Price },
			"note": func(i item) any {
				if i.Note == nil {
					return nil
				}
				return *i.Note
			},
		},
	}
}

func sevenItems() []item {
	return []item{
		{ID: 1, SKU: "BLT-01", Name: "Bolt", Status: "active", Quantity: 40},
		{ID: 2, SKU: "NUT-01", Name: "Nut", Status: "inactive", Quantity: 12},
		{ID: 3, SKU: "WSH-01", Name: "Washer", Status: "active", Quantity: 7},
		{ID: 4, SKU: "SCR-01", Name: "Screw", Status: "inactive", Quantity: 90},
		{ID: 5, SKU: "RVT-01", Name: "Rivet", Status: "active", Quantity: 3},
		{ID: 6, SKU: "PIN-01", Name: "Pin", Status: "inactive", Quantity: 55},
		{ID: 7, SKU: "CLP-01", Name: "Clip", Status: "inactive", Quantity: 21},
	}
}

func ids(rows []item) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestNewDefaults(t *testing.T) {
	c := New(Config[item]{ID: func(i item) string { return strconv.Itoa(i.ID) }})
	assert.Equal(t, DefaultPageSize, c.PageSize())

	v := c.Derive()
	assert.Empty(t, v.Page)
	assert.Equal(t, 1, v.TotalPages)
	assert.Equal(t, 1, v.CurrentPage)
	assert.Equal(t, 0, v.TotalCount)
	assert.Equal(t, ClientSide, c.Mode())

	assert.Panics(t, func() { New(Config[item]{}) })
}

func TestEndToEndFilterOnSecondPage(t *testing.T) {
	c := New(itemConfig(5))
	c.ReplaceRecords(sevenItems())

	assert.Equal(t, 2, c.SetPage(2))
	v := c.Derive()
	require.Equal(t, 2, v.TotalPages)
	assert.Equal(t, []int{6, 7}, ids(v.Page))

	c.SetFilter("status", "active")
	v = c.Derive()
	assert.Equal(t, 1, c.State().Page)
	assert.Equal(t, 1, v.TotalPages)
	assert.Len(t, v.Page, 3)
	assert.Equal(t, []int{1, 3, 5}, ids(v.Page))
}

func TestDeriveIsMemoised(t *testing.T) {
	c := New(itemConfig(3))
	c.ReplaceRecords(sevenItems())
	c.SetSort("name")

	a := c.Derive()
	b := c.Derive()
	require.NotEmpty(t, a.Page)
	assert.Equal(t, a, b)
	assert.True(t, &a.Page[0] == &b.Page[0], "same backing array")
	assert.True(t, &a.Sorted[0] == &b.Sorted[0], "same backing array")

	c.SetPage(2)
	d := c.Derive()
	assert.True(t, &a.Sorted[0] == &d.Sorted[0], "page change keeps the sorted set")
	assert.NotEqual(t, ids(a.Page), ids(d.Page))
}

func TestSetFilterResetsPage(t *testing.T) {
	tests := []struct{ key, value string }{
		{"status", "active"},
		{"status", "all"},
		{"status", ""},
		{"search", "o"},
		{"unknown", "x"},
	}
	for _, tc := range tests {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			c := New(itemConfig(2))
			c.ReplaceRecords(sevenItems())
			c.SetPage(4)
			require.Equal(t, 4, c.State().Page)

			c.SetFilter(tc.key, tc.value)
			assert.Equal(t, 1, c.State().Page)
		})
	}
}

func TestClearFilters(t *testing.T) {
	c := New(itemConfig(2))
	c.ReplaceRecords(sevenItems())
	c.SetFilter("status", "inactive")
	c.SetPage(2)

	c.ClearFilters()
	st := c.State()
	assert.Empty(t, st.Filters)
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, 7, c.Derive().TotalCount)
}

func TestFilters(t *testing.T) {
	tests := []struct {
		name    string
		filters map[string]string
		want    []int
	}{
		{"AllMeansNoConstraint", map[string]string{"status": "ALL"}, []int{1, 2, 3, 4, 5, 6, 7}},
		{"Equality", map[string]string{"status": "inactive"}, []int{2, 4, 6, 7}},
		{"SearchIgnoresCase", map[string]string{"search": "sCr"}, []int{4}},
		{"SearchMatchesAnyField", map[string]string{"search": "01"}, []int{1, 2, 3, 4, 5, 6, 7}},
		{"AndAcrossKeys", map[string]string{"status": "inactive", "search": "n"}, []int{2, 6}},
		{"UnknownKeyYieldsEmpty", map[string]string{"warehouse": "wh-1"}, []int{}},
		{"UnknownKeyInactiveIgnored", map[string]string{"warehouse": "all"}, []int{1, 2, 3, 4, 5, 6, 7}},
		{"NoMatches", map[string]string{"search": "gear"}, []int{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := New(itemConfig(10))
			c.ReplaceRecords(sevenItems())
			for k, v := range tc.filters {
				c.SetFilter(k, v)
			}
			assert.Equal(t, tc.want, ids(c.Derive().Filtered))
		})
	}
}

func TestZeroResultsClampToFirstPage(t *testing.T) {
	c := New(itemConfig(5))
	c.ReplaceRecords(sevenItems())
	c.SetPage(2)

	c.SetFilter("search", "no such thing")
	v := c.Derive()
	assert.Equal(t, 1, v.TotalPages)
	assert.Equal(t, 1, v.CurrentPage)
	assert.Empty(t, v.Page)
	assert.Equal(t, 1, c.SetPage(0))
	assert.Equal(t, 1, c.SetPage(9))
}

func TestSetPageClamps(t *testing.T) {
	c := New(itemConfig(3))
	c.ReplaceRecords(sevenItems())

	assert.Equal(t, 1, c.SetPage(-4))
	assert.Equal(t, 3, c.SetPage(3))
	assert.Equal(t, 3, c.SetPage(99))
	assert.Equal(t, []int{7}, ids(c.Derive().Page))
}

func TestSetSortToggle(t *testing.T) {
	c := New(itemConfig(10))
	c.ReplaceRecords(sevenItems())

	c.SetSort("name")
	st := c.State()
	assert.Equal(t, "name", st.SortColumn)
	assert.Equal(t, Asc, st.SortDirection)
	assert.Equal(t, []int{1, 7, 2, 6, 5, 4, 3}, ids(c.Derive().Page))

	c.SetSort("name")
	st = c.State()
	assert.Equal(t, "name", st.SortColumn)
	assert.Equal(t, Desc, st.SortDirection)
	assert.Equal(t, []int{3, 4, 5, 6, 2, 7, 1}, ids(c.Derive().Page))

	c.SetSort("quantity")
	st = c.State()
	assert.Equal(t, "quantity", st.SortColumn)
	assert.Equal(t, Asc, st.SortDirection)
	assert.Equal(t, []int{5, 3, 2, 7, 1, 6, 4}, ids(c.Derive().Page))
}

func TestSetSortKeepsPage(t *testing.T) {
	c := New(itemConfig(3))
	c.ReplaceRecords(sevenItems())
	c.SetPage(2)

	c.SetSort("quantity")
	assert.Equal(t, 2, c.State().Page)
}

func TestSortUnknownColumnYieldsEmpty(t *testing.T) {
	c := New(itemConfig(3))
	c.ReplaceRecords(sevenItems())
	c.SetPage(3)

	c.SetSort("warehouse")
	v := c.Derive()
	assert.Empty(t, v.Sorted)
	assert.Equal(t, 1, v.CurrentPage)
	assert.Equal(t, 1, v.TotalPages)
}

func TestSortIsStable(t *testing.T) {
	type kv struct {
		K int
		V string
	}
	c := New(Config[kv]{
		ID:      func(r kv) string { return r.V },
		Columns: map[string]FieldFunc[kv]{"k": func(r kv) any { return r.K }},
	})
	c.ReplaceRecords([]kv{{1, "b"}, {1, "a"}, {0, "c"}, {1, "d"}})

	c.SetSort("k")
	var got []string
	for _, r := range c.Derive().Sorted {
		got = append(got, r.V)
	}
	assert.Equal(t, []string{"c", "b", "a", "d"}, got)

	c.SetSort("k")
	got = got[:0]
	for _, r := range c.Derive().Sorted {
		got = append(got, r.V)
	}
	assert.Equal(t, []string{"b", "a", "d", "c"}, got, "desc keeps tie order")
}

func TestSortUndefinedFirst(t *testing.T) {
	note := func(s string) *string { return &s }
	c := New(itemConfig(10))
	c.ReplaceRecords([]item{
		{ID: 1, Note: note("b")},
		{ID: 2},
		{ID: 3, Note: note("a")},
	})
	c.SetSort("note")
	assert.Equal(t, []int{2, 3, 1}, ids(c.Derive().Sorted))
}

func TestSelection(t *testing.T) {
	t.Run("Toggle", func(t *testing.T) {
		c := New(itemConfig(5))
		c.ReplaceRecords(sevenItems())

		assert.True(t, c.ToggleSelect("3"))
		assert.True(t, c.IsSelected("3"))
		assert.False(t, c.ToggleSelect("3"))
		assert.False(t, c.IsSelected("3"))
	})

	t.Run("UnknownIDIgnored", func(t *testing.T) {
		c := New(itemConfig(5))
		c.ReplaceRecords(sevenItems())
		assert.False(t, c.ToggleSelect("42"))
		assert.Empty(t, c.Selected())
	})

	t.Run("PrunedOnReplace", func(t *testing.T) {
		c := New(itemConfig(5))
		c.ReplaceRecords(sevenItems())
		for _, id := range []string{"1", "2", "3"} {
			c.ToggleSelect(id)
		}

		c.ReplaceRecords([]item{{ID: 2}, {ID: 4}})
		assert.Equal(t, []string{"2"}, c.Selected())
	})

	t.Run("SelectAllOnPage", func(t *testing.T) {
		c := New(itemConfig(5))
		c.ReplaceRecords(sevenItems())
		c.ToggleSelect("7")

		c.ToggleSelectAllOnPage()
		assert.Equal(t, []string{"1", "2", "3", "4", "5", "7"}, c.Selected())

		c.ToggleSelectAllOnPage()
		assert.Equal(t, []string{"7"}, c.Selected(), "rows off the page stay selected")
	})

	t.Run("SelectAllOnPagePartial", func(t *testing.T) {
		c := New(itemConfig(5))
		c.ReplaceRecords(sevenItems())
		c.SetPage(2)
		c.ToggleSelect("6")

		c.ToggleSelectAllOnPage()
		assert.Equal(t, []string{"6", "7"}, c.Selected())
	})

	t.Run("SelectionSurvivesFilter", func(t *testing.T) {
		c := New(itemConfig(5))
		c.ReplaceRecords(sevenItems())
		c.ToggleSelect("2")
		c.SetFilter("status", "active")
		assert.Equal(t, []string{"2"}, c.Selected())
	})

	t.Run("SelectedRecordsInRecordOrder", func(t *testing.T) {
		c := New(itemConfig(5))
		c.ReplaceRecords(sevenItems())
		c.ToggleSelect("6")
		c.ToggleSelect("2")
		assert.Equal(t, []int{2, 6}, ids(c.SelectedRecords()))

		c.ClearSelection()
		assert.Empty(t, c.SelectedRecords())
	})
}

func TestReplaceRecordsClampsPage(t *testing.T) {
	c := New(itemConfig(3))
	c.ReplaceRecords(sevenItems())
	c.SetPage(3)

	c.ReplaceRecords(sevenItems()[:4])
	assert.Equal(t, 2, c.State().Page)
}

func TestReplaceRecordsCopiesInput(t *testing.T) {
	c := New(itemConfig(3))
	in := sevenItems()
	c.ReplaceRecords(in)
	in[0].Name = "changed"
	assert.Equal(t, "Bolt", c.Derive().Page[0].Name)
}

func TestServerSide(t *testing.T) {
	cfg := itemConfig(5)
	cfg.Mode = ServerSide
	c := New(cfg)

	page := sevenItems()[5:]
	c.ReplacePage(page, 7)
	assert.Equal(t, 2, c.SetPage(2))

	v := c.Derive()
	assert.Equal(t, []int{6, 7}, ids(v.Page))
	assert.Equal(t, 7, v.TotalCount)
	assert.Equal(t, 2, v.TotalPages)

	// Unknown keys and columns are the server's business.
	c.SetFilter("warehouse", "wh-1")
	c.SetSort("received_at")
	v = c.Derive()
	assert.Equal(t, 1, v.CurrentPage)
	assert.Equal(t, []int{6, 7}, ids(v.Page))

	q := c.Query()
	assert.Equal(t, Query{
		Filters: map[string]string{"warehouse": "wh-1"},
		Sort:    "received_at",
		Order:   Asc,
		Page:    1,
		Limit:   5,
	}, q)

	c.ReplacePage(nil, 0)
	v = c.Derive()
	assert.Equal(t, 1, v.TotalPages)
	assert.Empty(t, v.Page)
}

func TestQueryOmitsInactiveFilters(t *testing.T) {
	c := New(itemConfig(5))
	c.SetFilter("status", "all")
	c.SetFilter("search", "bolt")
	assert.Equal(t, map[string]string{"search": "bolt"}, c.Query().Filters)
	assert.Equal(t, map[string]string{"status": "all", "search": "bolt"}, c.State().Filters)
}

func BenchmarkDerive(b *testing.B) {
	records := make([]item, 5000)
	for i := range records {
		records[i] = item{ID: i, Name: fmt.Sprintf("item-%04d", (i*7919)%5000), Status: []string{"active", "inactive"}[i%2]}
	}
	c := New(itemConfig(25))
	c.ReplaceRecords(records)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.SetFilter("status", "active")
		c.SetSort("name")
		_ = c.Derive()
	}
}
