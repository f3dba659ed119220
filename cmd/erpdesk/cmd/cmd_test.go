package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/erpdesk/api"
	"github.com/jmcleod/erpdesk/erp"
	"github.com/jmcleod/erpdesk/internal/config"
	"github.com/jmcleod/erpdesk/list"
	"github.com/jmcleod/erpdesk/session"
	"github.com/jmcleod/erpdesk/source/rest"
	"github.com/jmcleod/erpdesk/storage/memory"
)

func setupAPI(t *testing.T) {
	t.Helper()
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	a := api.New(erp.NewCatalog(time.Now()), api.WithLogger(logger))
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	cfg = config.Config{APIURL: srv.URL + "/api/v1"}
}

func loggedIn(t *testing.T, email string) *session.Manager {
	t.Helper()
	mgr := session.NewManager(memory.New(), session.WithLogger(logger))
	ident, err := rest.Login(t.Context(), cfg.APIURL, email)
	require.NoError(t, err)
	require.NoError(t, mgr.Login(t.Context(), ident))
	return mgr
}

func TestParseFilters(t *testing.T) {
	got, err := parseFilters(listFlags{
		filters: []string{"warehouse=WH-NORTH", " category =fasteners"},
		search:  "bolt",
		status:  "low_stock,out_of_stock",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"warehouse":      "WH-NORTH",
		"category":       "fasteners",
		erp.FilterSearch: "bolt",
		erp.FilterStatus: "low_stock,out_of_stock",
	}, got)

	_, err = parseFilters(listFlags{filters: []string{"novalue"}})
	assert.ErrorContains(t, err, "key=value")
}

func TestTablesCoverResources(t *testing.T) {
	for _, res := range erp.Resources {
		assert.Contains(t, tables, res)
	}
}

func TestListInventoryPage(t *testing.T) {
	setupAPI(t)
	mgr := loggedIn(t, "admin@erp.local")

	var out bytes.Buffer
	err := tables[erp.ResourceInventory].run(t.Context(), &out, mgr, listFlags{
		limit: 5,
		page:  2,
		sort:  "sku",
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "ID"), "header first: %q", lines[0])
	assert.Contains(t, out.String(), "Page 2 of")
	assert.Equal(t, 1+5+2, len(lines), "header, five rows, blank line and footer")
}

func TestListLimitCappedLikeServer(t *testing.T) {
	setupAPI(t)
	mgr := loggedIn(t, "admin@erp.local")

	const total = 450
	var limits []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limits = append(limits, r.URL.Query().Get(list.ParamLimit))
		q := list.ParseQuery(r.URL.Query())
		n := min(q.Limit, total-q.Offset())
		items := make([]erp.InventoryItem, n)
		for i := range items {
			items[i].ID = q.Offset() + i + 1
		}
		json.NewEncoder(w).Encode(rest.Envelope[[]erp.InventoryItem]{
			Success:    true,
			Data:       items,
			Pagination: &rest.Pagination{Page: q.Page, Limit: q.Limit, Total: total},
		})
	}))
	t.Cleanup(srv.Close)
	cfg.APIURL = srv.URL

	var out bytes.Buffer
	err := tables[erp.ResourceInventory].run(t.Context(), &out, mgr, listFlags{limit: 500, page: 3})
	require.NoError(t, err)

	assert.Equal(t, []string{"200", "200"}, limits)
	assert.Contains(t, out.String(), "Page 3 of 3 (450 rows)")
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, 1+50+2, len(lines), "header, last 50 rows, blank line and footer")
}

func TestListForbiddenResource(t *testing.T) {
	setupAPI(t)
	mgr := loggedIn(t, "viewer@erp.local")

	err := tables[erp.ResourceRoles].run(t.Context(), io.Discard, mgr, listFlags{limit: 10, page: 1})
	var apiErr *rest.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Status)
}

func TestListRequiresSession(t *testing.T) {
	setupAPI(t)
	mgr := session.NewManager(memory.New(), session.WithLogger(logger))

	err := tables[erp.ResourceMenus].run(t.Context(), io.Discard, mgr, listFlags{limit: 10, page: 1})
	assert.Error(t, err)
}

func TestOpenStoreBbolt(t *testing.T) {
	sc := config.StoreConfig{Backend: config.BackendBbolt, DataDir: filepath.Join(t.TempDir(), "data")}
	store, closeFn, err := openStore(t.Context(), sc, nsSession)
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, store.Put(t.Context(), "k", "v"))
	got, err := store.Get(t.Context(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	assert.FileExists(t, filepath.Join(sc.DataDir, nsSession+".db"))
}

func TestOpenStoreSealed(t *testing.T) {
	sc := config.StoreConfig{Backend: config.BackendMemory, SealSeed: strings.Repeat("0f", 32)}
	store, closeFn, err := openStore(t.Context(), sc, nsServer)
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, store.Put(t.Context(), "k", "secret"))
	got, err := store.Get(t.Context(), "k")
	require.NoError(t, err)
	assert.Equal(t, "secret", got)
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	_, _, err := openStore(t.Context(), config.StoreConfig{Backend: "sqlite"}, nsSession)
	assert.Error(t, err)
}

func TestPrintState(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	var out bytes.Buffer
	printState(&out, session.State{}, now)
	assert.Equal(t, "Not logged in.\n", out.String())

	out.Reset()
	printState(&out, session.State{
		Identity:     &session.Identity{ID: "1", Email: "admin@erp.local", Name: "Amara Okafor"},
		Roles:        []string{"admin", "manager"},
		ActiveRole:   "admin",
		LastActivity: now.Add(-10 * time.Minute),
		Timeout:      30 * time.Minute,
		Valid:        true,
	}, now)
	assert.Contains(t, out.String(), "Active role: admin")
	assert.Contains(t, out.String(), "Expires in:  20m0s")
}
