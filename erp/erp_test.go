package erp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/erpdesk/list"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestStockStatus(t *testing.T) {
	assert.Equal(t, StockOut, StockStatus(0, 10))
	assert.Equal(t, StockLow, StockStatus(10, 10))
	assert.Equal(t, StockIn, StockStatus(11, 10))
}

func TestCatalogUsers(t *testing.T) {
	c := NewCatalog(testNow)

	u, ok := c.UserByEmail(" Admin@ERP.local ")
	require.True(t, ok)
	assert.Equal(t, []string{"admin", "manager"}, u.Roles())

	_, ok = c.UserByID(u.ID)
	assert.True(t, ok)
	_, ok = c.UserByEmail("nobody@erp.local")
	assert.False(t, ok)
}

func TestCatalogFixturesAreConsistent(t *testing.T) {
	c := NewCatalog(testNow)

	inv := c.Inventory()
	require.NotEmpty(t, inv)
	seen := map[int]bool{}
	for _, it := range inv {
		assert.False(t, seen[it.ID], "duplicate id %d", it.ID)
		seen[it.ID] = true
		assert.Equal(t, StockStatus(it.Quantity, it.Reorder), it.Status)
	}

	for _, po := range c.PurchaseOrders() {
		if po.Status == POSubmitted || po.Status == POApproved {
			assert.NotNil(t, po.ExpectedAt, po.Number)
		} else {
			assert.Nil(t, po.ExpectedAt, po.Number)
		}
	}
	assert.Len(t, c.Translations(), 24)
}

func TestCatalogMenusByRole(t *testing.T) {
	c := NewCatalog(testNow)
	assert.Len(t, c.Menus(""), 9)

	var labels []string
	for _, m := range c.Menus("viewer") {
		labels = append(labels, m.Label)
	}
	assert.Equal(t, []string{"Dashboard", "Inventory"}, labels)
}

func TestCatalogRecordAudit(t *testing.T) {
	c := NewCatalog(testNow)
	before := len(c.AuditLogs())

	e := c.RecordAudit(AuditLog{Actor: "admin@erp.local", Action: "login", Outcome: OutcomeSuccess})
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.At.IsZero())

	logs := c.AuditLogs()
	require.Len(t, logs, before+1)
	assert.Equal(t, e, logs[len(logs)-1])

	for i := 0; i < maxAuditEntries; i++ {
		c.RecordAudit(AuditLog{Action: "view"})
	}
	assert.Len(t, c.AuditLogs(), maxAuditEntries)
}

func TestListConfigs(t *testing.T) {
	c := NewCatalog(testNow)

	t.Run("InventoryLowStockInWarehouse", func(t *testing.T) {
		ctrl := list.New(InventoryList(100, list.ClientSide))
		ctrl.ReplaceRecords(c.Inventory())
		ctrl.SetFilter(FilterStatus, StockLow+","+StockOut)
		ctrl.SetFilter(FilterWarehouse, "WH-NORTH")
		for _, it := range ctrl.Derive().Filtered {
			assert.Equal(t, "WH-NORTH", it.Warehouse)
			assert.NotEqual(t, StockIn, it.Status)
		}
	})

	t.Run("PurchaseOrdersByExpectedDate", func(t *testing.T) {
		ctrl := list.New(PurchaseOrderList(100, list.ClientSide))
		ctrl.ReplaceRecords(c.PurchaseOrders())
		ctrl.SetSort("expected_at")
		sorted := ctrl.Derive().Sorted
		require.NotEmpty(t, sorted)
		assert.Nil(t, sorted[0].ExpectedAt, "orders without a date sort first")
		assert.NotNil(t, sorted[len(sorted)-1].ExpectedAt)
	})

	t.Run("RolesByPermission", func(t *testing.T) {
		ctrl := list.New(RoleList(10, list.ClientSide))
		ctrl.ReplaceRecords(c.Roles())
		ctrl.SetFilter("permission", "audit:read")
		ctrl.SetFilter("active", "true")
		v := ctrl.Derive()
		require.Len(t, v.Filtered, 1)
		assert.Equal(t, "admin", v.Filtered[0].Name)
	})

	t.Run("MenusForRole", func(t *testing.T) {
		ctrl := list.New(MenuList(10, list.ClientSide))
		ctrl.ReplaceRecords(c.Menus(""))
		ctrl.SetFilter("role", "manager")
		ctrl.SetFilter("visible", "true")
		ctrl.SetSort("order")
		assert.Len(t, ctrl.Derive().Filtered, 6)
	})

	t.Run("TranslationsSearch", func(t *testing.T) {
		ctrl := list.New(TranslationList(10, list.ClientSide))
		ctrl.ReplaceRecords(c.Translations())
		ctrl.SetFilter(FilterSearch, "SESIÓN")
		v := ctrl.Derive()
		require.Len(t, v.Filtered, 1)
		assert.Equal(t, "es", v.Filtered[0].Locale)
	})

	t.Run("AuditOutcomes", func(t *testing.T) {
		ctrl := list.New(AuditLogList(10, list.ClientSide))
		ctrl.ReplaceRecords(c.AuditLogs())
		ctrl.SetFilter("outcome", OutcomeFailure+","+OutcomeDenied)
		assert.Equal(t, 8, ctrl.Derive().TotalCount)
	})
}
