// Package erp defines the record types shown on the dashboard pages and the
// list configuration each page uses to filter and sort them.
package erp

import (
	"strconv"
	"time"
)

// Resource names, as used in API paths.
const (
	ResourceInventory      = "inventory"
	ResourcePurchaseOrders = "purchase-orders"
	ResourceRoles          = "roles"
	ResourceAuditLogs      = "audit-logs"
	ResourceTranslations   = "translations"
	ResourceMenus          = "menus"
)

// Resources lists every resource in menu order.
var Resources = []string{
	ResourceInventory,
	ResourcePurchaseOrders,
	ResourceRoles,
	ResourceAuditLogs,
	ResourceTranslations,
	ResourceMenus,
}

// Stock statuses.
const (
	StockIn  = "in_stock"
	StockLow = "low_stock"
	StockOut = "out_of_stock"
)

type InventoryItem struct {
	ID        int       `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Warehouse string    `json:"warehouse"`
	Status    string    `json:"status"`
	Quantity  int       `json:"quantity"`
	Reorder   int       `json:"reorder_level"`
	UnitPrice float64   `json:"unit_price"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StockStatus derives the status from quantity and reorder level.
func StockStatus(quantity, reorder int) string {
	switch {
	case quantity <= 0:
		return StockOut
	case quantity <= reorder:
		return StockLow
	}
	return StockIn
}

// Purchase order statuses.
const (
	PODraft     = "draft"
	POSubmitted = "submitted"
	POApproved  = "approved"
	POReceived  = "received"
	POCancelled = "cancelled"
)

type PurchaseOrder struct {
	ID         int        `json:"id"`
	Number     string     `json:"number"`
	Supplier   string     `json:"supplier"`
	Warehouse  string     `json:"warehouse"`
	Status     string     `json:"status"`
	Lines      int        `json:"lines"`
	Total      float64    `json:"total"`
	Currency   string     `json:"currency"`
	OrderedAt  time.Time  `json:"ordered_at"`
	ExpectedAt *time.Time `json:"expected_at,omitempty"`
}

type Role struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
	UserCount   int      `json:"user_count"`
	Active      bool     `json:"active"`
}

// Audit outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDenied  = "denied"
)

type AuditLog struct {
	ID         string    `json:"id"`
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	Outcome    string    `json:"outcome"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
	At         time.Time `json:"at"`
}

type Translation struct {
	ID        int    `json:"id"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Locale    string `json:"locale"`
	Value     string `json:"value"`
}

type Menu struct {
	ID       int    `json:"id"`
	Label    string `json:"label"`
	Path     string `json:"path"`
	ParentID *int   `json:"parent_id,omitempty"`
	Order    int    `json:"order"`
	Roles    string `json:"roles"`
	Visible  bool   `json:"visible"`
}

func itoa(n int) string { return strconv.Itoa(n) }
