package erp

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jmcleod/erpdesk/internal/uuid"
	"github.com/jmcleod/erpdesk/session"
)

// maxAuditEntries bounds the in-memory audit trail.
const maxAuditEntries = 1000

// Catalog is the demo data set behind the API. Audit entries are appended at
// runtime; everything else is fixed at construction.
type Catalog struct {
	users          []session.Identity
	inventory      []InventoryItem
	purchaseOrders []PurchaseOrder
	roles          []Role
	translations   []Translation
	menus          []Menu

	mu    sync.RWMutex
	audit []AuditLog
}

// NewCatalog builds the fixture set with timestamps relative to now.
func NewCatalog(now time.Time) *Catalog {
	c := &Catalog{
		users:          seedUsers(),
		inventory:      seedInventory(now),
		purchaseOrders: seedPurchaseOrders(now),
		roles:          seedRoles(),
		translations:   seedTranslations(),
		menus:          seedMenus(),
	}
	c.audit = seedAudit(now, c.users)
	return c
}

// UserByEmail looks a user up case-insensitively.
func (c *Catalog) UserByEmail(email string) (session.Identity, bool) {
	email = strings.TrimSpace(email)
	for _, u := range c.users {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return session.Identity{}, false
}

// UserByID looks a user up by ID.
func (c *Catalog) UserByID(id string) (session.Identity, bool) {
	for _, u := range c.users {
		if u.ID == id {
			return u, true
		}
	}
	return session.Identity{}, false
}

func (c *Catalog) Users() []session.Identity { return slices.Clone(c.users) }
func (c *Catalog) Inventory() []InventoryItem { return slices.Clone(c.inventory) }
func (c *Catalog) PurchaseOrders() []PurchaseOrder { return slices.Clone(c.purchaseOrders) }
func (c *Catalog) Roles() []Role { return slices.Clone(c.roles) }
func (c *Catalog) Translations() []Translation { return slices.Clone(c.translations) }

// Menus returns the menu entries; with role non-empty only entries granted
// to that role.
func (c *Catalog) Menus(role string) []Menu {
	if role == "" {
		return slices.Clone(c.menus)
	}
	var out []Menu
	for _, m := range c.menus {
		if (session.Identity{Role: m.Roles}).HasRole(role) {
			out = append(out, m)
		}
	}
	return out
}

// AuditLogs returns the audit trail, newest last.
func (c *Catalog) AuditLogs() []AuditLog {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.audit)
}

// RecordAudit appends an entry, assigning an ID when missing. The oldest
// entries are dropped once the trail is full.
func (c *Catalog) RecordAudit(e AuditLog) AuditLog {
	if e.ID == "" {
		e.ID = uuid.New()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.audit = append(c.audit, e)
	if n := len(c.audit) - maxAuditEntries; n > 0 {
		c.audit = slices.Delete(c.audit, 0, n)
	}
	return e
}

func seedUsers() []session.Identity {
	return []session.Identity{
		{ID: "1", Email: "admin@erp.local", Name: "Amara Okafor", Role: "admin, manager"},
		{ID: "2", Email: "manager@erp.local", Name: "Jonas Berg", Role: "manager, clerk"},
		{ID: "3", Email: "clerk@erp.local", Name: "Lucía Fernández", Role: "clerk",
			Attributes: map[string]string{"warehouse": "WH-NORTH"}},
		{ID: "4", Email: "viewer@erp.local", Name: "Kenji Sato", Role: "viewer"},
		{ID: "5", Email: "reviseur@erp.local", Name: "Élise Moreau", Role: "réviseur, viewer"},
	}
}

var (
	warehouses = []string{"WH-NORTH", "WH-SOUTH", "WH-EAST"}
	suppliers  = []string{"Acme Fasteners", "Borealis Metals", "Cobalt Plastics", "Delta Logistics", "Eastwind Tools"}
)

func seedInventory(now time.Time) []InventoryItem {
	type product struct {
		sku, name, category string
		price               float64
	}
	products := []product{
		{"BLT-M8-40", "Hex bolt M8x40", "fasteners", 0.32},
		{"BLT-M10-60", "Hex bolt M10x60", "fasteners", 0.55},
		{"NUT-M8", "Hex nut M8", "fasteners", 0.08},
		{"WSH-M8", "Flat washer M8", "fasteners", 0.03},
		{"SCR-4X30", "Wood screw 4x30", "fasteners", 0.05},
		{"PIP-PVC-50", "PVC pipe 50mm", "plumbing", 6.90},
		{"PIP-CU-15", "Copper pipe 15mm", "plumbing", 12.40},
		{"VLV-BALL-15", "Ball valve 15mm", "plumbing", 9.75},
		{"CBL-3X2.5", "Cable 3x2.5mm²", "electrical", 1.85},
		{"BRK-16A", "Circuit breaker 16A", "electrical", 7.20},
		{"SWT-2G", "Wall switch 2-gang", "electrical", 4.10},
		{"GLV-NIT-L", "Nitrile gloves L", "safety", 0.18},
		{"HLM-STD", "Safety helmet", "safety", 14.50},
		{"GGL-CLR", "Safety goggles", "safety", 3.95},
		{"PLT-EUR", "Euro pallet", "logistics", 11.00},
		{"STR-PP-12", "PP strapping 12mm", "logistics", 24.00},
	}
	var items []InventoryItem
	id := 1
	for i, p := range products {
		for j, wh := range warehouses {
			if (i+j)%4 == 3 {
				continue
			}
			qty := (i*37 + j*53) % 240
			if (i*3+j)%11 == 0 {
				qty = 0
			}
			reorder := 20 + (i%5)*10
			items = append(items, InventoryItem{
				ID:        id,
				SKU:       p.sku,
				Name:      p.name,
				Category:  p.category,
				Warehouse: wh,
				Status:    StockStatus(qty, reorder),
				Quantity:  qty,
				Reorder:   reorder,
				UnitPrice: p.price,
				UpdatedAt: now.Add(-time.Duration(id*97) * time.Minute).UTC().Truncate(time.Second),
			})
			id++
		}
	}
	return items
}

func seedPurchaseOrders(now time.Time) []PurchaseOrder {
	statuses := []string{PODraft, POSubmitted, POApproved, POReceived, POCancelled, POApproved, POSubmitted}
	var orders []PurchaseOrder
	for i := 1; i <= 30; i++ {
		ordered := now.AddDate(0, 0, -i*2).UTC().Truncate(time.Hour)
		po := PurchaseOrder{
			ID:        i,
			Number:    fmt.Sprintf("PO-%d-%04d", ordered.Year(), i),
			Supplier:  suppliers[i%len(suppliers)],
			Warehouse: warehouses[i%len(warehouses)],
			Status:    statuses[i%len(statuses)],
			Lines:     1 + i%6,
			Total:     float64((i*7919)%500000) / 100,
			Currency:  "EUR",
			OrderedAt: ordered,
		}
		if po.Status == POSubmitted || po.Status == POApproved {
			exp := ordered.AddDate(0, 0, 14)
			po.ExpectedAt = &exp
		}
		orders = append(orders, po)
	}
	return orders
}

func seedRoles() []Role {
	return []Role{
		{ID: 1, Name: "admin", Description: "Full access including roles and audit trail",
			Permissions: []string{"inventory:read", "inventory:write", "purchasing:read", "purchasing:approve", "roles:manage", "audit:read", "translations:write", "menus:write"},
			UserCount: 1, Active: true},
		{ID: 2, Name: "manager", Description: "Approves purchase orders and manages stock",
			Permissions: []string{"inventory:read", "inventory:write", "purchasing:read", "purchasing:approve", "translations:write"},
			UserCount: 2, Active: true},
		{ID: 3, Name: "clerk", Description: "Receives goods and raises purchase orders",
			Permissions: []string{"inventory:read", "inventory:write", "purchasing:read"},
			UserCount: 2, Active: true},
		{ID: 4, Name: "viewer", Description: "Read-only stock overview",
			Permissions: []string{"inventory:read"},
			UserCount: 2, Active: true},
		{ID: 5, Name: "auditor", Description: "External audit access (retired)",
			Permissions: []string{"audit:read"},
			UserCount: 0, Active: false},
	}
}

func seedTranslations() []Translation {
	type entry struct{ ns, key, en, de, es string }
	entries := []entry{
		{"common", "save", "Save", "Speichern", "Guardar"},
		{"common", "cancel", "Cancel", "Abbrechen", "Cancelar"},
		{"common", "search", "Search", "Suchen", "Buscar"},
		{"inventory", "title", "Inventory", "Lagerbestand", "Inventario"},
		{"inventory", "low_stock", "Low stock", "Niedriger Bestand", "Stock bajo"},
		{"purchasing", "title", "Purchase orders", "Bestellungen", "Órdenes de compra"},
		{"purchasing", "approve", "Approve", "Genehmigen", "Aprobar"},
		{"auth", "session_expired", "Your session has expired", "Ihre Sitzung ist abgelaufen", "Su sesión ha expirado"},
	}
	var out []Translation
	id := 1
	for _, e := range entries {
		for _, lv := range [][2]string{{"en", e.en}, {"de", e.de}, {"es", e.es}} {
			out = append(out, Translation{ID: id, Namespace: e.ns, Key: e.ns + "." + e.key, Locale: lv[0], Value: lv[1]})
			id++
		}
	}
	return out
}

func seedMenus() []Menu {
	parent := func(id int) *int { return &id }
	return []Menu{
		{ID: 1, Label: "Dashboard", Path: "/", Order: 1, Roles: "admin, manager, clerk, viewer", Visible: true},
		{ID: 2, Label: "Inventory", Path: "/inventory", Order: 2, Roles: "admin, manager, clerk, viewer", Visible: true},
		{ID: 3, Label: "Stock movements", Path: "/inventory/movements", ParentID: parent(2), Order: 1, Roles: "admin, manager, clerk", Visible: true},
		{ID: 4, Label: "Purchase orders", Path: "/purchasing", Order: 3, Roles: "admin, manager, clerk", Visible: true},
		{ID: 5, Label: "Approvals", Path: "/purchasing/approvals", ParentID: parent(4), Order: 1, Roles: "admin, manager", Visible: true},
		{ID: 6, Label: "Roles", Path: "/admin/roles", Order: 4, Roles: "admin", Visible: true},
		{ID: 7, Label: "Audit logs", Path: "/admin/audit", Order: 5, Roles: "admin, réviseur", Visible: true},
		{ID: 8, Label: "Translations", Path: "/admin/translations", Order: 6, Roles: "admin, manager", Visible: true},
		{ID: 9, Label: "Legacy reports", Path: "/reports/legacy", Order: 7, Roles: "admin", Visible: false},
	}
}

func seedAudit(now time.Time, users []session.Identity) []AuditLog {
	actions := []struct{ action, resource, outcome string }{
		{"login", "auth", OutcomeSuccess},
		{"view", ResourceInventory, OutcomeSuccess},
		{"approve", ResourcePurchaseOrders, OutcomeSuccess},
		{"login", "auth", OutcomeFailure},
		{"view", ResourceAuditLogs, OutcomeDenied},
		{"update", ResourceTranslations, OutcomeSuccess},
	}
	var out []AuditLog
	for i := 0; i < 24; i++ {
		a := actions[i%len(actions)]
		out = append(out, AuditLog{
			ID:         uuid.New(),
			Actor:      users[i%len(users)].Email,
			Action:     a.action,
			Resource:   a.resource,
			Outcome:    a.outcome,
			RemoteAddr: fmt.Sprintf("10.0.%d.%d", i%4, 10+i),
			At:         now.Add(-time.Duration(24-i) * time.Hour).UTC().Truncate(time.Second),
		})
	}
	return out
}
