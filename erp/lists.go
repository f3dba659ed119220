package erp

import (
	"slices"
	"strconv"

	"github.com/jmcleod/erpdesk/list"
	"github.com/jmcleod/erpdesk/session"
)

// Filter keys shared by several pages.
const (
	FilterSearch    = "search"
	FilterStatus    = "status"
	FilterWarehouse = "warehouse"
)

func InventoryList(pageSize int, mode list.Mode) list.Config[InventoryItem] {
	return list.Config[InventoryItem]{
		PageSize: pageSize,
		Mode:     mode,
		ID:       func(r InventoryItem) string { return itoa(r.ID) },
		Filters: map[string]list.Predicate[InventoryItem]{
			FilterSearch: list.Contains(
				func(r InventoryItem) string { return r.SKU },
				func(r InventoryItem) string { return r.Name },
			),
			FilterStatus:    list.OneOf(func(r InventoryItem) string { return r.Status }),
			FilterWarehouse: list.Equals(func(r InventoryItem) string { return r.Warehouse }),
			"category":      list.Equals(func(r InventoryItem) string { return r.Category }),
		},
		Columns: map[string]list.FieldFunc[InventoryItem]{
			"id":         func(r InventoryItem) any { return r.ID },
			"sku":        func(r InventoryItem) any { return r.SKU },
			"name":       func(r InventoryItem) any { return r.Name },
			"category":   func(r InventoryItem) any { return r.Category },
			"warehouse":  func(r InventoryItem) any { return r.Warehouse },
			"status":     func(r InventoryItem) any { return r.Status },
			"quantity":   func(r InventoryItem) any { return r.Quantity },
			"unit_price": func(r InventoryItem) any { return r.UnitPrice },
			"updated_at": func(r InventoryItem) any { return r.UpdatedAt },
		},
	}
}

func PurchaseOrderList(pageSize int, mode list.Mode) list.Config[PurchaseOrder] {
	return list.Config[PurchaseOrder]{
		PageSize: pageSize,
		Mode:     mode,
		ID:       func(r PurchaseOrder) string { return itoa(r.ID) },
		Filters: map[string]list.Predicate[PurchaseOrder]{
			FilterSearch: list.Contains(
				func(r PurchaseOrder) string { return r.Number },
				func(r PurchaseOrder) string { return r.Supplier },
			),
			FilterStatus:    list.OneOf(func(r PurchaseOrder) string { return r.Status }),
			FilterWarehouse: list.Equals(func(r PurchaseOrder) string { return r.Warehouse }),
			"supplier":      list.Equals(func(r PurchaseOrder) string { return r.Supplier }),
		},
		Columns: map[string]list.FieldFunc[PurchaseOrder]{
			"id":         func(r PurchaseOrder) any { return r.ID },
			"number":     func(r PurchaseOrder) any { return r.Number },
			"supplier":   func(r PurchaseOrder) any { return r.Supplier },
			"status":     func(r PurchaseOrder) any { return r.Status },
			"total":      func(r PurchaseOrder) any { return r.Total },
			"ordered_at": func(r PurchaseOrder) any { return r.OrderedAt },
			"expected_at": func(r PurchaseOrder) any {
				if r.ExpectedAt == nil {
					return nil
				}
				return *r.ExpectedAt
			},
		},
	}
}

func RoleList(pageSize int, mode list.Mode) list.Config[Role] {
	return list.Config[Role]{
		PageSize: pageSize,
		Mode:     mode,
		ID:       func(r Role) string { return itoa(r.ID) },
		Filters: map[string]list.Predicate[Role]{
			FilterSearch: list.Contains(
				func(r Role) string { return r.Name },
				func(r Role) string { return r.Description },
			),
			"active": list.Equals(func(r Role) string { return strconv.FormatBool(r.Active) }),
			"permission": func(r Role, value string) bool {
				return slices.Contains(r.Permissions, value)
			},
		},
		Columns: map[string]list.FieldFunc[Role]{
			"id":         func(r Role) any { return r.ID },
			"name":       func(r Role) any { return r.Name },
			"user_count": func(r Role) any { return r.UserCount },
			"active":     func(r Role) any { return r.Active },
		},
	}
}

func AuditLogList(pageSize int, mode list.Mode) list.Config[AuditLog] {
	return list.Config[AuditLog]{
		PageSize: pageSize,
		Mode:     mode,
		ID:       func(r AuditLog) string { return r.ID },
		Filters: map[string]list.Predicate[AuditLog]{
			FilterSearch: list.Contains(
				func(r AuditLog) string { return r.Actor },
				func(r AuditLog) string { return r.Action },
				func(r AuditLog) string { return r.Resource },
			),
			"action":  list.Equals(func(r AuditLog) string { return r.Action }),
			"outcome": list.OneOf(func(r AuditLog) string { return r.Outcome }),
			"actor":   list.Equals(func(r AuditLog) string { return r.Actor }),
		},
		Columns: map[string]list.FieldFunc[AuditLog]{
			"at":       func(r AuditLog) any { return r.At },
			"actor":    func(r AuditLog) any { return r.Actor },
			"action":   func(r AuditLog) any { return r.Action },
			"resource": func(r AuditLog) any { return r.Resource },
			"outcome":  func(r AuditLog) any { return r.Outcome },
		},
	}
}

func TranslationList(pageSize int, mode list.Mode) list.Config[Translation] {
	return list.Config[Translation]{
		PageSize: pageSize,
		Mode:     mode,
		ID:       func(r Translation) string { return itoa(r.ID) },
		Filters: map[string]list.Predicate[Translation]{
			FilterSearch: list.Contains(
				func(r Translation) string { return r.Key },
				func(r Translation) string { return r.Value },
			),
			"locale":    list.Equals(func(r Translation) string { return r.Locale }),
			"namespace": list.Equals(func(r Translation) string { return r.Namespace }),
		},
		Columns: map[string]list.FieldFunc[Translation]{
			"id":        func(r Translation) any { return r.ID },
			"key":       func(r Translation) any { return r.Key },
			"locale":    func(r Translation) any { return r.Locale },
			"namespace": func(r Translation) any { return r.Namespace },
		},
	}
}

func MenuList(pageSize int, mode list.Mode) list.Config[Menu] {
	return list.Config[Menu]{
		PageSize: pageSize,
		Mode:     mode,
		ID:       func(r Menu) string { return itoa(r.ID) },
		Filters: map[string]list.Predicate[Menu]{
			FilterSearch: list.Contains(
				func(r Menu) string { return r.Label },
				func(r Menu) string { return r.Path },
			),
			"role": func(r Menu, value string) bool {
				return session.Identity{Role: r.Roles}.HasRole(value)
			},
			"visible": list.Equals(func(r Menu) string { return strconv.FormatBool(r.Visible) }),
		},
		Columns: map[string]list.FieldFunc[Menu]{
			"id":    func(r Menu) any { return r.ID },
			"order": func(r Menu) any { return r.Order },
			"label": func(r Menu) any { return r.Label },
			"path":  func(r Menu) any { return r.Path },
		},
	}
}
