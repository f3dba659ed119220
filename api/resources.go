package api

import (
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"

	"github.com/jmcleod/erpdesk/erp"
	"github.com/jmcleod/erpdesk/list"
)

// listResource serves one page of records filtered, sorted and paged by the
// query parameters, using a client-side list controller over records.
func listResource[R any](a *API, w http.ResponseWriter, r *http.Request, resource string, cfgFn func(int, list.Mode) list.Config[R], records func(caller) []R) {
	c, ok := callerFromContext(r.Context())
	if !ok {
		mapError(w, errUnknownUser)
		return
	}
	if !c.authorize(resource) {
		a.audit.logFailure(AuditAccessDenied, r, "role "+c.ActiveRole+" may not read "+resource, c.Identity.Email)
		mapError(w, fmt.Errorf("%w: role %s may not read %s", errForbidden, c.ActiveRole, resource))
		return
	}
	if _, ok := c.warehouse(); !ok && warehouseScoped[resource] {
		a.audit.logFailure(AuditAccessDenied, r, "no warehouse assigned", c.Identity.Email)
		mapError(w, fmt.Errorf("%w: no warehouse assigned for role %s", errForbidden, c.ActiveRole))
		return
	}

	probe := cfgFn(list.DefaultPageSize, list.ClientSide)
	q := list.ParseQuery(r.URL.Query(), slices.Collect(maps.Keys(probe.Filters))...)
	if q.Sort != "" {
		if _, ok := probe.Columns[q.Sort]; !ok {
			mapError(w, fmt.Errorf("%w: %s", errUnknownSort, q.Sort))
			return
		}
	}

	ctrl := list.New(cfgFn(q.Limit, list.ClientSide))
	ctrl.ReplaceRecords(records(c))
	for k, v := range q.Filters {
		ctrl.SetFilter(k, v)
	}
	if q.Sort != "" {
		ctrl.SetSort(q.Sort)
		if q.Order == list.Desc {
			ctrl.SetSort(q.Sort)
		}
	}
	ctrl.SetPage(q.Page)
	view := ctrl.Derive()

	if a.metrics != nil {
		a.metrics.RowsServed(resource, len(view.Page))
	}
	a.logger.Debug("list served",
		slog.String("resource", resource),
		slog.String("user_id", c.Identity.ID),
		slog.Int("page", view.CurrentPage),
		slog.Int("total", view.TotalCount),
	)
	writeJSON(w, http.StatusOK, envelope[[]R]{
		Success:    true,
		Data:       pageRows(view),
		Pagination: paginationMeta(view, q.Limit),
	})
}

// ListInventory serves inventory items. Clerks only see their warehouse.
func (a *API) ListInventory(w http.ResponseWriter, r *http.Request) {
	listResource(a, w, r, erp.ResourceInventory, erp.InventoryList, func(c caller) []erp.InventoryItem {
		items := a.catalog.Inventory()
		if wh, _ := c.warehouse(); wh != "" {
			items = slices.DeleteFunc(items, func(it erp.InventoryItem) bool { return it.Warehouse != wh })
		}
		return items
	})
}

// ListPurchaseOrders serves purchase orders. Clerks only see their warehouse.
func (a *API) ListPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	listResource(a, w, r, erp.ResourcePurchaseOrders, erp.PurchaseOrderList, func(c caller) []erp.PurchaseOrder {
		orders := a.catalog.PurchaseOrders()
		if wh, _ := c.warehouse(); wh != "" {
			orders = slices.DeleteFunc(orders, func(po erp.PurchaseOrder) bool { return po.Warehouse != wh })
		}
		return orders
	})
}

func (a *API) ListRoles(w http.ResponseWriter, r *http.Request) {
	listResource(a, w, r, erp.ResourceRoles, erp.RoleList, func(caller) []erp.Role {
		return a.catalog.Roles()
	})
}

func (a *API) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	listResource(a, w, r, erp.ResourceAuditLogs, erp.AuditLogList, func(caller) []erp.AuditLog {
		return a.catalog.AuditLogs()
	})
}

func (a *API) ListTranslations(w http.ResponseWriter, r *http.Request) {
	listResource(a, w, r, erp.ResourceTranslations, erp.TranslationList, func(caller) []erp.Translation {
		return a.catalog.Translations()
	})
}

// ListMenus serves the menu entries granted to the caller's active role.
func (a *API) ListMenus(w http.ResponseWriter, r *http.Request) {
	listResource(a, w, r, erp.ResourceMenus, erp.MenuList, func(c caller) []erp.Menu {
		return a.catalog.Menus(c.ActiveRole)
	})
}
