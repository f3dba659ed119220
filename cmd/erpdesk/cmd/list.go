package cmd

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jmcleod/erpdesk/dashboard"
	"github.com/jmcleod/erpdesk/erp"
	"github.com/jmcleod/erpdesk/list"
	"github.com/jmcleod/erpdesk/session"
	"github.com/jmcleod/erpdesk/source/rest"
)

type listFlags struct {
	role    string
	filters []string
	search  string
	status  string
	sort    string
	desc    bool
	page    int
	limit   int
}

var lf listFlags

// table knows how to fetch and render one resource.
type table interface {
	run(ctx context.Context, w io.Writer, mgr *session.Manager, f listFlags) error
}

type tableOf[R any] struct {
	resource string
	config   func(int, list.Mode) list.Config[R]
	headers  []string
	row      func(p *message.Printer, r R) []string
}

var tables = map[string]table{
	erp.ResourceInventory: tableOf[erp.InventoryItem]{
		resource: erp.ResourceInventory,
		config:   erp.InventoryList,
		headers:  []string{"ID", "SKU", "NAME", "WAREHOUSE", "STATUS", "QTY", "PRICE"},
		row: func(p *message.Printer, r erp.InventoryItem) []string {
			return []string{strconv.Itoa(r.ID), r.SKU, r.Name, r.Warehouse, r.Status, p.Sprintf("%d", r.Quantity), p.Sprintf("%.2f", r.UnitPrice)}
		},
	},
	erp.ResourcePurchaseOrders: tableOf[erp.PurchaseOrder]{
		resource: erp.ResourcePurchaseOrders,
		config:   erp.PurchaseOrderList,
		headers:  []string{"NUMBER", "SUPPLIER", "WAREHOUSE", "STATUS", "TOTAL", "ORDERED", "EXPECTED"},
		row: func(p *message.Printer, r erp.PurchaseOrder) []string {
			expected := "-"
			if r.ExpectedAt != nil {
				expected = r.ExpectedAt.Format(time.DateOnly)
			}
			return []string{r.Number, r.Supplier, r.Warehouse, r.Status, p.Sprintf("%.2f %s", r.Total, r.Currency), r.OrderedAt.Format(time.DateOnly), expected}
		},
	},
	erp.ResourceRoles: tableOf[erp.Role]{
		resource: erp.ResourceRoles,
		config:   erp.RoleList,
		headers:  []string{"ID", "NAME", "USERS", "ACTIVE", "PERMISSIONS"},
		row: func(p *message.Printer, r erp.Role) []string {
			return []string{strconv.Itoa(r.ID), r.Name, p.Sprintf("%d", r.UserCount), strconv.FormatBool(r.Active), strings.Join(r.Permissions, ",")}
		},
	},
	erp.ResourceAuditLogs: tableOf[erp.AuditLog]{
		resource: erp.ResourceAuditLogs,
		config:   erp.AuditLogList,
		headers:  []string{"AT", "ACTOR", "ACTION", "RESOURCE", "OUTCOME", "REMOTE"},
		row: func(_ *message.Printer, r erp.AuditLog) []string {
			return []string{r.At.Local().Format(time.DateTime), r.Actor, r.Action, r.Resource, r.Outcome, r.RemoteAddr}
		},
	},
	erp.ResourceTranslations: tableOf[erp.Translation]{
		resource: erp.ResourceTranslations,
		config:   erp.TranslationList,
		headers:  []string{"KEY", "LOCALE", "VALUE"},
		row: func(_ *message.Printer, r erp.Translation) []string {
			return []string{r.Key, r.Locale, r.Value}
		},
	},
	erp.ResourceMenus: tableOf[erp.Menu]{
		resource: erp.ResourceMenus,
		config:   erp.MenuList,
		headers:  []string{"ORDER", "LABEL", "PATH", "VISIBLE"},
		row: func(_ *message.Printer, r erp.Menu) []string {
			label := r.Label
			if r.ParentID != nil {
				label = "  " + label
			}
			return []string{strconv.Itoa(r.Order), label, r.Path, strconv.FormatBool(r.Visible)}
		},
	},
}

// run sets the query on a server-side controller, fetches through a
// dashboard page and prints the result. Filters and sort are applied
// first; a later page is requested once the total is known.
func (t tableOf[R]) run(ctx context.Context, w io.Writer, mgr *session.Manager, f listFlags) error {
	client, err := rest.New[R](cfg.APIURL, t.resource)
	if err != nil {
		return err
	}
	ctrl := list.New(t.config(list.ClampLimit(f.limit), list.ServerSide))
	page := dashboard.NewPage(ctrl, client, mgr, dashboard.WithLogger(logger), dashboard.WithName(t.resource))

	filters, err := parseFilters(f)
	if err != nil {
		return err
	}
	err = page.Interact(ctx, func(c *list.Controller[R]) {
		for _, k := range slices.Sorted(maps.Keys(filters)) {
			c.SetFilter(k, filters[k])
		}
		if f.sort != "" {
			c.SetSort(f.sort)
			if f.desc {
				c.SetSort(f.sort)
			}
		}
	})
	if err != nil {
		return err
	}
	if f.page > 1 {
		if err := page.Interact(ctx, func(c *list.Controller[R]) { c.SetPage(f.page) }); err != nil {
			return err
		}
	}

	view := ctrl.Derive()
	p := message.NewPrinter(language.English)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.headers, "\t"))
	for _, r := range view.Page {
		fmt.Fprintln(tw, strings.Join(t.row(p, r), "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	p.Fprintf(w, "\nPage %d of %d (%d rows)\n", view.CurrentPage, view.TotalPages, view.TotalCount)
	return nil
}

func parseFilters(f listFlags) (map[string]string, error) {
	out := map[string]string{}
	for _, kv := range f.filters {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("filter %q: want key=value", kv)
		}
		out[strings.TrimSpace(k)] = v
	}
	if f.search != "" {
		out[erp.FilterSearch] = f.search
	}
	if f.status != "" {
		out[erp.FilterStatus] = f.status
	}
	return out, nil
}

var listCmd = &cobra.Command{
	Use:       "list <resource>",
	Short:     "Print one page of an ERP list",
	Long:      "Resources: " + strings.Join(erp.Resources, ", "),
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: erp.Resources,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, ok := tables[args[0]]
		if !ok {
			return fmt.Errorf("unknown resource %q", args[0])
		}
		ctx := cmd.Context()
		mgr, closeFn, err := requireSession(ctx, lf.role)
		if err != nil {
			return err
		}
		defer closeFn()
		return t.run(ctx, cmd.OutOrStdout(), mgr, lf)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	fl := listCmd.Flags()
	fl.StringVar(&lf.role, "role", "", "Act as this role instead of the session's active role")
	fl.StringArrayVarP(&lf.filters, "filter", "f", nil, "Filter as key=value (repeatable)")
	fl.StringVarP(&lf.search, "search", "s", "", "Search text")
	fl.StringVar(&lf.status, "status", "", "Status filter; comma separated values match any")
	fl.StringVar(&lf.sort, "sort", "", "Column to sort by")
	fl.BoolVar(&lf.desc, "desc", false, "Sort descending")
	fl.IntVarP(&lf.page, "page", "p", 1, "Page number")
	fl.IntVarP(&lf.limit, "limit", "n", list.DefaultPageSize, "Rows per page")
}
