// Package aggregate turns cleaned tables into the five analytics reports.
// All monetary math runs on decimals; every report has a deterministic row
// order so repeated runs over the same cleaned data are byte-identical.
package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"shopetl/internal/entity"
	"shopetl/pkg/records"
)

// BuildReports materializes every report from the cleaned tables. It requires
// the orders and support_tickets tables to be present and at least one
// cleaned order; the ticket table may be empty (ticket counts all read zero
// and the analytics table has no rows).
func BuildReports(tables map[string][]records.Record) ([]Table, error) {
	orders, ok := tables[entity.Orders]
	if !ok {
		return nil, &MissingTableError{Table: entity.Orders}
	}
	if len(orders) == 0 {
		return nil, &NoOrdersError{}
	}
	tickets, ok := tables[entity.SupportTickets]
	if !ok {
		return nil, &MissingTableError{Table: entity.SupportTickets}
	}

	byCustomer := customerTotals(orders)
	byOrder := ticketCounts(tickets)

	sorted := make([]records.Record, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].String("id") < sorted[j].String("id")
	})

	return []Table{
		averageOrderValue(byCustomer),
		ticketsPerOrder(sorted, byOrder),
		restaurantSummary(sorted, byOrder, byCustomer),
		ticketAnalytics(issueShares(tickets)),
		overallMetrics(orders),
	}, nil
}

func averageOrderValue(byCustomer map[string]*customerAgg) Table {
	customers := make([]string, 0, len(byCustomer))
	for c := range byCustomer {
		customers = append(customers, c)
	}
	sort.Strings(customers)

	rows := make([][]any, 0, len(customers))
	for _, c := range customers {
		a := byCustomer[c]
		rows = append(rows, []any{c, a.orders, cents(a.spent), cents(a.average())})
	}
	return Table{
		Name:    ReportAverageOrderValue,
		Columns: []string{"customer", "total_orders", "total_spent", "average_order_value"},
		Rows:    rows,
	}
}

func ticketsPerOrder(orders []records.Record, byOrder map[string]int64) Table {
	rows := make([][]any, 0, len(orders))
	for _, o := range orders {
		total, _ := o.Float("order_total")
		at, _ := o.Time("ordered_at")
		rows = append(rows, []any{
			o.String("id"),
			o.String("customer"),
			cents(decimal.NewFromFloat(total)),
			byOrder[o.String("id")],
			at,
		})
	}
	return Table{
		Name:    ReportTicketsPerOrder,
		Columns: []string{"order_id", "customer", "order_total", "ticket_count", "ordered_at"},
		Rows:    rows,
	}
}

func restaurantSummary(orders []records.Record, byOrder map[string]int64, byCustomer map[string]*customerAgg) Table {
	rows := make([][]any, 0, len(orders))
	for _, o := range orders {
		total, _ := o.Float("order_total")
		at, _ := o.Time("ordered_at")
		avg := byCustomer[o.String("customer")].average()
		rows = append(rows, []any{
			o.String("id"),
			o.String("customer"),
			cents(decimal.NewFromFloat(total)),
			at,
			byOrder[o.String("id")],
			cents(avg),
		})
	}
	return Table{
		Name:    ReportRestaurantSummary,
		Columns: []string{"order_id", "customer", "order_total", "ordered_at", "ticket_count", "avg_order_value"},
		Rows:    rows,
	}
}

func ticketAnalytics(shares []issueShare) Table {
	rows := make([][]any, 0, len(shares))
	for _, s := range shares {
		rows = append(rows, []any{s.issueType, s.count, s.percent})
	}
	return Table{
		Name:    ReportTicketAnalytics,
		Columns: []string{"issue_type", "ticket_count", "percentage"},
		Rows:    rows,
	}
}

func overallMetrics(orders []records.Record) Table {
	var revenue decimal.Decimal
	for _, o := range orders {
		total, _ := o.Float("order_total")
		revenue = revenue.Add(decimal.NewFromFloat(total))
	}
	n := int64(len(orders))
	aov := revenue.Div(decimal.NewFromInt(n))
	return Table{
		Name:    ReportOverallMetrics,
		Columns: []string{"metric", "value", "total_revenue", "total_orders"},
		Rows:    [][]any{{"Overall AOV", cents(aov), cents(revenue), n}},
	}
}
