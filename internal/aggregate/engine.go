package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"shopetl/pkg/records"
)

// customerAgg accumulates one customer's order count and spend. Totals are
// carried as decimals so the sums do not drift with input order; rounding to
// cents happens once, at presentation.
type customerAgg struct {
	orders int64
	spent  decimal.Decimal
}

func (a *customerAgg) average() decimal.Decimal {
	return a.spent.Div(decimal.NewFromInt(a.orders))
}

// customerTotals groups the cleaned orders by customer in a single pass.
// Customers that placed no orders never appear.
func customerTotals(orders []records.Record) map[string]*customerAgg {
	agg := make(map[string]*customerAgg)
	for _, o := range orders {
		c := o.String("customer")
		a := agg[c]
		if a == nil {
			a = &customerAgg{}
			agg[c] = a
		}
		a.orders++
		total, _ := o.Float("order_total")
		a.spent = a.spent.Add(decimal.NewFromFloat(total))
	}
	return agg
}

// ticketCounts counts tickets per order id. Only tickets whose order
// reference resolved against the cleaned orders are counted; a dangling
// ticket still exists for the issue-type distribution but cannot be pinned
// to an order.
func ticketCounts(tickets []records.Record) map[string]int64 {
	counts := make(map[string]int64, len(tickets))
	for _, t := range tickets {
		if resolved, ok := t["order_resolved"].(bool); ok && resolved {
			counts[t.String("order_id")]++
		}
	}
	return counts
}

type issueShare struct {
	issueType string
	count     int64
	percent   float64
}

// issueShares computes the issue-type distribution over every ticket,
// resolved or not. Percentages are allocated in whole basis points by largest
// remainder, so the column sums to exactly 100.00 for any non-empty ticket
// set instead of drifting with per-row rounding.
func issueShares(tickets []records.Record) []issueShare {
	counts := map[string]int64{}
	for _, t := range tickets {
		counts[t.String("issue_type")]++
	}

	shares := make([]issueShare, 0, len(counts))
	for it, n := range counts {
		shares = append(shares, issueShare{issueType: it, count: n})
	}
	sort.Slice(shares, func(i, j int) bool { return shares[i].issueType < shares[j].issueType })

	total := int64(len(tickets))
	if total == 0 {
		return shares
	}

	bps := make([]int64, len(shares))
	rems := make([]int64, len(shares))
	var allocated int64
	for i, s := range shares {
		raw := s.count * 10000
		bps[i] = raw / total
		rems[i] = raw % total
		allocated += bps[i]
	}

	// Leftover basis points go to the largest fractional remainders; ties
	// break on the already-sorted issue type order for determinism.
	order := make([]int, len(shares))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return rems[order[a]] > rems[order[b]] })
	for i := int64(0); i < 10000-allocated; i++ {
		bps[order[i]]++
	}

	for i := range shares {
		shares[i].percent = float64(bps[i]) / 100
	}
	return shares
}

// cents rounds a decimal to 2dp and returns it as a float64 cell value.
func cents(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
