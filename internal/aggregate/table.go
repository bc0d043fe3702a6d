package aggregate

// Table is a materialized report: named, with ordered columns and rows ready
// for any sink. Cell values are string, int64, float64, bool or time.Time.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// Report table names. Sinks use these as table or file names.
const (
	ReportAverageOrderValue = "average_order_value"
	ReportTicketsPerOrder   = "tickets_per_order"
	ReportRestaurantSummary = "restaurant_summary"
	ReportTicketAnalytics   = "ticket_analytics"
	ReportOverallMetrics    = "overall_metrics"
)
