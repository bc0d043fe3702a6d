package ddl

import "time"

// ColumnDef describes a single column in a table definition produced or
// consumed by ddl. It intentionally uses simple, database-agnostic fields.
//
// Fields:
//   - Name: logical column name (unquoted; quoting/escaping happens at render time)
//   - SQLType: target SQL type (e.g., TEXT, BIGINT, TIMESTAMPTZ)
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key (not used by all generators)
//   - Default: raw default expression (e.g., 'anon', CURRENT_TIMESTAMP)
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef holds the fully-qualified table name (FQN) and an ordered list of
// columns. The FQN is expected in dotted form (e.g., "schema.table") and will
// be quoted/escaped by renderers as needed.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Kind is the backend-agnostic column type inferred from report cell values.
// Backends map Kind to their dialect's SQL type.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
)

// KindOf infers the Kind of one cell value. Unknown types fall back to text.
func KindOf(v any) Kind {
	switch v.(type) {
	case int, int64:
		return KindInt
	case float64:
		return KindFloat
	case bool:
		return KindBool
	case time.Time:
		return KindTime
	default:
		return KindText
	}
}

// InferKinds determines one Kind per column by scanning rows for the first
// non-nil value in each position. Columns that are nil in every row come back
// as KindText.
func InferKinds(columns []string, rows [][]any) []Kind {
	kinds := make([]Kind, len(columns))
	decided := make([]bool, len(columns))
	remaining := len(columns)

	for _, row := range rows {
		if remaining == 0 {
			break
		}
		for i := range columns {
			if decided[i] || i >= len(row) || row[i] == nil {
				continue
			}
			kinds[i] = KindOf(row[i])
			decided[i] = true
			remaining--
		}
	}
	return kinds
}
