package exec

import "sql5300/internal/value"

// QueryResult is what Execute returns on success: a human-readable message
// and, for SELECT/SHOW statements, tabular data (spec §7).
type QueryResult struct {
	Message string
	Columns []string
	Rows    []value.Row
}
