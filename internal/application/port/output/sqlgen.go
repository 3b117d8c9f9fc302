package output

import "context"

// SQLGenerator turns a natural language question into SQL. The returned
// slice carries the SQL string first; further elements are free-form
// (the agent appends its raw final answer).
type SQLGenerator interface {
	GetSQL(ctx context.Context, question string) ([]string, error)
}
