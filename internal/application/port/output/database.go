package output

import "context"

type DatabasePort interface {
	Query(ctx context.Context, query string) (string, error)
	Schema(ctx context.Context, table string) (string, error)
	Tables(ctx context.Context) ([]string, error)
}
