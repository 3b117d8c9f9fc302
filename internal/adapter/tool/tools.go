package tool

import (
	"context"
	"encoding/json"
	"strings"

	"sql-agent/internal/application/port/output"
	"sql-agent/internal/domain/entity"
)

var (
	_ output.ToolPort = (*TablesTool)(nil)
	_ output.ToolPort = (*SchemaTool)(nil)
	_ output.ToolPort = (*QueryTool)(nil)
)

type TablesTool struct {
	db     output.DatabasePort
	logger output.LoggerPort
}

func NewTablesTool(db output.DatabasePort, logger output.LoggerPort) *TablesTool {
	return &TablesTool{db: db, logger: logger}
}

func (t *TablesTool) Name() entity.ToolName { return entity.ToolSQLTables }
func (t *TablesTool) Description() string   { return "Lists the tables in the database" }
func (t *TablesTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (t *TablesTool) Execute(ctx context.Context, args string) (string, error) {
	tables, err := t.db.Tables(ctx)
	if err != nil {
		return "", err
	}
	if len(tables) == 0 {
		return "No tables found", nil
	}
	return strings.Join(tables, "\n"), nil
}

type SchemaTool struct {
	db     output.DatabasePort
	logger output.LoggerPort
}

func NewSchemaTool(db output.DatabasePort, logger output.LoggerPort) *SchemaTool {
	return &SchemaTool{db: db, logger: logger}
}

func (t *SchemaTool) Name() entity.ToolName { return entity.ToolSQLSchema }
func (t *SchemaTool) Description() string {
	return "Shows CREATE TABLE statements, for one table or for all tables"
}
func (t *SchemaTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"table": map[string]interface{}{
				"type":        "string",
				"description": "Table name; omit for the full schema",
			},
		},
	}
}

func (t *SchemaTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Table string `json:"table"`
	}
	if args != "" {
		if err := json.Unmarshal([]byte(args), &input); err != nil {
			return "", err
		}
	}
	return t.db.Schema(ctx, input.Table)
}

type QueryTool struct {
	db     output.DatabasePort
	logger output.LoggerPort
}

func NewQueryTool(db output.DatabasePort, logger output.LoggerPort) *QueryTool {
	return &QueryTool{db: db, logger: logger}
}

func (t *QueryTool) Name() entity.ToolName { return entity.ToolSQLQuery }
func (t *QueryTool) Description() string {
	return "Executes a SQL query and returns the resulting rows as text"
}
func (t *QueryTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "SQL query to execute",
			},
		},
		"required": []string{"query"},
	}
}

func (t *QueryTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(args), &input); err != nil {
		return "", err
	}
	return t.db.Query(ctx, input.Query)
}
