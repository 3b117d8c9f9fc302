package entity

type ToolName string

const (
	ToolSQLTables ToolName = "sql_tables"
	ToolSQLSchema ToolName = "sql_schema"
	ToolSQLQuery  ToolName = "sql_query"
)

func (t ToolName) String() string {
	return string(t)
}
