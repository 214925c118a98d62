package query

// Dialect covers the array operations that differ between record stores.
type Dialect interface {
	Name() string
	// ArrayContains returns a condition with one placeholder for the element.
	ArrayContains(column string) string
	// ArrayText renders an array column as searchable text.
	ArrayText(column string) string
}

// DialectFor returns the dialect for a gorm dialector name.
func DialectFor(name string) Dialect {
	if name == "postgres" {
		return Postgres
	}
	return SQLite
}

var (
	Postgres Dialect = postgresDialect{}
	SQLite   Dialect = sqliteDialect{}
)

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) ArrayContains(column string) string {
	return "? = ANY(" + column + ")"
}

func (postgresDialect) ArrayText(column string) string {
	return "array_to_string(" + column + ", ' ')"
}

// sqliteDialect stores arrays in their "{a,b}" literal form.
type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) ArrayContains(column string) string {
	return "instr(',' || trim(" + column + ", '{}') || ',', ',' || ? || ',') > 0"
}

func (sqliteDialect) ArrayText(column string) string {
	return column
}
