package sqlload

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Statement is one generated SQL statement plus its named parameter set.
// The SQL text uses @name placeholders; Bind expands them to the dialect's
// positional form. A Statement is created per record per operation and never
// mutated.
type Statement struct {
	// Table is the destination table, carried for logs and metrics labels.
	Table  string
	SQL    string
	Params map[string]any
}

// Bind rewrites the @name placeholders into the dialect's positional
// placeholders and returns the rewritten SQL with the arguments in placeholder
// order. A placeholder with no matching parameter is an error.
func (s *Statement) Bind(dialect Dialect) (string, []any, error) {
	var b strings.Builder
	b.Grow(len(s.SQL))
	args := make([]any, 0, len(s.Params))

	quote := dialect.quoteRune()
	inQuote := false
	for i := 0; i < len(s.SQL); i++ {
		ch := s.SQL[i]
		if ch == quote {
			inQuote = !inQuote
		}
		if ch != '@' || inQuote {
			b.WriteByte(ch)
			continue
		}
		j := i + 1
		for j < len(s.SQL) && isParamChar(s.SQL[j]) {
			j++
		}
		name := s.SQL[i+1 : j]
		if name == "" {
			b.WriteByte(ch)
			continue
		}
		value, ok := s.Params[name]
		if !ok {
			return "", nil, fmt.Errorf("statement references unbound parameter @%s", name)
		}
		args = append(args, value)
		b.WriteString(dialect.placeholder(len(args)))
		i = j - 1
	}
	return b.String(), args, nil
}

func isParamChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// Where is an optional WHERE override for UPDATE and DELETE builds. The
// clause uses @name placeholders bound through params. Unscoped() is the
// explicit opt-in for a statement with no WHERE clause at all.
type Where struct {
	clause   string
	params   map[string]any
	unscoped bool
}

// WhereClause builds an explicit WHERE override. The clause text is appended
// after "WHERE" verbatim.
func WhereClause(clause string, params map[string]any) *Where {
	return &Where{clause: clause, params: params}
}

// Unscoped opts in to a full-table UPDATE or DELETE. Without it, a build with
// no primary key and no explicit WHERE fails instead of silently producing a
// table-wide statement.
func Unscoped() *Where {
	return &Where{unscoped: true}
}

// Builder generates parameterized statements from records using the mapping
// catalog, falling back to the record's own field set when a table has no
// mapping. Builders never execute SQL.
type Builder struct {
	dialect Dialect
	catalog *Catalog
	logger  zerolog.Logger
}

// NewBuilder creates a statement builder for the dialect. catalog may be nil,
// in which case every build uses the reflective fallback.
func NewBuilder(dialect Dialect, catalog *Catalog, logger zerolog.Logger) *Builder {
	return &Builder{
		dialect: dialect,
		catalog: catalog,
		logger:  logger.With().Str("component", "builder").Logger(),
	}
}

// boundColumn is one resolved column ready for SQL assembly.
type boundColumn struct {
	column string // quoted database column
	param  string // sanitized parameter name
	value  any
}

// resolveColumns maps the record onto the table's columns. With a mapping,
// columns appear in mapping order and the exclude filter applies; without
// one, the record's own fields are used verbatim in record order.
func (b *Builder) resolveColumns(table string, rec *Record, forUpdate bool) ([]boundColumn, error) {
	mapping, ok := b.resolve(table)
	if !ok {
		return b.reflectColumns(rec)
	}

	used := make(map[string]int)
	out := make([]boundColumn, 0, len(mapping.Columns))
	for _, col := range mapping.Columns {
		if forUpdate && col.ExcludeFromUpdate {
			continue
		}
		if !forUpdate && col.ExcludeFromInsert {
			continue
		}
		value, present := rec.Get(col.PropertyName)
		if !present {
			if col.IsAutoIncrement {
				continue
			}
			if col.IsRequired {
				// Reference behavior: drop the column rather than reject the
				// row, leaving NOT NULL enforcement to the database.
				b.logger.Warn().
					Str("table", table).
					Str("column", col.DatabaseColumn).
					Str("property", col.PropertyName).
					Msg("required property absent from record, column omitted")
				continue
			}
			value = nil
		}
		out = append(out, boundColumn{
			column: QuoteIdentifier(b.dialect, col.DatabaseColumn),
			param:  uniqueParamName(used, col.PropertyName),
			value:  value,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: table %s", ErrNoColumns, table)
	}
	return out, nil
}

// reflectColumns enumerates the record's own fields, treating each name as
// both property and column. This path exists so new entity types work before
// a mapping is authored.
func (b *Builder) reflectColumns(rec *Record) ([]boundColumn, error) {
	used := make(map[string]int)
	fields := rec.Fields()
	out := make([]boundColumn, 0, len(fields))
	for _, name := range fields {
		value, _ := rec.Get(name)
		out = append(out, boundColumn{
			column: QuoteIdentifier(b.dialect, name),
			param:  uniqueParamName(used, name),
			value:  value,
		})
	}
	if len(out) == 0 {
		return nil, ErrNoColumns
	}
	return out, nil
}

func (b *Builder) resolve(table string) (*TableMapping, bool) {
	if b.catalog == nil {
		return nil, false
	}
	return b.catalog.Resolve(table)
}

// uniqueParamName sanitizes name and disambiguates collisions, since two
// distinct property names can sanitize to the same identifier.
func uniqueParamName(used map[string]int, name string) string {
	p := SafeParameterName(name)
	n := used[p]
	used[p] = n + 1
	if n > 0 {
		return fmt.Sprintf("%s_%d", p, n+1)
	}
	return p
}

// BuildInsert generates INSERT INTO table (cols...) VALUES (placeholders...).
func (b *Builder) BuildInsert(table string, rec *Record) (*Statement, error) {
	if err := validateInput(table, rec); err != nil {
		return nil, err
	}
	cols, err := b.resolveColumns(table, rec, false)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	params := make(map[string]any, len(cols))
	for i, c := range cols {
		names[i] = c.column
		placeholders[i] = "@" + c.param
		params[c.param] = c.value
	}

	return &Statement{
		Table: table,
		SQL: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, strings.Join(names, ", "), strings.Join(placeholders, ", ")),
		Params: params,
	}, nil
}

// BuildUpdate generates UPDATE table SET col=@p, ... with a WHERE clause
// synthesized from the mapping's primary key unless an explicit override is
// supplied.
func (b *Builder) BuildUpdate(table string, rec *Record, where *Where) (*Statement, error) {
	if err := validateInput(table, rec); err != nil {
		return nil, err
	}
	cols, err := b.resolveColumns(table, rec, true)
	if err != nil {
		return nil, err
	}

	sets := make([]string, len(cols))
	params := make(map[string]any, len(cols)+1)
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = @%s", c.column, c.param)
		params[c.param] = c.value
	}

	clause, err := b.whereFor(table, rec, where, params)
	if err != nil {
		return nil, err
	}

	return &Statement{
		Table:  table,
		SQL:    fmt.Sprintf("UPDATE %s SET %s%s", table, strings.Join(sets, ", "), clause),
		Params: params,
	}, nil
}

// BuildDelete generates DELETE FROM table with the same WHERE-synthesis rule
// as BuildUpdate.
func (b *Builder) BuildDelete(table string, rec *Record, where *Where) (*Statement, error) {
	if err := validateInput(table, rec); err != nil {
		return nil, err
	}

	params := make(map[string]any, 1)
	clause, err := b.whereFor(table, rec, where, params)
	if err != nil {
		return nil, err
	}

	return &Statement{
		Table:  table,
		SQL:    fmt.Sprintf("DELETE FROM %s%s", table, clause),
		Params: params,
	}, nil
}

// BuildTruncate generates TRUNCATE TABLE after the unsafe-name gate. On
// SQLite, which has no TRUNCATE, an unqualified DELETE is emitted instead.
func (b *Builder) BuildTruncate(table string) (*Statement, error) {
	if table == "" {
		return nil, ErrBlankTableName
	}
	if !IsSafeTableName(table) {
		return nil, fmt.Errorf("%w: %q", ErrUnsafeTableName, table)
	}
	sql := "TRUNCATE TABLE " + table
	if b.dialect == DialectSQLite {
		sql = "DELETE FROM " + table
	}
	return &Statement{Table: table, SQL: sql, Params: map[string]any{}}, nil
}

// whereFor resolves the WHERE clause for UPDATE/DELETE: explicit override
// first, then primary-key synthesis, then the Unscoped opt-in. params is
// extended with whatever the chosen clause binds.
func (b *Builder) whereFor(table string, rec *Record, where *Where, params map[string]any) (string, error) {
	if where != nil {
		if where.unscoped {
			return "", nil
		}
		for k, v := range where.params {
			params[SafeParameterName(k)] = v
		}
		return " WHERE " + where.clause, nil
	}

	if mapping, ok := b.resolve(table); ok {
		if pk, ok := mapping.PrimaryKeyColumn(); ok {
			value, _ := rec.Get(pk.PropertyName)
			param := SafeParameterName(pk.PropertyName)
			params[param] = value
			return fmt.Sprintf(" WHERE %s = @%s", QuoteIdentifier(b.dialect, pk.DatabaseColumn), param), nil
		}
	}
	return "", fmt.Errorf("%w: table %s", ErrUnscopedStatement, table)
}

func validateInput(table string, rec *Record) error {
	if table == "" {
		return ErrBlankTableName
	}
	if rec == nil {
		return ErrNilRecord
	}
	return nil
}
