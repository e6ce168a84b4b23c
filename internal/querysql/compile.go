package querysql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/tickbot/internal/queryir"
)

// ErrInvalidQuery is wrapped by Compile when a query fails validation.
var ErrInvalidQuery = errors.New("invalid query")

// SQLCompiler compiles queryir queries to parameterized SQL for SQLite.
//
// Every query gets an ORDER BY over the table's order key, with text
// columns collated BINARY, so results are identical across runs and
// SQLite versions. Values are always bound as parameters.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a query to SQL and its parameters.
// The query is validated first; field names come only from
// queryir.Tables.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if result := queryir.Validate(q); !result.Valid {
		return "", nil, fmt.Errorf("%w: %s", ErrInvalidQuery, strings.Join(result.Problems, "; "))
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	table := queryir.Tables[q.From]

	columns := q.Columns
	if len(columns) == 0 {
		columns = table.ColumnNames()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(columns, ", "), table.Name)

	var params []any
	if q.Filter != nil {
		where, whereParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		b.WriteString(" WHERE ")
		b.WriteString(where)
		params = whereParams
	}

	b.WriteString(" ORDER BY ")
	b.WriteString(stableOrderKey(table))

	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		params = append(params, int64(q.Limit))
	}
	return b.String(), params, nil
}

// stableOrderKey renders the table's order key. Text columns use
// COLLATE BINARY.
func stableOrderKey(table queryir.Table) string {
	parts := make([]string, len(table.OrderBy))
	for i, name := range table.OrderBy {
		col, _ := table.Column(name)
		if col.Kind == queryir.KindText {
			parts[i] = name + " COLLATE BINARY ASC"
		} else {
			parts[i] = name + " ASC"
		}
	}
	return strings.Join(parts, ", ")
}

func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return pred.Field + " = ?", []any{toParam(pred.Value)}, nil
	case queryir.In:
		return compileIn(pred)
	case queryir.Range:
		return compileRange(pred)
	case queryir.And:
		return c.compileAnd(pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileIn renders "field IN (?, ...)". An empty list matches nothing.
func compileIn(in queryir.In) (string, []any, error) {
	if len(in.Values) == 0 {
		return "1 = 0", nil, nil
	}
	params := make([]any, len(in.Values))
	for i, v := range in.Values {
		params[i] = toParam(v)
	}
	placeholders := strings.Repeat(", ?", len(in.Values))[2:]
	return fmt.Sprintf("%s IN (%s)", in.Field, placeholders), params, nil
}

func compileRange(r queryir.Range) (string, []any, error) {
	switch {
	case r.Open():
		return "1 = 1", nil, nil
	case r.Max == 0:
		return r.Field + " >= ?", []any{r.Min}, nil
	case r.Min == 0:
		return r.Field + " <= ?", []any{r.Max}, nil
	default:
		return r.Field + " BETWEEN ? AND ?", []any{r.Min, r.Max}, nil
	}
}

func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, predParams, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		if _, nested := pred.(queryir.And); nested && len(and.Predicates) > 1 {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, predParams...)
	}
	return strings.Join(parts, " AND "), params, nil
}

// toParam normalizes integers to int64.
func toParam(v any) any {
	if i, ok := v.(int); ok {
		return int64(i)
	}
	return v
}
