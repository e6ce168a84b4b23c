package queryir

import (
	"fmt"
	"slices"
)

// ValidationResult lists the problems found in a query.
type ValidationResult struct {
	Valid    bool
	Problems []string
}

// Validate checks a query against Tables:
//  1. From names a known table
//  2. Every field and column exists in that table
//  3. Equals and In values are strings or integers matching the column kind
//  4. Range applies to integer columns only, with Min <= Max when both are set
//  5. Limit is not negative
//
// Validate is a pure function with no side effects.
func Validate(q Query) ValidationResult {
	v := &validator{}
	v.validateQuery(q)
	return ValidationResult{Valid: len(v.problems) == 0, Problems: v.problems}
}

type validator struct {
	table    Table
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addProblem("nil query")
	case Select:
		v.validateSelect(query)
	case *Select:
		if query == nil {
			v.addProblem("nil query")
			return
		}
		v.validateSelect(*query)
	default:
		v.addProblem("unknown query type %T", q)
	}
}

func (v *validator) validateSelect(s Select) {
	table, ok := Tables[s.From]
	if !ok {
		v.addProblem("unknown table %q", s.From)
		return
	}
	v.table = table

	seen := make(map[string]bool)
	for _, col := range s.Columns {
		if _, ok := table.Column(col); !ok {
			v.addProblem("unknown column %q in %s", col, table.Name)
		}
		if seen[col] {
			v.addProblem("duplicate column %q", col)
		}
		seen[col] = true
	}
	if s.Limit < 0 {
		v.addProblem("negative limit %d", s.Limit)
	}
	if s.Filter != nil {
		v.validatePredicate(s.Filter)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		v.addProblem("nil predicate")
	case Equals:
		if col, ok := v.field(pred.Field); ok {
			v.checkValue(col, pred.Value)
		}
	case In:
		if col, ok := v.field(pred.Field); ok {
			for _, val := range pred.Values {
				v.checkValue(col, val)
			}
		}
	case Range:
		col, ok := v.field(pred.Field)
		if !ok {
			return
		}
		if col.Kind != KindInteger {
			v.addProblem("range on %s column %q", col.Kind, col.Name)
		}
		if pred.Min < 0 || pred.Max < 0 {
			v.addProblem("negative bound on %q", col.Name)
		}
		if pred.Min > 0 && pred.Max > 0 && pred.Min > pred.Max {
			v.addProblem("empty range on %q: %d > %d", col.Name, pred.Min, pred.Max)
		}
	case And:
		for _, inner := range pred.Predicates {
			v.validatePredicate(inner)
		}
	default:
		v.addProblem("unknown predicate type %T", p)
	}
}

func (v *validator) field(name string) (Column, bool) {
	col, ok := v.table.Column(name)
	if !ok {
		v.addProblem("unknown field %q in %s", name, v.table.Name)
	}
	return col, ok
}

func (v *validator) checkValue(col Column, val any) {
	var kind Kind
	switch val.(type) {
	case string:
		kind = KindText
	case int, int64:
		kind = KindInteger
	default:
		v.addProblem("field %q: unsupported value type %T", col.Name, val)
		return
	}
	if kind != col.Kind {
		v.addProblem("field %q is %s, got %s value", col.Name, col.Kind, kind)
	}
}

// Fields returns the distinct field names a predicate references, sorted.
func Fields(p Predicate) []string {
	var out []string
	var walk func(Predicate)
	walk = func(p Predicate) {
		switch pred := p.(type) {
		case Equals:
			out = append(out, pred.Field)
		case In:
			out = append(out, pred.Field)
		case Range:
			out = append(out, pred.Field)
		case And:
			for _, inner := range pred.Predicates {
				walk(inner)
			}
		}
	}
	walk(p)
	slices.Sort(out)
	return slices.Compact(out)
}
