package queryir

// Query is a read over one journal table.
//
// Sealed: only types in this package implement it.
type Query interface {
	queryNode()
}

// Predicate is a row filter.
//
// Sealed: only types in this package implement it.
//
// Predicate types:
//   - Equals: field = value
//   - In: field IN (values...)
//   - Range: min <= field <= max, either bound optional
//   - And: all predicates must hold
type Predicate interface {
	predicateNode()
}

// Select reads rows of From matching Filter.
//
//	Select{
//	  From: "signals",
//	  Filter: And{Predicates: []Predicate{
//	    Equals{Field: "journal_id", Value: "j-1"},
//	    In{Field: "type", Values: []any{"run_started", "run_completed"}},
//	  }},
//	}
//
// compiles to
//
//	SELECT journal_id, seq, ... FROM signals
//	WHERE journal_id = ? AND type IN (?, ?)
//	ORDER BY journal_id COLLATE BINARY ASC, seq ASC
//
// Columns selects a subset of the table's columns; empty means all of
// them in schema order. Limit caps the row count when positive.
type Select struct {
	From    string
	Filter  Predicate // nil = no filter
	Columns []string
	Limit   int
}

func (Select) queryNode() {}

// Equals matches rows whose Field equals Value.
// Value must be a string or an integer.
type Equals struct {
	Field string
	Value any
}

func (Equals) predicateNode() {}

// In matches rows whose Field equals any of Values.
// An empty Values list matches nothing.
type In struct {
	Field  string
	Values []any
}

func (In) predicateNode() {}

// Range matches rows whose integer Field lies in [Min, Max].
// A zero bound is open: Range{Field: "seq", Min: 10} is seq >= 10.
type Range struct {
	Field string
	Min   int64
	Max   int64
}

func (Range) predicateNode() {}

// Open reports whether neither bound is set.
func (r Range) Open() bool {
	return r.Min == 0 && r.Max == 0
}

// And matches rows satisfying every predicate.
// An empty And matches everything.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Where combines predicates into a filter, dropping nils and open
// ranges. It returns nil when nothing is left, a lone predicate as
// itself, and an And otherwise.
func Where(preds ...Predicate) Predicate {
	var kept []Predicate
	for _, p := range preds {
		switch v := p.(type) {
		case nil:
			continue
		case Range:
			if v.Open() {
				continue
			}
		}
		kept = append(kept, p)
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}
