// Package queryir provides a small query representation for reading the
// run journal.
//
// Trace filters, replay and harness assertions all read the same two
// append-only tables (signals and runs). Rather than assembling SQL
// strings at each call site, callers describe what they want as a
// Select with a predicate tree, and a backend (package querysql)
// compiles it:
//
//	[trace flags] → [Query IR] → [SQL backend]
//
// # Fragment
//
// The IR is deliberately narrow:
//   - Select(from, filter, columns) over a known journal table
//   - Predicates: Equals, In, Range, And
//   - Values are strings or integers only (no floats, no NULL)
//
// There are no joins, aggregations, OR predicates or subqueries. A
// query needing them belongs in the store as hand-written SQL.
//
// # Sealed Interfaces
//
// Query and Predicate are sealed with marker methods, so backends can
// switch exhaustively:
//
//	switch p := pred.(type) {
//	case Equals:
//	case In:
//	case Range:
//	case And:
//	}
//
// # Schema
//
// Tables lists every table and column a query may reference, with the
// column's value kind and the table's ordering key. Field names end up
// in generated SQL, so Validate rejects anything not in Tables before a
// backend sees it.
package queryir
