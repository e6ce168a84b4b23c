package queryir

// Kind is the value kind of a column.
type Kind int

const (
	KindText Kind = iota
	KindInteger
)

func (k Kind) String() string {
	if k == KindInteger {
		return "integer"
	}
	return "text"
}

// Column is one queryable column.
type Column struct {
	Name string
	Kind Kind
}

// Table describes a journal table: its columns in schema order and the
// columns that give rows a total order.
type Table struct {
	Name    string
	Columns []Column
	OrderBy []string
}

// Column looks up a column by name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the column names in schema order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Journal table names.
const (
	TableSignals = "signals"
	TableRuns    = "runs"
)

// Tables maps table names to their schema. Only these tables may be
// queried.
var Tables = map[string]Table{
	TableSignals: {
		Name: TableSignals,
		Columns: []Column{
			{"journal_id", KindText},
			{"seq", KindInteger},
			{"frame", KindInteger},
			{"type", KindText},
			{"run_id", KindText},
			{"payload", KindText},
		},
		OrderBy: []string{"journal_id", "seq"},
	},
	TableRuns: {
		Name: TableRuns,
		Columns: []Column{
			{"id", KindText},
			{"journal_id", KindText},
			{"started_seq", KindInteger},
			{"program_hash", KindText},
			{"length", KindInteger},
			{"ended_seq", KindInteger},
			{"outcome", KindText},
			{"reason", KindText},
			{"ticks", KindInteger},
		},
		OrderBy: []string{"journal_id", "started_seq"},
	},
}
