package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhere(t *testing.T) {
	eq := Equals{Field: "journal_id", Value: "j-1"}
	in := In{Field: "type", Values: []any{"run_started"}}

	tests := []struct {
		name  string
		preds []Predicate
		want  Predicate
	}{
		{"nothing", nil, nil},
		{"only nils", []Predicate{nil, nil}, nil},
		{"open range dropped", []Predicate{Range{Field: "seq"}}, nil},
		{"single predicate unwrapped", []Predicate{nil, eq}, eq},
		{"several become And", []Predicate{eq, Range{Field: "seq"}, in}, And{Predicates: []Predicate{eq, in}}},
		{"bounded range kept", []Predicate{Range{Field: "seq", Min: 3}}, Range{Field: "seq", Min: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Where(tt.preds...))
		})
	}
}

func TestRange_Open(t *testing.T) {
	assert.True(t, Range{Field: "seq"}.Open())
	assert.False(t, Range{Field: "seq", Min: 1}.Open())
	assert.False(t, Range{Field: "seq", Max: 1}.Open())
}

func TestTables_OrderKeysAreColumns(t *testing.T) {
	for name, table := range Tables {
		assert.Equal(t, name, table.Name)
		assert.NotEmpty(t, table.OrderBy, "table %s has no order key", name)
		for _, col := range table.OrderBy {
			_, ok := table.Column(col)
			assert.True(t, ok, "order column %s.%s not in schema", name, col)
		}
	}
}

func TestTable_ColumnNames(t *testing.T) {
	assert.Equal(t,
		[]string{"journal_id", "seq", "frame", "type", "run_id", "payload"},
		Tables[TableSignals].ColumnNames())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "text", KindText.String())
	assert.Equal(t, "integer", KindInteger.String())
}
