package upgrade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidate_DefaultTopology(t *testing.T) {
	assert.Empty(t, Validate(DefaultTopology()))
}

func TestValidate_Empty(t *testing.T) {
	errs := Validate(Topology{})
	assert.Equal(t, []string{ErrNoNodes}, codes(errs))
}

func TestValidate_NoRoots(t *testing.T) {
	topo := chain(1, 2)
	topo.Roots = nil

	errs := Validate(topo)
	assert.Contains(t, codes(errs), ErrNoRoots)
	assert.Contains(t, codes(errs), ErrUnreachable)
}

func TestValidate_Roots(t *testing.T) {
	topo := chain(1)
	topo.Roots = []int{0, 0, 3}

	errs := Validate(topo)
	assert.Equal(t, []string{ErrDuplicateRoot, ErrRootOutOfRange}, codes(errs))
}

func TestValidate_DanglingEdge(t *testing.T) {
	topo := chain(1, 2)
	topo.Edges = append(topo.Edges, Edge{From: 1, To: 7})

	errs := Validate(topo)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDanglingEdge, errs[0].Code)
	assert.Equal(t, "edges[1]", errs[0].Field)
}

func TestValidate_SelfLoop(t *testing.T) {
	topo := chain(1, 2)
	topo.Edges = append(topo.Edges, Edge{From: 1, To: 1})

	errs := Validate(topo)
	assert.Equal(t, []string{ErrSelfLoop}, codes(errs))
}

func TestValidate_DuplicateEdge(t *testing.T) {
	topo := chain(1, 2)
	topo.Edges = append(topo.Edges, Edge{From: 0, To: 1})

	errs := Validate(topo)
	assert.Equal(t, []string{ErrDuplicateEdge}, codes(errs))
}

func TestValidate_Cycle(t *testing.T) {
	// 0 → 1 → 2 → 3 → 1
	topo := chain(1, 2, 3, 4)
	topo.Edges = append(topo.Edges, Edge{From: 3, To: 1})

	errs := Validate(topo)
	require.Len(t, errs, 1, "cycle members are not also reported unreachable")
	assert.Equal(t, ErrCycle, errs[0].Code)
	assert.Contains(t, errs[0].Message, "1 → 2 → 3")
}

func TestValidate_RootWithPredecessor(t *testing.T) {
	topo := chain(1, 2)
	topo.Roots = []int{0, 1}

	errs := Validate(topo)
	assert.Contains(t, codes(errs), ErrRootHasPredecessor)
}

func TestValidate_Unreachable(t *testing.T) {
	topo := chain(1, 2)
	topo.Nodes = append(topo.Nodes, NodeSpec{Kind: SpeedBoost, Level: 3, Cost: 3})

	errs := Validate(topo)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnreachable, errs[0].Code)
	assert.Equal(t, "nodes[2]", errs[0].Field)
}

func TestValidate_NodeFields(t *testing.T) {
	topo := Topology{
		Nodes: []NodeSpec{{Kind: Kind(42), Level: 0, Cost: -1}},
		Roots: []int{0},
	}

	errs := Validate(topo)
	assert.Equal(t, []string{ErrUnknownKind, ErrInvalidLevel, ErrNegativeCost}, codes(errs))
}

func TestValidate_CollectsAll(t *testing.T) {
	topo := chain(1, 2)
	topo.Edges = append(topo.Edges, Edge{From: 0, To: 9}, Edge{From: 1, To: 1})
	topo.Nodes[0].Cost = -5

	errs := Validate(topo)
	assert.Len(t, errs, 3)
}

func TestConfigError_Message(t *testing.T) {
	_, err := New(Topology{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid upgrade topology")
	assert.Contains(t, err.Error(), ErrNoNodes)
}

func TestTopologyHash_Stable(t *testing.T) {
	a := DefaultTopology().Hash()
	b := DefaultTopology().Hash()
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	changed := DefaultTopology()
	changed.Nodes[0].Cost++
	assert.NotEqual(t, a, changed.Hash())
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	got, err := ParseKind(" capacityboost ")
	require.NoError(t, err)
	assert.Equal(t, CapacityBoost, got)

	_, err = ParseKind("Teleport")
	assert.Error(t, err)
}

func TestKindLabel(t *testing.T) {
	assert.Equal(t, "CPU Speed x2", SpeedBoost.Label())
	assert.Equal(t, "CPU Multiplier x2", MultiplierBoost.Label())
	assert.Equal(t, "Max Instructions x2", CapacityBoost.Label())
	assert.Equal(t, "Unlock If", UnlockConditional.Label())
}
