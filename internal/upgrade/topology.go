package upgrade

import "github.com/roach88/tickbot/internal/ir"

// NodeSpec declares one upgrade node of a seed topology.
type NodeSpec struct {
	Kind  Kind  `json:"kind" yaml:"kind"`
	Level int   `json:"level" yaml:"level"`
	Cost  int64 `json:"cost" yaml:"cost"`
}

// Edge declares that buying From can reveal To. Both are node indices.
type Edge struct {
	From int `json:"from" yaml:"from"`
	To   int `json:"to" yaml:"to"`
}

// Topology is the static seed an upgrade graph is built from.
// Node identity is the position in Nodes.
type Topology struct {
	Nodes []NodeSpec `json:"nodes" yaml:"nodes"`
	Edges []Edge     `json:"edges" yaml:"edges"`
	Roots []int      `json:"roots" yaml:"roots"`
}

// Level counts of the default seed.
const (
	capacityLevels = 4
	speedLevels    = 5
)

// DefaultTopology returns the shipped upgrade tree.
//
// Layout (index: kind level cost):
//
//	0-3: CapacityBoost 1..4, cost 10·2^i − 10  (10, 30, 70, 150)
//	4-8: SpeedBoost    1..5, cost 10·3^i       (30, 90, 270, 810, 2430)
//	9:   UnlockConditional 1, cost 100
//
// Root is capacity 1. Speed levels form the spine; each of speed 1..3
// also opens the next capacity level, and speed 2 opens the conditional.
//
// The function has no inputs, so every session gets the same tree.
func DefaultTopology() Topology {
	var t Topology
	caps := make([]int, capacityLevels)
	for i := 1; i <= capacityLevels; i++ {
		caps[i-1] = len(t.Nodes)
		t.Nodes = append(t.Nodes, NodeSpec{Kind: CapacityBoost, Level: i, Cost: 10*pow(2, i) - 10})
	}
	speeds := make([]int, speedLevels)
	for i := 1; i <= speedLevels; i++ {
		speeds[i-1] = len(t.Nodes)
		t.Nodes = append(t.Nodes, NodeSpec{Kind: SpeedBoost, Level: i, Cost: 10 * pow(3, i)})
	}
	unlockIf := len(t.Nodes)
	t.Nodes = append(t.Nodes, NodeSpec{Kind: UnlockConditional, Level: 1, Cost: 100})

	t.Edges = []Edge{
		{caps[0], speeds[0]},
		{speeds[0], speeds[1]},
		{speeds[0], caps[1]},
		{speeds[1], speeds[2]},
		{speeds[1], caps[2]},
		{speeds[1], unlockIf},
		{speeds[2], speeds[3]},
		{speeds[2], caps[3]},
		{speeds[3], speeds[4]},
	}
	t.Roots = []int{caps[0]}
	return t
}

func pow(base, exp int) int64 {
	out := int64(1)
	for i := 0; i < exp; i++ {
		out *= int64(base)
	}
	return out
}

// Hash returns a content hash of the topology.
// Journaled runs record it so runs under different trees are never mixed.
func (t Topology) Hash() string {
	nodes := make([]any, len(t.Nodes))
	for i, n := range t.Nodes {
		nodes[i] = map[string]any{"kind": n.Kind.String(), "level": n.Level, "cost": n.Cost}
	}
	edges := make([]any, len(t.Edges))
	for i, e := range t.Edges {
		edges[i] = []any{e.From, e.To}
	}
	roots := make([]any, len(t.Roots))
	for i, r := range t.Roots {
		roots[i] = r
	}
	h, err := ir.ContentHash(ir.DomainTopology, map[string]any{
		"nodes": nodes,
		"edges": edges,
		"roots": roots,
	})
	if err != nil {
		// Only ints and strings are marshaled above.
		panic(err)
	}
	return h
}
