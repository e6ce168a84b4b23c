package upgrade

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/roach88/tickbot/internal/ir"
)

// Node is the runtime state of one upgrade.
type Node struct {
	Index     int   `json:"index"`
	Kind      Kind  `json:"kind"`
	Level     int   `json:"level"`
	Cost      int64 `json:"cost"`
	Purchased bool  `json:"purchased"`
}

func (n Node) String() string {
	return fmt.Sprintf("#%d %s L%d (%d)", n.Index, n.Kind.Label(), n.Level, n.Cost)
}

// Offer is a revealed, unpurchased node with its presentation flag.
// Affordable never feeds back into the graph.
type Offer struct {
	Node       Node `json:"node"`
	Affordable bool `json:"affordable"`
}

// Graph is the upgrade DAG.
//
// Nodes live in an arena addressed by index; successor and predecessor
// lists hold indices only, so no node ever owns another.
//
// INVARIANTS:
//   - A node is revealed iff it is a root or all its predecessors are purchased
//   - A purchased node stays purchased; a revealed node stays revealed
//   - Purchase reveals only direct successors of the bought node
//
// Graph is not safe for concurrent use; the engine mutates it only from the
// frame loop while the session is in the Buying phase.
type Graph struct {
	topology Topology
	nodes    []Node
	succ     [][]int
	pred     [][]int
	roots    []int
	revealed []bool
	order    []int // reveal order, for stable presentation
}

// New builds a graph from a topology.
// Returns *ConfigError if the topology fails Validate.
func New(t Topology) (*Graph, error) {
	if errs := Validate(t); len(errs) > 0 {
		return nil, &ConfigError{Errors: errs}
	}

	n := len(t.Nodes)
	g := &Graph{
		topology: t,
		nodes:    make([]Node, n),
		succ:     make([][]int, n),
		pred:     make([][]int, n),
		roots:    append([]int(nil), t.Roots...),
		revealed: make([]bool, n),
	}
	for i, spec := range t.Nodes {
		g.nodes[i] = Node{Index: i, Kind: spec.Kind, Level: spec.Level, Cost: spec.Cost}
	}
	for _, e := range t.Edges {
		g.succ[e.From] = append(g.succ[e.From], e.To)
		g.pred[e.To] = append(g.pred[e.To], e.From)
	}
	for _, r := range g.roots {
		g.reveal(r)
	}
	return g, nil
}

// Default builds the graph of DefaultTopology.
func Default() *Graph {
	g, err := New(DefaultTopology())
	if err != nil {
		panic(fmt.Sprintf("upgrade: default topology invalid: %v", err))
	}
	return g
}

// Topology returns the seed the graph was built from.
func (g *Graph) Topology() Topology {
	return g.topology
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Node returns the node at index i.
func (g *Graph) Node(i int) (Node, bool) {
	if i < 0 || i >= len(g.nodes) {
		return Node{}, false
	}
	return g.nodes[i], true
}

// Successors returns the direct successors of node i.
func (g *Graph) Successors(i int) []int {
	if i < 0 || i >= len(g.succ) {
		return nil
	}
	return append([]int(nil), g.succ[i]...)
}

// Roots returns the declared roots.
func (g *Graph) Roots() []int {
	return append([]int(nil), g.roots...)
}

// Revealed reports whether node i has been revealed.
func (g *Graph) Revealed(i int) bool {
	return i >= 0 && i < len(g.revealed) && g.revealed[i]
}

// Purchasable reports whether node i is revealed and not yet bought.
func (g *Graph) Purchasable(i int) bool {
	return g.Revealed(i) && !g.nodes[i].Purchased
}

// Offered returns the purchasable nodes in reveal order.
func (g *Graph) Offered() []Node {
	var out []Node
	for _, i := range g.order {
		if !g.nodes[i].Purchased {
			out = append(out, g.nodes[i])
		}
	}
	return out
}

// Offers returns the purchasable nodes with affordability against balance.
// Called whenever the wallet changes; it only computes presentation flags.
func (g *Graph) Offers(balance int64) []Offer {
	offered := g.Offered()
	out := make([]Offer, len(offered))
	for i, n := range offered {
		out[i] = Offer{Node: n, Affordable: balance >= n.Cost}
	}
	return out
}

// Purchase buys node i with money from w.
//
// Rejections (no state change):
//   - UNKNOWN_NODE: i outside the graph
//   - ALREADY_PURCHASED: node bought before
//   - NOT_REVEALED: some predecessor is still unbought
//   - INSUFFICIENT_FUNDS: balance below cost
//
// On success the cost is spent, the node is marked purchased, and the
// newly revealed successors are returned in edge order.
func (g *Graph) Purchase(i int, w *ir.Wallet) (Node, []int, error) {
	node, ok := g.Node(i)
	if !ok {
		return Node{}, nil, ir.Reject(ir.ErrCodeUnknownNode, "purchase",
			"node %d outside graph of %d nodes", i, len(g.nodes))
	}
	if node.Purchased {
		return node, nil, ir.Reject(ir.ErrCodeAlreadyPurchased, "purchase",
			"%s already bought", node).With("node", strconv.Itoa(i))
	}
	if !g.revealed[i] {
		return node, nil, ir.Reject(ir.ErrCodeNotRevealed, "purchase",
			"%s is not offered yet", node).With("node", strconv.Itoa(i))
	}
	if err := w.Spend(node.Cost); err != nil {
		var re *ir.RejectedError
		if errors.As(err, &re) {
			re.With("node", strconv.Itoa(i))
		}
		return node, nil, err
	}

	g.nodes[i].Purchased = true
	slog.Info("upgrade bought", "node", i, "kind", node.Kind.String(), "level", node.Level, "cost", node.Cost, "balance", w.Balance())

	var newly []int
	for _, s := range g.succ[i] {
		if g.nodes[s].Purchased || g.revealed[s] {
			continue
		}
		if g.predecessorsPurchased(s) {
			g.reveal(s)
			newly = append(newly, s)
		}
	}
	if len(newly) > 0 {
		slog.Debug("upgrades revealed", "from", i, "nodes", newly)
	}
	return g.nodes[i], newly, nil
}

func (g *Graph) predecessorsPurchased(i int) bool {
	for _, p := range g.pred[i] {
		if !g.nodes[p].Purchased {
			return false
		}
	}
	return true
}

func (g *Graph) reveal(i int) {
	if g.revealed[i] {
		return
	}
	g.revealed[i] = true
	g.order = append(g.order, i)
}
