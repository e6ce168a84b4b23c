package upgrade

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validation error codes (E200-E299)
const (
	ErrNoNodes            = "E201" // topology declares no nodes
	ErrNoRoots            = "E202" // topology declares no roots
	ErrRootOutOfRange     = "E203" // root index outside nodes
	ErrDuplicateRoot      = "E204" // root listed twice
	ErrDanglingEdge       = "E205" // edge endpoint outside nodes
	ErrSelfLoop           = "E206" // edge from a node to itself
	ErrDuplicateEdge      = "E207" // same edge declared twice
	ErrCycle              = "E208" // nodes form a cycle
	ErrRootHasPredecessor = "E209" // root is also an edge target
	ErrUnreachable        = "E210" // node can never be revealed
	ErrNegativeCost       = "E211" // cost below zero
	ErrUnknownKind        = "E212" // kind not declared
	ErrInvalidLevel       = "E213" // level below one
)

// ValidationError describes one problem in a seed topology.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ConfigError is returned when a topology cannot be turned into a graph.
// It is fatal at construction: the graph invariants cannot be repaired
// silently.
type ConfigError struct {
	Errors []ValidationError
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return "invalid upgrade topology: " + strings.Join(msgs, "; ")
}

// IsConfigError returns true if err is a topology configuration error.
// Uses errors.As to handle wrapped errors.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// Validate checks a topology and returns every problem found (does not
// fail fast). An empty result means New will succeed.
func Validate(t Topology) []ValidationError {
	var errs []ValidationError
	n := len(t.Nodes)

	if n == 0 {
		errs = append(errs, ValidationError{
			Field:   "nodes",
			Message: "at least one upgrade node is required",
			Code:    ErrNoNodes,
		})
	}

	for i, node := range t.Nodes {
		if !node.Kind.Valid() {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("nodes[%d].kind", i),
				Message: fmt.Sprintf("unknown kind %d", int(node.Kind)),
				Code:    ErrUnknownKind,
			})
		}
		if node.Level < 1 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("nodes[%d].level", i),
				Message: fmt.Sprintf("level must be at least 1, got %d", node.Level),
				Code:    ErrInvalidLevel,
			})
		}
		if node.Cost < 0 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("nodes[%d].cost", i),
				Message: fmt.Sprintf("cost must not be negative, got %d", node.Cost),
				Code:    ErrNegativeCost,
			})
		}
	}

	if len(t.Roots) == 0 && n > 0 {
		errs = append(errs, ValidationError{
			Field:   "roots",
			Message: "at least one root is required",
			Code:    ErrNoRoots,
		})
	}
	isRoot := make([]bool, n)
	for i, r := range t.Roots {
		if r < 0 || r >= n {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("roots[%d]", i),
				Message: fmt.Sprintf("root %d is outside nodes [0,%d)", r, n),
				Code:    ErrRootOutOfRange,
			})
			continue
		}
		if isRoot[r] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("roots[%d]", i),
				Message: fmt.Sprintf("root %d listed more than once", r),
				Code:    ErrDuplicateRoot,
			})
		}
		isRoot[r] = true
	}

	// Only well-formed edges feed the structural checks below.
	adj := make([][]int, n)
	seen := make(map[Edge]bool)
	for i, e := range t.Edges {
		field := fmt.Sprintf("edges[%d]", i)
		switch {
		case e.From < 0 || e.From >= n || e.To < 0 || e.To >= n:
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("edge %d → %d references a node outside [0,%d)", e.From, e.To, n),
				Code:    ErrDanglingEdge,
			})
			continue
		case e.From == e.To:
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("node %d depends on itself", e.From),
				Code:    ErrSelfLoop,
			})
			continue
		case seen[e]:
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("edge %d → %d declared more than once", e.From, e.To),
				Code:    ErrDuplicateEdge,
			})
			continue
		}
		seen[e] = true
		adj[e.From] = append(adj[e.From], e.To)
		if isRoot[e.To] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("root %d cannot have a predecessor (%d)", e.To, e.From),
				Code:    ErrRootHasPredecessor,
			})
		}
	}

	cyclic := make([]bool, n)
	for _, scc := range stronglyConnected(adj) {
		if len(scc) < 2 {
			continue
		}
		for _, v := range scc {
			cyclic[v] = true
		}
		errs = append(errs, ValidationError{
			Field:   "edges",
			Message: fmt.Sprintf("cycle between nodes %s", joinInts(scc, " → ")),
			Code:    ErrCycle,
		})
	}

	for _, v := range unreachable(adj, isRoot) {
		if cyclic[v] {
			continue // already reported as part of a cycle
		}
		errs = append(errs, ValidationError{
			Field:   fmt.Sprintf("nodes[%d]", v),
			Message: fmt.Sprintf("node %d can never be revealed from the roots", v),
			Code:    ErrUnreachable,
		})
	}

	return errs
}

// unreachable returns the nodes that can never become visible.
//
// Visibility needs every predecessor bought, so this is Kahn's algorithm
// seeded with the roots: a node is released once all its in-edges come
// from released nodes.
func unreachable(adj [][]int, isRoot []bool) []int {
	n := len(adj)
	indegree := make([]int, n)
	for _, succ := range adj {
		for _, w := range succ {
			indegree[w]++
		}
	}

	released := make([]bool, n)
	var queue []int
	for v := 0; v < n; v++ {
		if isRoot[v] && indegree[v] == 0 {
			released[v] = true
			queue = append(queue, v)
		}
	}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range adj[v] {
			indegree[w]--
			if indegree[w] == 0 && !released[w] {
				released[w] = true
				queue = append(queue, w)
			}
		}
	}

	var out []int
	for v := 0; v < n; v++ {
		if !released[v] {
			out = append(out, v)
		}
	}
	return out
}

// stronglyConnected finds strongly connected components using Tarjan's
// algorithm. Nodes are visited in index order so results are reproducible.
// Each component is returned sorted ascending.
func stronglyConnected(adj [][]int) [][]int {
	var (
		index   = 0
		stack   []int
		indices = make([]int, len(adj))
		lowlink = make([]int, len(adj))
		onStack = make([]bool, len(adj))
		sccs    [][]int
	)
	for i := range indices {
		indices[i] = -1
	}

	var strongConnect func(int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adj[v] {
			if indices[w] < 0 {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	for v := range adj {
		if indices[v] < 0 {
			strongConnect(v)
		}
	}
	return sccs
}

func joinInts(xs []int, sep string) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, sep)
}
