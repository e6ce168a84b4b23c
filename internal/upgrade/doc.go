// Package upgrade implements the purchasable upgrade graph.
//
// The graph is a DAG of upgrade nodes stored in an arena and addressed by
// stable integer index. An edge A → B means "buying A can reveal B". A node
// is offered when it is a declared root, or when every one of its
// predecessors has been purchased. A purchased node is never offered again
// and a revealed node is never hidden.
//
// Construction is pure: New validates a Topology (dangling edges, cycles,
// unreachable nodes, bad costs) and returns a *ConfigError if the seed
// cannot be used. DefaultTopology is the shipped seed and always validates.
//
// Effects of a purchase on interpreter parameters, program capacity and the
// unlock set live in Apply, so the engine can run them in response to the
// purchase signal.
package upgrade
