package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tickbot/internal/upgrade"
)

// TreeOptions holds flags for the tree command.
type TreeOptions struct {
	*RootOptions
	Config string
}

// TreeNode is one upgrade as printed by the tree command.
type TreeNode struct {
	Index      int    `json:"index"`
	Kind       string `json:"kind"`
	Label      string `json:"label"`
	Level      int    `json:"level"`
	Cost       int64  `json:"cost"`
	Root       bool   `json:"root"`
	Successors []int  `json:"successors"`
}

// TreeResult is the upgrade graph of a config.
type TreeResult struct {
	TopologyHash string     `json:"topology_hash"`
	Roots        []int      `json:"roots"`
	Nodes        []TreeNode `json:"nodes"`
}

// NewTreeCommand creates the tree command.
func NewTreeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TreeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the upgrade graph",
		Long: `Print the upgrade graph a session would start with.

Without --config the shipped tree is printed.

Examples:
  tickbot tree
  tickbot tree --config ./session.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "session config file (default: shipped config)")

	return cmd
}

func runTree(opts *TreeOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr()}

	sc, err := loadSessionConfig(opts.Config)
	if err != nil {
		return formatter.Failure(ExitCommandError, ErrCodeInvalidArgs, err.Error(), nil)
	}
	g, err := upgrade.New(sc.Topology)
	if err != nil {
		return formatter.Failure(ExitFailure, ErrCodeGeneric, err.Error(), nil)
	}

	result := TreeResult{
		TopologyHash: sc.Topology.Hash(),
		Roots:        g.Roots(),
		Nodes:        make([]TreeNode, 0, g.Len()),
	}
	for i := range g.Len() {
		n, _ := g.Node(i)
		result.Nodes = append(result.Nodes, TreeNode{
			Index:      n.Index,
			Kind:       n.Kind.String(),
			Label:      n.Kind.Label(),
			Level:      n.Level,
			Cost:       n.Cost,
			Root:       slices.Contains(result.Roots, i),
			Successors: g.Successors(i),
		})
	}

	if opts.Format == "json" {
		return encodeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
	}
	return outputTreeText(cmd, result)
}

func outputTreeText(cmd *cobra.Command, result TreeResult) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Upgrade tree %s (%d nodes)\n\n", shortHash(result.TopologyHash), len(result.Nodes))
	for _, n := range result.Nodes {
		marker := " "
		if n.Root {
			marker = "*"
		}
		fmt.Fprintf(w, "%s #%-2d %-20s L%d  cost %-5d", marker, n.Index, n.Label, n.Level, n.Cost)
		if len(n.Successors) > 0 {
			succ := make([]string, len(n.Successors))
			for i, s := range n.Successors {
				succ[i] = fmt.Sprintf("#%d", s)
			}
			fmt.Fprintf(w, " -> %s", strings.Join(succ, ", "))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "\n* root")
	return nil
}
