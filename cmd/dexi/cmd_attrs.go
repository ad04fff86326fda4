package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/dexi-engine/internal/model"
)

func newAttrsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "attrs <model.dxi>",
		Short: "Show a model's attribute tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			m, _, err := a.loadModel(args[0])
			if err != nil {
				return err
			}
			tree := m.Tree

			fmt.Fprintf(out, "Model: %s\n", m.Name)
			for _, line := range m.Description {
				if strings.TrimSpace(line) != "" {
					fmt.Fprintf(out, "  %s\n", line)
				}
			}
			fmt.Fprintln(out)
			for _, root := range tree.Roots() {
				printNode(out, tree, root, 0)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Basic:     %s\n", strings.Join(tree.Names(tree.Basic()), ", "))
			fmt.Fprintf(out, "Aggregate: %s\n", strings.Join(tree.Names(tree.Aggregate()), ", "))
			fmt.Fprintf(out, "Linked:    %s\n", strings.Join(tree.Names(tree.Linked()), ", "))
			fmt.Fprintf(out, "Explicit:  %v\n", tree.Explicit())
			fmt.Fprintf(out, "Complete:  %v\n", tree.Complete())
			return nil
		},
	}
}

func printNode(w io.Writer, tree *model.Tree, id model.NodeID, depth int) {
	n := tree.Node(id)
	line := strings.Repeat("  ", depth) + n.Name()
	if s := n.Scale(); s != nil {
		line += " [" + strings.Join(s.Names(), ", ") + "]"
	}
	if n.Linked() {
		line += " -> " + tree.Node(n.Link()).Name()
	}
	fmt.Fprintln(w, line)
	for _, c := range n.Children() {
		printNode(w, tree, c, depth+1)
	}
}
