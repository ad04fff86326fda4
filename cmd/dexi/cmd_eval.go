package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/dexi-engine/internal/input"
	"github.com/danielpatrickdp/dexi-engine/internal/logging"
	"github.com/danielpatrickdp/dexi-engine/internal/replay"
	"github.com/danielpatrickdp/dexi-engine/internal/rpc"
	"github.com/danielpatrickdp/dexi-engine/internal/runstore"
)

func newEvalCmd(a *app) *cobra.Command {
	var (
		mode      string
		normalize bool
		attr      string
		store     string
		remote    string
	)
	cmd := &cobra.Command{
		Use:   "eval <model.dxi> <name=value;...>",
		Short: "Evaluate one alternative",
		Long: `Assign the basic attributes from a "name=value;..." list and evaluate.
Values are value names, one-based ordinals, or zero-based ordinals written
with a leading 0. With --attr only that attribute's subtree is evaluated.
With --remote the first argument names a model on a running "dexi serve".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !cmd.Flags().Changed("mode") {
				mode = a.cfg.Engine.Semantics
			}
			if !cmd.Flags().Changed("normalize") {
				normalize = a.cfg.Engine.Normalize
			}
			if remote != "" {
				if attr != "" || store != "" {
					return fmt.Errorf("--attr and --store are not available with --remote")
				}
				return a.evalRemote(cmd.Context(), out, remote, args[0], args[1], mode, normalize)
			}

			m, engine, err := a.loadModel(args[0])
			if err != nil {
				return err
			}
			tree := m.Tree
			printAttributes(out, tree.Names(tree.Basic()), tree.Names(tree.Aggregate()), tree.Names(tree.Linked()))

			if attr != "" {
				v, err := engine.EvaluateAttribute(attr, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Value of %s is %s\n", attr, v.Name())
				return nil
			}

			rm, err := replay.ParseMode(mode, normalize)
			if err != nil {
				return err
			}

			rs := engine.NewRun()
			if err := rs.SetAssignments(args[1]); err != nil {
				return err
			}
			run := runstore.Run{
				ModelName: m.Name,
				Mode:      rm.String(),
				Normalize: rm.Config.Normalize,
				Inputs:    rs.InputMap(),
			}
			a.logger.Info("evaluate", logging.Run(m.Name, run.Mode, len(run.Inputs))...)

			var evalErr error
			if rm.Fast {
				evalErr = engine.EvaluateFast(rs)
			} else {
				engine.Evaluate(rs, rm.Config)
			}
			if evalErr != nil {
				run.Error = evalErr.Error()
			} else {
				run.Outputs = rs.OutputMap()
				fmt.Fprintln(out, "Output values: "+rs.OutputsString())
			}

			if store != "" {
				s, err := a.openStore(store)
				if err != nil {
					return err
				}
				defer s.Close()
				saved, err := s.Save(run)
				if err != nil {
					return err
				}
				a.logger.Debug("run recorded", zap.String("run_id", saved.RunID))
				fmt.Fprintf(out, "Run: %s\n", saved.RunID)
			}
			return evalErr
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "set", "fast, set, prob or fuzzy")
	cmd.Flags().BoolVar(&normalize, "normalize", true, "normalize input and output distributions")
	cmd.Flags().StringVar(&attr, "attr", "", "evaluate only this attribute")
	cmd.Flags().StringVar(&store, "store", "", "record the run in this SQLite database")
	cmd.Flags().StringVar(&remote, "remote", "", "evaluate on the dexi server at this address")
	return cmd
}

func printAttributes(out io.Writer, basic, aggregate, linked []string) {
	fmt.Fprintln(out, "Attributes:")
	fmt.Fprintln(out, "  Basic: "+strings.Join(basic, "\t"))
	fmt.Fprintln(out, "  Aggregate: "+strings.Join(aggregate, "\t"))
	fmt.Fprintln(out, "  Linked: "+strings.Join(linked, "\t"))
}

// evalRemote sends the alternative to a server. The server records the run
// when it has a store.
func (a *app) evalRemote(ctx context.Context, out io.Writer, addr, modelName, assignments, mode string, normalize bool) error {
	as, err := input.ParseAssignments(assignments)
	if err != nil {
		return err
	}
	inputs := make(map[string]string, len(as))
	for _, x := range as {
		inputs[x.Attribute] = x.Value
	}

	c, err := rpc.NewClient(addr)
	if err != nil {
		return err
	}
	defer c.Close()

	d, err := c.Describe(ctx, modelName)
	if err != nil {
		return err
	}
	printAttributes(out, d.Basic, d.Aggregate, d.Linked)

	a.logger.Info("evaluate remote", append(logging.Run(d.Model, mode, len(inputs)), zap.String("addr", addr))...)
	res, err := c.Evaluate(ctx, rpc.EvaluateRequest{Model: d.Model, Mode: mode, Normalize: normalize, Inputs: inputs})
	if err != nil {
		return err
	}
	parts := make([]string, len(d.Aggregate))
	for i, name := range d.Aggregate {
		parts[i] = name + "=" + res.Outputs[name].Distribution
	}
	fmt.Fprintln(out, "Output values: "+strings.Join(parts, ";"))
	if res.RunID != "" {
		fmt.Fprintf(out, "Run: %s\n", res.RunID)
	}
	return nil
}
