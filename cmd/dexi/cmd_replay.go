package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/dexi-engine/internal/replay"
	"github.com/danielpatrickdp/dexi-engine/internal/runstore"
)

func newReplayCmd(a *app) *cobra.Command {
	var (
		concurrency int
		store       string
	)
	cmd := &cobra.Command{
		Use:   "replay <fixture.json>",
		Short: "Evaluate a fixture's alternatives and compare with expected outputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			f, err := replay.LoadFixture(args[0])
			if err != nil {
				return err
			}
			m, engine, err := a.loadModel(f.ModelPath(args[0]))
			if err != nil {
				return err
			}
			mode, err := f.ReplayMode()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("concurrency") {
				concurrency = a.cfg.Replay.Concurrency
			}

			fmt.Fprintf(out, "Replaying %d alternatives (%s, mode=%s)\n", len(f.Alternatives), f.Description, mode)
			results, err := replay.Replay(cmd.Context(), engine, f.ToAlternatives(), mode, concurrency)
			if err != nil {
				return err
			}

			for _, r := range results {
				switch r.Status {
				case replay.StatusError:
					fmt.Fprintf(out, "  %-20s ERROR    %v\n", r.Name, r.Err)
				case replay.StatusMismatch:
					fmt.Fprintf(out, "  %-20s MISMATCH\n", r.Name)
					for _, mm := range r.Mismatches {
						fmt.Fprintf(out, "      %s: want %s, got %s\n", mm.Attribute, mm.Want, mm.Got)
					}
				default:
					fmt.Fprintf(out, "  %-20s ok\n", r.Name)
				}
			}

			if store != "" {
				if err := recordResults(a, store, m.Name, mode, results); err != nil {
					return err
				}
			}

			s := replay.Summarize(results)
			fmt.Fprintf(out, "\n%d total, %d match, %d mismatch, %d error\n", s.Total, s.Matches, s.Mismatches, s.Errors)
			if !s.OK() {
				return fmt.Errorf("replay failed: %d mismatches, %d errors", s.Mismatches, s.Errors)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "alternatives evaluated in parallel")
	cmd.Flags().StringVar(&store, "store", "", "record every evaluated alternative in this SQLite database")
	return cmd
}

func recordResults(a *app, path, modelName string, mode replay.Mode, results []replay.Result) error {
	s, err := a.openStore(path)
	if err != nil {
		return err
	}
	defer s.Close()
	for _, r := range results {
		run := runstore.Run{
			ModelName: modelName,
			Mode:      mode.String(),
			Normalize: mode.Config.Normalize,
			Inputs:    r.Inputs,
			Outputs:   r.Outputs,
		}
		if r.Err != nil {
			run.Error = r.Err.Error()
		}
		saved, err := s.Save(run)
		if err != nil {
			return err
		}
		a.logger.Debug("run recorded", zap.String("alternative", r.Name), zap.String("run_id", saved.RunID))
	}
	return nil
}
