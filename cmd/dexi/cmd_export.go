package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/dexi-engine/internal/replay"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		db        string
		out       string
		modelName string
		modelFile string
		mode      string
		last      int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write recorded runs as a replay fixture",
		Long: `Export turns successful recorded runs of one model and mode into a replay
fixture whose expected outputs are the recorded ones, so past evaluations
become a regression baseline.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(db)
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.ListByModel(modelName, last)
			if err != nil {
				return err
			}

			f := &replay.Fixture{
				Description: fmt.Sprintf("exported runs of %s", modelName),
				Model:       modelFile,
				Mode:        mode,
			}
			// Stored newest first; fixtures read chronologically.
			for i := len(runs) - 1; i >= 0; i-- {
				r := runs[i]
				if r.Error != "" {
					continue
				}
				if f.Mode == "" {
					f.Mode = r.Mode
				}
				if r.Mode != f.Mode {
					continue
				}
				f.Normalize = r.Normalize
				f.Alternatives = append(f.Alternatives, replay.FixtureAlternative{
					Name:     shortID(r.RunID),
					Inputs:   r.Inputs,
					Expected: r.Outputs,
				})
			}
			if len(f.Alternatives) == 0 {
				return fmt.Errorf("no successful runs of %q to export", modelName)
			}
			if err := f.Save(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d alternatives to %s\n", len(f.Alternatives), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&db, "db", "", "run database (default: store.path)")
	cmd.Flags().StringVar(&out, "out", "", "output fixture JSON path")
	cmd.Flags().StringVar(&modelName, "model", "", "model name as recorded")
	cmd.Flags().StringVar(&modelFile, "model-file", "", "model path written into the fixture")
	cmd.Flags().StringVar(&mode, "mode", "", "only runs of this mode (default: mode of the oldest run)")
	cmd.Flags().IntVar(&last, "last", 50, "consider the N most recent runs")
	_ = cmd.MarkFlagRequired("out")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("model-file")
	return cmd
}
