package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/dexi-engine/internal/runstore"
)

type runRow struct {
	RunID      string            `json:"run_id"`
	Model      string            `json:"model"`
	Mode       string            `json:"mode"`
	Normalize  bool              `json:"normalize"`
	Inputs     map[string]string `json:"inputs"`
	Outputs    map[string]string `json:"outputs"`
	Error      string            `json:"error,omitempty"`
	Unresolved []string          `json:"unresolved,omitempty"`
	CreatedAt  string            `json:"created_at"`
}

func newRunsCmd(a *app) *cobra.Command {
	var (
		db        string
		last      int
		modelName string
		id        string
		jsonOut   bool
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded evaluation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(db)
			if err != nil {
				return err
			}
			defer s.Close()

			var runs []runstore.Run
			switch {
			case id != "":
				r, err := s.Get(id)
				if err != nil {
					return err
				}
				runs = []runstore.Run{r}
			case modelName != "":
				runs, err = s.ListByModel(modelName, last)
			default:
				runs, err = s.List(last)
			}
			if err != nil {
				return err
			}

			rows := make([]runRow, len(runs))
			for i, r := range runs {
				entries, err := s.Unresolved(r.RunID)
				if err != nil {
					return err
				}
				row := runRow{
					RunID: r.RunID, Model: r.ModelName, Mode: r.Mode, Normalize: r.Normalize,
					Inputs: r.Inputs, Outputs: r.Outputs, Error: r.Error,
					CreatedAt: r.CreatedAt.Format("2006-01-02T15:04:05Z"),
				}
				for _, e := range entries {
					row.Unresolved = append(row.Unresolved, e.Attribute)
				}
				rows[i] = row
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "no runs found")
				return nil
			}
			printRunTable(out, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&db, "db", "", "run database (default: store.path)")
	cmd.Flags().IntVar(&last, "last", 20, "show N most recent runs")
	cmd.Flags().StringVar(&modelName, "model", "", "only runs of this model")
	cmd.Flags().StringVar(&id, "id", "", "show a single run")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of a table")
	return cmd
}

func printRunTable(w io.Writer, rows []runRow) {
	fmt.Fprintf(w, "%-10s  %-16s  %-6s  %-20s  %s\n", "Run", "Model", "Mode", "Time", "Outputs")
	fmt.Fprintf(w, "%-10s+-%-16s+-%-6s+-%-20s+-%s\n", "----------", "----------------", "------", "--------------------", "--------")
	for _, r := range rows {
		result := renderPairs(r.Outputs)
		if r.Error != "" {
			result = "error: " + r.Error
		}
		fmt.Fprintf(w, "%-10s  %-16s  %-6s  %-20s  %s\n", shortID(r.RunID), r.Model, r.Mode, r.CreatedAt, result)
	}
}

func renderPairs(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + m[k]
	}
	return strings.Join(parts, ";")
}
