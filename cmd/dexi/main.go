package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/dexi-engine/internal/config"
	"github.com/danielpatrickdp/dexi-engine/internal/dexi"
	"github.com/danielpatrickdp/dexi-engine/internal/eval"
	"github.com/danielpatrickdp/dexi-engine/internal/logging"
	"github.com/danielpatrickdp/dexi-engine/internal/runstore"
)

// #region app
// app carries what every subcommand needs once the root has run.
type app struct {
	cfgPath string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "dexi",
		Short: "Evaluate decision alternatives with DEXi qualitative multi-attribute models",
		Long: `dexi loads DEXi (.dxi) models and evaluates alternatives against them,
either with single values or with value distributions under set,
probabilistic or fuzzy semantics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config: %w", err)
			}
			lc := cfg.Logging
			if a.verbose {
				lc.Level = "debug"
			}
			logger, err := logging.New(lc)
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			a.cfg, a.logger = cfg, logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "dexi.yaml", "path to YAML config")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newEvalCmd(a),
		newAttrsCmd(a),
		newReplayCmd(a),
		newServeCmd(a),
		newRunsCmd(a),
		newExportCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
// #endregion app

// #region helpers
func (a *app) loadModel(path string, opts ...eval.Option) (*dexi.Model, *eval.Engine, error) {
	m, err := dexi.Load(path)
	if err != nil {
		return nil, nil, err
	}
	opts = append([]eval.Option{eval.WithLogger(a.logger)}, opts...)
	return m, eval.NewEngine(m.Tree, opts...), nil
}

// openStore opens path, or the configured store when path is empty.
func (a *app) openStore(path string) (*runstore.Store, error) {
	if path == "" {
		path = a.cfg.Store.Path
	}
	if path == "" {
		return nil, fmt.Errorf("no run store configured (use --db or store.path)")
	}
	return runstore.NewStore(path)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
// #endregion helpers
