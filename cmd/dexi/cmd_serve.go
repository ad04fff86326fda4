package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/dexi-engine/internal/eval"
	"github.com/danielpatrickdp/dexi-engine/internal/metrics"
	"github.com/danielpatrickdp/dexi-engine/internal/rpc"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		models  map[string]string
		noStore bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve loaded models over gRPC with Prometheus metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for name, path := range models {
				a.cfg.Server.Models[name] = path
			}
			if len(a.cfg.Server.Models) == 0 {
				return fmt.Errorf("no models configured (use --model name=path or server.models)")
			}

			m := metrics.New()
			engines := make(map[string]*eval.Engine, len(a.cfg.Server.Models))
			for name, path := range a.cfg.Server.Models {
				_, engine, err := a.loadModel(path, eval.WithObserver(m))
				if err != nil {
					return fmt.Errorf("model %s: %w", name, err)
				}
				engines[name] = engine
				a.logger.Info("model loaded", zap.String("model", name), zap.String("path", path))
			}

			opts := []rpc.ServerOption{
				rpc.WithServerLogger(a.logger),
				rpc.WithRequestObserver(m),
				rpc.WithDefaults(a.cfg.EvalConfig()),
			}
			if !noStore && a.cfg.Store.Path != "" {
				store, err := a.openStore("")
				if err != nil {
					return err
				}
				defer store.Close()
				opts = append(opts, rpc.WithRecorder(store))
			}
			g := rpc.NewGRPCServer(rpc.NewServer(engines, opts...))

			lis, err := net.Listen("tcp", a.cfg.Server.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", a.cfg.Server.Addr, err)
			}
			mux := http.NewServeMux()
			mux.Handle("/metrics", m.Handler())
			httpSrv := &http.Server{Addr: a.cfg.Server.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			eg, ctx := errgroup.WithContext(ctx)

			eg.Go(func() error {
				a.logger.Info("grpc listening", zap.String("addr", lis.Addr().String()))
				return g.Serve(lis)
			})
			eg.Go(func() error {
				a.logger.Info("metrics listening", zap.String("addr", httpSrv.Addr))
				if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			eg.Go(func() error {
				<-ctx.Done()
				a.logger.Info("shutting down")
				g.GracefulStop()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return httpSrv.Shutdown(shutdownCtx)
			})
			return eg.Wait()
		},
	}
	cmd.Flags().StringToStringVar(&models, "model", nil, "model to serve as name=path (repeatable)")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "do not record runs")
	return cmd
}
