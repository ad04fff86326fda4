package rpc

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/dexi-engine/internal/eval"
	"github.com/danielpatrickdp/dexi-engine/internal/logging"
	"github.com/danielpatrickdp/dexi-engine/internal/model"
	"github.com/danielpatrickdp/dexi-engine/internal/replay"
	"github.com/danielpatrickdp/dexi-engine/internal/runstore"
)

// Recorder persists evaluation runs. *runstore.Store satisfies it.
type Recorder interface {
	Save(run runstore.Run) (runstore.Run, error)
	LogUnresolved(entry runstore.UnresolvedEntry) error
}

// RequestObserver counts finished RPCs. *metrics.Metrics satisfies it.
type RequestObserver interface {
	ObserveRequest(method, code string)
}

// #region server-struct
// Server implements EvaluatorServer over a fixed set of loaded models. Each
// request evaluates on a fresh RunState, so the shared trees are only read.
type Server struct {
	engines  map[string]*eval.Engine
	defaults eval.Config
	recorder Recorder
	requests RequestObserver
	logger   *zap.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithRecorder stores every evaluated run.
func WithRecorder(r Recorder) ServerOption { return func(s *Server) { s.recorder = r } }

// WithRequestObserver counts RPCs by method and status code.
func WithRequestObserver(o RequestObserver) ServerOption {
	return func(s *Server) { s.requests = o }
}

// WithServerLogger sets the logger. The default is zap.NewNop().
func WithServerLogger(l *zap.Logger) ServerOption { return func(s *Server) { s.logger = l } }

// WithDefaults sets the evaluation used when a request names no mode.
func WithDefaults(cfg eval.Config) ServerOption { return func(s *Server) { s.defaults = cfg } }

// NewServer serves the given engines by model name.
func NewServer(engines map[string]*eval.Engine, opts ...ServerOption) *Server {
	s := &Server{
		engines:  engines,
		defaults: eval.DefaultConfig(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewGRPCServer returns a grpc.Server with s registered and request
// logging and counting installed.
func NewGRPCServer(s *Server, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.UnaryInterceptor(s.intercept))
	g := grpc.NewServer(opts...)
	RegisterEvaluatorServer(g, s)
	return g
}

func (s *Server) intercept(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	code := status.Code(err)
	if s.requests != nil {
		s.requests.ObserveRequest(info.FullMethod, code.String())
	}
	s.logger.Info("rpc",
		zap.String("method", info.FullMethod),
		zap.String("code", code.String()),
		zap.Duration("elapsed", time.Since(start)))
	return resp, err
}
// #endregion server-struct

// #region evaluate
func (s *Server) Evaluate(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeEvaluateRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	name, engine, err := s.engine(req.Model)
	if err != nil {
		return nil, err
	}
	mode := replay.Mode{Config: s.defaults}
	if req.Mode != "" {
		if mode, err = replay.ParseMode(req.Mode, req.Normalize); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
	}

	rs := engine.NewRun()
	names := make([]string, 0, len(req.Inputs))
	for n := range req.Inputs {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if err := rs.SetInputRendered(eval.Name(n), req.Inputs[n]); err != nil {
			return nil, toStatus(err)
		}
	}
	run := runstore.Run{
		ModelName: name,
		Mode:      mode.String(),
		Normalize: mode.Config.Normalize,
		Inputs:    rs.InputMap(),
	}
	s.logger.Info("evaluate", logging.Run(name, run.Mode, len(req.Inputs))...)

	if mode.Fast {
		if err := engine.EvaluateFast(rs); err != nil {
			run.Error = err.Error()
			s.record(run, nil)
			return nil, toStatus(err)
		}
	} else {
		engine.Evaluate(rs, mode.Config)
	}
	run.Outputs = rs.OutputMap()

	res := EvaluateResult{Outputs: make(map[string]Output, len(run.Outputs))}
	var unresolved []string
	tree := engine.Tree()
	for _, id := range tree.Aggregate() {
		out := tree.Node(id).Name()
		o := Output{Distribution: rs.Render(id)}
		if v, ok := rs.Value(id); ok {
			o.Value = v.Name()
		}
		if d := rs.Distribution(id); d != nil {
			o.Weights = d.Weights()
		} else if o.Value == "" {
			unresolved = append(unresolved, out)
		}
		res.Outputs[out] = o
	}
	res.RunID = s.record(run, unresolved)

	resp, err := encodeEvaluateResult(res)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

// record saves the run when a recorder is configured and returns its ID.
// Storage failures are logged, not returned.
func (s *Server) record(run runstore.Run, unresolved []string) string {
	if s.recorder == nil {
		return ""
	}
	saved, err := s.recorder.Save(run)
	if err != nil {
		s.logger.Warn("record run failed", zap.Error(err))
		return ""
	}
	for _, attr := range unresolved {
		err := s.recorder.LogUnresolved(runstore.UnresolvedEntry{
			RunID:     saved.RunID,
			Attribute: attr,
			Reason:    "no distribution",
		})
		if err != nil {
			s.logger.Warn("log unresolved failed", zap.String("attribute", attr), zap.Error(err))
		}
	}
	return saved.RunID
}
// #endregion evaluate

// #region describe
func (s *Server) Describe(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	name, engine, err := s.engine(stringField(in, "model"))
	if err != nil {
		return nil, err
	}
	tree := engine.Tree()
	resp, err := encodeDescription(Description{
		Model:     name,
		Basic:     tree.Names(tree.Basic()),
		Aggregate: tree.Names(tree.Aggregate()),
		Linked:    tree.Names(tree.Linked()),
		Explicit:  tree.Explicit(),
		Complete:  tree.Complete(),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}
// #endregion describe

// #region helpers
// engine finds a model by name. An empty name selects the only model when
// exactly one is loaded.
func (s *Server) engine(name string) (string, *eval.Engine, error) {
	if name == "" && len(s.engines) == 1 {
		for n, e := range s.engines {
			return n, e, nil
		}
	}
	e, ok := s.engines[name]
	if !ok {
		return "", nil, status.Errorf(codes.NotFound, "unknown model %q", name)
	}
	return name, e, nil
}

func toStatus(err error) error {
	var me *model.Error
	if !errors.As(err, &me) {
		return status.Error(codes.Internal, err.Error())
	}
	switch me.Kind {
	case model.KindUnknownAttribute, model.KindUnknownValue, model.KindInvalidRule:
		return status.Error(codes.InvalidArgument, err.Error())
	case model.KindMissingInput, model.KindNotExplicit, model.KindIncompleteModel:
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
// #endregion helpers
