package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region types
// EvaluateRequest asks the server to evaluate one alternative. Inputs use
// the rendered form accepted by RunState.SetInputRendered.
type EvaluateRequest struct {
	Model     string
	Mode      string // fast, set, prob, fuzzy; empty uses the server default
	Normalize bool
	Inputs    map[string]string
}

// Output is one aggregate attribute's result.
type Output struct {
	Value        string // empty when no single value resulted
	Distribution string // compact rendering, "<null>" when unresolved
	Weights      []float64
}

// EvaluateResult holds the response from an Evaluate RPC call.
type EvaluateResult struct {
	RunID   string // empty when the server does not record runs
	Outputs map[string]Output
}

// Description holds the response from a Describe RPC call.
type Description struct {
	Model     string
	Basic     []string
	Aggregate []string
	Linked    []string
	Explicit  bool
	Complete  bool
}
// #endregion types

// #region service-desc
const (
	serviceName    = "dexi.v1.Evaluator"
	methodEvaluate = "/" + serviceName + "/Evaluate"
	methodDescribe = "/" + serviceName + "/Describe"
)

// EvaluatorServer is the server side of dexi.v1.Evaluator. Messages are
// google.protobuf.Struct in both directions.
type EvaluatorServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Describe(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*EvaluatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: evaluateHandler},
		{MethodName: "Describe", Handler: describeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dexi/v1/evaluator.proto",
}

// RegisterEvaluatorServer registers srv on s.
func RegisterEvaluatorServer(s grpc.ServiceRegistrar, srv EvaluatorServer) {
	s.RegisterService(&serviceDesc, srv)
}

func evaluateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EvaluatorServer).Evaluate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodEvaluate}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EvaluatorServer).Evaluate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func describeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EvaluatorServer).Describe(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodDescribe}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EvaluatorServer).Describe(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
// #endregion service-desc
