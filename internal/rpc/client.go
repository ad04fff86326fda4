package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region client-struct
// Client wraps a gRPC connection to a dexi.v1.Evaluator server.
type Client struct {
	conn grpc.ClientConnInterface
	own  *grpc.ClientConn // closed by Close when the client dialed it
}
// #endregion client-struct

// #region constructor
// NewClient connects to an evaluation server.
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, own: conn}, nil
}

// NewClientWithConn uses an existing connection. Close leaves it open.
func NewClientWithConn(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Close shuts down a connection opened by NewClient.
func (c *Client) Close() error {
	if c.own == nil {
		return nil
	}
	return c.own.Close()
}
// #endregion constructor

// #region evaluate
// Evaluate sends one alternative to the server.
func (c *Client) Evaluate(ctx context.Context, req EvaluateRequest) (EvaluateResult, error) {
	in, err := encodeEvaluateRequest(req)
	if err != nil {
		return EvaluateResult{}, fmt.Errorf("encode request: %w", err)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, methodEvaluate, in, out); err != nil {
		return EvaluateResult{}, fmt.Errorf("evaluate rpc: %w", err)
	}
	return decodeEvaluateResult(out), nil
}
// #endregion evaluate

// #region describe
// Describe lists a model's attributes and its explicit/complete flags.
func (c *Client) Describe(ctx context.Context, modelName string) (Description, error) {
	in, err := structpb.NewStruct(map[string]any{"model": modelName})
	if err != nil {
		return Description{}, fmt.Errorf("encode request: %w", err)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, methodDescribe, in, out); err != nil {
		return Description{}, fmt.Errorf("describe rpc: %w", err)
	}
	return decodeDescription(out), nil
}
// #endregion describe
