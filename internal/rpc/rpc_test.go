package rpc

import (
	"context"
	"fmt"
	"net"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/danielpatrickdp/dexi-engine/internal/dexi"
	"github.com/danielpatrickdp/dexi-engine/internal/eval"
	"github.com/danielpatrickdp/dexi-engine/internal/metrics"
	"github.com/danielpatrickdp/dexi-engine/internal/model"
	"github.com/danielpatrickdp/dexi-engine/internal/runstore"
)

var _ RequestObserver = (*metrics.Metrics)(nil)

// #region harness
func carEngine(t *testing.T) *eval.Engine {
	t.Helper()
	m, err := dexi.Load("../dexi/testdata/car.dxi")
	require.NoError(t, err)
	return eval.NewEngine(m.Tree)
}

// unfinishedEngine has an aggregate without a utility function.
func unfinishedEngine(t *testing.T) *eval.Engine {
	t.Helper()
	tree, err := model.Build([]model.AttributeSpec{{
		Name:     "P",
		Scale:    model.MustScale("x", "y"),
		Children: []model.AttributeSpec{{Name: "A", Scale: model.MustScale("a", "b")}},
	}})
	require.NoError(t, err)
	return eval.NewEngine(tree)
}

// startServer runs srv on an in-memory listener and returns a connected
// client. Everything is torn down via t.Cleanup.
func startServer(t *testing.T, srv *Server) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	g := NewGRPCServer(srv)
	go func() { _ = g.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close()
		g.Stop()
	})
	return NewClientWithConn(conn)
}

func tempStore(t *testing.T) *runstore.Store {
	t.Helper()
	s, err := runstore.NewStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}
// #endregion harness

// #region test-describe
func TestDescribe(t *testing.T) {
	c := startServer(t, NewServer(map[string]*eval.Engine{"car": carEngine(t)}))

	d, err := c.Describe(context.Background(), "car")
	require.NoError(t, err)
	assert.Equal(t, Description{
		Model:     "car",
		Basic:     []string{"PRICE", "FUEL", "CO2"},
		Aggregate: []string{"CAR", "COST", "ECO"},
		Linked:    []string{"FUEL"},
		Explicit:  false,
		Complete:  true,
	}, d)

	d, err = c.Describe(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "car", d.Model, "empty name selects the only model")

	_, err = c.Describe(context.Background(), "boat")
	assert.Equal(t, codes.NotFound, status.Code(err))
}
// #endregion test-describe

// #region test-evaluate
func TestEvaluateRecordsRun(t *testing.T) {
	store := tempStore(t)
	reqs := &requestLog{}
	c := startServer(t, NewServer(
		map[string]*eval.Engine{"car": carEngine(t)},
		WithRecorder(store),
		WithRequestObserver(reqs),
	))

	res, err := c.Evaluate(context.Background(), EvaluateRequest{
		Model:     "car",
		Mode:      "prob",
		Normalize: true,
		Inputs:    map[string]string{"PRICE": "low", "FUEL": "low", "CO2": "low"},
	})
	require.NoError(t, err)

	car := res.Outputs["CAR"]
	assert.Empty(t, car.Value)
	assert.Equal(t, "unacc/0.33,acc/0.33,good/0.33", car.Distribution)
	assert.InDeltaSlice(t, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}, car.Weights, 1e-9)
	assert.Equal(t, Output{Value: "low", Distribution: "low", Weights: []float64{0, 1}}, res.Outputs["COST"])

	require.NotEmpty(t, res.RunID)
	run, err := store.Get(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, "car", run.ModelName)
	assert.Equal(t, "prob", run.Mode)
	assert.Equal(t, map[string]string{"PRICE": "low", "FUEL": "low", "CO2": "low"}, run.Inputs)
	assert.Equal(t, "good", run.Outputs["ECO"])
	assert.Contains(t, run.Outputs["CAR"], "unacc/0.33333333", "stored outputs keep full precision")

	assert.Equal(t, []string{methodEvaluate + " OK"}, reqs.calls)
}

type requestLog struct {
	mu    sync.Mutex
	calls []string
}

func (r *requestLog) ObserveRequest(method, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, method+" "+code)
}

func TestEvaluateFastFailureIsRecorded(t *testing.T) {
	store := tempStore(t)
	c := startServer(t, NewServer(map[string]*eval.Engine{"car": carEngine(t)}, WithRecorder(store)))

	_, err := c.Evaluate(context.Background(), EvaluateRequest{
		Model:  "car",
		Mode:   "fast",
		Inputs: map[string]string{"PRICE": "low", "FUEL": "low", "CO2": "low"},
	})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	runs, err := store.List(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Contains(t, runs[0].Error, "not_explicit")
	assert.Empty(t, runs[0].Outputs)
}

func TestEvaluateUnresolvedIsLogged(t *testing.T) {
	store := tempStore(t)
	c := startServer(t, NewServer(map[string]*eval.Engine{"p": unfinishedEngine(t)},
		WithRecorder(store), WithDefaults(eval.Config{Semantics: eval.Set, Normalize: true})))

	res, err := c.Evaluate(context.Background(), EvaluateRequest{Inputs: map[string]string{"A": "a"}})
	require.NoError(t, err)
	assert.Equal(t, Output{Distribution: "<null>"}, res.Outputs["P"])

	entries, err := store.Unresolved(res.RunID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "P", entries[0].Attribute)

	run, err := store.Get(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, "set", run.Mode, "empty mode uses the server default")
}

func TestEvaluateStatusCodes(t *testing.T) {
	c := startServer(t, NewServer(map[string]*eval.Engine{"car": carEngine(t), "p": unfinishedEngine(t)}))
	ctx := context.Background()

	cases := []struct {
		name string
		req  EvaluateRequest
		code codes.Code
	}{
		{"unknown model", EvaluateRequest{Model: "boat"}, codes.NotFound},
		{"ambiguous model", EvaluateRequest{}, codes.NotFound},
		{"bad mode", EvaluateRequest{Model: "car", Mode: "crisp"}, codes.InvalidArgument},
		{"bad value", EvaluateRequest{Model: "car", Inputs: map[string]string{"PRICE": "free"}}, codes.InvalidArgument},
		{"bad attribute", EvaluateRequest{Model: "car", Inputs: map[string]string{"COLOR": "red"}}, codes.InvalidArgument},
		{"missing input", EvaluateRequest{Model: "p", Mode: "fast"}, codes.FailedPrecondition},
	}
	for _, tc := range cases {
		_, err := c.Evaluate(ctx, tc.req)
		assert.Equal(t, tc.code, status.Code(err), "%s: %v", tc.name, err)
	}
}
// #endregion test-evaluate

// #region test-concurrency
func TestConcurrentRequestsShareTree(t *testing.T) {
	c := startServer(t, NewServer(map[string]*eval.Engine{"car": carEngine(t)}))

	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fuel, want := "low", "good"
			if i%2 == 1 {
				fuel, want = "high", "bad"
			}
			res, err := c.Evaluate(context.Background(), EvaluateRequest{
				Model: "car", Mode: "set", Normalize: true,
				Inputs: map[string]string{"PRICE": "low", "FUEL": fuel, "CO2": "low"},
			})
			if err != nil {
				errs[i] = err
				return
			}
			if got := res.Outputs["ECO"].Value; got != want {
				errs[i] = fmt.Errorf("request %d: ECO = %q, want %q", i, got, want)
			}
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}
}
// #endregion test-concurrency

// #region test-lifecycle
func TestServerLifecycleLeavesNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	lis := bufconn.Listen(1 << 16)
	g := NewGRPCServer(NewServer(map[string]*eval.Engine{"car": carEngine(t)}))
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = g.Serve(lis)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	_, err = NewClientWithConn(conn).Describe(context.Background(), "car")
	require.NoError(t, err)

	require.NoError(t, conn.Close())
	g.GracefulStop()
	<-done
}
// #endregion test-lifecycle
