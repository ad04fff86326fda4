package replay

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/dexi-engine/internal/eval"
)

// #region replay
// Replay evaluates alternatives concurrently, at most limit at a time, each on
// its own RunState. Results keep input order. Evaluation failures are
// reported per result; only context cancellation stops the batch.
func Replay(ctx context.Context, engine *eval.Engine, alts []Alternative, mode Mode, limit int) ([]Result, error) {
	if limit < 1 {
		limit = 1
	}
	results := make([]Result, len(alts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range alts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = evaluate(engine, alts[i], mode)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func evaluate(engine *eval.Engine, alt Alternative, mode Mode) Result {
	res := Result{Name: alt.Name}
	rs := engine.NewRun()

	for _, name := range sortedKeys(alt.Inputs) {
		if err := rs.SetInputRendered(eval.Name(name), alt.Inputs[name]); err != nil {
			res.Status, res.Err = StatusError, err
			return res
		}
	}
	res.Inputs = rs.InputMap()

	if mode.Fast {
		if err := engine.EvaluateFast(rs); err != nil {
			res.Status, res.Err = StatusError, err
			return res
		}
	} else {
		engine.Evaluate(rs, mode.Config)
	}
	res.Outputs = rs.OutputMap()

	res.Status = StatusMatch
	tree := rs.Tree()
	for _, name := range sortedKeys(alt.Expected) {
		want := alt.Expected[name]
		got, ok := res.Outputs[name]
		if !ok {
			got = "<unknown>"
		}
		if got == want {
			continue
		}
		// hand-written fixtures may use the two-decimal display form
		if id, ok := tree.FindIn(name, tree.Aggregate()); ok && rs.Render(id) == want {
			continue
		}
		res.Mismatches = append(res.Mismatches, Mismatch{Attribute: name, Want: want, Got: got})
	}
	if len(res.Mismatches) > 0 {
		res.Status = StatusMismatch
	}
	return res
}

// Summarize computes aggregate counts from replay results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusMatch:
			s.Matches++
		case StatusMismatch:
			s.Mismatches++
		case StatusError:
			s.Errors++
		}
	}
	return s
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
// #endregion replay
