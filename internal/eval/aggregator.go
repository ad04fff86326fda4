package eval

import (
	"math"

	"github.com/danielpatrickdp/dexi-engine/internal/distr"
	"github.com/danielpatrickdp/dexi-engine/internal/model"
)

// #region aggregator
// Aggregator is the per-semantics strategy used by the distribution path.
type Aggregator interface {
	// Combine folds the children's weights at one tuple into a factor.
	Combine(weights []float64) float64
	// Spread adjusts the factor for the rule's interval.
	Spread(factor float64, r model.Rule) float64
	// Accumulate merges factor into the current weight of one parent ordinal.
	Accumulate(current, factor float64) float64
	// Normalize rescales an input or output distribution in place.
	Normalize(d *distr.Distribution)
}

// Aggregator returns the strategy for s. Unknown values fall back to Set.
func (s Semantics) Aggregator() Aggregator {
	switch s {
	case Prob:
		return probAggregator{}
	case Fuzzy:
		return fuzzyAggregator{}
	default:
		return setAggregator{}
	}
}
// #endregion aggregator

// #region set
// setAggregator unions every reachable parent ordinal.
type setAggregator struct{}

func (setAggregator) Combine([]float64) float64 { return 1 }
func (setAggregator) Spread(f float64, _ model.Rule) float64 { return f }
func (setAggregator) Accumulate(_, _ float64) float64 { return 1 }
func (setAggregator) Normalize(d *distr.Distribution) { d.NormalizeSet() }
// #endregion set

// #region prob
// probAggregator multiplies child probabilities and spreads the product
// uniformly over an interval rule.
type probAggregator struct{}

func (probAggregator) Combine(ws []float64) float64 {
	p := 1.0
	for _, w := range ws {
		p *= w
	}
	return p
}

func (probAggregator) Spread(f float64, r model.Rule) float64 {
	if r.Low() < r.High() {
		return f / float64(r.Width())
	}
	return f
}

func (probAggregator) Accumulate(cur, f float64) float64 { return cur + f }
func (probAggregator) Normalize(d *distr.Distribution) { d.NormalizeSum() }
// #endregion prob

// #region fuzzy
// fuzzyAggregator takes the minimum membership per tuple and the maximum per
// parent ordinal. Interval rules are not spread.
type fuzzyAggregator struct{}

func (fuzzyAggregator) Combine(ws []float64) float64 {
	m := 1.0
	for _, w := range ws {
		m = math.Min(m, w)
	}
	return m
}

func (fuzzyAggregator) Spread(f float64, _ model.Rule) float64 { return f }
func (fuzzyAggregator) Accumulate(cur, f float64) float64 { return math.Max(cur, f) }
func (fuzzyAggregator) Normalize(d *distr.Distribution) { d.NormalizeMax() }
// #endregion fuzzy
