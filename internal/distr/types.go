package distr

// #region distribution
// Distribution is a fixed-length vector of non-negative weights over a scale,
// plus a cumulative scalar whose meaning depends on the caller. A
// distribution produced by evaluation always has cumulative 1.0.
type Distribution struct {
	weights    []float64
	cumulative float64
}

// New returns a cleared distribution of the given size.
func New(size int) *Distribution {
	return &Distribution{weights: make([]float64, size)}
}

// NewWeights copies weights into a new distribution with the given cumulative.
func NewWeights(cumulative float64, weights []float64) *Distribution {
	d := &Distribution{weights: make([]float64, len(weights)), cumulative: cumulative}
	copy(d.weights, weights)
	return d
}

// Single returns a one-hot distribution of the given size at index.
func Single(size, index int) *Distribution {
	d := New(size)
	d.SetSingle(index)
	return d
}

// Full returns a distribution of the given size with every weight at 1.0.
func Full(size int) *Distribution {
	d := New(size)
	d.Fill()
	return d
}
// #endregion distribution
