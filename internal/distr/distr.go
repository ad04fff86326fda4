package distr

import (
	"strconv"
	"strings"
)

// #region access
// Clone returns a deep copy; nil stays nil.
func (d *Distribution) Clone() *Distribution {
	if d == nil {
		return nil
	}
	return NewWeights(d.cumulative, d.weights)
}

// Size is the number of weights. Cumulative is not counted.
func (d *Distribution) Size() int {
	if d == nil {
		return 0
	}
	return len(d.weights)
}

// Cumulative returns the total mass the weights are scaled against.
func (d *Distribution) Cumulative() float64 { return d.cumulative }

// SetCumulative replaces the cumulative without touching the weights.
func (d *Distribution) SetCumulative(c float64) { d.cumulative = c }

// At returns the weight at index i.
func (d *Distribution) At(i int) float64 { return d.weights[i] }

// Set replaces the weight at index i.
func (d *Distribution) Set(i int, w float64) { d.weights[i] = w }

// Weights returns a copy of the weight vector.
func (d *Distribution) Weights() []float64 {
	out := make([]float64, len(d.weights))
	copy(out, d.weights)
	return out
}

// Equal compares weights and cumulative exactly.
func (d *Distribution) Equal(o *Distribution) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d.cumulative != o.cumulative || len(d.weights) != len(o.weights) {
		return false
	}
	for i, w := range d.weights {
		if o.weights[i] != w {
			return false
		}
	}
	return true
}
// #endregion access

// #region fill
// Clear zeroes every weight and the cumulative.
func (d *Distribution) Clear() {
	for i := range d.weights {
		d.weights[i] = 0
	}
	d.cumulative = 0
}

// Fill sets every weight and the cumulative to 1.0: total uncertainty.
func (d *Distribution) Fill() {
	for i := range d.weights {
		d.weights[i] = 1
	}
	d.cumulative = 1
}

// Uniform spreads 1/size over every entry.
func (d *Distribution) Uniform() {
	d.cumulative = 1
	for i := range d.weights {
		d.weights[i] = 1 / float64(len(d.weights))
	}
}

// SetSingle clears the vector and puts 1.0 at index.
func (d *Distribution) SetSingle(index int) {
	d.Clear()
	d.weights[index] = 1
	d.cumulative = 1
}

// Single returns the index of the only non-zero entry.
func (d *Distribution) Single() (int, bool) {
	found := -1
	for i, w := range d.weights {
		if w == 0 {
			continue
		}
		if found >= 0 {
			return -1, false
		}
		found = i
	}
	return found, found >= 0
}

// Count is the number of non-zero entries.
func (d *Distribution) Count() int {
	n := 0
	for _, w := range d.weights {
		if w != 0 {
			n++
		}
	}
	return n
}

// Support lists the indices of non-zero entries in ascending order.
func (d *Distribution) Support() []int {
	var set []int
	for i, w := range d.weights {
		if w != 0 {
			set = append(set, i)
		}
	}
	return set
}

// SetSupport makes the distribution one-hot on every index in set.
// Indices outside the vector are ignored.
func (d *Distribution) SetSupport(set []int) {
	d.Clear()
	d.cumulative = 1
	for _, i := range set {
		if i >= 0 && i < len(d.weights) {
			d.weights[i] = 1
		}
	}
}
// #endregion fill

// #region arithmetic
func (d *Distribution) Sum() float64 {
	s := 0.0
	for _, w := range d.weights {
		s += w
	}
	return s
}

// Max returns the largest weight, 0 for an empty vector.
func (d *Distribution) Max() float64 {
	m := 0.0
	for _, w := range d.weights {
		if w > m {
			m = w
		}
	}
	return m
}

// Average is the mean weight.
func (d *Distribution) Average() float64 {
	if len(d.weights) == 0 {
		return 0
	}
	return d.Sum() / float64(len(d.weights))
}

// AvgIndex is the expected ordinal, sum of i*w_i. Not the same as Average.
func (d *Distribution) AvgIndex() float64 {
	a := 0.0
	for i, w := range d.weights {
		a += float64(i) * w
	}
	return a
}

// SumMul is cumulative * Sum.
func (d *Distribution) SumMul() float64 { return d.cumulative * d.Sum() }

// SumDiv is Sum / cumulative, or 0 when cumulative is 0.
func (d *Distribution) SumDiv() float64 {
	if d.cumulative == 0 {
		return 0
	}
	return d.Sum() / d.cumulative
}

// Add adds o element-wise, cumulative included. Sizes must match.
func (d *Distribution) Add(o *Distribution) {
	d.cumulative += o.cumulative
	for i := range d.weights {
		d.weights[i] += o.weights[i]
	}
}

// AddAt increments one entry by w and the cumulative by cum.
func (d *Distribution) AddAt(index int, w, cum float64) {
	d.weights[index] += w
	d.cumulative += cum
}

// DivBy divides every entry and the cumulative by n. n == 0 clears the
// vector instead of producing NaN.
func (d *Distribution) DivBy(n float64) {
	if n == 0 {
		d.Clear()
		return
	}
	d.cumulative /= n
	for i := range d.weights {
		d.weights[i] /= n
	}
}

// MulBy scales the weights and the cumulative by n.
func (d *Distribution) MulBy(n float64) {
	d.cumulative *= n
	for i := range d.weights {
		d.weights[i] *= n
	}
}
// #endregion arithmetic

// #region normalize
// Normalize divides by n and sets cumulative to 1.0. An n of zero leaves an
// all-zero vector.
func (d *Distribution) Normalize(n float64) {
	d.DivBy(n)
	d.cumulative = 1
}

// NormalizeCumulative divides by the current cumulative.
func (d *Distribution) NormalizeCumulative() { d.Normalize(d.cumulative) }

// NormalizeSum scales the entries to sum to 1.0 (probability semantics).
func (d *Distribution) NormalizeSum() { d.Normalize(d.Sum()) }

// NormalizeMax scales the entries so the largest is 1.0 (fuzzy semantics).
func (d *Distribution) NormalizeMax() { d.Normalize(d.Max()) }

// NormalizeSet turns every non-zero entry into 1.0 (set semantics).
func (d *Distribution) NormalizeSet() {
	d.cumulative = 1
	for i, w := range d.weights {
		if w != 0 {
			d.weights[i] = 1
		}
	}
}

// Increment grows the vector by one zero slot inserted at index 0, shifting
// existing weights up by one ordinal.
func (d *Distribution) Increment() {
	grown := make([]float64, len(d.weights)+1)
	copy(grown[1:], d.weights)
	d.weights = grown
}
// #endregion normalize

// #region format
// String renders the compact index form: "[cum]" when cumulative != 1,
// then "i" or "i/w" for non-zero entries joined by ";".
func (d *Distribution) String() string {
	if d == nil {
		return "<null>"
	}
	return d.render(";", strconv.Itoa, FormatWeight)
}

// Format renders the compact form with scale value names joined by ",".
// Indices beyond names fall back to their number.
func (d *Distribution) Format(names []string) string {
	if d == nil {
		return "<null>"
	}
	return d.render(",", nameLabel(names), FormatWeight)
}

// Encode is Format with every weight at full precision. Parsing the result
// reproduces the vector exactly.
func (d *Distribution) Encode(names []string) string {
	if d == nil {
		return "<null>"
	}
	return d.render(",", nameLabel(names), exactWeight)
}

func nameLabel(names []string) func(int) string {
	return func(i int) string {
		if i < len(names) {
			return names[i]
		}
		return strconv.Itoa(i)
	}
}

func (d *Distribution) render(sep string, label func(int) string, weight func(float64) string) string {
	var sb strings.Builder
	if d.cumulative != 1 {
		sb.WriteString("[" + weight(d.cumulative) + "]")
	}
	first := true
	for i, w := range d.weights {
		if w == 0 {
			continue
		}
		if !first {
			sb.WriteString(sep)
		}
		first = false
		sb.WriteString(label(i))
		if w != 1 {
			sb.WriteString("/" + weight(w))
		}
	}
	return sb.String()
}

// FormatWeight prints w with two decimals and drops trailing zeros:
// 0.5 -> "0.5", 0.25 -> "0.25", 2 -> "2", 1/3 -> "0.33".
func FormatWeight(w float64) string {
	s := strconv.FormatFloat(w, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func exactWeight(w float64) string { return strconv.FormatFloat(w, 'g', -1, 64) }
// #endregion format
