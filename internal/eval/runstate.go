package eval

import (
	"errors"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/dexi-engine/internal/distr"
	"github.com/danielpatrickdp/dexi-engine/internal/input"
	"github.com/danielpatrickdp/dexi-engine/internal/model"
)

// #region run-state
// RunState holds the mutable values and distributions of one evaluation run,
// indexed by NodeID. The tree itself is never written, so any number of run
// states can share one tree.
type RunState struct {
	tree   *model.Tree
	values []*model.Value
	distrs []*distr.Distribution
}

// NewRunState returns an empty run state for tree.
func NewRunState(tree *model.Tree) *RunState {
	return &RunState{
		tree:   tree,
		values: make([]*model.Value, tree.Len()),
		distrs: make([]*distr.Distribution, tree.Len()),
	}
}

// Tree returns the tree this state belongs to.
func (rs *RunState) Tree() *model.Tree { return rs.tree }

// Value returns the single value of any node, if set.
func (rs *RunState) Value(id model.NodeID) (model.Value, bool) {
	if v := rs.values[id]; v != nil {
		return *v, true
	}
	return model.Value{}, false
}

// Distribution returns a copy of the distribution of any node, or nil.
func (rs *RunState) Distribution(id model.NodeID) *distr.Distribution {
	return rs.distrs[id].Clone()
}

func (rs *RunState) clear(ids []model.NodeID) {
	for _, id := range ids {
		rs.values[id] = nil
		rs.distrs[id] = nil
	}
}

// ClearInputs resets every basic attribute.
func (rs *RunState) ClearInputs() { rs.clear(rs.tree.Basic()) }

// ClearOutputs resets every aggregate and linked attribute.
func (rs *RunState) ClearOutputs() {
	rs.clear(rs.tree.Aggregate())
	rs.clear(rs.tree.Linked())
}
// #endregion run-state

// #region lookup
func (rs *RunState) resolve(ref Ref, list []model.NodeID) (model.NodeID, error) {
	if ref.byIndex {
		if ref.index < 0 || ref.index >= len(list) {
			return model.NoNode, model.Errorf(model.KindUnknownAttribute, "",
				"index %d outside %d attributes", ref.index, len(list))
		}
		return list[ref.index], nil
	}
	if id, ok := rs.tree.FindIn(ref.name, list); ok {
		return id, nil
	}
	return model.NoNode, model.Errorf(model.KindUnknownAttribute, ref.name, "no such attribute")
}

func (rs *RunState) inputID(ref Ref) (model.NodeID, error) {
	return rs.resolve(ref, rs.tree.Basic())
}

// outputID searches aggregate attributes first, then linked and basic ones
// when addressed by name.
func (rs *RunState) outputID(ref Ref) (model.NodeID, error) {
	id, err := rs.resolve(ref, rs.tree.Aggregate())
	if err == nil || ref.byIndex {
		return id, err
	}
	if id, ok := rs.tree.FindIn(ref.name, rs.tree.Linked()); ok {
		return id, nil
	}
	if id, ok := rs.tree.FindIn(ref.name, rs.tree.Basic()); ok {
		return id, nil
	}
	return model.NoNode, err
}

func (rs *RunState) scaleOf(id model.NodeID) (*model.Scale, error) {
	n := rs.tree.Node(id)
	if !n.Scale().Defined() {
		return nil, model.Errorf(model.KindUnknownValue, n.Name(), "attribute has no scale")
	}
	return n.Scale(), nil
}

func withAttribute(err error, name string) error {
	var me *model.Error
	if errors.As(err, &me) && me.Attribute == "" {
		me.Attribute = name
	}
	return err
}
// #endregion lookup

// #region inputs
func (rs *RunState) setValue(id model.NodeID, v model.Value) {
	rs.values[id] = &v
	rs.distrs[id] = nil
}

// SetInput assigns a value by its scale name.
func (rs *RunState) SetInput(ref Ref, valueName string) error {
	id, err := rs.inputID(ref)
	if err != nil {
		return err
	}
	scale, err := rs.scaleOf(id)
	if err != nil {
		return err
	}
	v, ok := scale.ValueByName(valueName)
	if !ok {
		return model.Errorf(model.KindUnknownValue, rs.tree.Node(id).Name(), "unknown value name %q", valueName)
	}
	rs.setValue(id, v)
	return nil
}

// SetInputOrdinal assigns a value by its zero-based ordinal.
func (rs *RunState) SetInputOrdinal(ref Ref, ordinal int) error {
	id, err := rs.inputID(ref)
	if err != nil {
		return err
	}
	scale, err := rs.scaleOf(id)
	if err != nil {
		return err
	}
	v, ok := scale.ValueByOrdinal(ordinal)
	if !ok {
		return model.Errorf(model.KindUnknownValue, rs.tree.Node(id).Name(),
			"ordinal %d outside scale of size %d", ordinal, scale.Size())
	}
	rs.setValue(id, v)
	return nil
}

// SetInputSmart assigns a value from a name, a one-based ordinal, or a
// zero-based ordinal written with a leading "0".
func (rs *RunState) SetInputSmart(ref Ref, raw string) error {
	id, err := rs.inputID(ref)
	if err != nil {
		return err
	}
	scale, err := rs.scaleOf(id)
	if err != nil {
		return err
	}
	v, err := input.Parse(raw).Resolve(scale)
	if err != nil {
		return withAttribute(err, rs.tree.Node(id).Name())
	}
	rs.setValue(id, v)
	return nil
}

// SetInputDistribution assigns a copy of d. Its size must match the scale.
func (rs *RunState) SetInputDistribution(ref Ref, d *distr.Distribution) error {
	id, err := rs.inputID(ref)
	if err != nil {
		return err
	}
	scale, err := rs.scaleOf(id)
	if err != nil {
		return err
	}
	if d.Size() != scale.Size() {
		return model.Errorf(model.KindUnknownValue, rs.tree.Node(id).Name(),
			"distribution of size %d for scale of size %d", d.Size(), scale.Size())
	}
	rs.values[id] = nil
	rs.distrs[id] = d.Clone()
	return nil
}

// SetInputWeights assigns a distribution with cumulative 1.0.
func (rs *RunState) SetInputWeights(ref Ref, weights []float64) error {
	return rs.SetInputDistribution(ref, distr.NewWeights(1, weights))
}

// SetInputWeight sets the weight of one value, starting from an empty
// distribution if none is assigned yet.
func (rs *RunState) SetInputWeight(ref Ref, raw string, weight float64) error {
	id, err := rs.inputID(ref)
	if err != nil {
		return err
	}
	scale, err := rs.scaleOf(id)
	if err != nil {
		return err
	}
	v, err := input.Parse(raw).Resolve(scale)
	if err != nil {
		return withAttribute(err, rs.tree.Node(id).Name())
	}
	if rs.distrs[id] == nil {
		rs.distrs[id] = distr.New(scale.Size())
		rs.distrs[id].SetCumulative(1)
	}
	rs.values[id] = nil
	rs.distrs[id].Set(v.Ordinal(), weight)
	return nil
}

// SetInputRendered accepts what Render and Encode produce: "<null>" clears
// the input, a list such as "[0.5]low,high/0.5" assigns a distribution
// (cumulative and weights default to 1), and anything else is smart-parsed.
func (rs *RunState) SetInputRendered(ref Ref, raw string) error {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "<null>":
		id, err := rs.inputID(ref)
		if err != nil {
			return err
		}
		rs.values[id] = nil
		rs.distrs[id] = nil
		return nil
	case !strings.ContainsAny(raw, ",/["):
		return rs.SetInputSmart(ref, raw)
	}

	id, err := rs.inputID(ref)
	if err != nil {
		return err
	}
	scale, err := rs.scaleOf(id)
	if err != nil {
		return err
	}
	name := rs.tree.Node(id).Name()
	d := distr.New(scale.Size())
	d.SetCumulative(1)
	if strings.HasPrefix(raw, "[") {
		end := strings.Index(raw, "]")
		if end < 0 {
			return model.Errorf(model.KindUnknownValue, name, "unterminated cumulative in %q", raw)
		}
		c, err := strconv.ParseFloat(raw[1:end], 64)
		if err != nil {
			return model.Errorf(model.KindUnknownValue, name, "bad cumulative in %q", raw)
		}
		d.SetCumulative(c)
		raw = raw[end+1:]
	}
	var entries []string
	if strings.TrimSpace(raw) != "" {
		entries = strings.Split(raw, ",")
	}
	for _, entry := range entries {
		value, weight := strings.TrimSpace(entry), 1.0
		if i := strings.LastIndex(value, "/"); i >= 0 {
			w, err := strconv.ParseFloat(strings.TrimSpace(value[i+1:]), 64)
			if err != nil {
				return model.Errorf(model.KindUnknownValue, name, "bad weight in %q", entry)
			}
			value, weight = strings.TrimSpace(value[:i]), w
		}
		v, err := input.Parse(value).Resolve(scale)
		if err != nil {
			return withAttribute(err, name)
		}
		d.Set(v.Ordinal(), weight)
	}
	rs.values[id] = nil
	rs.distrs[id] = d
	return nil
}

// SetInputs smart-assigns one raw value per basic attribute, in order.
func (rs *RunState) SetInputs(raw []string) error {
	basic := rs.tree.Basic()
	if len(raw) != len(basic) {
		return model.Errorf(model.KindUnknownAttribute, "",
			"got %d values for %d basic attributes", len(raw), len(basic))
	}
	for i, r := range raw {
		if err := rs.SetInputSmart(Index(i), r); err != nil {
			return err
		}
	}
	return nil
}

// SetInputOrdinals assigns one zero-based ordinal per basic attribute.
func (rs *RunState) SetInputOrdinals(ordinals []int) error {
	basic := rs.tree.Basic()
	if len(ordinals) != len(basic) {
		return model.Errorf(model.KindUnknownAttribute, "",
			"got %d ordinals for %d basic attributes", len(ordinals), len(basic))
	}
	for i, o := range ordinals {
		if err := rs.SetInputOrdinal(Index(i), o); err != nil {
			return err
		}
	}
	return nil
}

// SetAssignments applies a "name=value;..." list with smart parsing.
func (rs *RunState) SetAssignments(list string) error {
	as, err := input.ParseAssignments(list)
	if err != nil {
		return err
	}
	for _, a := range as {
		if err := rs.SetInputSmart(Name(a.Attribute), a.Value); err != nil {
			return err
		}
	}
	return nil
}

// Input returns the single value assigned to a basic attribute.
func (rs *RunState) Input(ref Ref) (model.Value, bool) {
	id, err := rs.inputID(ref)
	if err != nil {
		return model.Value{}, false
	}
	return rs.Value(id)
}
// #endregion inputs

// #region outputs
// Output returns the single value of an output attribute, if any.
func (rs *RunState) Output(ref Ref) (model.Value, bool) {
	id, err := rs.outputID(ref)
	if err != nil {
		return model.Value{}, false
	}
	return rs.Value(id)
}

// OutputDistribution returns a copy of an output's distribution, or nil.
func (rs *RunState) OutputDistribution(ref Ref) *distr.Distribution {
	id, err := rs.outputID(ref)
	if err != nil {
		return nil
	}
	return rs.Distribution(id)
}

// Render formats one node's result: its value name, else its distribution
// in compact form with value names, else "<null>".
func (rs *RunState) Render(id model.NodeID) string {
	if v, ok := rs.Value(id); ok {
		return v.Name()
	}
	if d := rs.distrs[id]; d != nil {
		return d.Format(rs.tree.Node(id).Scale().Names())
	}
	return "<null>"
}

// Encode formats like Render but keeps full-precision weights.
// SetInputRendered reads it back to the identical assignment.
func (rs *RunState) Encode(id model.NodeID) string {
	if v, ok := rs.Value(id); ok {
		return v.Name()
	}
	if d := rs.distrs[id]; d != nil {
		return d.Encode(rs.tree.Node(id).Scale().Names())
	}
	return "<null>"
}

// OutputsString renders "name=result" for every aggregate attribute,
// joined by ";".
func (rs *RunState) OutputsString() string {
	agg := rs.tree.Aggregate()
	parts := make([]string, len(agg))
	for i, id := range agg {
		parts[i] = rs.tree.Node(id).Name() + "=" + rs.Render(id)
	}
	return strings.Join(parts, ";")
}

// OutputMap maps every aggregate attribute name to its encoded result.
func (rs *RunState) OutputMap() map[string]string { return rs.renderMap(rs.tree.Aggregate()) }

// InputMap maps every basic attribute name to its encoded assignment.
// Unassigned inputs render as "<null>".
func (rs *RunState) InputMap() map[string]string { return rs.renderMap(rs.tree.Basic()) }

func (rs *RunState) renderMap(ids []model.NodeID) map[string]string {
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		out[rs.tree.Node(id).Name()] = rs.Encode(id)
	}
	return out
}
// #endregion outputs
