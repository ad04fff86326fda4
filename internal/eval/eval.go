package eval

import (
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/dexi-engine/internal/distr"
	"github.com/danielpatrickdp/dexi-engine/internal/input"
	"github.com/danielpatrickdp/dexi-engine/internal/model"
)

// #region engine
// Engine evaluates a fixed tree. It holds no per-run state, so one engine can
// serve concurrent runs as long as each uses its own RunState.
type Engine struct {
	tree     *model.Tree
	logger   *zap.Logger
	observer Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for debug traces of unresolved subtrees.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver installs an evaluation observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// NewEngine creates an engine over tree.
func NewEngine(tree *model.Tree, opts ...Option) *Engine {
	e := &Engine{tree: tree, logger: zap.NewNop(), observer: nopObserver{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tree returns the evaluated tree.
func (e *Engine) Tree() *model.Tree { return e.tree }

// NewRun returns a fresh RunState for this engine's tree.
func (e *Engine) NewRun() *RunState { return NewRunState(e.tree) }

// Inputs lists basic attribute names in depth-first order.
func (e *Engine) Inputs() []string { return e.tree.Names(e.tree.Basic()) }

// Outputs lists aggregate attribute names in depth-first order.
func (e *Engine) Outputs() []string { return e.tree.Names(e.tree.Aggregate()) }
// #endregion engine

// #region fast
// EvaluateFast computes single values for every attribute from single input
// values. It requires every attribute to be explicit and complete and every
// basic attribute to have a value; the first violation aborts the run.
func (e *Engine) EvaluateFast(rs *RunState) (err error) {
	start := time.Now()
	defer func() { e.observer.ObserveEvaluation(ModeFast, time.Since(start), err) }()

	rs.ClearOutputs()
	for i := 0; i < e.tree.Len(); i++ {
		if err := e.evalFast(rs, model.NodeID(i)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) evalFast(rs *RunState, id model.NodeID) error {
	if rs.values[id] != nil {
		return nil
	}
	n := e.tree.Node(id)
	if !n.Explicit() {
		return model.Errorf(model.KindNotExplicit, n.Name(), "utility function has interval rules")
	}
	if !n.Complete() {
		return model.Errorf(model.KindIncompleteModel, n.Name(), "scale or utility function incomplete")
	}

	if n.IsLeaf() {
		if !n.Linked() {
			return model.Errorf(model.KindMissingInput, n.Name(), "no value assigned")
		}
		if err := e.evalFast(rs, n.Link()); err != nil {
			return err
		}
		v := *rs.values[n.Link()]
		rs.values[id] = &v
		return nil
	}

	ordinals := make([]int, n.NumChildren())
	for i := range ordinals {
		c := n.Child(i)
		if err := e.evalFast(rs, c); err != nil {
			return err
		}
		ordinals[i] = rs.values[c].Ordinal()
	}
	rule, err := e.tree.RowFor(id, ordinals)
	if err != nil {
		return err
	}
	v, ok := n.Scale().ValueByOrdinal(rule.Low())
	if !ok {
		return model.Errorf(model.KindModelStructure, n.Name(), "rule value %d outside scale", rule.Low())
	}
	rs.values[id] = &v
	return nil
}
// #endregion fast

// #region evaluate-attribute
// EvaluateAttribute evaluates one attribute from a "name=value;..." list on
// a private run state. Only the attribute's subtree must be explicit,
// complete and fully assigned.
func (e *Engine) EvaluateAttribute(name, assignments string) (v model.Value, err error) {
	start := time.Now()
	defer func() { e.observer.ObserveEvaluation(ModeFast, time.Since(start), err) }()

	id, ok := e.tree.Find(name)
	if !ok {
		return model.Value{}, model.Errorf(model.KindUnknownAttribute, name, "no such attribute")
	}
	as, err := input.ParseAssignments(assignments)
	if err != nil {
		return model.Value{}, err
	}
	byName := make(map[string]string, len(as))
	for _, a := range as {
		byName[a.Attribute] = a.Value
	}

	rs := e.NewRun()
	if err := e.evalAssigned(rs, id, byName); err != nil {
		return model.Value{}, err
	}
	return *rs.values[id], nil
}

func (e *Engine) evalAssigned(rs *RunState, id model.NodeID, byName map[string]string) error {
	if rs.values[id] != nil {
		return nil
	}
	n := e.tree.Node(id)
	if n.IsLeaf() {
		if raw, ok := byName[n.Name()]; ok {
			if !n.Scale().Defined() {
				return model.Errorf(model.KindIncompleteModel, n.Name(), "attribute has no scale")
			}
			v, err := input.Parse(raw).Resolve(n.Scale())
			if err != nil {
				return withAttribute(err, n.Name())
			}
			rs.values[id] = &v
			return nil
		}
		if n.Linked() {
			if err := e.evalAssigned(rs, n.Link(), byName); err != nil {
				return err
			}
			v := *rs.values[n.Link()]
			rs.values[id] = &v
			return nil
		}
		return model.Errorf(model.KindMissingInput, n.Name(), "no value assigned")
	}

	if !n.Explicit() {
		return model.Errorf(model.KindNotExplicit, n.Name(), "utility function has interval rules")
	}
	if !n.Complete() {
		return model.Errorf(model.KindIncompleteModel, n.Name(), "scale or utility function incomplete")
	}
	for i := 0; i < n.NumChildren(); i++ {
		if err := e.evalAssigned(rs, n.Child(i), byName); err != nil {
			return err
		}
	}
	return e.evalFast(rs, id)
}
// #endregion evaluate-attribute

// #region distribution
// Evaluate propagates distributions through the whole tree under cfg.
// It never fails: subtrees lacking scales, functions or inputs keep a nil
// distribution and are reported to the observer.
func (e *Engine) Evaluate(rs *RunState, cfg Config) {
	start := time.Now()
	agg := cfg.Semantics.Aggregator()
	mode := cfg.Mode()

	for _, id := range e.tree.Basic() {
		e.prepareInput(rs, id, agg, cfg.Normalize)
	}
	rs.ClearOutputs()

	p := &pass{e: e, rs: rs, agg: agg, mode: mode, done: make([]bool, e.tree.Len())}
	for i := 0; i < e.tree.Len(); i++ {
		p.visit(model.NodeID(i))
	}

	for _, id := range e.tree.Aggregate() {
		e.prepareOutput(rs, id, agg, cfg.Normalize)
	}
	e.observer.ObserveEvaluation(mode, time.Since(start), nil)
}

// prepareInput turns a basic attribute's value into a distribution: one-hot
// for a single value, full when nothing is assigned.
func (e *Engine) prepareInput(rs *RunState, id model.NodeID, agg Aggregator, normalize bool) {
	n := e.tree.Node(id)
	if !n.Scale().Defined() {
		rs.values[id] = nil
		rs.distrs[id] = nil
		return
	}
	if rs.distrs[id] == nil {
		if v := rs.values[id]; v != nil {
			rs.distrs[id] = distr.Single(n.ScaleSize(), v.Ordinal())
		} else {
			rs.distrs[id] = distr.Full(n.ScaleSize())
		}
	}
	if normalize {
		agg.Normalize(rs.distrs[id])
	}
}

// prepareOutput normalizes an aggregate's distribution and collapses it to
// a single value when exactly one entry is non-zero.
func (e *Engine) prepareOutput(rs *RunState, id model.NodeID, agg Aggregator, normalize bool) {
	rs.values[id] = nil
	d := rs.distrs[id]
	if d == nil {
		return
	}
	if normalize {
		agg.Normalize(d)
	}
	if ord, ok := d.Single(); ok {
		if v, ok := e.tree.Node(id).Scale().ValueByOrdinal(ord); ok {
			rs.values[id] = &v
		}
	}
}

// pass carries the per-call state of one distribution propagation.
type pass struct {
	e    *Engine
	rs   *RunState
	agg  Aggregator
	mode string
	done []bool
}

func (p *pass) unresolved(n *model.Attribute, reason string) {
	p.e.logger.Debug("attribute unresolved",
		zap.String("attribute", n.Name()),
		zap.String("semantics", p.mode),
		zap.String("reason", reason),
	)
	p.e.observer.ObserveUnresolved(p.mode, n.Name(), reason)
}

func (p *pass) visit(id model.NodeID) {
	if p.done[id] {
		return
	}
	p.done[id] = true
	if p.rs.distrs[id] != nil {
		return
	}

	n := p.e.tree.Node(id)
	switch {
	case !n.IsLeaf():
		if !n.Scale().Defined() || n.Function() == nil {
			p.unresolved(n, "missing scale or utility function")
			return
		}
		for i := 0; i < n.NumChildren(); i++ {
			p.visit(n.Child(i))
		}
		p.propagate(id)
	case n.Linked():
		p.visit(n.Link())
		p.rs.distrs[id] = p.rs.distrs[n.Link()].Clone()
	}
}

// propagate enumerates the cartesian product of the children's supports and
// accumulates each tuple's rule interval into the parent's distribution.
func (p *pass) propagate(id model.NodeID) {
	n := p.e.tree.Node(id)
	k := n.NumChildren()
	supports := make([][]int, k)
	childDistrs := make([]*distr.Distribution, k)
	for i := 0; i < k; i++ {
		d := p.rs.distrs[n.Child(i)]
		if d == nil || d.Count() == 0 {
			p.unresolved(n, "child "+p.e.tree.Node(n.Child(i)).Name()+" has no distribution")
			return
		}
		childDistrs[i] = d
		supports[i] = d.Support()
	}

	out := distr.New(n.ScaleSize())
	pos := make([]int, k)
	tuple := make([]int, k)
	weights := make([]float64, k)
	for {
		for i := range tuple {
			tuple[i] = supports[i][pos[i]]
			weights[i] = childDistrs[i].At(tuple[i])
		}
		rule, err := p.e.tree.RowFor(id, tuple)
		if err != nil {
			p.unresolved(n, err.Error())
			return
		}
		factor := p.agg.Spread(p.agg.Combine(weights), rule)
		for o := rule.Low(); o <= rule.High(); o++ {
			out.Set(o, p.agg.Accumulate(out.At(o), factor))
		}

		// odometer over supports, last child fastest
		i := k - 1
		for ; i >= 0; i-- {
			pos[i]++
			if pos[i] < len(supports[i]) {
				break
			}
			pos[i] = 0
		}
		if i < 0 {
			break
		}
	}
	out.SetCumulative(1)
	p.rs.distrs[id] = out
}
// #endregion distribution
