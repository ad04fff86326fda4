package model

// #region node-id
// NodeID addresses an attribute in a Tree's arena. IDs follow depth-first
// pre-order, so a parent always has a smaller ID than its descendants.
type NodeID int

// NoNode marks an absent parent or link.
const NoNode NodeID = -1
// #endregion node-id

// #region attribute-spec
// AttributeSpec is the loader-facing description of one attribute and its
// subtree. Build turns a forest of specs into an immutable Tree.
type AttributeSpec struct {
	Name        string
	Description string
	Scale       *Scale         // nil: undefined scale
	Function    *FunctionTable // nil: no utility function
	Children    []AttributeSpec
}
// #endregion attribute-spec

// #region attribute
// Attribute is one node of a Tree. It is read-only once the tree is built.
type Attribute struct {
	id          NodeID
	name        string
	description string
	scale       *Scale
	function    *FunctionTable
	children    []NodeID
	parent      NodeID
	link        NodeID
	complete    bool
	explicit    bool
}

// ID is the node's pre-order index in its tree.
func (a *Attribute) ID() NodeID { return a.id }

// Name returns the attribute name. Names need not be unique.
func (a *Attribute) Name() string { return a.name }

// Description returns the free-text description, possibly empty.
func (a *Attribute) Description() string { return a.description }

// Scale returns the value scale, or nil when none is defined.
func (a *Attribute) Scale() *Scale { return a.scale }

// Function returns the utility function, or nil for leaves and unfinished
// aggregates.
func (a *Attribute) Function() *FunctionTable { return a.function }

// Parent returns the parent ID, NoNode for roots.
func (a *Attribute) Parent() NodeID { return a.parent }

// Link returns the attribute this leaf aliases, NoNode when unlinked.
func (a *Attribute) Link() NodeID { return a.link }

// Linked reports whether the leaf aliases another attribute.
func (a *Attribute) Linked() bool { return a.link != NoNode }

// IsLeaf reports whether the attribute has no children.
func (a *Attribute) IsLeaf() bool { return len(a.children) == 0 }

// ScaleSize returns the number of scale values, 0 without a scale.
func (a *Attribute) ScaleSize() int { return a.scale.Size() }

// Complete reports whether every node in the subtree has a scale and every
// function present has one row per child combination.
func (a *Attribute) Complete() bool { return a.complete }

// Explicit reports whether every rule in the subtree is entered and exact.
func (a *Attribute) Explicit() bool { return a.explicit }

// NumChildren returns the number of children.
func (a *Attribute) NumChildren() int { return len(a.children) }

// Child returns the i-th child ID.
func (a *Attribute) Child(i int) NodeID { return a.children[i] }

// Children returns a copy of the child IDs in declaration order.
func (a *Attribute) Children() []NodeID {
	out := make([]NodeID, len(a.children))
	copy(out, a.children)
	return out
}
// #endregion attribute

// #region build-options
type buildOptions struct {
	linking bool
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithLinking enables the post-construction link resolution pass.
func WithLinking(enabled bool) BuildOption {
	return func(o *buildOptions) { o.linking = enabled }
}
// #endregion build-options
