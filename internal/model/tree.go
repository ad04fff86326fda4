package model

// #region tree
// Tree is an immutable arena of attributes. Roots are the top-level
// attributes; all topology, scales, functions and links are fixed by Build.
type Tree struct {
	nodes       []Attribute
	roots       []NodeID
	descendants []bitset
	basic       []NodeID
	aggregate   []NodeID
	linked      []NodeID
	linking     bool
}
// #endregion tree

// #region build
// Build flattens the attribute specs into an arena, computes completeness and
// explicitness bottom-up and, when enabled, resolves links.
func Build(roots []AttributeSpec, opts ...BuildOption) (*Tree, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	t := &Tree{linking: o.linking}
	for i := range roots {
		id, err := t.add(&roots[i], NoNode)
		if err != nil {
			return nil, err
		}
		t.roots = append(t.roots, id)
	}

	t.computeDescendants()
	t.computeFlags()
	if o.linking {
		t.resolveLinks()
	}
	t.categorize()
	return t, nil
}

func (t *Tree) add(spec *AttributeSpec, parent NodeID) (NodeID, error) {
	if spec.Name == "" {
		return NoNode, Errorf(KindModelStructure, "", "attribute without a name")
	}
	if spec.Scale.Defined() {
		for i := 0; i < spec.Function.Len(); i++ {
			if r := spec.Function.Row(i); r.High() >= spec.Scale.Size() {
				return NoNode, Errorf(KindModelStructure, spec.Name,
					"rule %d high %d outside scale of size %d", i, r.High(), spec.Scale.Size())
			}
		}
	}

	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, Attribute{
		id:          id,
		name:        spec.Name,
		description: spec.Description,
		scale:       spec.Scale,
		function:    spec.Function,
		parent:      parent,
		link:        NoNode,
	})

	children := make([]NodeID, 0, len(spec.Children))
	for i := range spec.Children {
		cid, err := t.add(&spec.Children[i], id)
		if err != nil {
			return NoNode, err
		}
		children = append(children, cid)
	}
	t.nodes[id].children = children
	return id, nil
}

// computeDescendants fills one bitset per node. Children carry larger IDs
// than their parent, so a reverse sweep sees every child first.
func (t *Tree) computeDescendants() {
	t.descendants = make([]bitset, len(t.nodes))
	for i := len(t.nodes) - 1; i >= 0; i-- {
		set := newBitset(len(t.nodes))
		for _, c := range t.nodes[i].children {
			set.set(c)
			set.union(t.descendants[c])
		}
		t.descendants[i] = set
	}
}

func (t *Tree) computeFlags() {
	for i := len(t.nodes) - 1; i >= 0; i-- {
		n := &t.nodes[i]

		explicit := n.function.Explicit()
		complete := n.scale.Size() > 0
		product := 1
		for _, c := range n.children {
			child := &t.nodes[c]
			explicit = explicit && child.explicit
			complete = complete && child.complete
			product *= child.scale.Size()
		}
		if n.function != nil && n.function.Len() != product {
			complete = false
		}
		n.explicit = explicit
		n.complete = complete
	}
}

func (t *Tree) categorize() {
	for i := range t.nodes {
		n := &t.nodes[i]
		switch {
		case n.link != NoNode:
			t.linked = append(t.linked, n.id)
		case len(n.children) == 0:
			t.basic = append(t.basic, n.id)
		default:
			t.aggregate = append(t.aggregate, n.id)
		}
	}
}
// #endregion build

// #region accessors
// Len returns the number of attributes.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the attribute with the given ID.
func (t *Tree) Node(id NodeID) *Attribute { return &t.nodes[id] }

// Roots returns the top-level attribute IDs.
func (t *Tree) Roots() []NodeID { return cloneIDs(t.roots) }

// Basic returns unlinked leaves in depth-first order.
func (t *Tree) Basic() []NodeID { return cloneIDs(t.basic) }

// Aggregate returns internal attributes in depth-first order.
func (t *Tree) Aggregate() []NodeID { return cloneIDs(t.aggregate) }

// Linked returns leaves aliased to another attribute, in depth-first order.
func (t *Tree) Linked() []NodeID { return cloneIDs(t.linked) }

// Linking reports whether link resolution ran for this tree.
func (t *Tree) Linking() bool { return t.linking }

// Names maps IDs to attribute names.
func (t *Tree) Names(ids []NodeID) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = t.nodes[id].name
	}
	return names
}

// Find returns the first attribute with the given name in depth-first order.
func (t *Tree) Find(name string) (NodeID, bool) {
	return findIn(t, name, nil)
}

// FindIn searches only the given IDs, in their order.
func (t *Tree) FindIn(name string, ids []NodeID) (NodeID, bool) {
	return findIn(t, name, ids)
}

func findIn(t *Tree, name string, ids []NodeID) (NodeID, bool) {
	if ids == nil {
		for i := range t.nodes {
			if t.nodes[i].name == name {
				return NodeID(i), true
			}
		}
		return NoNode, false
	}
	for _, id := range ids {
		if t.nodes[id].name == name {
			return id, true
		}
	}
	return NoNode, false
}

// Explicit reports whether every root is explicit.
func (t *Tree) Explicit() bool {
	for _, r := range t.roots {
		if !t.nodes[r].explicit {
			return false
		}
	}
	return true
}

// Complete reports whether every root is complete.
func (t *Tree) Complete() bool {
	for _, r := range t.roots {
		if !t.nodes[r].complete {
			return false
		}
	}
	return true
}

// IsDescendant reports whether d lies in the subtree below a.
func (t *Tree) IsDescendant(a, d NodeID) bool {
	return t.descendants[a].has(d)
}

// SubtreeSize counts the descendants of id.
func (t *Tree) SubtreeSize(id NodeID) int {
	return t.descendants[id].count()
}
// #endregion accessors

// #region rows
// ChildSizes returns the scale sizes of id's children in order.
func (t *Tree) ChildSizes(id NodeID) []int {
	n := &t.nodes[id]
	sizes := make([]int, len(n.children))
	for i, c := range n.children {
		sizes[i] = t.nodes[c].scale.Size()
	}
	return sizes
}

// RowFor returns the rule selected by the children's ordinals.
func (t *Tree) RowFor(id NodeID, ordinals []int) (Rule, error) {
	n := &t.nodes[id]
	if n.function == nil {
		return Rule{}, Errorf(KindIncompleteModel, n.name, "no utility function")
	}
	if len(ordinals) != len(n.children) {
		return Rule{}, Errorf(KindModelStructure, n.name,
			"got %d ordinals for %d children", len(ordinals), len(n.children))
	}
	sizes := t.ChildSizes(id)
	for i, o := range ordinals {
		if o < 0 || o >= sizes[i] {
			return Rule{}, Errorf(KindUnknownValue, t.nodes[n.children[i]].name,
				"ordinal %d outside scale of size %d", o, sizes[i])
		}
	}
	idx := RowIndex(ordinals, sizes)
	if idx >= n.function.Len() {
		return Rule{}, Errorf(KindIncompleteModel, n.name,
			"row %d missing from function of %d rows", idx, n.function.Len())
	}
	return n.function.Row(idx), nil
}
// #endregion rows

func cloneIDs(ids []NodeID) []NodeID {
	out := make([]NodeID, len(ids))
	copy(out, ids)
	return out
}
