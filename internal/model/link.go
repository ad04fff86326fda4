package model

// #region resolve-links
// resolveLinks aliases each leaf to another attribute with the same name.
// Leaves are visited in depth-first order; a leaf that already links is no
// longer a candidate for later leaves.
func (t *Tree) resolveLinks() {
	byName := make(map[string][]NodeID)
	for i := range t.nodes {
		byName[t.nodes[i].name] = append(byName[t.nodes[i].name], NodeID(i))
	}

	for i := range t.nodes {
		id := NodeID(i)
		if !t.nodes[id].IsLeaf() {
			continue
		}
		target := t.linkCandidate(id, byName[t.nodes[id].name])
		if target == NoNode || !t.linkAllowed(id, target) {
			continue
		}
		t.nodes[id].link = target
	}
}

// linkCandidate prefers the single aggregate carrying the name; otherwise it
// falls back to the last unlinked leaf with that name. The leaf itself stays
// in the pool, so the last same-named leaf picks itself and forms no link.
func (t *Tree) linkCandidate(id NodeID, sameName []NodeID) NodeID {
	agg, bas := NoNode, NoNode
	aggCount := 0
	for _, c := range sameName {
		if c != id && t.nodes[c].link != NoNode {
			continue
		}
		if t.nodes[c].IsLeaf() {
			bas = c
		} else {
			agg = c
			aggCount++
		}
	}
	if aggCount == 1 {
		return agg
	}
	return bas
}

func (t *Tree) linkAllowed(id, target NodeID) bool {
	if id == target {
		return false
	}
	if t.descendants[id].has(target) {
		return false
	}
	// target must not need id to be evaluated, directly or through links
	if t.reaches(target, id, newBitset(len(t.nodes))) {
		return false
	}
	src, dst := t.nodes[id].scale, t.nodes[target].scale
	if !src.Defined() {
		return true
	}
	return dst.Defined() && src.Size() == dst.Size()
}

// reaches reports whether evaluating from requires target, following both
// children and links already formed.
func (t *Tree) reaches(from, target NodeID, seen bitset) bool {
	if from == target || t.descendants[from].has(target) {
		return true
	}
	if seen.has(from) {
		return false
	}
	seen.set(from)
	for i := range t.nodes {
		n := &t.nodes[i]
		if n.link == NoNode {
			continue
		}
		if n.id == from || t.descendants[from].has(n.id) {
			if t.reaches(n.link, target, seen) {
				return true
			}
		}
	}
	return false
}
// #endregion resolve-links
