package model

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func points(vals ...int) *FunctionTable {
	rules := make([]Rule, len(vals))
	for i, v := range vals {
		rules[i] = Point(v)
	}
	return NewFunctionTable(rules)
}

func leaf(name string, scale *Scale) AttributeSpec {
	return AttributeSpec{Name: name, Scale: scale}
}

// #region test-scale
func TestScaleLookup(t *testing.T) {
	s := MustScale("low", "medium", "high")

	if s.Size() != 3 {
		t.Fatalf("expected size 3, got %d", s.Size())
	}
	v, ok := s.ValueByName("medium")
	if !ok || v.Ordinal() != 1 || v.Name() != "medium" {
		t.Fatalf("unexpected lookup result %+v ok=%v", v, ok)
	}
	if _, ok := s.ValueByName("huge"); ok {
		t.Fatal("expected unknown name to miss")
	}
	v, ok = s.ValueByOrdinal(2)
	if !ok || v.Name() != "high" {
		t.Fatalf("expected high, got %+v", v)
	}
	if _, ok := s.ValueByOrdinal(3); ok {
		t.Fatal("expected ordinal 3 to be out of range")
	}
	if _, ok := s.ValueByOrdinal(-1); ok {
		t.Fatal("expected negative ordinal to be out of range")
	}
}

func TestScaleRejectsDuplicates(t *testing.T) {
	_, err := NewScale([]ScaleValue{{Name: "a"}, {Name: "b"}, {Name: "a"}})
	if !errors.Is(err, ErrModelStructure) {
		t.Fatalf("expected model structure error, got %v", err)
	}
}

func TestUndefinedScale(t *testing.T) {
	var s *Scale
	if s.Size() != 0 || s.Defined() {
		t.Fatal("nil scale should be undefined with size 0")
	}
	if _, ok := s.ValueByName("x"); ok {
		t.Fatal("nil scale should not resolve names")
	}
}
// #endregion test-scale

// #region test-rule
func TestNewRuleValidation(t *testing.T) {
	cases := []struct {
		low, high int
		ok        bool
	}{
		{0, 0, true},
		{1, 3, true},
		{3, 1, false},
		{-1, 0, false},
		{0, -2, false},
	}
	for _, c := range cases {
		_, err := NewRule(c.low, c.high, true)
		if c.ok && err != nil {
			t.Errorf("NewRule(%d,%d): unexpected error %v", c.low, c.high, err)
		}
		if !c.ok && !errors.Is(err, ErrInvalidRule) {
			t.Errorf("NewRule(%d,%d): expected invalid rule, got %v", c.low, c.high, err)
		}
	}
}

func TestRuleExplicitness(t *testing.T) {
	r, _ := NewRule(2, 2, true)
	if !r.Explicit() {
		t.Error("entered point rule should be explicit")
	}
	r, _ = NewRule(2, 2, false)
	if r.Explicit() {
		t.Error("non-entered rule should not be explicit")
	}
	r, _ = NewRule(1, 2, true)
	if r.Explicit() || r.Width() != 2 {
		t.Errorf("interval rule: explicit=%v width=%d", r.Explicit(), r.Width())
	}
}

func TestRowIndexLastChildFastest(t *testing.T) {
	sizes := []int{3, 2}
	want := 0
	for a := 0; a < 3; a++ {
		for b := 0; b < 2; b++ {
			if got := RowIndex([]int{a, b}, sizes); got != want {
				t.Errorf("RowIndex(%d,%d) = %d, want %d", a, b, got, want)
			}
			want++
		}
	}
}

func TestRowForHandBuiltTable(t *testing.T) {
	tree, err := Build([]AttributeSpec{{
		Name:     "P",
		Scale:    MustScale("r0", "r1", "r2", "r3", "r4", "r5"),
		Function: points(0, 1, 2, 3, 4, 5),
		Children: []AttributeSpec{
			leaf("A", MustScale("a0", "a1", "a2")),
			leaf("B", MustScale("b0", "b1")),
		},
	}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for a := 0; a < 3; a++ {
		for b := 0; b < 2; b++ {
			r, err := tree.RowFor(0, []int{a, b})
			if err != nil {
				t.Fatalf("RowFor: %v", err)
			}
			if r.Low() != a*2+b {
				t.Errorf("RowFor(%d,%d) low = %d, want %d", a, b, r.Low(), a*2+b)
			}
		}
	}
	if _, err := tree.RowFor(0, []int{3, 0}); !errors.Is(err, ErrUnknownValue) {
		t.Errorf("expected unknown value for ordinal 3, got %v", err)
	}
}
// #endregion test-rule

// #region test-flags
func TestCompletenessShortTable(t *testing.T) {
	tree, err := Build([]AttributeSpec{{
		Name:     "P",
		Scale:    MustScale("x", "y"),
		Function: points(0, 1, 0, 1, 0), // 5 rows, 3*2 expected
		Children: []AttributeSpec{
			leaf("A", MustScale("a0", "a1", "a2")),
			leaf("B", MustScale("b0", "b1")),
		},
	}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tree.Node(0).Complete() {
		t.Fatal("expected 5-row table over 6 combinations to be incomplete")
	}
	if !tree.Node(1).Complete() || !tree.Node(2).Complete() {
		t.Fatal("leaves with scales should be complete")
	}
	if tree.Complete() {
		t.Fatal("tree should report incomplete")
	}
}

func TestCompletenessPropagatesFromChildren(t *testing.T) {
	tree, err := Build([]AttributeSpec{{
		Name:     "P",
		Scale:    MustScale("x", "y"),
		Function: points(0, 1),
		Children: []AttributeSpec{
			{Name: "Q", Scale: MustScale("q0", "q1"), Function: points(0, 1, 1),
				Children: []AttributeSpec{leaf("A", MustScale("a0", "a1"))}},
		},
	}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tree.Node(1).Complete() {
		t.Fatal("Q has 3 rows for 2 combinations")
	}
	if tree.Node(0).Complete() {
		t.Fatal("P should inherit Q's incompleteness")
	}
}

func TestUndefinedScaleIsIncomplete(t *testing.T) {
	tree, err := Build([]AttributeSpec{{Name: "A"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tree.Node(0).Complete() {
		t.Fatal("attribute without scale must be incomplete")
	}
	if !tree.Node(0).Explicit() {
		t.Fatal("leaf without function is vacuously explicit")
	}
}

func TestExplicitness(t *testing.T) {
	interval, _ := NewRule(0, 1, true)
	tree, err := Build([]AttributeSpec{{
		Name:     "P",
		Scale:    MustScale("x", "y"),
		Function: NewFunctionTable([]Rule{Point(0), interval}),
		Children: []AttributeSpec{leaf("A", MustScale("a0", "a1"))},
	}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tree.Node(0).Explicit() || tree.Explicit() {
		t.Fatal("interval rule should make P non-explicit")
	}
	if !tree.Node(0).Complete() {
		t.Fatal("P is fully sized and should be complete")
	}
}

func TestBuildRejectsRuleOutsideScale(t *testing.T) {
	_, err := Build([]AttributeSpec{{
		Name:     "P",
		Scale:    MustScale("x", "y"),
		Function: points(0, 2),
		Children: []AttributeSpec{leaf("A", MustScale("a0", "a1"))},
	}})
	if !errors.Is(err, ErrModelStructure) {
		t.Fatalf("expected model structure error, got %v", err)
	}
}

func TestBuildRejectsUnnamed(t *testing.T) {
	_, err := Build([]AttributeSpec{{Name: "P", Children: []AttributeSpec{{}}}})
	if !errors.Is(err, ErrModelStructure) {
		t.Fatalf("expected model structure error, got %v", err)
	}
	if KindOf(err) != KindModelStructure {
		t.Fatalf("KindOf = %q", KindOf(err))
	}
}
// #endregion test-flags

// #region test-introspection
func TestIntrospectionDepthFirst(t *testing.T) {
	s := MustScale("a", "b")
	tree, err := Build([]AttributeSpec{{
		Name: "ROOT", Scale: s, Function: points(0, 1, 1, 1),
		Children: []AttributeSpec{
			{Name: "LEFT", Scale: s, Function: points(0, 1, 0, 1),
				Children: []AttributeSpec{leaf("L1", s), leaf("L2", s)}},
			leaf("R1", s),
		},
	}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if diff := cmp.Diff([]string{"L1", "L2", "R1"}, tree.Names(tree.Basic())); diff != "" {
		t.Errorf("basic mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ROOT", "LEFT"}, tree.Names(tree.Aggregate())); diff != "" {
		t.Errorf("aggregate mismatch (-want +got):\n%s", diff)
	}
	if len(tree.Linked()) != 0 {
		t.Errorf("expected no linked attributes, got %v", tree.Names(tree.Linked()))
	}
	if !tree.IsDescendant(0, 3) || tree.IsDescendant(1, 4) {
		t.Error("descendant sets are wrong")
	}
	if tree.SubtreeSize(0) != 4 {
		t.Errorf("expected 4 descendants of ROOT, got %d", tree.SubtreeSize(0))
	}
	if id, ok := tree.FindIn("R1", tree.Basic()); !ok || id != 4 {
		t.Errorf("FindIn R1 = %d, %v", id, ok)
	}
}
// #endregion test-introspection

// #region test-linking
func fuelTree(t *testing.T, linking bool) *Tree {
	t.Helper()
	s := MustScale("low", "high")
	tree, err := Build([]AttributeSpec{{
		Name: "CAR", Scale: s, Function: points(0, 0, 0, 1),
		Children: []AttributeSpec{
			{Name: "COST", Scale: s, Function: points(0, 1, 1, 1),
				Children: []AttributeSpec{leaf("FUEL", s), leaf("PRICE", s)}},
			{Name: "ECO", Scale: s, Function: points(0, 0, 1, 1),
				Children: []AttributeSpec{leaf("FUEL", s), leaf("CO2", s)}},
		},
	}}, WithLinking(linking))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tree
}

func TestLinkingSameNamedLeaves(t *testing.T) {
	tree := fuelTree(t, true)

	linked := tree.Linked()
	if len(linked) != 1 {
		t.Fatalf("expected one linked attribute, got %v", tree.Names(linked))
	}
	first := tree.Node(linked[0])
	if first.Name() != "FUEL" || first.Parent() != 1 {
		t.Fatalf("expected FUEL under COST to link, got %s under %d", first.Name(), first.Parent())
	}
	target := tree.Node(first.Link())
	if target.Name() != "FUEL" || target.Parent() != 4 {
		t.Fatalf("expected link to FUEL under ECO, got %s under %d", target.Name(), target.Parent())
	}
	if diff := cmp.Diff([]string{"PRICE", "FUEL", "CO2"}, tree.Names(tree.Basic())); diff != "" {
		t.Errorf("basic mismatch (-want +got):\n%s", diff)
	}
}

func TestLinkingDisabled(t *testing.T) {
	tree := fuelTree(t, false)
	if len(tree.Linked()) != 0 {
		t.Fatal("no links expected when linking is off")
	}
	if len(tree.Basic()) != 4 {
		t.Fatalf("expected 4 basic attributes, got %d", len(tree.Basic()))
	}
}

func TestLinkingRejectsAncestor(t *testing.T) {
	s := MustScale("a", "b")
	tree, err := Build([]AttributeSpec{{
		Name: "R", Scale: s, Function: points(0, 1, 1, 1),
		Children: []AttributeSpec{
			{Name: "S", Scale: s, Function: points(0, 1),
				Children: []AttributeSpec{leaf("R", s)}},
			leaf("T", s),
		},
	}}, WithLinking(true))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(tree.Linked()) != 0 {
		t.Fatalf("leaf R must not link to its ancestor R")
	}
	if tree.Node(2).Linked() {
		t.Fatal("leaf R has a link")
	}
}

func TestLinkingRejectsCycleThroughLinks(t *testing.T) {
	s := MustScale("a", "b")
	tree, err := Build([]AttributeSpec{{
		Name: "T", Scale: s, Function: points(0, 1, 1, 1),
		Children: []AttributeSpec{
			{Name: "A", Scale: s, Function: points(0, 1, 1, 1),
				Children: []AttributeSpec{leaf("B", s), leaf("x", s)}},
			{Name: "B", Scale: s, Function: points(0, 0, 0, 1),
				Children: []AttributeSpec{leaf("A", s), leaf("y", s)}},
		},
	}}, WithLinking(true))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := tree.Node(2).Link(); got != 4 {
		t.Fatalf("leaf B should link to aggregate B (4), got %d", got)
	}
	if tree.Node(5).Linked() {
		t.Fatal("leaf A linking to aggregate A would close a cycle through B")
	}
}

func TestLinkingScaleCompatibility(t *testing.T) {
	two := MustScale("a", "b")
	three := MustScale("a", "b", "c")
	tree, err := Build([]AttributeSpec{{
		Name: "R", Scale: two, Function: points(0, 1, 1, 1, 0, 1, 1, 1, 0, 1, 1, 1, 0, 1, 1, 1, 0, 1),
		Children: []AttributeSpec{
			leaf("X", two),
			leaf("X", three),
			{Name: "U"},
			leaf("U", three),
		},
	}}, WithLinking(true))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tree.Node(1).Linked() || tree.Node(2).Linked() {
		t.Fatal("X attributes with different scale sizes must not link")
	}
	if got := tree.Node(3).Link(); got != 4 {
		t.Fatalf("undefined-scale U should link to U (4), got %d", got)
	}
	if tree.Node(4).Linked() {
		t.Fatal("defined-scale U must not link to the undefined-scale one")
	}
}

func TestLinkingLastSameNamedLeafPicksItself(t *testing.T) {
	tree, err := Build([]AttributeSpec{{
		Name: "R",
		Children: []AttributeSpec{
			leaf("A", MustScale("a0", "a1")),
			{Name: "A"},
		},
	}}, WithLinking(true))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if linked := tree.Linked(); len(linked) != 0 {
		t.Fatalf("expected no links, got %v -> %d", tree.Names(linked), tree.Node(linked[0]).Link())
	}
	if diff := cmp.Diff([]string{"A", "A"}, tree.Names(tree.Basic())); diff != "" {
		t.Errorf("basic mismatch (-want +got):\n%s", diff)
	}
}
// #endregion test-linking
