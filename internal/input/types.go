package input

// #region spec
// Mode says how a raw input string addresses a scale value.
type Mode int

const (
	ByName Mode = iota
	ByZeroBasedOrdinal
	ByOneBasedOrdinal
)

func (m Mode) String() string {
	switch m {
	case ByName:
		return "name"
	case ByZeroBasedOrdinal:
		return "zero_based"
	case ByOneBasedOrdinal:
		return "one_based"
	default:
		return "unknown"
	}
}

// Spec is a parsed input value. Ordinal is already zero-based for both
// ordinal modes; Name is set only for ByName.
type Spec struct {
	Mode    Mode
	Name    string
	Ordinal int
	Raw     string
}
// #endregion spec

// #region assignment
// Assignment is one "name=value" pair from an assignment list.
type Assignment struct {
	Attribute string
	Value     string
}
// #endregion assignment
