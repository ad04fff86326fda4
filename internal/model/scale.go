package model

// #region scale-value
// ScaleValue is one named entry of a Scale.
type ScaleValue struct {
	Name        string
	Description string
	Group       string // typically "GOOD", "BAD" or ""
}

// Value is a (name, ordinal) pair obtained from a Scale lookup.
type Value struct {
	name    string
	ordinal int
}

// Name returns the scale value name.
func (v Value) Name() string { return v.name }

// Ordinal returns the zero-based position on the scale.
func (v Value) Ordinal() int { return v.ordinal }

func (v Value) String() string { return v.name }
// #endregion scale-value

// #region scale
// Scale is an ordered, immutable list of qualitative values.
// A nil *Scale stands for an undefined scale and has size 0.
type Scale struct {
	values []ScaleValue
	index  map[string]int
}

// NewScale builds a scale. Empty or duplicated value names are rejected
// with a ModelStructure error.
func NewScale(values []ScaleValue) (*Scale, error) {
	s := &Scale{
		values: make([]ScaleValue, len(values)),
		index:  make(map[string]int, len(values)),
	}
	for i, v := range values {
		if v.Name == "" {
			return nil, Errorf(KindModelStructure, "", "scale value %d has no name", i)
		}
		if _, dup := s.index[v.Name]; dup {
			return nil, Errorf(KindModelStructure, "", "duplicate scale value name %q", v.Name)
		}
		s.index[v.Name] = i
		s.values[i] = v
	}
	return s, nil
}

// MustScale builds a scale from bare names and panics on error. Intended for
// tests and literal models.
func MustScale(names ...string) *Scale {
	values := make([]ScaleValue, len(names))
	for i, n := range names {
		values[i] = ScaleValue{Name: n}
	}
	s, err := NewScale(values)
	if err != nil {
		panic(err)
	}
	return s
}

// Size returns the number of values; 0 for an undefined scale.
func (s *Scale) Size() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// Defined reports whether the scale exists.
func (s *Scale) Defined() bool { return s != nil }

// ValueByName looks up a value by its name.
func (s *Scale) ValueByName(name string) (Value, bool) {
	if s == nil {
		return Value{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return Value{}, false
	}
	return Value{name: name, ordinal: i}, true
}

// ValueByOrdinal looks up a value by position. Out-of-range ordinals return false.
func (s *Scale) ValueByOrdinal(i int) (Value, bool) {
	if s == nil || i < 0 || i >= len(s.values) {
		return Value{}, false
	}
	return Value{name: s.values[i].Name, ordinal: i}, true
}

// At returns the full scale entry at position i.
func (s *Scale) At(i int) ScaleValue { return s.values[i] }

// Names returns the value names in scale order.
func (s *Scale) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.values))
	for i, v := range s.values {
		names[i] = v.Name
	}
	return names
}
// #endregion scale
