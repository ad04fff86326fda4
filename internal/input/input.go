package input

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/dexi-engine/internal/model"
)

// ErrMalformed is returned for assignment lists that cannot be parsed.
var ErrMalformed = errors.New("malformed assignment")

// #region parse
// Parse classifies raw: a numeric string starting with "0" is a zero-based
// ordinal, any other numeric string is one-based, everything else is a
// value name.
func Parse(raw string) Spec {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return Spec{Mode: ByName, Name: raw, Raw: raw}
	}
	if strings.HasPrefix(raw, "0") {
		return Spec{Mode: ByZeroBasedOrdinal, Ordinal: n, Raw: raw}
	}
	return Spec{Mode: ByOneBasedOrdinal, Ordinal: n - 1, Raw: raw}
}

// Resolve looks the spec up on scale.
func (s Spec) Resolve(scale *model.Scale) (model.Value, error) {
	if s.Mode == ByName {
		v, ok := scale.ValueByName(s.Name)
		if !ok {
			return model.Value{}, model.Errorf(model.KindUnknownValue, "", "unknown value name %q", s.Name)
		}
		return v, nil
	}
	v, ok := scale.ValueByOrdinal(s.Ordinal)
	if !ok {
		return model.Value{}, model.Errorf(model.KindUnknownValue, "",
			"ordinal %d (%s %q) outside scale of size %d", s.Ordinal, s.Mode, s.Raw, scale.Size())
	}
	return v, nil
}
// #endregion parse

// #region assignments
// ParseAssignments splits "name=value;name=value". Empty segments are
// skipped. A pair without exactly one "=", with an empty side, or repeating
// an earlier name fails with ErrMalformed.
func ParseAssignments(list string) ([]Assignment, error) {
	var out []Assignment
	seen := make(map[string]bool)
	for _, part := range strings.Split(list, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		kv := strings.Split(part, "=")
		if len(kv) != 2 {
			return nil, fmt.Errorf("%w: %q", ErrMalformed, part)
		}
		name, value := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		if name == "" || value == "" {
			return nil, fmt.Errorf("%w: empty side in %q", ErrMalformed, part)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate attribute %q", ErrMalformed, name)
		}
		seen[name] = true
		out = append(out, Assignment{Attribute: name, Value: value})
	}
	return out, nil
}

// FormatAssignments is the inverse of ParseAssignments.
func FormatAssignments(as []Assignment) string {
	parts := make([]string, len(as))
	for i, a := range as {
		parts[i] = a.Attribute + "=" + a.Value
	}
	return strings.Join(parts, ";")
}
// #endregion assignments
