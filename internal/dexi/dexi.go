package dexi

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/danielpatrickdp/dexi-engine/internal/model"
)

// #region load
// Load reads and parses a .dxi file.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	m, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse model %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a DEXi XML document and builds its attribute tree. Links are
// resolved when the document's LINKING setting is "True".
func Parse(r io.Reader) (*Model, error) {
	var doc xmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, model.Errorf(model.KindModelStructure, "", "invalid xml: %v", err)
	}
	if doc.XMLName.Local != "DEXi" {
		return nil, model.Errorf(model.KindModelStructure, "", "xml root must be DEXi, got %q", doc.XMLName.Local)
	}

	roots := make([]model.AttributeSpec, 0, len(doc.Attributes))
	for i := range doc.Attributes {
		spec, err := convertAttribute(&doc.Attributes[i])
		if err != nil {
			return nil, err
		}
		roots = append(roots, spec)
	}

	linking := strings.TrimSpace(doc.Settings.Linking) == "True"
	tree, err := model.Build(roots, model.WithLinking(linking))
	if err != nil {
		return nil, err
	}
	return &Model{
		Name:        strings.TrimSpace(doc.Name),
		Description: doc.Description.Lines,
		Linking:     linking,
		Tree:        tree,
	}, nil
}
// #endregion load

// #region convert
func convertAttribute(a *xmlAttribute) (model.AttributeSpec, error) {
	if a.Name == nil || strings.TrimSpace(*a.Name) == "" {
		return model.AttributeSpec{}, model.Errorf(model.KindModelStructure, "", "attribute name is undefined")
	}
	name := strings.TrimSpace(*a.Name)
	spec := model.AttributeSpec{
		Name:        name,
		Description: strings.TrimSpace(a.Description),
	}

	if a.Scale != nil {
		scale, err := convertScale(a.Scale)
		if err != nil {
			return model.AttributeSpec{}, withAttribute(err, name)
		}
		spec.Scale = scale
	}
	if a.Function != nil {
		fn, err := convertFunction(a.Function)
		if err != nil {
			return model.AttributeSpec{}, withAttribute(err, name)
		}
		spec.Function = fn
	}

	for i := range a.Attributes {
		child, err := convertAttribute(&a.Attributes[i])
		if err != nil {
			return model.AttributeSpec{}, err
		}
		spec.Children = append(spec.Children, child)
	}
	return spec, nil
}

// convertScale skips empty SCALEVALUE elements.
func convertScale(s *xmlScale) (*model.Scale, error) {
	values := make([]model.ScaleValue, 0, len(s.Values))
	for i, v := range s.Values {
		if v.Name == nil {
			if strings.TrimSpace(v.Inner) == "" {
				continue
			}
			return nil, model.Errorf(model.KindModelStructure, "", "scale value %d has no name", i)
		}
		values = append(values, model.ScaleValue{
			Name:        strings.TrimSpace(*v.Name),
			Description: strings.TrimSpace(v.Description),
			Group:       strings.TrimSpace(v.Group),
		})
	}
	return model.NewScale(values)
}

// convertFunction reads LOW, HIGH and ENTERED as one character per rule.
// HIGH defaults to LOW; without ENTERED every rule counts as entered.
func convertFunction(f *xmlFunction) (*model.FunctionTable, error) {
	low, err := digits(strings.TrimSpace(f.Low))
	if err != nil {
		return nil, err
	}
	high := low
	if f.High != nil {
		if high, err = digits(strings.TrimSpace(*f.High)); err != nil {
			return nil, err
		}
	}
	var entered []bool
	if f.Entered != nil {
		for _, c := range strings.TrimSpace(*f.Entered) {
			entered = append(entered, c == '+')
		}
	}
	if len(high) != len(low) || (entered != nil && len(entered) != len(low)) {
		return nil, model.Errorf(model.KindModelStructure, "",
			"function lengths differ: low %d, high %d, entered %d", len(low), len(high), len(entered))
	}

	rules := make([]model.Rule, len(low))
	for i := range low {
		rule, err := model.NewRule(low[i], high[i], entered == nil || entered[i])
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rules[i] = rule
	}
	return model.NewFunctionTable(rules), nil
}

func digits(s string) ([]int, error) {
	out := make([]int, 0, len(s))
	for i, c := range s {
		if c < '0' || c > '9' {
			return nil, model.Errorf(model.KindModelStructure, "", "rule %d: %q is not a digit", i, c)
		}
		out = append(out, int(c-'0'))
	}
	return out, nil
}

func withAttribute(err error, name string) error {
	var me *model.Error
	if errors.As(err, &me) && me.Attribute == "" {
		me.Attribute = name
	}
	return err
}
// #endregion convert
