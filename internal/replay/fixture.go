package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// #region fixture-types
// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description  string               `json:"description"`
	Model        string               `json:"model"` // relative to the fixture file
	Mode         string               `json:"mode"`  // fast, set, prob, fuzzy
	Normalize    bool                 `json:"normalize"`
	Alternatives []FixtureAlternative `json:"alternatives"`
}

// FixtureAlternative mirrors Alternative with JSON tags.
type FixtureAlternative struct {
	Name     string            `json:"name"`
	Inputs   map[string]string `json:"inputs"`
	Expected map[string]string `json:"expected,omitempty"`
}
// #endregion fixture-types

// #region fixture-loader
// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// Save writes the fixture as indented JSON.
func (f *Fixture) Save(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// ModelPath resolves the model path against the fixture's directory.
func (f *Fixture) ModelPath(fixturePath string) string {
	if filepath.IsAbs(f.Model) {
		return f.Model
	}
	return filepath.Join(filepath.Dir(fixturePath), f.Model)
}

// ReplayMode converts the fixture's mode and normalize flag.
func (f *Fixture) ReplayMode() (Mode, error) {
	return ParseMode(f.Mode, f.Normalize)
}

// ToAlternatives converts fixture entries to domain alternatives.
func (f *Fixture) ToAlternatives() []Alternative {
	alts := make([]Alternative, len(f.Alternatives))
	for i, fa := range f.Alternatives {
		alts[i] = Alternative{Name: fa.Name, Inputs: fa.Inputs, Expected: fa.Expected}
	}
	return alts
}
// #endregion fixture-loader
