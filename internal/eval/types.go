package eval

import (
	"fmt"
	"strings"
	"time"
)

// #region semantics
// Semantics selects how distributions propagate through utility functions.
type Semantics int

const (
	Set Semantics = iota
	Prob
	Fuzzy
)

func (s Semantics) String() string {
	switch s {
	case Set:
		return "set"
	case Prob:
		return "prob"
	case Fuzzy:
		return "fuzzy"
	default:
		return fmt.Sprintf("semantics(%d)", int(s))
	}
}

// ParseSemantics accepts "set", "prob" or "fuzzy", case-insensitive.
func ParseSemantics(s string) (Semantics, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "set":
		return Set, nil
	case "prob", "probabilistic":
		return Prob, nil
	case "fuzzy":
		return Fuzzy, nil
	default:
		return 0, fmt.Errorf("unknown semantics %q", s)
	}
}
// #endregion semantics

// #region eval-config
// Config parameterizes the distribution path.
type Config struct {
	Semantics Semantics
	Normalize bool // normalize inputs before and outputs after propagation
}

// DefaultConfig is set semantics with normalization.
func DefaultConfig() Config {
	return Config{Semantics: Set, Normalize: true}
}

// ModeFast labels single-value evaluations for observers.
const ModeFast = "fast"

// Mode is the observer label for a distribution evaluation.
func (c Config) Mode() string { return c.Semantics.String() }
// #endregion eval-config

// #region observer
// Observer receives evaluation events. Implementations must be safe for
// concurrent use when one engine serves several goroutines.
type Observer interface {
	ObserveEvaluation(mode string, elapsed time.Duration, err error)
	ObserveUnresolved(mode, attribute, reason string)
}

type nopObserver struct{}

func (nopObserver) ObserveEvaluation(string, time.Duration, error) {}
func (nopObserver) ObserveUnresolved(string, string, string) {}
// #endregion observer

// #region ref
// Ref addresses an attribute by name or by position in a category list
// (basic attributes for inputs, aggregate attributes for outputs).
type Ref struct {
	name    string
	index   int
	byIndex bool
}

// Name refers to an attribute by name.
func Name(name string) Ref { return Ref{name: name} }

// Index refers to the i-th attribute of the relevant category.
func Index(i int) Ref { return Ref{index: i, byIndex: true} }

func (r Ref) String() string {
	if r.byIndex {
		return fmt.Sprintf("#%d", r.index)
	}
	return r.name
}
// #endregion ref
