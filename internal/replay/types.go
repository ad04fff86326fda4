package replay

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/dexi-engine/internal/eval"
)

// #region types
// Alternative is one option to evaluate: rendered input assignments and,
// optionally, the outputs it is expected to produce.
type Alternative struct {
	Name     string
	Inputs   map[string]string
	Expected map[string]string
}

// Mode selects the fast path or a distribution evaluation.
type Mode struct {
	Fast   bool
	Config eval.Config
}

// ParseMode accepts "fast" or any semantics name.
func ParseMode(s string, normalize bool) (Mode, error) {
	if strings.EqualFold(strings.TrimSpace(s), eval.ModeFast) {
		return Mode{Fast: true}, nil
	}
	sem, err := eval.ParseSemantics(s)
	if err != nil {
		return Mode{}, fmt.Errorf("parse mode: %w", err)
	}
	return Mode{Config: eval.Config{Semantics: sem, Normalize: normalize}}, nil
}

func (m Mode) String() string {
	if m.Fast {
		return eval.ModeFast
	}
	return m.Config.Mode()
}

const (
	StatusMatch    = "match"
	StatusMismatch = "mismatch"
	StatusError    = "error"
)

// Mismatch is one expected output that came out differently.
type Mismatch struct {
	Attribute string
	Want      string
	Got       string
}

// Result captures the outcome of evaluating one alternative.
type Result struct {
	Name       string
	Status     string // "match" | "mismatch" | "error"
	Inputs     map[string]string
	Outputs    map[string]string
	Mismatches []Mismatch
	Err        error
}

// Summary provides aggregate counts from a replay run.
type Summary struct {
	Total      int
	Matches    int
	Mismatches int
	Errors     int
}

// OK reports whether every alternative matched.
func (s Summary) OK() bool { return s.Mismatches == 0 && s.Errors == 0 }
// #endregion types
