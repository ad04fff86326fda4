package runstore

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a run ID does not exist.
var ErrNotFound = errors.New("run not found")

// #region run
// Run is one recorded evaluation: the inputs as assigned and the outputs as
// rendered after evaluation.
type Run struct {
	RunID     string
	ModelName string
	Mode      string // "fast" | "set" | "prob" | "fuzzy"
	Normalize bool
	Inputs    map[string]string
	Outputs   map[string]string
	Error     string
	CreatedAt time.Time
}
// #endregion run

// #region unresolved-entry
// UnresolvedEntry records an attribute that kept no distribution in a run.
type UnresolvedEntry struct {
	RunID     string
	Attribute string
	Reason    string
	CreatedAt time.Time
}
// #endregion unresolved-entry
