package model

import (
	"errors"
	"fmt"
)

// #region kinds
// Kind classifies evaluation and model errors.
type Kind string

const (
	KindInvalidRule      Kind = "invalid_rule"
	KindUnknownAttribute Kind = "unknown_attribute"
	KindUnknownValue     Kind = "unknown_value"
	KindMissingInput     Kind = "missing_input"
	KindNotExplicit      Kind = "not_explicit"
	KindIncompleteModel  Kind = "incomplete_model"
	KindModelStructure   Kind = "model_structure"
)

// Sentinels for errors.Is. Matching is by Kind only.
var (
	ErrInvalidRule      = &Error{Kind: KindInvalidRule}
	ErrUnknownAttribute = &Error{Kind: KindUnknownAttribute}
	ErrUnknownValue     = &Error{Kind: KindUnknownValue}
	ErrMissingInput     = &Error{Kind: KindMissingInput}
	ErrNotExplicit      = &Error{Kind: KindNotExplicit}
	ErrIncompleteModel  = &Error{Kind: KindIncompleteModel}
	ErrModelStructure   = &Error{Kind: KindModelStructure}
)
// #endregion kinds

// #region error
// Error is a model or evaluation failure tied to an attribute.
type Error struct {
	Kind      Kind
	Attribute string // empty when not attribute-specific
	Detail    string
}

// Errorf builds an *Error with a formatted detail message.
func Errorf(kind Kind, attribute, format string, args ...any) *Error {
	return &Error{Kind: kind, Attribute: attribute, Detail: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Attribute != "" {
		msg += " (" + e.Attribute + ")"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	return ""
}
// #endregion error
