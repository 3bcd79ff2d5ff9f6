// Package oterrors defines the Error plane: failures that mean a
// structurally well-formed operation turned out to be referentially
// inconsistent with state inside apply or transform. These never happen
// against a validated operation; their occurrence is a bug in the caller
// and must be logged, not just returned to the client. Compare
// validate.RejectReason, the expected-rejection plane returned to
// clients.
package oterrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the closed set of core error causes.
type Kind int

const (
	CellNotFound Kind = iota
	NoTextCell
	NoContentCell
	InvalidTextOffset
	InvalidSplitIndex
	InternalError
)

func (k Kind) String() string {
	switch k {
	case CellNotFound:
		return "cell_not_found"
	case NoTextCell:
		return "no_text_cell"
	case NoContentCell:
		return "no_content_cell"
	case InvalidTextOffset:
		return "invalid_text_offset"
	case InvalidSplitIndex:
		return "invalid_split_index"
	case InternalError:
		return "internal_error"
	default:
		return "unknown"
	}
}

// Error is a single Kind plus the identifying detail for that kind
// (a cell id, an offset, a free-form message) and an optional wrapped
// cause.
type Error struct {
	Kind    Kind
	CellID  string
	Offset  uint32
	Message string
	Cause   error
}

func (e *Error) Error() string {
	switch e.Kind {
	case CellNotFound:
		return fmt.Sprintf("cell not found: %s", e.CellID)
	case NoTextCell:
		return fmt.Sprintf("cell does not carry text: %s", e.CellID)
	case NoContentCell:
		return fmt.Sprintf("cell does not carry content: %s", e.CellID)
	case InvalidTextOffset:
		return fmt.Sprintf("invalid text offset %d in cell %s", e.Offset, e.CellID)
	case InvalidSplitIndex:
		return fmt.Sprintf("invalid split index %d", e.Offset)
	case InternalError:
		if e.Cause != nil {
			return e.Cause.Error()
		}
		if e.Message != "" {
			return fmt.Sprintf("internal error: %s", e.Message)
		}
		return "internal error"
	default:
		return "unknown core error"
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Kind, so callers
// can write errors.Is(err, oterrors.New(oterrors.CellNotFound, "")) style
// checks, though comparing Kind via errors.As is usually more direct.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// New builds a CellNotFound/NoTextCell/NoContentCell-shaped error keyed
// on a cell id.
func New(kind Kind, cellID string) *Error {
	return &Error{Kind: kind, CellID: cellID}
}

// NewOffset builds an InvalidTextOffset/InvalidSplitIndex-shaped error.
func NewOffset(kind Kind, cellID string, offset uint32) *Error {
	return &Error{Kind: kind, CellID: cellID, Offset: offset}
}

// Wrap builds an InternalError carrying a message and the triggering
// cause, annotated with a stack trace via github.com/pkg/errors.
func Wrap(cause error, message string) *Error {
	return &Error{Kind: InternalError, Message: message, Cause: errors.Wrap(cause, message)}
}
