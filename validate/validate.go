// Package validate enforces an Operation's preconditions against state
// before apply ever runs, so the server can reject a stale or malformed
// submission without projecting it. Grounded on this codebase's
// config.validate() style: a dedicated validation pass returning a typed,
// wrapped reason rather than a bare bool.
package validate

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/fiberplane/fp-ot/apply"
	"github.com/fiberplane/fp-ot/formatting"
	"github.com/fiberplane/fp-ot/notebook"
	"github.com/fiberplane/fp-ot/operations"
	"github.com/fiberplane/fp-ot/text"
)

// ReasonKind is the closed set of rejection reasons returned to clients.
// Distinct from oterrors.Kind: these are expected, routine outcomes, not
// bugs.
type ReasonKind int

const (
	CellIndexOutOfBounds ReasonKind = iota
	CellNotFound
	DuplicateCellId
	DuplicateLabel
	FailedPrecondition
	InvalidLabel
	InconsistentState
	InconsistentFrontMatter
	NoTextCell
	Outdated
	UnknownOperation
)

func (k ReasonKind) String() string {
	switch k {
	case CellIndexOutOfBounds:
		return "cell_index_out_of_bounds"
	case CellNotFound:
		return "cell_not_found"
	case DuplicateCellId:
		return "duplicate_cell_id"
	case DuplicateLabel:
		return "duplicate_label"
	case FailedPrecondition:
		return "failed_precondition"
	case InvalidLabel:
		return "invalid_label"
	case InconsistentState:
		return "inconsistent_state"
	case InconsistentFrontMatter:
		return "inconsistent_front_matter"
	case NoTextCell:
		return "no_text_cell"
	case Outdated:
		return "outdated"
	case UnknownOperation:
		return "unknown_operation"
	default:
		return "unknown"
	}
}

func (k ReasonKind) MarshalJSON() ([]byte, error) { return json.Marshal(k.String()) }

// RejectReason is the validation-plane error type returned to the
// submitting client, never fatal to the server.
type RejectReason struct {
	Kind            ReasonKind `json:"kind"`
	CellID          string     `json:"cellId,omitempty"`
	Key             string     `json:"key,omitempty"`
	Message         string     `json:"message,omitempty"`
	CurrentRevision uint32     `json:"currentRevision,omitempty"`
	ValidationError error      `json:"-"`
	Summary         string     `json:"summary,omitempty"`
}

func (r *RejectReason) Error() string {
	switch r.Kind {
	case CellIndexOutOfBounds:
		return "cell index out of bounds"
	case CellNotFound:
		return fmt.Sprintf("cell not found: %s", r.CellID)
	case DuplicateCellId:
		return fmt.Sprintf("duplicate cell id: %s", r.CellID)
	case DuplicateLabel:
		return fmt.Sprintf("duplicate label: %s", r.Key)
	case FailedPrecondition:
		return fmt.Sprintf("failed precondition: %s", r.Message)
	case InvalidLabel:
		return fmt.Sprintf("invalid label %s: %v", r.Key, r.ValidationError)
	case InconsistentState:
		return "inconsistent state"
	case InconsistentFrontMatter:
		return fmt.Sprintf("inconsistent front matter: %s", r.Message)
	case NoTextCell:
		return fmt.Sprintf("cell does not carry text: %s", r.CellID)
	case Outdated:
		return fmt.Sprintf("outdated: current revision is %d", r.CurrentRevision)
	case UnknownOperation:
		return fmt.Sprintf("unknown operation: %s", r.Summary)
	default:
		return "rejected"
	}
}

func reject(kind ReasonKind) *RejectReason { return &RejectReason{Kind: kind} }

// State is the read-only notebook view validation needs: apply's view
// plus the revision counter and label/front-matter lookups it checks
// against.
type State interface {
	apply.ApplyOperationState
	Revision() uint32
	LabelExists(key string) bool
	FrontMatterSchemaRow(key string) (notebook.FrontMatterSchemaRow, bool)
	FrontMatterValue(key string) (notebook.FrontMatterValue, bool)
	CellCount() int
}

// Validate checks op's preconditions against state, returning a
// RejectReason if the operation must not be applied.
func Validate(state State, op operations.Operation) *RejectReason {
	switch o := op.(type) {
	case operations.ReplaceCellsOperation:
		return validateReplaceCells(state, o)
	case operations.ReplaceTextOperation:
		return validateReplaceText(state, o)
	case operations.MoveCellsOperation:
		return validateMoveCells(state, o)
	case operations.AddLabelOperation:
		return validateAddLabel(state, o.Label)
	case operations.ReplaceLabelOperation:
		return validateLabelShape(o.NewLabel)
	case operations.RemoveLabelOperation:
		return nil
	case operations.UpdateFrontMatterSchemaOperation:
		return validateUpdateFrontMatterSchema(state, o)
	case operations.UpdateNotebookTimeRangeOperation,
		operations.UpdateNotebookTitleOperation,
		operations.SetSelectedDataSourceOperation,
		operations.InsertFrontMatterSchemaOperation,
		operations.MoveFrontMatterSchemaOperation,
		operations.RemoveFrontMatterSchemaOperation,
		operations.ClearFrontMatterOperation:
		return nil
	default:
		r := reject(UnknownOperation)
		r.Summary = fmt.Sprintf("%T", op)
		return r
	}
}

func validateMoveCells(state State, o operations.MoveCellsOperation) *RejectReason {
	if len(o.CellIDs) == 0 {
		r := reject(FailedPrecondition)
		r.Message = "move_cells requires at least one cell id"
		return r
	}
	seen := make(map[string]bool, len(o.CellIDs))
	for _, id := range o.CellIDs {
		if seen[id] {
			r := reject(DuplicateCellId)
			r.CellID = id
			return r
		}
		seen[id] = true
		if _, ok := state.Cell(id); !ok {
			r := reject(CellNotFound)
			r.CellID = id
			return r
		}
	}
	n := uint32(state.CellCount())
	k := uint32(len(o.CellIDs))
	if o.FromIndex+k > n {
		return reject(CellIndexOutOfBounds)
	}
	if o.ToIndex > n-k {
		return reject(CellIndexOutOfBounds)
	}
	return nil
}

func validateReplaceText(state State, o operations.ReplaceTextOperation) *RejectReason {
	current, _, err := state.CellTextAndFormatting(o.CellID, o.Field)
	if err != nil {
		r := reject(NoTextCell)
		r.CellID = o.CellID
		return r
	}
	oldLen := text.Count(o.OldText)
	sliced, err := text.Slice(current, o.Offset, o.Offset+oldLen)
	if err != nil || sliced != o.OldText {
		r := reject(FailedPrecondition)
		r.Message = fmt.Sprintf("old_text mismatch for cell %s", o.CellID)
		return r
	}
	return nil
}

func validateReplaceCells(state State, o operations.ReplaceCellsOperation) *RejectReason {
	if !contiguous(o.OldCells) || !contiguous(o.NewCells) {
		return reject(InconsistentState)
	}

	seenMain := make(map[uint32]bool)
	for _, oc := range o.OldCells {
		seenMain[oc.Index] = true
	}
	for _, rc := range o.OldReferencingCells {
		if seenMain[rc.Index] {
			r := reject(DuplicateCellId)
			r.CellID = rc.Cell.ID()
			return r
		}
	}

	for _, oc := range o.OldCells {
		if _, ok := state.Cell(oc.Cell.ID()); !ok {
			r := reject(CellNotFound)
			r.CellID = oc.Cell.ID()
			return r
		}
	}

	n := len(o.NewCells)
	for i, oc := range o.OldCells {
		content, f, textOK := textFor(oc.Cell)
		if !textOK {
			continue
		}
		stateText, stateFormatting, err := state.CellTextAndFormatting(oc.Cell.ID(), nil)
		if err != nil {
			continue
		}
		start, end := uint32(0), text.Count(stateText)
		if i == 0 && o.SplitOffset != nil {
			start = *o.SplitOffset
		}
		if i == len(o.OldCells)-1 && o.MergeOffset != nil {
			end = *o.MergeOffset
		}
		slice, err := text.Slice(stateText, start, end)
		if err != nil || slice != content {
			r := reject(FailedPrecondition)
			r.Message = fmt.Sprintf("old cell text mismatch for %s", oc.Cell.ID())
			return r
		}
		_ = f
		_ = stateFormatting
		_ = n
	}

	return nil
}

func textFor(c notebook.Cell) (string, formatting.Formatting, bool) {
	t, ok := c.Text()
	if !ok {
		return "", nil, false
	}
	f, _ := c.Formatting()
	return t, f, true
}

func contiguous(cells []notebook.CellWithIndex) bool {
	if len(cells) == 0 {
		return true
	}
	start := cells[0].Index
	for i, c := range cells {
		if c.Index != start+uint32(i) {
			return false
		}
	}
	return true
}

func validateAddLabel(state State, l notebook.Label) *RejectReason {
	if state.LabelExists(l.Key) {
		r := reject(DuplicateLabel)
		r.Key = l.Key
		return r
	}
	return validateLabelShape(l)
}

func validateLabelShape(l notebook.Label) *RejectReason {
	if err := notebook.ValidateLabel(l); err != nil {
		r := reject(InvalidLabel)
		r.Key = l.Key
		r.ValidationError = err
		return r
	}
	return nil
}

func validateUpdateFrontMatterSchema(state State, o operations.UpdateFrontMatterSchemaOperation) *RejectReason {
	row, ok := state.FrontMatterSchemaRow(o.Key)
	if !ok {
		r := reject(InconsistentFrontMatter)
		r.Message = fmt.Sprintf("unknown front matter key %s", o.Key)
		return r
	}
	if !reflect.DeepEqual(row.Schema, o.OldSchema) {
		r := reject(InconsistentFrontMatter)
		r.Message = fmt.Sprintf("old_schema mismatch for %s", o.Key)
		return r
	}
	current, hasCurrent := state.FrontMatterValue(o.Key)
	if o.OldValue != nil {
		if !hasCurrent || !frontMatterValuesEqual(current, *o.OldValue) {
			r := reject(InconsistentFrontMatter)
			r.Message = fmt.Sprintf("old_value mismatch for %s", o.Key)
			return r
		}
	} else if hasCurrent {
		r := reject(InconsistentFrontMatter)
		r.Message = fmt.Sprintf("expected no value for %s", o.Key)
		return r
	}
	if o.NewValue != nil && o.NewValue.Kind != row.Schema.Kind {
		r := reject(InconsistentFrontMatter)
		r.Message = fmt.Sprintf("new_value kind mismatch for %s", o.Key)
		return r
	}
	return nil
}

func frontMatterValuesEqual(a, b notebook.FrontMatterValue) bool {
	if a.Kind != b.Kind || len(a.Values) != len(b.Values) {
		return false
	}
	for i := range a.Values {
		if a.Values[i] != b.Values[i] {
			return false
		}
	}
	return true
}
