// Package apply projects an Operation onto notebook state into a minimal
// Change list, without mutating the state itself. Grounded on the
// teacher's GitP4Transfer "read one record, emit outcomes" control flow
// (process input, build a result list, never reach back into the
// source); here the "source" is the ApplyOperationState interface and
// the "outcomes" are Change values.
package apply

import (
	"github.com/fiberplane/fp-ot/formatting"
	"github.com/fiberplane/fp-ot/notebook"
	"github.com/fiberplane/fp-ot/operations"
	"github.com/fiberplane/fp-ot/oterrors"
	"github.com/fiberplane/fp-ot/querydata"
	"github.com/fiberplane/fp-ot/text"
)

// ApplyOperationState is the read-only view of notebook state apply needs.
// Implementations may expose strictly more cells than an operation touches.
type ApplyOperationState interface {
	AllCellIDs() []string
	AllRelevantCells() []notebook.CellRefWithIndex
	Cell(id string) (notebook.Cell, bool)
	CellWithIndex(id string) (notebook.CellWithIndex, bool)
	// CellTextAndFormatting returns the current text/formatting for a
	// cell, or for a Provider's named query-data field when field != nil.
	CellTextAndFormatting(id string, field *string) (string, formatting.Formatting, error)
}

// ChangeKind is the closed set of minimal projection outcomes.
type ChangeKind int

const (
	ChangeInsertCell ChangeKind = iota
	ChangeUpdateCell
	ChangeDeleteCell
	ChangeMoveCells
	ChangeUpdateCellText
	ChangeUpdateNotebookTimeRange
	ChangeUpdateNotebookTitle
	ChangeSetSelectedDataSource
	ChangeAddLabel
	ChangeReplaceLabel
	ChangeRemoveLabel
	ChangeInsertFrontMatterSchema
	ChangeUpdateFrontMatterSchema
	ChangeMoveFrontMatterSchema
	ChangeRemoveFrontMatterSchema
	ChangeClearFrontMatter
)

// Change is one element of the projection apply returns.
type Change struct {
	Kind ChangeKind

	Cell      notebook.Cell
	CellIndex uint32

	CellID        string
	Field         *string
	NewText       string
	NewFormatting formatting.Formatting

	CellIDs   []string
	FromIndex uint32
	ToIndex   uint32

	TimeRange notebook.TimeRange
	Title     string

	ProviderType string
	DataSource   *string

	Label notebook.Label

	FrontMatterKey         string
	FrontMatterSchema      *notebook.FrontMatterValueSchema
	FrontMatterValue       *notebook.FrontMatterValue
	FrontMatterDeleteValue bool
	FrontMatterRows        []notebook.FrontMatterSchemaRow
}

// Apply projects op onto state, returning the minimal ordered Change list.
// It never mutates state; callers fold the changes into their own storage.
func Apply(state ApplyOperationState, op operations.Operation) ([]Change, error) {
	switch o := op.(type) {
	case operations.ReplaceCellsOperation:
		return applyReplaceCells(state, o)
	case operations.ReplaceTextOperation:
		return applyReplaceText(state, o)
	case operations.MoveCellsOperation:
		return []Change{{Kind: ChangeMoveCells, CellIDs: o.CellIDs, FromIndex: o.FromIndex, ToIndex: o.ToIndex}}, nil
	case operations.UpdateNotebookTimeRangeOperation:
		return []Change{{Kind: ChangeUpdateNotebookTimeRange, TimeRange: o.New}}, nil
	case operations.UpdateNotebookTitleOperation:
		return []Change{{Kind: ChangeUpdateNotebookTitle, Title: o.NewTitle}}, nil
	case operations.SetSelectedDataSourceOperation:
		return []Change{{Kind: ChangeSetSelectedDataSource, ProviderType: o.ProviderType, DataSource: o.New}}, nil
	case operations.AddLabelOperation:
		return []Change{{Kind: ChangeAddLabel, Label: o.Label}}, nil
	case operations.ReplaceLabelOperation:
		return []Change{{Kind: ChangeReplaceLabel, Label: o.NewLabel}}, nil
	case operations.RemoveLabelOperation:
		return []Change{{Kind: ChangeRemoveLabel, Label: o.Label}}, nil
	case operations.InsertFrontMatterSchemaOperation:
		return []Change{{Kind: ChangeInsertFrontMatterSchema, FrontMatterRows: o.Insertions, ToIndex: o.ToIndex}}, nil
	case operations.UpdateFrontMatterSchemaOperation:
		return []Change{{
			Kind:                   ChangeUpdateFrontMatterSchema,
			FrontMatterKey:         o.Key,
			FrontMatterSchema:      o.NewSchema,
			FrontMatterValue:       o.NewValue,
			FrontMatterDeleteValue: o.DeleteValue,
		}}, nil
	case operations.MoveFrontMatterSchemaOperation:
		return []Change{{Kind: ChangeMoveFrontMatterSchema, CellIDs: o.Keys, FromIndex: o.FromIndex, ToIndex: o.ToIndex}}, nil
	case operations.RemoveFrontMatterSchemaOperation:
		return []Change{{Kind: ChangeRemoveFrontMatterSchema, FrontMatterRows: o.Deletions, FromIndex: o.FromIndex}}, nil
	case operations.ClearFrontMatterOperation:
		return []Change{{Kind: ChangeClearFrontMatter}}, nil
	default:
		return nil, oterrors.Wrap(nil, "unrecognized operation kind in apply")
	}
}

func applyReplaceText(state ApplyOperationState, o operations.ReplaceTextOperation) ([]Change, error) {
	cell, ok := state.Cell(o.CellID)
	if !ok {
		return nil, oterrors.New(oterrors.CellNotFound, o.CellID)
	}

	if o.Field != nil {
		provider, ok := cell.(notebook.ProviderCell)
		if !ok {
			return nil, oterrors.New(oterrors.NoContentCell, o.CellID)
		}
		qd := ""
		if provider.QueryData != nil {
			qd = *provider.QueryData
		}
		current, _, err := querydata.GetField(qd, *o.Field)
		if err != nil {
			return nil, oterrors.Wrap(err, "reading query-data field")
		}
		spliced, err := text.Replace(current, o.NewText, o.Offset, text.Count(o.OldText))
		if err != nil {
			return nil, oterrors.NewOffset(oterrors.InvalidTextOffset, o.CellID, o.Offset)
		}
		newQD, err := querydata.SetField(qd, *o.Field, spliced)
		if err != nil {
			return nil, oterrors.Wrap(err, "writing query-data field")
		}
		return []Change{{Kind: ChangeUpdateCellText, CellID: o.CellID, Field: o.Field, NewText: newQD}}, nil
	}

	currentText, currentFormatting, err := state.CellTextAndFormatting(o.CellID, nil)
	if err != nil {
		return nil, oterrors.New(oterrors.NoTextCell, o.CellID)
	}

	newText, err := text.Replace(currentText, o.NewText, o.Offset, text.Count(o.OldText))
	if err != nil {
		return nil, oterrors.NewOffset(oterrors.InvalidTextOffset, o.CellID, o.Offset)
	}

	var newFormattingForSplice formatting.Formatting
	if o.NewFormatting != nil {
		newFormattingForSplice = *o.NewFormatting
	}
	var oldFormattingForSplice formatting.Formatting
	if o.OldFormatting != nil {
		oldFormattingForSplice = *o.OldFormatting
	}
	newFormatting := formatting.ReplaceFormatting(currentFormatting, oldFormattingForSplice, newFormattingForSplice, o.Offset, text.Count(o.OldText), text.Count(o.NewText))

	return []Change{{
		Kind:          ChangeUpdateCellText,
		CellID:        o.CellID,
		NewText:       newText,
		NewFormatting: newFormatting,
	}}, nil
}

func applyReplaceCells(state ApplyOperationState, o operations.ReplaceCellsOperation) ([]Change, error) {
	oldByID := make(map[string]bool, len(o.OldCells))
	for _, oc := range o.OldCells {
		oldByID[oc.Cell.ID()] = true
	}

	changes := make([]Change, 0, len(o.NewCells)+len(o.OldCells)+len(o.NewReferencingCells))

	for i, nc := range o.NewCells {
		cell := nc.Cell

		if i == 0 && o.SplitOffset != nil && len(o.OldCells) > 0 {
			firstOld := o.OldCells[0].Cell
			oldFormatting, _ := firstOld.Formatting()
			prefix, prefixFormatting, err := splitPrefix(state, firstOld.ID(), *o.SplitOffset, oldFormatting)
			if err != nil {
				return nil, err
			}
			cell = concatOntoCell(cell, prefix, prefixFormatting, true)
		}
		if i == len(o.NewCells)-1 && o.MergeOffset != nil && len(o.OldCells) > 0 {
			lastOld := o.OldCells[len(o.OldCells)-1].Cell
			oldFormatting, _ := lastOld.Formatting()
			// When a single old cell is being both split and merged (or
			// the same lone old cell is split into a first and merged into
			// a last new cell), the two cuts share one coordinate space:
			// the merge boundary's offset relative to that cell's old
			// formatting is merge_offset-split_offset, not merge_offset.
			relOffset := *o.MergeOffset
			if len(o.OldCells) == 1 && o.SplitOffset != nil && *o.SplitOffset <= *o.MergeOffset {
				relOffset = *o.MergeOffset - *o.SplitOffset
			}
			suffix, suffixFormatting, err := mergeSuffix(state, lastOld.ID(), *o.MergeOffset, relOffset, oldFormatting)
			if err != nil {
				return nil, err
			}
			cell = concatOntoCell(cell, suffix, suffixFormatting, false)
		}

		if oldByID[cell.ID()] {
			changes = append(changes, Change{Kind: ChangeUpdateCell, Cell: cell, CellIndex: nc.Index})
		} else {
			changes = append(changes, Change{Kind: ChangeInsertCell, Cell: cell, CellIndex: nc.Index})
		}
	}

	newByID := make(map[string]bool, len(o.NewCells))
	for _, nc := range o.NewCells {
		newByID[nc.Cell.ID()] = true
	}
	for _, oc := range o.OldCells {
		if !newByID[oc.Cell.ID()] {
			changes = append(changes, Change{Kind: ChangeDeleteCell, CellID: oc.Cell.ID(), CellIndex: oc.Index})
		}
	}

	for _, rc := range o.NewReferencingCells {
		changes = append(changes, Change{Kind: ChangeUpdateCell, Cell: rc.Cell, CellIndex: rc.Index})
	}

	return changes, nil
}

// splitPrefix returns the first splitOffset code points of the given
// cell's text (and the formatting surviving within that prefix) for
// prepending onto a ReplaceCells operation's first new cell. oldFormatting
// is the operation's own declared formatting for that old cell: an
// annotation sitting exactly at splitOffset is dropped (claimed by the
// edit) iff oldFormatting lists it at relative offset 0, otherwise it
// brackets the cut and survives.
func splitPrefix(state ApplyOperationState, cellID string, splitOffset uint32, oldFormatting formatting.Formatting) (string, formatting.Formatting, error) {
	full, f, err := state.CellTextAndFormatting(cellID, nil)
	if err != nil {
		return "", nil, oterrors.New(oterrors.NoTextCell, cellID)
	}
	prefix, err := text.Slice(full, 0, splitOffset)
	if err != nil {
		return "", nil, oterrors.NewOffset(oterrors.InvalidSplitIndex, cellID, splitOffset)
	}
	var kept formatting.Formatting
	for _, a := range f {
		switch {
		case a.Offset < splitOffset:
			kept = append(kept, a)
		case a.Offset == splitOffset:
			if !formatting.IsAnnotationIncluded(a.Annotation, 0, oldFormatting) {
				kept = append(kept, a)
			}
		}
	}
	return prefix, kept, nil
}

// mergeSuffix returns the tail of the given cell's text from mergeOffset
// onward for appending onto a ReplaceCells operation's last new cell.
// oldFormatting is the operation's own declared formatting for that old
// cell; relOffset is mergeOffset translated into oldFormatting's
// coordinate space (equal to mergeOffset itself unless this same cell was
// also used as the split source, in which case it is relative to the
// split cut). An annotation sitting exactly at mergeOffset is dropped iff
// oldFormatting lists it at relOffset, otherwise it brackets the cut and
// survives.
func mergeSuffix(state ApplyOperationState, cellID string, mergeOffset, relOffset uint32, oldFormatting formatting.Formatting) (string, formatting.Formatting, error) {
	full, f, err := state.CellTextAndFormatting(cellID, nil)
	if err != nil {
		return "", nil, oterrors.New(oterrors.NoTextCell, cellID)
	}
	suffix, err := text.SliceFrom(full, mergeOffset)
	if err != nil {
		return "", nil, oterrors.NewOffset(oterrors.InvalidSplitIndex, cellID, mergeOffset)
	}
	var kept formatting.Formatting
	for _, a := range f {
		switch {
		case a.Offset > mergeOffset:
			kept = append(kept, formatting.AnnotationWithOffset{Offset: a.Offset - mergeOffset, Annotation: a.Annotation})
		case a.Offset == mergeOffset:
			if !formatting.IsAnnotationIncluded(a.Annotation, relOffset, oldFormatting) {
				kept = append(kept, formatting.AnnotationWithOffset{Offset: a.Offset - mergeOffset, Annotation: a.Annotation})
			}
		}
	}
	return suffix, kept, nil
}

// concatOntoCell prepends or appends extraText/extraFormatting to a text
// bearing cell, leaving non text cells unchanged (ReplaceCells only
// applies split/merge semantics to cells that carry text).
func concatOntoCell(cell notebook.Cell, extraText string, extraFormatting formatting.Formatting, prepend bool) notebook.Cell {
	current, ok := cell.Text()
	if !ok {
		return cell
	}
	f, _ := cell.Formatting()

	var newText string
	var merged formatting.Formatting
	if prepend {
		newText = extraText + current
		delta := int64(text.Count(extraText))
		merged = append(merged, extraFormatting...)
		merged = append(merged, formatting.Translate(f, delta)...)
	} else {
		newText = current + extraText
		delta := int64(text.Count(current))
		merged = append(merged, f...)
		merged = append(merged, formatting.Translate(extraFormatting, delta)...)
	}
	merged.Sort()
	return cell.WithText(newText, merged)
}
