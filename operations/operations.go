// Package operations defines the closed tagged union of notebook
// mutations. Every variant embeds enough old-state to be invertible:
// applying an operation and then its Invert() returns a notebook to an
// indistinguishable state (barring the revision counter). ClearFrontMatter
// is the exception: its Invert does not restore the cleared values.
package operations

import (
	"github.com/fiberplane/fp-ot/formatting"
	"github.com/fiberplane/fp-ot/notebook"
)

// Kind identifies one of the closed set of operation variants.
type Kind int

const (
	KindReplaceCells Kind = iota
	KindReplaceText
	KindMoveCells
	KindUpdateNotebookTimeRange
	KindUpdateNotebookTitle
	KindSetSelectedDataSource
	KindAddLabel
	KindReplaceLabel
	KindRemoveLabel
	KindInsertFrontMatterSchema
	KindUpdateFrontMatterSchema
	KindMoveFrontMatterSchema
	KindRemoveFrontMatterSchema
	KindClearFrontMatter
)

func (k Kind) String() string {
	switch k {
	case KindReplaceCells:
		return "replace_cells"
	case KindReplaceText:
		return "replace_text"
	case KindMoveCells:
		return "move_cells"
	case KindUpdateNotebookTimeRange:
		return "update_notebook_time_range"
	case KindUpdateNotebookTitle:
		return "update_notebook_title"
	case KindSetSelectedDataSource:
		return "set_selected_data_source"
	case KindAddLabel:
		return "add_label"
	case KindReplaceLabel:
		return "replace_label"
	case KindRemoveLabel:
		return "remove_label"
	case KindInsertFrontMatterSchema:
		return "insert_front_matter_schema"
	case KindUpdateFrontMatterSchema:
		return "update_front_matter_schema"
	case KindMoveFrontMatterSchema:
		return "move_front_matter_schema"
	case KindRemoveFrontMatterSchema:
		return "remove_front_matter_schema"
	case KindClearFrontMatter:
		return "clear_front_matter"
	default:
		return "unknown"
	}
}

// Operation is a single intent-preserving, invertible notebook mutation.
// operationNode is unexported so the set of kinds stays closed to this
// package.
type Operation interface {
	operationNode()
	Kind() Kind
	Invert() Operation
}

// ReplaceCells inserts, updates, and/or removes a contiguous range of
// cells, optionally splitting the first old cell's text/formatting into
// the first new cell and/or merging the last old cell's tail into the
// last new cell. Referencing-cell updates travel alongside at their own,
// not-necessarily-contiguous indices.
type ReplaceCellsOperation struct {
	NewCells            []notebook.CellWithIndex `json:"newCells"`
	OldCells            []notebook.CellWithIndex `json:"oldCells"`
	NewReferencingCells []notebook.CellWithIndex `json:"newReferencingCells,omitempty"`
	OldReferencingCells []notebook.CellWithIndex `json:"oldReferencingCells,omitempty"`
	SplitOffset         *uint32                  `json:"splitOffset,omitempty"`
	MergeOffset         *uint32                  `json:"mergeOffset,omitempty"`
}

func (ReplaceCellsOperation) operationNode() {}
func (ReplaceCellsOperation) Kind() Kind     { return KindReplaceCells }
func (op ReplaceCellsOperation) Invert() Operation {
	return ReplaceCellsOperation{
		NewCells:            op.OldCells,
		OldCells:            op.NewCells,
		NewReferencingCells: op.OldReferencingCells,
		OldReferencingCells: op.NewReferencingCells,
		SplitOffset:         op.SplitOffset,
		MergeOffset:         op.MergeOffset,
	}
}

// ReplaceText replaces the substring [offset, offset+len(old_text)) of a
// cell's text (or, when Field is set, a Provider cell's named query-data
// field) with new_text, and rebuilds formatting symmetrically.
type ReplaceTextOperation struct {
	CellID        string                  `json:"cellId"`
	Field         *string                 `json:"field,omitempty"`
	Offset        uint32                  `json:"offset"`
	NewText       string                  `json:"newText"`
	NewFormatting *formatting.Formatting  `json:"newFormatting,omitempty"`
	OldText       string                  `json:"oldText"`
	OldFormatting *formatting.Formatting  `json:"oldFormatting,omitempty"`
}

func (ReplaceTextOperation) operationNode() {}
func (ReplaceTextOperation) Kind() Kind     { return KindReplaceText }
func (op ReplaceTextOperation) Invert() Operation {
	return ReplaceTextOperation{
		CellID:        op.CellID,
		Field:         op.Field,
		Offset:        op.Offset,
		NewText:       op.OldText,
		NewFormatting: op.OldFormatting,
		OldText:       op.NewText,
		OldFormatting: op.NewFormatting,
	}
}

// MoveCells relocates a contiguous run of cell ids so it starts at
// ToIndex instead of FromIndex.
type MoveCellsOperation struct {
	CellIDs   []string `json:"cellIds"`
	FromIndex uint32   `json:"fromIndex"`
	ToIndex   uint32   `json:"toIndex"`
}

func (MoveCellsOperation) operationNode() {}
func (MoveCellsOperation) Kind() Kind     { return KindMoveCells }
func (op MoveCellsOperation) Invert() Operation {
	return MoveCellsOperation{CellIDs: op.CellIDs, FromIndex: op.ToIndex, ToIndex: op.FromIndex}
}

// UpdateNotebookTimeRange replaces the notebook's time window.
type UpdateNotebookTimeRangeOperation struct {
	Old notebook.TimeRange `json:"old"`
	New notebook.TimeRange `json:"new"`
}

func (UpdateNotebookTimeRangeOperation) operationNode() {}
func (UpdateNotebookTimeRangeOperation) Kind() Kind     { return KindUpdateNotebookTimeRange }
func (op UpdateNotebookTimeRangeOperation) Invert() Operation {
	return UpdateNotebookTimeRangeOperation{Old: op.New, New: op.Old}
}

// UpdateNotebookTitle replaces the notebook's title. Deprecated in favor
// of ReplaceText against notebook.TitleCellID; both paths remain live
// until migration completes.
type UpdateNotebookTitleOperation struct {
	OldTitle string `json:"oldTitle"`
	NewTitle string `json:"newTitle"`
}

func (UpdateNotebookTitleOperation) operationNode() {}
func (UpdateNotebookTitleOperation) Kind() Kind     { return KindUpdateNotebookTitle }
func (op UpdateNotebookTitleOperation) Invert() Operation {
	return UpdateNotebookTitleOperation{OldTitle: op.NewTitle, NewTitle: op.OldTitle}
}

// SetSelectedDataSource updates which data source is selected for a given
// provider type. Old/New are nil when no data source was/is selected.
type SetSelectedDataSourceOperation struct {
	ProviderType string  `json:"providerType"`
	Old          *string `json:"old,omitempty"`
	New          *string `json:"new,omitempty"`
}

func (SetSelectedDataSourceOperation) operationNode() {}
func (SetSelectedDataSourceOperation) Kind() Kind     { return KindSetSelectedDataSource }
func (op SetSelectedDataSourceOperation) Invert() Operation {
	return SetSelectedDataSourceOperation{ProviderType: op.ProviderType, Old: op.New, New: op.Old}
}

// AddLabel adds a label to the notebook. Invert produces RemoveLabel.
type AddLabelOperation struct {
	Label notebook.Label `json:"label"`
}

func (AddLabelOperation) operationNode() {}
func (AddLabelOperation) Kind() Kind     { return KindAddLabel }
func (op AddLabelOperation) Invert() Operation {
	return RemoveLabelOperation{Label: op.Label}
}

// ReplaceLabel updates the value of an existing label (key unchanged).
type ReplaceLabelOperation struct {
	OldLabel notebook.Label `json:"oldLabel"`
	NewLabel notebook.Label `json:"newLabel"`
}

func (ReplaceLabelOperation) operationNode() {}
func (ReplaceLabelOperation) Kind() Kind     { return KindReplaceLabel }
func (op ReplaceLabelOperation) Invert() Operation {
	return ReplaceLabelOperation{OldLabel: op.NewLabel, NewLabel: op.OldLabel}
}

// RemoveLabel removes a label from the notebook. Invert produces AddLabel.
type RemoveLabelOperation struct {
	Label notebook.Label `json:"label"`
}

func (RemoveLabelOperation) operationNode() {}
func (RemoveLabelOperation) Kind() Kind     { return KindRemoveLabel }
func (op RemoveLabelOperation) Invert() Operation {
	return AddLabelOperation{Label: op.Label}
}

// InsertFrontMatterSchema inserts one or more schema rows starting at
// ToIndex. KeyBefore/KeyAfter, when set, are validated against the
// notebook's current schema neighbors at ToIndex.
type InsertFrontMatterSchemaOperation struct {
	ToIndex    uint32                           `json:"toIndex"`
	Insertions []notebook.FrontMatterSchemaRow  `json:"insertions"`
	KeyBefore  *string                          `json:"keyBefore,omitempty"`
	KeyAfter   *string                          `json:"keyAfter,omitempty"`
}

func (InsertFrontMatterSchemaOperation) operationNode() {}
func (InsertFrontMatterSchemaOperation) Kind() Kind     { return KindInsertFrontMatterSchema }
func (op InsertFrontMatterSchemaOperation) Invert() Operation {
	return RemoveFrontMatterSchemaOperation{
		FromIndex: op.ToIndex,
		Deletions: op.Insertions,
		KeyBefore: op.KeyBefore,
		KeyAfter:  op.KeyAfter,
	}
}

// UpdateFrontMatterSchema updates the schema and/or value of one existing
// front-matter key. DeleteValue, when true with NewValue nil, wipes the
// value outright rather than leaving it untouched.
type UpdateFrontMatterSchemaOperation struct {
	Key         string                           `json:"key"`
	OldSchema   notebook.FrontMatterValueSchema  `json:"oldSchema"`
	OldValue    *notebook.FrontMatterValue       `json:"oldValue,omitempty"`
	NewSchema   *notebook.FrontMatterValueSchema `json:"newSchema,omitempty"`
	NewValue    *notebook.FrontMatterValue       `json:"newValue,omitempty"`
	DeleteValue bool                             `json:"deleteValue"`
}

func (UpdateFrontMatterSchemaOperation) operationNode() {}
func (UpdateFrontMatterSchemaOperation) Kind() Kind     { return KindUpdateFrontMatterSchema }
func (op UpdateFrontMatterSchemaOperation) Invert() Operation {
	newSchema := op.OldSchema
	inv := UpdateFrontMatterSchemaOperation{
		Key:         op.Key,
		OldValue:    op.NewValue,
		NewValue:    op.OldValue,
		DeleteValue: op.OldValue == nil,
	}
	if op.NewSchema != nil {
		inv.OldSchema = *op.NewSchema
	} else {
		inv.OldSchema = op.OldSchema
	}
	inv.NewSchema = &newSchema
	return inv
}

// MoveFrontMatterSchema relocates a contiguous run of schema keys so it
// starts at ToIndex instead of FromIndex.
type MoveFrontMatterSchemaOperation struct {
	Keys      []string `json:"keys"`
	FromIndex uint32   `json:"fromIndex"`
	ToIndex   uint32   `json:"toIndex"`
}

func (MoveFrontMatterSchemaOperation) operationNode() {}
func (MoveFrontMatterSchemaOperation) Kind() Kind     { return KindMoveFrontMatterSchema }
func (op MoveFrontMatterSchemaOperation) Invert() Operation {
	return MoveFrontMatterSchemaOperation{Keys: op.Keys, FromIndex: op.ToIndex, ToIndex: op.FromIndex}
}

// RemoveFrontMatterSchema deletes a contiguous run of schema rows starting
// at FromIndex.
type RemoveFrontMatterSchemaOperation struct {
	FromIndex uint32                          `json:"fromIndex"`
	Deletions []notebook.FrontMatterSchemaRow `json:"deletions"`
	KeyBefore *string                         `json:"keyBefore,omitempty"`
	KeyAfter  *string                         `json:"keyAfter,omitempty"`
}

func (RemoveFrontMatterSchemaOperation) operationNode() {}
func (RemoveFrontMatterSchemaOperation) Kind() Kind     { return KindRemoveFrontMatterSchema }
func (op RemoveFrontMatterSchemaOperation) Invert() Operation {
	return InsertFrontMatterSchemaOperation{
		ToIndex:    op.FromIndex,
		Insertions: op.Deletions,
		KeyBefore:  op.KeyBefore,
		KeyAfter:   op.KeyAfter,
	}
}

// ClearFrontMatter wipes every front-matter value (but not the schema).
// OldFrontMatter carries the entire prior value map; Invert does not use it.
type ClearFrontMatterOperation struct {
	OldFrontMatter notebook.FrontMatterValues `json:"oldFrontMatter"`
}

func (ClearFrontMatterOperation) operationNode() {}
func (ClearFrontMatterOperation) Kind() Kind     { return KindClearFrontMatter }

// Invert returns the same operation unchanged. Applying it clears the
// front-matter values again; it does not restore OldFrontMatter, so a
// ClearFrontMatter followed by its Invert leaves the values empty.
func (op ClearFrontMatterOperation) Invert() Operation {
	return op
}
