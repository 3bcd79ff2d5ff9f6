// Package transform implements the pairwise operation transform function
// T(successor, predecessor): given a notebook operation a client derived
// locally and an operation the server already accepted first, rewrite the
// client's operation so it can be applied after the predecessor while
// preserving the client's intent whenever that is semantically possible,
// dropping it (returning nil) otherwise. Styled, like operations.Operation,
// as a closed dispatch over a (successor kind, predecessor kind) pair
// rather than free-form recursion, the way ha1tch/tsqlparser's parser
// dispatches on token kind pairs in its Pratt-parser switch.
package transform

import (
	"github.com/fiberplane/fp-ot/cellindex"
	"github.com/fiberplane/fp-ot/notebook"
	"github.com/fiberplane/fp-ot/operations"
	"github.com/fiberplane/fp-ot/text"
)

// State is the read-only notebook view transform needs: just enough to
// resolve a cell by id when a rewrite must confirm the cell it is routing
// an operation onto still exists. It is the notebook at the revision
// immediately before predecessor was applied.
type State interface {
	Cell(id string) (notebook.Cell, bool)
}

type pairKey struct {
	succ operations.Kind
	pred operations.Kind
}

type transformFunc func(state State, succ, pred operations.Operation) (operations.Operation, error)

var table map[pairKey]transformFunc

func init() {
	table = map[pairKey]transformFunc{
		{operations.KindReplaceText, operations.KindReplaceText}:   transformTextText,
		{operations.KindReplaceText, operations.KindReplaceCells}:  transformTextCells,
		{operations.KindReplaceCells, operations.KindReplaceText}:  transformCellsText,
		{operations.KindReplaceCells, operations.KindReplaceCells}: transformCellsCells,
		{operations.KindReplaceCells, operations.KindMoveCells}:    transformCellsMove,
		{operations.KindMoveCells, operations.KindMoveCells}:       transformMoveMove,
		{operations.KindMoveCells, operations.KindReplaceCells}:    transformMoveCells,

		{operations.KindAddLabel, operations.KindAddLabel}:         transformLabelLabel,
		{operations.KindAddLabel, operations.KindReplaceLabel}:     transformLabelLabel,
		{operations.KindAddLabel, operations.KindRemoveLabel}:      transformLabelLabel,
		{operations.KindReplaceLabel, operations.KindAddLabel}:     transformLabelLabel,
		{operations.KindReplaceLabel, operations.KindReplaceLabel}: transformLabelLabel,
		{operations.KindReplaceLabel, operations.KindRemoveLabel}:  transformLabelLabel,
		{operations.KindRemoveLabel, operations.KindAddLabel}:      transformLabelLabel,
		{operations.KindRemoveLabel, operations.KindReplaceLabel}:  transformLabelLabel,
		{operations.KindRemoveLabel, operations.KindRemoveLabel}:   transformLabelLabel,

		{operations.KindUpdateNotebookTimeRange, operations.KindUpdateNotebookTimeRange}: drop,
		{operations.KindUpdateNotebookTitle, operations.KindUpdateNotebookTitle}:         drop,

		{operations.KindSetSelectedDataSource, operations.KindSetSelectedDataSource}: transformDataSourceDataSource,

		{operations.KindInsertFrontMatterSchema, operations.KindInsertFrontMatterSchema}: transformFMSchemaFMSchema,
		{operations.KindInsertFrontMatterSchema, operations.KindRemoveFrontMatterSchema}: transformFMSchemaFMSchema,
		{operations.KindRemoveFrontMatterSchema, operations.KindInsertFrontMatterSchema}: transformFMSchemaFMSchema,
		{operations.KindRemoveFrontMatterSchema, operations.KindRemoveFrontMatterSchema}: transformFMSchemaFMSchema,
		{operations.KindMoveFrontMatterSchema, operations.KindMoveFrontMatterSchema}:     transformFMSchemaFMSchema,

		{operations.KindUpdateFrontMatterSchema, operations.KindUpdateFrontMatterSchema}: transformFMValueFMValue,
		{operations.KindUpdateFrontMatterSchema, operations.KindClearFrontMatter}:        drop,
		{operations.KindClearFrontMatter, operations.KindUpdateFrontMatterSchema}:        keepClear,
		{operations.KindClearFrontMatter, operations.KindClearFrontMatter}:               keepClear,
	}
}

func drop(State, operations.Operation, operations.Operation) (operations.Operation, error) {
	return nil, nil
}

func keepClear(_ State, succ, _ operations.Operation) (operations.Operation, error) {
	return succ, nil
}

// Transform rewrites successor so it can be applied after predecessor,
// which the server already accepted against state (the notebook at the
// revision immediately before predecessor was applied). A nil Operation
// with a nil error means the successor cannot converge and must be
// dropped. A non-nil error means predecessor/successor were referentially
// inconsistent with state — a bug in the submitter, not a routine
// rejection.
func Transform(state State, successor, predecessor operations.Operation) (operations.Operation, error) {
	key := pairKey{succ: successor.Kind(), pred: predecessor.Kind()}
	if f, ok := table[key]; ok {
		return f(state, successor, predecessor)
	}
	// Unlisted pairs touch disjoint concerns (e.g. ReplaceText vs AddLabel,
	// MoveCells vs UpdateNotebookTitle): they commute freely.
	return successor, nil
}

// --- ReplaceText / ReplaceText ---------------------------------------------

func transformTextText(_ State, succOp, predOp operations.Operation) (operations.Operation, error) {
	succ := succOp.(operations.ReplaceTextOperation)
	pred := predOp.(operations.ReplaceTextOperation)

	if succ.CellID != pred.CellID || !sameField(succ.Field, pred.Field) {
		return succ, nil
	}

	sOldLen := text.Count(succ.OldText)
	pOldLen := text.Count(pred.OldText)

	// Pure inserts at the identical offset: lexicographic tie-break.
	if sOldLen == 0 && pOldLen == 0 && succ.Offset == pred.Offset {
		if succ.NewText < pred.NewText {
			succ.Offset += text.Count(pred.NewText)
		}
		return succ, nil
	}

	predEnd := pred.Offset + pOldLen
	succEnd := succ.Offset + sOldLen

	if predEnd <= succ.Offset {
		delta := int64(text.Count(pred.NewText)) - int64(pOldLen)
		succ.Offset = uint32(int64(succ.Offset) + delta)
		return succ, nil
	}
	if succEnd <= pred.Offset {
		return succ, nil
	}
	// Overlapping edit ranges: intent cannot be preserved.
	return nil, nil
}

func sameField(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// --- ReplaceText / ReplaceCells ---------------------------------------------

func transformTextCells(_ State, succOp, predOp operations.Operation) (operations.Operation, error) {
	succ := succOp.(operations.ReplaceTextOperation)
	pred := predOp.(operations.ReplaceCellsOperation)

	if len(pred.OldCells) == 0 {
		return succ, nil
	}
	firstOld := pred.OldCells[0]
	lastOld := pred.OldCells[len(pred.OldCells)-1]

	if succ.CellID == lastOld.Cell.ID() && pred.MergeOffset != nil && succ.Offset >= *pred.MergeOffset && len(pred.NewCells) > 0 {
		trailing := pred.NewCells[len(pred.NewCells)-1]
		ownLen := text.Count(mustText(trailing.Cell))
		succ.CellID = trailing.Cell.ID()
		succ.Offset = ownLen + (succ.Offset - *pred.MergeOffset)
		return succ, nil
	}

	if succ.CellID == firstOld.Cell.ID() && pred.SplitOffset != nil && succ.Offset < *pred.SplitOffset && len(pred.NewCells) > 0 {
		leading := pred.NewCells[0]
		succ.CellID = leading.Cell.ID()
		return succ, nil
	}

	// If the cell survives untouched by split/merge, pass through.
	for _, nc := range pred.NewCells {
		if nc.Cell.ID() == succ.CellID {
			return succ, nil
		}
	}
	for _, oc := range pred.OldCells {
		if oc.Cell.ID() == succ.CellID {
			// The cell was consumed by the replace and the edit did not
			// land in a surviving prefix/suffix: intent lost.
			return nil, nil
		}
	}
	return succ, nil
}

func mustText(c notebook.Cell) string {
	t, _ := c.Text()
	return t
}

// --- ReplaceCells / ReplaceText ---------------------------------------------

func transformCellsText(_ State, succOp, predOp operations.Operation) (operations.Operation, error) {
	succ := succOp.(operations.ReplaceCellsOperation)
	pred := predOp.(operations.ReplaceTextOperation)

	if len(succ.OldCells) == 0 {
		return succ, nil
	}
	first := succ.OldCells[0]
	predEnd := pred.Offset + text.Count(pred.OldText)
	delta := int64(text.Count(pred.NewText)) - int64(text.Count(pred.OldText))

	if first.Cell.ID() == pred.CellID && succ.SplitOffset != nil && predEnd <= *succ.SplitOffset {
		newOffset := uint32(int64(*succ.SplitOffset) + delta)
		succ.SplitOffset = &newOffset
		return succ, nil
	}

	last := succ.OldCells[len(succ.OldCells)-1]
	if last.Cell.ID() == pred.CellID && succ.MergeOffset != nil && pred.Offset >= *succ.MergeOffset {
		newOffset := uint32(int64(*succ.MergeOffset) + delta)
		succ.MergeOffset = &newOffset
		return succ, nil
	}

	return succ, nil
}

// --- ReplaceCells / ReplaceCells ---------------------------------------------

func transformCellsCells(_ State, succOp, predOp operations.Operation) (operations.Operation, error) {
	succ := succOp.(operations.ReplaceCellsOperation)
	pred := predOp.(operations.ReplaceCellsOperation)

	if !rangesOverlap(succ, pred) {
		return reindexAgainst(succ, pred)
	}
	return reconcileOverlap(succ, pred)
}

func rangesOverlap(succ, pred operations.ReplaceCellsOperation) bool {
	if len(succ.OldCells) == 0 || len(pred.OldCells) == 0 {
		return false
	}
	sStart, sEnd := succ.OldCells[0].Index, succ.OldCells[len(succ.OldCells)-1].Index+1
	pStart, pEnd := pred.OldCells[0].Index, pred.OldCells[len(pred.OldCells)-1].Index+1
	return sStart < pEnd && pStart < sEnd
}

func reindexAgainst(succ, pred operations.ReplaceCellsOperation) (operations.Operation, error) {
	changes := cellindex.FromOperation(pred)

	newOld := reindexList(succ.OldCells, changes)
	newNew := reindexList(succ.NewCells, changes)
	newOldRef := reindexList(succ.OldReferencingCells, changes)
	newNewRef := reindexList(succ.NewReferencingCells, changes)

	if hasDuplicateID(newNew) || indexSetsOverlap(newNewRef, newNew) {
		return nil, nil
	}

	succ.OldCells = newOld
	succ.NewCells = newNew
	succ.OldReferencingCells = newOldRef
	succ.NewReferencingCells = newNewRef
	return succ, nil
}

func reindexList(cells []notebook.CellWithIndex, changes []cellindex.Change) []notebook.CellWithIndex {
	if len(cells) == 0 {
		return cells
	}
	out := make([]notebook.CellWithIndex, len(cells))
	for i, c := range cells {
		delta, _ := cellindex.IndexDelta(changes, c.Index)
		out[i] = notebook.CellWithIndex{Cell: c.Cell, Index: uint32(int64(c.Index) + delta)}
	}
	return out
}

func hasDuplicateID(cells []notebook.CellWithIndex) bool {
	seen := make(map[string]bool, len(cells))
	for _, c := range cells {
		id := c.Cell.ID()
		if seen[id] {
			return true
		}
		seen[id] = true
	}
	return false
}

func indexSetsOverlap(a, b []notebook.CellWithIndex) bool {
	idx := make(map[uint32]bool, len(b))
	for _, c := range b {
		idx[c.Index] = true
	}
	for _, c := range a {
		if idx[c.Index] {
			return true
		}
	}
	return false
}

// reconcileOverlap handles the case where successor and predecessor both
// rewrite intersecting ranges of the old cell sequence. Convergence is
// only possible when the text boundary the successor cut (split/merge)
// lines up with the boundary the predecessor cut.
func reconcileOverlap(succ, pred operations.ReplaceCellsOperation) (operations.Operation, error) {
	if len(succ.OldCells) == 0 || len(pred.OldCells) == 0 || len(pred.NewCells) == 0 {
		return nil, nil
	}
	predFirstOld := pred.OldCells[0]
	predLastOld := pred.OldCells[len(pred.OldCells)-1]
	succFirstOld := succ.OldCells[0]
	succLastOld := succ.OldCells[len(succ.OldCells)-1]

	// Successor merges into the cell predecessor split: clean if the
	// merge boundary falls within (or at) what predecessor kept as head.
	if succ.MergeOffset != nil && pred.SplitOffset != nil &&
		succLastOld.Cell.ID() == predFirstOld.Cell.ID() &&
		*succ.MergeOffset <= *pred.SplitOffset {
		return succ, nil
	}

	// Successor splits where predecessor merged: rewrite the successor's
	// leading old-cell reference onto predecessor's new trailing cell,
	// recomputing split_offset in that cell's coordinate space.
	if succ.SplitOffset != nil && pred.MergeOffset != nil &&
		succFirstOld.Cell.ID() == predLastOld.Cell.ID() &&
		*succ.SplitOffset >= *pred.MergeOffset {
		trailing := pred.NewCells[len(pred.NewCells)-1]
		ownLen := text.Count(mustText(trailing.Cell))
		newSplit := ownLen + (*succ.SplitOffset - *pred.MergeOffset)

		rewritten := make([]notebook.CellWithIndex, len(succ.OldCells))
		copy(rewritten, succ.OldCells)
		rewritten[0] = notebook.CellWithIndex{Cell: succFirstOld.Cell.WithID(trailing.Cell.ID()), Index: trailing.Index}

		succ.OldCells = rewritten
		succ.SplitOffset = &newSplit
		return succ, nil
	}

	return nil, nil
}

// --- ReplaceCells / MoveCells -----------------------------------------------

func transformCellsMove(_ State, succOp, predOp operations.Operation) (operations.Operation, error) {
	succ := succOp.(operations.ReplaceCellsOperation)
	pred := predOp.(operations.MoveCellsOperation)
	k := uint32(len(pred.CellIDs))

	succ.OldCells = shiftCellsByMove(succ.OldCells, pred.FromIndex, pred.ToIndex, k)
	succ.NewCells = shiftCellsByMove(succ.NewCells, pred.FromIndex, pred.ToIndex, k)
	succ.OldReferencingCells = shiftCellsByMove(succ.OldReferencingCells, pred.FromIndex, pred.ToIndex, k)
	succ.NewReferencingCells = shiftCellsByMove(succ.NewReferencingCells, pred.FromIndex, pred.ToIndex, k)
	return succ, nil
}

func shiftCellsByMove(cells []notebook.CellWithIndex, from, to, k uint32) []notebook.CellWithIndex {
	if len(cells) == 0 {
		return cells
	}
	out := make([]notebook.CellWithIndex, len(cells))
	for i, c := range cells {
		delta := moveIndexDelta(from, to, k, c.Index)
		out[i] = notebook.CellWithIndex{Cell: c.Cell, Index: uint32(int64(c.Index) + delta)}
	}
	return out
}

// moveIndexDelta computes the move-index delta rule: given a predecessor
// move of k cells from F to T, the net shift a candidate index i
// experiences.
func moveIndexDelta(f, t, k, i uint32) int64 {
	switch {
	case f < i && i < f+k:
		return int64(t) - int64(f)
	case f < i && i <= t:
		return -int64(k)
	case t < i && i <= f:
		return int64(k)
	default:
		return 0
	}
}

// --- MoveCells / MoveCells ---------------------------------------------

func transformMoveMove(_ State, succOp, predOp operations.Operation) (operations.Operation, error) {
	succ := succOp.(operations.MoveCellsOperation)
	pred := predOp.(operations.MoveCellsOperation)

	if idSetsOverlap(succ.CellIDs, pred.CellIDs) {
		return nil, nil
	}
	k := uint32(len(pred.CellIDs))
	// Each move disturbs the index span [min(from, to), max(from, to)+len);
	// the two moves only converge when those spans are disjoint.
	predLo, predHi := pred.FromIndex, pred.ToIndex
	if predLo > predHi {
		predLo, predHi = predHi, predLo
	}
	predHi += k
	succLo, succHi := succ.FromIndex, succ.ToIndex
	if succLo > succHi {
		succLo, succHi = succHi, succLo
	}
	succHi += uint32(len(succ.CellIDs))
	if predLo < succHi && succLo < predHi {
		return nil, nil
	}

	newFrom := uint32(int64(succ.FromIndex) + moveIndexDelta(pred.FromIndex, pred.ToIndex, k, succ.FromIndex))

	toDelta := moveIndexDelta(pred.FromIndex, pred.ToIndex, k, succ.ToIndex)
	if pred.ToIndex == succ.ToIndex && len(pred.CellIDs) > 0 && len(succ.CellIDs) > 0 {
		// Tie-break: the lexicographically smaller cell id lands first.
		if pred.CellIDs[0] > succ.CellIDs[0] {
			toDelta = 0
		}
	}
	newTo := uint32(int64(succ.ToIndex) + toDelta)

	succ.FromIndex = newFrom
	succ.ToIndex = newTo
	return succ, nil
}

func idSetsOverlap(a, b []string) bool {
	seen := make(map[string]bool, len(a))
	for _, id := range a {
		seen[id] = true
	}
	for _, id := range b {
		if seen[id] {
			return true
		}
	}
	return false
}

// --- MoveCells / ReplaceCells -----------------------------------------------

func transformMoveCells(_ State, succOp, predOp operations.Operation) (operations.Operation, error) {
	succ := succOp.(operations.MoveCellsOperation)
	pred := predOp.(operations.ReplaceCellsOperation)

	changes := cellindex.FromOperation(pred)

	kept := make([]string, 0, len(succ.CellIDs))
	for _, id := range succ.CellIDs {
		if !cellindex.Removed(changes, id) {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		return nil, nil
	}

	fromDelta, _ := cellindex.IndexDelta(changes, succ.FromIndex)
	toDelta, _ := cellindex.IndexDelta(changes, succ.ToIndex)

	succ.CellIDs = kept
	succ.FromIndex = uint32(int64(succ.FromIndex) + fromDelta)
	succ.ToIndex = uint32(int64(succ.ToIndex) + toDelta)
	return succ, nil
}

// --- Labels / time range / title / data source / front matter ---------------

func transformLabelLabel(_ State, succOp, predOp operations.Operation) (operations.Operation, error) {
	succKey := labelKey(succOp)
	predKey := labelKey(predOp)
	if succKey == predKey {
		return nil, nil
	}
	return succOp, nil
}

func labelKey(op operations.Operation) string {
	switch o := op.(type) {
	case operations.AddLabelOperation:
		return o.Label.Key
	case operations.ReplaceLabelOperation:
		return o.NewLabel.Key
	case operations.RemoveLabelOperation:
		return o.Label.Key
	default:
		return ""
	}
}

func transformDataSourceDataSource(_ State, succOp, predOp operations.Operation) (operations.Operation, error) {
	succ := succOp.(operations.SetSelectedDataSourceOperation)
	pred := predOp.(operations.SetSelectedDataSourceOperation)
	if succ.ProviderType == pred.ProviderType {
		return nil, nil
	}
	return succ, nil
}

func transformFMSchemaFMSchema(_ State, succOp, predOp operations.Operation) (operations.Operation, error) {
	succKeys := fmSchemaKeys(succOp)
	predKeys := fmSchemaKeys(predOp)
	for _, k := range succKeys {
		for _, p := range predKeys {
			if k == p {
				return nil, nil
			}
		}
	}
	return succOp, nil
}

func fmSchemaKeys(op operations.Operation) []string {
	switch o := op.(type) {
	case operations.InsertFrontMatterSchemaOperation:
		keys := make([]string, len(o.Insertions))
		for i, row := range o.Insertions {
			keys[i] = row.Key
		}
		return keys
	case operations.RemoveFrontMatterSchemaOperation:
		keys := make([]string, len(o.Deletions))
		for i, row := range o.Deletions {
			keys[i] = row.Key
		}
		return keys
	case operations.MoveFrontMatterSchemaOperation:
		return o.Keys
	default:
		return nil
	}
}

func transformFMValueFMValue(_ State, succOp, predOp operations.Operation) (operations.Operation, error) {
	succ := succOp.(operations.UpdateFrontMatterSchemaOperation)
	pred := predOp.(operations.UpdateFrontMatterSchemaOperation)
	if succ.Key == pred.Key {
		return nil, nil
	}
	return succ, nil
}
