// Package cellindex turns a ReplaceCellsOperation into the ordered list of
// elementary index changes (insertion, removal, replacement) the transform
// engine needs to reindex a concurrent operation's cell-sequence positions.
// Pure index arithmetic, built directly from the reindexing rules the
// transform table needs.
package cellindex

import "github.com/fiberplane/fp-ot/operations"

// Priority classifies how an Insertion behaves when another concurrent
// operation also inserts at the same index: High wins the earlier slot,
// Low yields it. Referencing-cell insertions always carry Low so they
// never contend with a main-range insertion for position.
type Priority int

const (
	Low Priority = iota
	Normal
	High
)

// Kind is the closed set of elementary change shapes a ReplaceCells
// operation decomposes into.
type Kind int

const (
	KindInsertion Kind = iota
	KindRemoval
	KindReplacement
)

// Change is one elementary index-space edit. OldIndex is meaningful for
// Removal and Replacement; NewIndex is meaningful for Insertion and
// Replacement.
type Change struct {
	Kind     Kind
	OldIndex uint32
	NewIndex uint32
	CellID   string
	Priority Priority
}

// FromOperation decomposes a ReplaceCellsOperation into its ordered change
// list: a Replacement for every cell id present in both OldCells and
// NewCells, a Removal for every id only in OldCells, an Insertion for
// every id only in NewCells, and a Low-priority Insertion for any
// referencing cell with no old counterpart. Insertions in the main range
// start at Normal priority and escalate to High after the first one, so a
// contiguous run of inserted cells is never split apart by an
// equal-priority insertion from a different, concurrently transformed
// operation (the priority tie-break rule).
func FromOperation(op operations.ReplaceCellsOperation) []Change {
	oldIndex := make(map[string]uint32, len(op.OldCells))
	for _, oc := range op.OldCells {
		oldIndex[oc.Cell.ID()] = oc.Index
	}
	newIndex := make(map[string]uint32, len(op.NewCells))
	for _, nc := range op.NewCells {
		newIndex[nc.Cell.ID()] = nc.Index
	}
	oldRefIndex := make(map[string]uint32, len(op.OldReferencingCells))
	for _, rc := range op.OldReferencingCells {
		oldRefIndex[rc.Cell.ID()] = rc.Index
	}

	var changes []Change
	sawInsertion := false
	for _, nc := range op.NewCells {
		id := nc.Cell.ID()
		if oi, ok := oldIndex[id]; ok {
			changes = append(changes, Change{Kind: KindReplacement, OldIndex: oi, NewIndex: nc.Index, CellID: id})
			continue
		}
		p := Normal
		if sawInsertion {
			p = High
		}
		changes = append(changes, Change{Kind: KindInsertion, NewIndex: nc.Index, CellID: id, Priority: p})
		sawInsertion = true
	}
	for _, oc := range op.OldCells {
		id := oc.Cell.ID()
		if _, ok := newIndex[id]; !ok {
			changes = append(changes, Change{Kind: KindRemoval, OldIndex: oc.Index, CellID: id})
		}
	}
	for _, rc := range op.NewReferencingCells {
		id := rc.Cell.ID()
		if oi, ok := oldRefIndex[id]; ok {
			changes = append(changes, Change{Kind: KindReplacement, OldIndex: oi, NewIndex: rc.Index, CellID: id})
			continue
		}
		changes = append(changes, Change{Kind: KindInsertion, NewIndex: rc.Index, CellID: id, Priority: Low})
	}
	for _, rc := range op.OldReferencingCells {
		id := rc.Cell.ID()
		found := false
		for _, nrc := range op.NewReferencingCells {
			if nrc.Cell.ID() == id {
				found = true
				break
			}
		}
		if !found {
			changes = append(changes, Change{Kind: KindRemoval, OldIndex: rc.Index, CellID: id})
		}
	}
	return changes
}

// IndexDelta walks changes in order and returns the net shift a pre-change
// index of oldIndex experiences, plus whether the cell that stood at
// oldIndex was itself removed by one of the changes. A concurrent
// operation's own index (e.g. MoveCells.FromIndex) adds delta to land in
// the post-change index space.
func IndexDelta(changes []Change, oldIndex uint32) (delta int64, removed bool) {
	for _, c := range changes {
		switch c.Kind {
		case KindRemoval:
			switch {
			case c.OldIndex < oldIndex:
				delta--
			case c.OldIndex == oldIndex:
				removed = true
			}
		case KindInsertion:
			if c.NewIndex <= uint32(int64(oldIndex)+delta) {
				delta++
			}
		case KindReplacement:
			// Same position, same slot: no length change.
		}
	}
	return delta, removed
}

// NewIndexOf returns the post-change index of a cell id that survives the
// change list (Replacement or Insertion), and false if it was removed or
// never mentioned.
func NewIndexOf(changes []Change, cellID string) (uint32, bool) {
	for _, c := range changes {
		if c.CellID == cellID && (c.Kind == KindReplacement || c.Kind == KindInsertion) {
			return c.NewIndex, true
		}
	}
	return 0, false
}

// Removed reports whether cellID was removed by one of the changes.
func Removed(changes []Change, cellID string) bool {
	for _, c := range changes {
		if c.Kind == KindRemoval && c.CellID == cellID {
			return true
		}
	}
	return false
}

// MainRangeIDs returns the ids of every Replacement and Insertion change,
// preserving change-list order; referencing-cell changes of those kinds
// are included too. It serves callers checking cell-id overlap between two
// operations.
func MainRangeIDs(changes []Change) []string {
	var ids []string
	for _, c := range changes {
		if c.Kind == KindReplacement || c.Kind == KindInsertion {
			ids = append(ids, c.CellID)
		}
	}
	return ids
}
