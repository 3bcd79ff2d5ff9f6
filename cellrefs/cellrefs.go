// Package cellrefs indexes which cells name a given cell id as a data
// source, adapted from an earlier node package: where node.Node walked
// a path trie to reconcile renames and deletes against a flat file
// namespace, cellrefs walks a flat slice index over the much smaller
// namespace of referencing cells (Graph/Log/Table/Timeline cells that
// declare DataLinks against other cells) using the same linear-scan,
// swap-remove style as node.go's DeleteSubFile.
package cellrefs

import "github.com/fiberplane/fp-ot/notebook"

// Index maps a source cell id to the ordered set of cell ids that
// currently name it as a data source.
type Index struct {
	entries []entry
}

type entry struct {
	sourceID string
	from     []string
}

func (idx *Index) find(sourceID string) int {
	for i, e := range idx.entries {
		if e.sourceID == sourceID {
			return i
		}
	}
	return -1
}

// AddReference records that the cell "from" names "sourceID" as a data
// source. A duplicate add is a no-op.
func (idx *Index) AddReference(sourceID, from string) {
	i := idx.find(sourceID)
	if i < 0 {
		idx.entries = append(idx.entries, entry{sourceID: sourceID, from: []string{from}})
		return
	}
	for _, f := range idx.entries[i].from {
		if f == from {
			return
		}
	}
	idx.entries[i].from = append(idx.entries[i].from, from)
}

// RemoveReference undoes AddReference. Removing the last reference to a
// source drops its entry entirely, matching node.go's dead-child pruning.
func (idx *Index) RemoveReference(sourceID, from string) {
	i := idx.find(sourceID)
	if i < 0 {
		return
	}
	refs := idx.entries[i].from
	j := 0
	found := false
	for j = range refs {
		if refs[j] == from {
			found = true
			break
		}
	}
	if !found {
		return
	}
	refs[j] = refs[len(refs)-1]
	idx.entries[i].from = refs[:len(refs)-1]
	if len(idx.entries[i].from) == 0 {
		idx.entries[i] = idx.entries[len(idx.entries)-1]
		idx.entries = idx.entries[:len(idx.entries)-1]
	}
}

// ReferencesOf returns the cell ids currently referencing sourceID.
func (idx *Index) ReferencesOf(sourceID string) []string {
	i := idx.find(sourceID)
	if i < 0 {
		return nil
	}
	out := make([]string, len(idx.entries[i].from))
	copy(out, idx.entries[i].from)
	return out
}

// HasMultipleReferences reports whether more than one cell currently
// references sourceID.
func (idx *Index) HasMultipleReferences(sourceID string) bool {
	return len(idx.ReferencesOf(sourceID)) > 1
}

// BuildFromCells scans a full cell list and returns the index it implies.
// A notebook session rebuilds its index this way after every accepted
// operation rather than patching it incrementally: notebooks are small
// enough that a full rescan costs nothing and there is no stale-entry
// risk from a missed Change case.
func BuildFromCells(cells []notebook.Cell) Index {
	var idx Index
	for _, c := range cells {
		if !notebook.IsReferencingCell(c.Kind()) {
			continue
		}
		for _, sourceID := range notebook.SourceIDs(c) {
			idx.AddReference(sourceID, c.ID())
		}
	}
	return idx
}
