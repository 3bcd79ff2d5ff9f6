package notebook

import (
	"github.com/fiberplane/fp-ot/formatting"
	"github.com/fiberplane/fp-ot/oterrors"
	"github.com/fiberplane/fp-ot/querydata"
)

// Notebook satisfies apply.ApplyOperationState and validate.State by
// structural typing: those packages describe the read-only view they need
// without importing this one, so Notebook just needs to carry matching
// methods. This file is that surface.

// CellWithIndex returns the cell with the given id paired with its
// current position, or false if no such cell exists.
func (n *Notebook) CellWithIndex(id string) (CellWithIndex, bool) {
	i := n.CellIndex(id)
	if i < 0 {
		return CellWithIndex{}, false
	}
	return CellWithIndex{Cell: n.Cells[i], Index: uint32(i)}, true
}

// AllRelevantCells returns every cell in the notebook paired with its
// index. Apply's contract permits returning strictly more cells than an
// operation touches; a live notebook always has exactly its full set on
// hand, so it returns all of them.
func (n *Notebook) AllRelevantCells() []CellRefWithIndex {
	refs := make([]CellRefWithIndex, len(n.Cells))
	for i, c := range n.Cells {
		refs[i] = CellRefWithIndex{Cell: c, Index: uint32(i)}
	}
	return refs
}

// CellTextAndFormatting returns the current text/formatting for a cell,
// or for a Provider's named query-data field when field is non-nil.
func (n *Notebook) CellTextAndFormatting(id string, field *string) (string, formatting.Formatting, error) {
	cell, ok := n.Cell(id)
	if !ok {
		return "", nil, oterrors.New(oterrors.CellNotFound, id)
	}
	if field != nil {
		provider, ok := cell.(ProviderCell)
		if !ok {
			return "", nil, oterrors.New(oterrors.NoContentCell, id)
		}
		qd := ""
		if provider.QueryData != nil {
			qd = *provider.QueryData
		}
		value, _, err := querydata.GetField(qd, *field)
		if err != nil {
			return "", nil, oterrors.Wrap(err, "reading query-data field")
		}
		return value, nil, nil
	}
	t, ok := cell.Text()
	if !ok {
		return "", nil, oterrors.New(oterrors.NoTextCell, id)
	}
	f, _ := cell.Formatting()
	return t, f, nil
}

// CellCount returns the number of cells currently in the notebook.
func (n *Notebook) CellCount() int { return len(n.Cells) }

// LabelExists reports whether a label with the given key is attached to
// the notebook.
func (n *Notebook) LabelExists(key string) bool { return n.LabelIndex(key) >= 0 }

// FrontMatterSchemaRow returns the schema row for key, if declared.
func (n *Notebook) FrontMatterSchemaRow(key string) (FrontMatterSchemaRow, bool) {
	i := n.FrontMatterSchema.Index(key)
	if i < 0 {
		return FrontMatterSchemaRow{}, false
	}
	return n.FrontMatterSchema[i], true
}

// FrontMatterValue returns the current value stored for key, if any.
func (n *Notebook) FrontMatterValue(key string) (FrontMatterValue, bool) {
	v, ok := n.FrontMatter[key]
	return v, ok
}

// Revision returns the notebook's current monotonic revision counter.
func (n *Notebook) Revision() uint32 { return n.RevisionCounter }
