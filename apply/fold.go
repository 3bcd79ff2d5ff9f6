package apply

import "github.com/fiberplane/fp-ot/notebook"

// Fold mutates nb in place to match the effect of the Change list Apply
// returned for the same operation. Apply itself never mutates state (so
// a caller can diff an operation against a read-only snapshot); Fold is
// the matching reducer a stateful owner of a *notebook.Notebook — the
// realtime server, or any future client-side mirror — runs once an
// operation is accepted, mirroring the "build a result list, then the
// caller decides what to do with it" separation Apply's own control flow
// follows.
func Fold(nb *notebook.Notebook, changes []Change) {
	for _, ch := range changes {
		foldOne(nb, ch)
	}
}

func foldOne(nb *notebook.Notebook, ch Change) {
	switch ch.Kind {
	case ChangeInsertCell, ChangeUpdateCell:
		foldUpsertCell(nb, ch.Cell, ch.CellIndex)
	case ChangeDeleteCell:
		foldDeleteCell(nb, ch.CellID)
	case ChangeMoveCells:
		foldMoveCells(nb, ch.CellIDs, ch.FromIndex, ch.ToIndex)
	case ChangeUpdateCellText:
		foldUpdateCellText(nb, ch)
	case ChangeUpdateNotebookTimeRange:
		nb.TimeRange = ch.TimeRange
	case ChangeUpdateNotebookTitle:
		nb.Title = ch.Title
	case ChangeSetSelectedDataSource:
		foldSetSelectedDataSource(nb, ch)
	case ChangeAddLabel:
		nb.Labels = append(nb.Labels, ch.Label)
	case ChangeReplaceLabel:
		if i := nb.LabelIndex(ch.Label.Key); i >= 0 {
			nb.Labels[i] = ch.Label
		}
	case ChangeRemoveLabel:
		if i := nb.LabelIndex(ch.Label.Key); i >= 0 {
			nb.Labels = append(nb.Labels[:i], nb.Labels[i+1:]...)
		}
	case ChangeInsertFrontMatterSchema:
		foldInsertFrontMatterSchema(nb, ch)
	case ChangeUpdateFrontMatterSchema:
		foldUpdateFrontMatterSchema(nb, ch)
	case ChangeMoveFrontMatterSchema:
		foldMoveFrontMatterSchema(nb, ch)
	case ChangeRemoveFrontMatterSchema:
		foldRemoveFrontMatterSchema(nb, ch)
	case ChangeClearFrontMatter:
		nb.FrontMatter = notebook.FrontMatterValues{}
	}
}

// foldUpsertCell places cell at index, inserting if no cell with its id
// currently exists or overwriting in place otherwise. Callers apply a
// ReplaceCells change list in Apply's emission order (ascending target
// index among inserts/updates), so each index already reflects the
// notebook's state after every earlier change in the same batch.
func foldUpsertCell(nb *notebook.Notebook, cell notebook.Cell, index uint32) {
	if i := nb.CellIndex(cell.ID()); i >= 0 {
		nb.Cells[i] = cell
		return
	}
	at := int(index)
	if at > len(nb.Cells) {
		at = len(nb.Cells)
	}
	nb.Cells = append(nb.Cells, nil)
	copy(nb.Cells[at+1:], nb.Cells[at:])
	nb.Cells[at] = cell
}

func foldDeleteCell(nb *notebook.Notebook, cellID string) {
	i := nb.CellIndex(cellID)
	if i < 0 {
		return
	}
	nb.Cells = append(nb.Cells[:i], nb.Cells[i+1:]...)
}

// foldMoveCells takes the contiguous block of len(ids) cells that starts at
// `from` and reinserts it so that it starts at index `to` of the resulting
// sequence, the convention MoveCellsOperation documents and validate's
// to <= n-k bound assumes. ids only give the block's length.
func foldMoveCells(nb *notebook.Notebook, ids []string, from, to uint32) {
	k := uint32(len(ids))
	if k == 0 || int(from)+int(k) > len(nb.Cells) {
		return
	}
	block := append([]notebook.Cell{}, nb.Cells[from:from+k]...)
	rest := append(append([]notebook.Cell{}, nb.Cells[:from]...), nb.Cells[from+k:]...)
	insertAt := to
	if int(insertAt) > len(rest) {
		insertAt = uint32(len(rest))
	}
	merged := append([]notebook.Cell{}, rest[:insertAt]...)
	merged = append(merged, block...)
	merged = append(merged, rest[insertAt:]...)
	nb.Cells = merged
}

func foldUpdateCellText(nb *notebook.Notebook, ch Change) {
	i := nb.CellIndex(ch.CellID)
	if i < 0 {
		return
	}
	if ch.Field != nil {
		provider, ok := nb.Cells[i].(notebook.ProviderCell)
		if !ok {
			return
		}
		newText := ch.NewText
		provider.QueryData = &newText
		nb.Cells[i] = provider
		return
	}
	nb.Cells[i] = nb.Cells[i].WithText(ch.NewText, ch.NewFormatting)
}

func foldSetSelectedDataSource(nb *notebook.Notebook, ch Change) {
	if nb.SelectedDataSources == nil {
		nb.SelectedDataSources = make(map[string]string)
	}
	if ch.DataSource == nil {
		delete(nb.SelectedDataSources, ch.ProviderType)
		return
	}
	nb.SelectedDataSources[ch.ProviderType] = *ch.DataSource
}

func foldInsertFrontMatterSchema(nb *notebook.Notebook, ch Change) {
	at := int(ch.ToIndex)
	if at > len(nb.FrontMatterSchema) {
		at = len(nb.FrontMatterSchema)
	}
	schema := append(notebook.FrontMatterSchema{}, nb.FrontMatterSchema[:at]...)
	schema = append(schema, ch.FrontMatterRows...)
	schema = append(schema, nb.FrontMatterSchema[at:]...)
	nb.FrontMatterSchema = schema
}

func foldUpdateFrontMatterSchema(nb *notebook.Notebook, ch Change) {
	i := nb.FrontMatterSchema.Index(ch.FrontMatterKey)
	if ch.FrontMatterSchema == nil {
		if i >= 0 {
			nb.FrontMatterSchema = append(nb.FrontMatterSchema[:i], nb.FrontMatterSchema[i+1:]...)
		}
	} else {
		row := notebook.FrontMatterSchemaRow{Key: ch.FrontMatterKey, Schema: *ch.FrontMatterSchema}
		if i >= 0 {
			nb.FrontMatterSchema[i] = row
		} else {
			nb.FrontMatterSchema = append(nb.FrontMatterSchema, row)
		}
	}

	if ch.FrontMatterDeleteValue {
		if nb.FrontMatter != nil {
			delete(nb.FrontMatter, ch.FrontMatterKey)
		}
		return
	}
	if ch.FrontMatterValue != nil {
		if nb.FrontMatter == nil {
			nb.FrontMatter = notebook.FrontMatterValues{}
		}
		nb.FrontMatter[ch.FrontMatterKey] = *ch.FrontMatterValue
	}
}

func foldMoveFrontMatterSchema(nb *notebook.Notebook, ch Change) {
	k := uint32(len(ch.CellIDs))
	if k == 0 || int(ch.FromIndex)+int(k) > len(nb.FrontMatterSchema) {
		return
	}
	block := append(notebook.FrontMatterSchema{}, nb.FrontMatterSchema[ch.FromIndex:ch.FromIndex+k]...)
	rest := append(append(notebook.FrontMatterSchema{}, nb.FrontMatterSchema[:ch.FromIndex]...), nb.FrontMatterSchema[ch.FromIndex+k:]...)
	insertAt := ch.ToIndex
	if int(insertAt) > len(rest) {
		insertAt = uint32(len(rest))
	}
	merged := append(notebook.FrontMatterSchema{}, rest[:insertAt]...)
	merged = append(merged, block...)
	merged = append(merged, rest[insertAt:]...)
	nb.FrontMatterSchema = merged
}

func foldRemoveFrontMatterSchema(nb *notebook.Notebook, ch Change) {
	at := int(ch.FromIndex)
	n := len(ch.FrontMatterRows)
	if at+n > len(nb.FrontMatterSchema) {
		return
	}
	for _, row := range ch.FrontMatterRows {
		if nb.FrontMatter != nil {
			delete(nb.FrontMatter, row.Key)
		}
	}
	nb.FrontMatterSchema = append(nb.FrontMatterSchema[:at], nb.FrontMatterSchema[at+n:]...)
}
