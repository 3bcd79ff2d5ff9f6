package apply_test

import (
	"testing"

	"github.com/fiberplane/fp-ot/apply"
	"github.com/fiberplane/fp-ot/notebook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoldInsertAndUpdateCell(t *testing.T) {
	nb := &notebook.Notebook{Cells: []notebook.Cell{notebook.TextCell{}.WithID("c1")}}

	apply.Fold(nb, []apply.Change{
		{Kind: apply.ChangeInsertCell, Cell: notebook.TextCell{}.WithID("c2"), CellIndex: 1},
	})
	require.Len(t, nb.Cells, 2)
	assert.Equal(t, "c2", nb.Cells[1].ID())

	apply.Fold(nb, []apply.Change{
		{Kind: apply.ChangeUpdateCell, Cell: notebook.TextCell{}.WithID("c2").WithText("hi", nil), CellIndex: 1},
	})
	require.Len(t, nb.Cells, 2)
	text, _ := nb.Cells[1].Text()
	assert.Equal(t, "hi", text)
}

func TestFoldDeleteCell(t *testing.T) {
	nb := &notebook.Notebook{Cells: []notebook.Cell{
		notebook.TextCell{}.WithID("c1"),
		notebook.TextCell{}.WithID("c2"),
	}}
	apply.Fold(nb, []apply.Change{{Kind: apply.ChangeDeleteCell, CellID: "c1"}})
	require.Len(t, nb.Cells, 1)
	assert.Equal(t, "c2", nb.Cells[0].ID())
}

func TestFoldMoveCellsReorders(t *testing.T) {
	nb := &notebook.Notebook{Cells: []notebook.Cell{
		notebook.TextCell{}.WithID("a"),
		notebook.TextCell{}.WithID("b"),
		notebook.TextCell{}.WithID("c"),
		notebook.TextCell{}.WithID("d"),
	}}
	// move the single-cell block at index 0 ("a") so that it starts at index 3
	apply.Fold(nb, []apply.Change{{Kind: apply.ChangeMoveCells, CellIDs: []string{"a"}, FromIndex: 0, ToIndex: 3}})
	var ids []string
	for _, c := range nb.Cells {
		ids = append(ids, c.ID())
	}
	assert.Equal(t, []string{"b", "c", "d", "a"}, ids)
}

func TestFoldUpdateCellText(t *testing.T) {
	nb := &notebook.Notebook{Cells: []notebook.Cell{notebook.TextCell{}.WithID("c1").WithText("hello", nil)}}
	apply.Fold(nb, []apply.Change{{Kind: apply.ChangeUpdateCellText, CellID: "c1", NewText: "goodbye"}})
	text, _ := nb.Cells[0].Text()
	assert.Equal(t, "goodbye", text)
}

func TestFoldNotebookLevelChanges(t *testing.T) {
	nb := &notebook.Notebook{}
	apply.Fold(nb, []apply.Change{
		{Kind: apply.ChangeUpdateNotebookTitle, Title: "new title"},
		{Kind: apply.ChangeUpdateNotebookTimeRange, TimeRange: notebook.TimeRange{}},
		{Kind: apply.ChangeAddLabel, Label: notebook.Label{Key: "env", Value: "prod"}},
	})
	assert.Equal(t, "new title", nb.Title)
	require.Len(t, nb.Labels, 1)
	assert.Equal(t, "prod", nb.Labels[0].Value)

	apply.Fold(nb, []apply.Change{{Kind: apply.ChangeReplaceLabel, Label: notebook.Label{Key: "env", Value: "staging"}}})
	assert.Equal(t, "staging", nb.Labels[0].Value)

	apply.Fold(nb, []apply.Change{{Kind: apply.ChangeRemoveLabel, Label: notebook.Label{Key: "env"}}})
	assert.Empty(t, nb.Labels)
}

func TestFoldFrontMatterSchemaLifecycle(t *testing.T) {
	nb := &notebook.Notebook{}
	row := notebook.FrontMatterSchemaRow{Key: "owner", Schema: notebook.FrontMatterValueSchema{Kind: notebook.FrontMatterString}}
	apply.Fold(nb, []apply.Change{{Kind: apply.ChangeInsertFrontMatterSchema, FrontMatterRows: []notebook.FrontMatterSchemaRow{row}, ToIndex: 0}})
	require.Len(t, nb.FrontMatterSchema, 1)
	assert.Equal(t, "owner", nb.FrontMatterSchema[0].Key)

	v := notebook.FrontMatterValue{Kind: notebook.FrontMatterString, Values: []string{"alice"}}
	apply.Fold(nb, []apply.Change{{Kind: apply.ChangeUpdateFrontMatterSchema, FrontMatterKey: "owner", FrontMatterValue: &v}})
	require.NotNil(t, nb.FrontMatter)
	assert.Equal(t, v, nb.FrontMatter["owner"])

	apply.Fold(nb, []apply.Change{{Kind: apply.ChangeRemoveFrontMatterSchema, FrontMatterRows: []notebook.FrontMatterSchemaRow{row}, FromIndex: 0}})
	assert.Empty(t, nb.FrontMatterSchema)
	assert.NotContains(t, nb.FrontMatter, "owner")
}

func TestFoldClearFrontMatter(t *testing.T) {
	nb := &notebook.Notebook{FrontMatter: notebook.FrontMatterValues{"owner": notebook.FrontMatterValue{}}}
	apply.Fold(nb, []apply.Change{{Kind: apply.ChangeClearFrontMatter}})
	assert.Empty(t, nb.FrontMatter)
}
