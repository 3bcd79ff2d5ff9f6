package operations_test

import (
	"testing"

	"github.com/fiberplane/fp-ot/notebook"
	"github.com/fiberplane/fp-ot/operations"
	"github.com/stretchr/testify/assert"
)

func TestReplaceTextInvertRoundTrips(t *testing.T) {
	op := operations.ReplaceTextOperation{
		CellID:  "c1",
		Offset:  3,
		NewText: "more ",
		OldText: "",
	}
	inv := op.Invert().(operations.ReplaceTextOperation)
	assert.Equal(t, "", inv.NewText)
	assert.Equal(t, "more ", inv.OldText)
	assert.Equal(t, op.Offset, inv.Offset)
	assert.Equal(t, op.CellID, inv.CellID)

	back := inv.Invert().(operations.ReplaceTextOperation)
	assert.Equal(t, op, back)
}

func TestAddRemoveLabelInvertSwapsKind(t *testing.T) {
	l := notebook.Label{Key: "env", Value: "prod"}
	add := operations.AddLabelOperation{Label: l}
	assert.Equal(t, operations.KindRemoveLabel, add.Invert().Kind())

	rm := operations.RemoveLabelOperation{Label: l}
	assert.Equal(t, operations.KindAddLabel, rm.Invert().Kind())
}

func TestMoveCellsInvertSwapsFromTo(t *testing.T) {
	op := operations.MoveCellsOperation{CellIDs: []string{"a", "b"}, FromIndex: 1, ToIndex: 4}
	inv := op.Invert().(operations.MoveCellsOperation)
	assert.Equal(t, uint32(4), inv.FromIndex)
	assert.Equal(t, uint32(1), inv.ToIndex)
	assert.Equal(t, op.CellIDs, inv.CellIDs)
}

func TestInsertRemoveFrontMatterSchemaInvertSwapsKind(t *testing.T) {
	rows := []notebook.FrontMatterSchemaRow{{Key: "k", Schema: notebook.FrontMatterValueSchema{Kind: notebook.FrontMatterString}}}
	ins := operations.InsertFrontMatterSchemaOperation{ToIndex: 2, Insertions: rows}
	inv := ins.Invert().(operations.RemoveFrontMatterSchemaOperation)
	assert.Equal(t, uint32(2), inv.FromIndex)
	assert.Equal(t, rows, inv.Deletions)

	back := inv.Invert().(operations.InsertFrontMatterSchemaOperation)
	assert.Equal(t, ins, back)
}

func TestClearFrontMatterInvertIsIdentity(t *testing.T) {
	op := operations.ClearFrontMatterOperation{OldFrontMatter: notebook.FrontMatterValues{
		"k": {Kind: notebook.FrontMatterString, Values: []string{"v"}},
	}}
	assert.Equal(t, operations.Operation(op), op.Invert())
}

func TestReplaceCellsInvertSwapsNewAndOld(t *testing.T) {
	oldCell := notebook.CellWithIndex{Cell: notebook.TextCell{}.WithID("c1"), Index: 0}
	newCell := notebook.CellWithIndex{Cell: notebook.TextCell{}.WithID("c2"), Index: 0}
	op := operations.ReplaceCellsOperation{
		NewCells: []notebook.CellWithIndex{newCell},
		OldCells: []notebook.CellWithIndex{oldCell},
	}
	inv := op.Invert().(operations.ReplaceCellsOperation)
	assert.Equal(t, op.OldCells, inv.NewCells)
	assert.Equal(t, op.NewCells, inv.OldCells)
}
