package notebook_test

import (
	"testing"

	"github.com/fiberplane/fp-ot/formatting"
	"github.com/fiberplane/fp-ot/notebook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleNotebook() *notebook.Notebook {
	qd := "application/x-www-form-urlencoded,query=up"
	return &notebook.Notebook{
		Cells: []notebook.Cell{
			notebook.TextCell{}.WithID("c1").WithText("hello", formatting.Formatting{
				{Offset: 0, Annotation: formatting.Annotation{Kind: formatting.StartBold}},
				{Offset: 5, Annotation: formatting.Annotation{Kind: formatting.EndBold}},
			}),
			notebook.ProviderCell{QueryData: &qd}.WithID("p1"),
		},
		Labels:            []notebook.Label{{Key: "env", Value: "prod"}},
		FrontMatterSchema: notebook.FrontMatterSchema{{Key: "owner", Schema: notebook.FrontMatterValueSchema{Kind: notebook.FrontMatterString}}},
		FrontMatter:       notebook.FrontMatterValues{"owner": {Kind: notebook.FrontMatterString, Values: []string{"ada"}}},
		RevisionCounter:   7,
	}
}

func TestNotebookCellWithIndex(t *testing.T) {
	n := sampleNotebook()
	cw, ok := n.CellWithIndex("p1")
	require.True(t, ok)
	assert.Equal(t, uint32(1), cw.Index)

	_, ok = n.CellWithIndex("missing")
	assert.False(t, ok)
}

func TestNotebookAllRelevantCells(t *testing.T) {
	n := sampleNotebook()
	refs := n.AllRelevantCells()
	require.Len(t, refs, 2)
	assert.Equal(t, "c1", refs[0].Cell.ID())
	assert.Equal(t, uint32(1), refs[1].Index)
}

func TestNotebookCellTextAndFormatting_PlainCell(t *testing.T) {
	n := sampleNotebook()
	text, f, err := n.CellTextAndFormatting("c1", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Len(t, f, 2)
}

func TestNotebookCellTextAndFormatting_ProviderField(t *testing.T) {
	n := sampleNotebook()
	value, f, err := n.CellTextAndFormatting("p1", strPtr("query"))
	require.NoError(t, err)
	assert.Equal(t, "up", value)
	assert.Nil(t, f)
}

func TestNotebookCellTextAndFormatting_NotFound(t *testing.T) {
	n := sampleNotebook()
	_, _, err := n.CellTextAndFormatting("missing", nil)
	assert.Error(t, err)
}

func TestNotebookLabelExists(t *testing.T) {
	n := sampleNotebook()
	assert.True(t, n.LabelExists("env"))
	assert.False(t, n.LabelExists("missing"))
}

func TestNotebookFrontMatterLookups(t *testing.T) {
	n := sampleNotebook()
	row, ok := n.FrontMatterSchemaRow("owner")
	require.True(t, ok)
	assert.Equal(t, notebook.FrontMatterString, row.Schema.Kind)

	val, ok := n.FrontMatterValue("owner")
	require.True(t, ok)
	assert.Equal(t, []string{"ada"}, val.Values)
}

func TestNotebookCellCountAndRevision(t *testing.T) {
	n := sampleNotebook()
	assert.Equal(t, 2, n.CellCount())
	assert.Equal(t, uint32(7), n.Revision())
}

func strPtr(s string) *string { return &s }
