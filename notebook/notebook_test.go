package notebook_test

import (
	"testing"

	"github.com/fiberplane/fp-ot/notebook"
	"github.com/stretchr/testify/assert"
)

func TestCellIndexAndLookup(t *testing.T) {
	n := &notebook.Notebook{
		Cells: []notebook.Cell{
			notebook.TextCell{}.WithID("c1"),
		},
	}
	assert.Equal(t, 0, n.CellIndex("c1"))
	assert.Equal(t, -1, n.CellIndex("missing"))
	c, ok := n.Cell("c1")
	assert.True(t, ok)
	assert.Equal(t, "c1", c.ID())
}

func TestSourceIDsRoundTrip(t *testing.T) {
	g := notebook.GraphCell{DataLinks: []string{"c1", "c2"}}
	assert.Equal(t, []string{"c1", "c2"}, notebook.SourceIDs(g))

	updated := notebook.WithSourceIDs(g, []string{"c1"})
	assert.Equal(t, []string{"c1"}, notebook.SourceIDs(updated))
}

func TestCellKindsCarryingTextAndFormatting(t *testing.T) {
	cases := []struct {
		cell       notebook.Cell
		hasText    bool
		hasFormat  bool
	}{
		{notebook.TextCell{}, true, true},
		{notebook.CodeCell{}, true, false},
		{notebook.DividerCell{}, false, false},
		{notebook.ProviderCell{}, true, true},
	}
	for _, tc := range cases {
		_, textOK := tc.cell.Text()
		assert.Equal(t, tc.hasText, textOK, tc.cell.Kind().String())
		assert.Equal(t, tc.hasFormat, tc.cell.SupportsFormatting(), tc.cell.Kind().String())
	}
}
