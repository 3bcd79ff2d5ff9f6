package operations_test

import (
	"encoding/json"
	"testing"

	"github.com/fiberplane/fp-ot/notebook"
	"github.com/fiberplane/fp-ot/operations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceTextRoundTrip(t *testing.T) {
	op := operations.ReplaceTextOperation{
		CellID:  "c1",
		Offset:  3,
		NewText: "abc",
		OldText: "xy",
	}
	data, err := json.Marshal(op)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"replace_text"`)
	assert.Contains(t, string(data), `"cellId":"c1"`)

	decoded, err := operations.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, op, decoded)
}

func TestMoveCellsRoundTrip(t *testing.T) {
	op := operations.MoveCellsOperation{CellIDs: []string{"a", "b"}, FromIndex: 1, ToIndex: 4}
	data, err := json.Marshal(op)
	require.NoError(t, err)

	decoded, err := operations.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, op, decoded)
}

func TestReplaceCellsRoundTripWithNestedCell(t *testing.T) {
	op := operations.ReplaceCellsOperation{
		OldCells: []notebook.CellWithIndex{{Cell: notebook.TextCell{}.WithID("c1").WithText("hi", nil), Index: 0}},
		NewCells: []notebook.CellWithIndex{{Cell: notebook.TextCell{}.WithID("c1").WithText("hi there", nil), Index: 0}},
	}
	data, err := json.Marshal(op)
	require.NoError(t, err)

	decoded, err := operations.Decode(data)
	require.NoError(t, err)
	rc, ok := decoded.(operations.ReplaceCellsOperation)
	require.True(t, ok)
	require.Len(t, rc.NewCells, 1)
	assert.Equal(t, "c1", rc.NewCells[0].Cell.ID())
	text, _ := rc.NewCells[0].Cell.Text()
	assert.Equal(t, "hi there", text)
}

func TestDecodeUnknownKindErrors(t *testing.T) {
	_, err := operations.Decode([]byte(`{"kind":"not_a_real_kind"}`))
	assert.Error(t, err)
}
