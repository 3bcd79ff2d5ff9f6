package oplog_test

import (
	"bytes"
	"testing"

	"github.com/fiberplane/fp-ot/oplog"
	"github.com/fiberplane/fp-ot/operations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	var log oplog.Log
	log.SetWriter(&buf)

	require.NoError(t, log.Append(1, operations.ReplaceTextOperation{CellID: "c1", NewText: "a", OldText: ""}))
	require.NoError(t, log.Append(2, operations.MoveCellsOperation{CellIDs: []string{"c1"}, FromIndex: 0, ToIndex: 1}))

	entries, err := oplog.Read(&buf, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint32(1), entries[0].Revision)
	assert.Equal(t, operations.KindReplaceText, entries[0].Operation.Kind())
	assert.Equal(t, uint32(2), entries[1].Revision)
	assert.Equal(t, operations.KindMoveCells, entries[1].Operation.Kind())
}

func TestReadFromFiltersOlderRevisions(t *testing.T) {
	var buf bytes.Buffer
	var log oplog.Log
	log.SetWriter(&buf)

	require.NoError(t, log.Append(1, operations.AddLabelOperation{}))
	require.NoError(t, log.Append(2, operations.AddLabelOperation{}))
	require.NoError(t, log.Append(3, operations.AddLabelOperation{}))

	entries, err := oplog.Read(&buf, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint32(2), entries[0].Revision)
	assert.Equal(t, uint32(3), entries[1].Revision)
}

func TestAppendWithoutWriterFails(t *testing.T) {
	var log oplog.Log
	err := log.Append(1, operations.AddLabelOperation{})
	assert.Error(t, err)
}
