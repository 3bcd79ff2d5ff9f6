package realtime_test

import (
	"encoding/json"
	"testing"

	"github.com/fiberplane/fp-ot/operations"
	"github.com/fiberplane/fp-ot/realtime"
	"github.com/fiberplane/fp-ot/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSubscribe(t *testing.T) {
	rev := uint32(5)
	raw, err := json.Marshal(realtime.SubscribeMessage{NotebookID: "nb1", Revision: &rev})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"subscribe"`)

	decoded, err := realtime.Decode(raw)
	require.NoError(t, err)
	sub, ok := decoded.(realtime.SubscribeMessage)
	require.True(t, ok)
	assert.Equal(t, "nb1", sub.NotebookID)
	require.NotNil(t, sub.Revision)
	assert.Equal(t, uint32(5), *sub.Revision)
}

func TestDecodeApplyOperationCarriesConcreteOperation(t *testing.T) {
	msg := realtime.ApplyOperationMessage{
		NotebookID: "nb1",
		Operation:  operations.ReplaceTextOperation{CellID: "c1", NewText: "hi", OldText: ""},
		Revision:   3,
	}
	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	decoded, err := realtime.Decode(raw)
	require.NoError(t, err)
	apply, ok := decoded.(realtime.ApplyOperationMessage)
	require.True(t, ok)
	assert.Equal(t, operations.KindReplaceText, apply.Operation.Kind())
}

func TestDecodeApplyOperationBatch(t *testing.T) {
	msg := realtime.ApplyOperationBatchMessage{
		NotebookID: "nb1",
		Operations: []operations.Operation{
			operations.AddLabelOperation{},
			operations.MoveCellsOperation{CellIDs: []string{"a"}, FromIndex: 0, ToIndex: 1},
		},
		Revision: 1,
	}
	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	decoded, err := realtime.Decode(raw)
	require.NoError(t, err)
	batch, ok := decoded.(realtime.ApplyOperationBatchMessage)
	require.True(t, ok)
	require.Len(t, batch.Operations, 2)
	assert.Equal(t, operations.KindMoveCells, batch.Operations[1].Kind())
}

func TestEncodeRejectedMessage(t *testing.T) {
	opID := "op-1"
	raw, err := realtime.Encode(realtime.RejectedMessage{
		Reason: validate.RejectReason{Kind: validate.Outdated, CurrentRevision: 7},
		OpID:   &opID,
	})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"rejected"`)
	assert.Contains(t, string(raw), `"outdated"`)
}

func TestDecodeUnknownTypeErrors(t *testing.T) {
	_, err := realtime.Decode([]byte(`{"type":"not_a_real_type"}`))
	assert.Error(t, err)
}
