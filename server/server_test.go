package server_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/fiberplane/fp-ot/config"
	"github.com/fiberplane/fp-ot/formatting"
	"github.com/fiberplane/fp-ot/notebook"
	"github.com/fiberplane/fp-ot/operations"
	"github.com/fiberplane/fp-ot/realtime"
	"github.com/fiberplane/fp-ot/server"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureBroadcaster struct {
	sent map[string][]realtime.ServerMessage
}

func (c *captureBroadcaster) Send(subscriberID string, msg realtime.ServerMessage) error {
	if c.sent == nil {
		c.sent = make(map[string][]realtime.ServerMessage)
	}
	c.sent[subscriberID] = append(c.sent[subscriberID], msg)
	return nil
}

func testConfig() *config.Config {
	cfg, err := config.Unmarshal(nil)
	if err != nil {
		panic(err)
	}
	return cfg
}

func newTextNotebook() *notebook.Notebook {
	return &notebook.Notebook{
		Cells: []notebook.Cell{notebook.TextCell{}.WithID("c1").WithText("hello", formatting.Formatting{})},
	}
}

func TestApplyAcceptsOperationAtCurrentRevision(t *testing.T) {
	var buf bytes.Buffer
	session := server.NewNotebookSession(logrus.New(), testConfig(), newTextNotebook(), &buf)

	result := session.Apply("nb1", operations.ReplaceTextOperation{
		CellID: "c1", Offset: 5, NewText: " world", OldText: "",
	}, 0)

	require.Nil(t, result.Rejected)
	require.NoError(t, result.Err)
	assert.Equal(t, uint32(1), result.Revision)
	assert.Equal(t, uint32(1), session.Revision())
}

func TestApplyRejectsStaleRevision(t *testing.T) {
	session := server.NewNotebookSession(logrus.New(), testConfig(), newTextNotebook(), io.Discard)

	result := session.Apply("nb1", operations.ReplaceTextOperation{CellID: "c1"}, 5)
	require.NotNil(t, result.Rejected)
}

func TestApplyMaintainsReferencingCellIndex(t *testing.T) {
	nb := &notebook.Notebook{
		Cells: []notebook.Cell{
			notebook.TextCell{}.WithID("c1").WithText("hello", formatting.Formatting{}),
			notebook.GraphCell{DataLinks: []string{"c1"}}.WithID("g1"),
		},
	}
	session := server.NewNotebookSession(logrus.New(), testConfig(), nb, io.Discard)
	assert.Equal(t, []string{"g1"}, session.ReferencesOf("c1"))

	result := session.Apply("nb1", operations.ReplaceCellsOperation{
		OldCells: []notebook.CellWithIndex{{Cell: nb.Cells[1], Index: 1}},
		NewCells: []notebook.CellWithIndex{{Cell: notebook.GraphCell{DataLinks: []string{}}.WithID("g1"), Index: 1}},
	}, 0)
	require.Nil(t, result.Rejected)
	require.NoError(t, result.Err)
	assert.Empty(t, session.ReferencesOf("c1"))
}

func TestBroadcastSkipsSubmitter(t *testing.T) {
	session := server.NewNotebookSession(logrus.New(), testConfig(), newTextNotebook(), io.Discard)
	session.Subscribe("writer")
	session.Subscribe("reader")

	op := operations.ReplaceTextOperation{CellID: "c1", Offset: 5, NewText: "!", OldText: ""}
	result := session.Apply("nb1", op, 0)
	require.Nil(t, result.Rejected)

	b := &captureBroadcaster{}
	session.Broadcast(b, "nb1", "writer", op, result.Revision)

	assert.Empty(t, b.sent["writer"])
	assert.Len(t, b.sent["reader"], 1)
}
