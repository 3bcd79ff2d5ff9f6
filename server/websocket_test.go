package server_test

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fiberplane/fp-ot/notebook"
	"github.com/fiberplane/fp-ot/operations"
	"github.com/fiberplane/fp-ot/realtime"
	"github.com/fiberplane/fp-ot/server"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newTestWSServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := testConfig()
	hub := server.NewNotebookHub(logrus.New(), cfg)
	loader := func(notebookID string) (*notebook.Notebook, io.Writer, error) {
		return newTextNotebook(), io.Discard, nil
	}
	ws := server.NewWSServer(logrus.New(), cfg, hub, loader)
	return httptest.NewServer(ws)
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

// readTyped reads one server frame and decodes it into a struct with a
// "type" discriminator, mirroring the real client's dispatch.
func readTyped(t *testing.T, conn *websocket.Conn) (string, []byte) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var envelope struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(raw, &envelope))
	return envelope.Type, raw
}

func TestWSServerSubscribeAck(t *testing.T) {
	ts := newTestWSServer(t)
	defer ts.Close()

	conn := dial(t, ts)
	defer conn.Close()

	sub, err := json.Marshal(realtime.SubscribeMessage{NotebookID: "nb1"})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, sub))

	typ, raw := readTyped(t, conn)
	require.Equal(t, "subscriber_added", typ)
	var added realtime.SubscriberAddedMessage
	require.NoError(t, json.Unmarshal(raw, &added))
	require.Equal(t, "nb1", added.NotebookID)
}

func TestWSServerApplyOperationBroadcasts(t *testing.T) {
	ts := newTestWSServer(t)
	defer ts.Close()

	writer := dial(t, ts)
	defer writer.Close()
	reader := dial(t, ts)
	defer reader.Close()

	for _, conn := range []*websocket.Conn{writer, reader} {
		sub, err := json.Marshal(realtime.SubscribeMessage{NotebookID: "nb1"})
		require.NoError(t, err)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, sub))
		readTyped(t, conn)
	}

	opID := "op-1"
	applyMsg := realtime.ApplyOperationMessage{
		NotebookID: "nb1",
		Operation:  operations.ReplaceTextOperation{CellID: "c1", Offset: 5, NewText: "!", OldText: ""},
		Revision:   0,
	}
	applyMsg.OpID = &opID
	raw, err := json.Marshal(applyMsg)
	require.NoError(t, err)
	require.NoError(t, writer.WriteMessage(websocket.TextMessage, raw))

	typ, raw := readTyped(t, writer)
	require.Equal(t, "ack", typ)
	var ack realtime.AckMessage
	require.NoError(t, json.Unmarshal(raw, &ack))
	require.Equal(t, opID, ack.OpID)

	typ, raw = readTyped(t, reader)
	require.Equal(t, "apply_operation", typ)
	var applied realtime.ServerApplyOperationMessage
	require.NoError(t, json.Unmarshal(raw, &applied))
	require.Equal(t, uint32(1), applied.Revision)
}
