package server

// Connection handling for the realtime wire protocol, carried over
// gorilla/websocket. NotebookHub and NotebookSession stay transport
// agnostic; this file is the one place that turns an *http.Request into
// a live subscriber and pumps realtime.ClientMessage/ServerMessage
// frames across it, in the same read-loop-plus-buffered-write-channel
// shape pond.WorkerPool submissions use elsewhere to keep one slow
// consumer from blocking another.

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/fiberplane/fp-ot/config"
	"github.com/fiberplane/fp-ot/notebook"
	"github.com/fiberplane/fp-ot/operations"
	"github.com/fiberplane/fp-ot/realtime"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Origin checking belongs to the HTTP layer that mounts ServeWS, not
	// to the OT core; allow everything here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NotebookLoader materializes the notebook and oplog writer a hub should
// use the first time a given notebook id is subscribed to.
type NotebookLoader func(notebookID string) (*notebook.Notebook, io.Writer, error)

// wsConn is one live websocket connection, identified by the
// subscriber id the rest of the package addresses it by.
type wsConn struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	logger logrus.FieldLogger
}

func (c *wsConn) Send(subscriberID string, msg realtime.ServerMessage) error {
	raw, err := realtime.Encode(msg)
	if err != nil {
		return err
	}
	select {
	case c.send <- raw:
		return nil
	default:
		return fmt.Errorf("send buffer full for subscriber %s", subscriberID)
	}
}

// connRegistry implements Broadcaster by fanning a Send call out to
// whichever live connection owns that subscriber id, across every
// notebook a single websocket might be subscribed to.
type connRegistry struct {
	mu    sync.RWMutex
	conns map[string]*wsConn
}

func newConnRegistry() *connRegistry {
	return &connRegistry{conns: make(map[string]*wsConn)}
}

func (r *connRegistry) register(c *wsConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.id] = c
}

func (r *connRegistry) unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
}

func (r *connRegistry) Send(subscriberID string, msg realtime.ServerMessage) error {
	r.mu.RLock()
	c, ok := r.conns[subscriberID]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no live connection for subscriber %s", subscriberID)
	}
	return c.Send(subscriberID, msg)
}

// WSServer upgrades incoming HTTP connections to websockets and wires
// each one to a NotebookHub, speaking the client/server message envelope.
type WSServer struct {
	logger   logrus.FieldLogger
	cfg      *config.Config
	hub      *NotebookHub
	loader   NotebookLoader
	registry *connRegistry
}

// NewWSServer builds a server bound to hub, using loader to materialize
// a notebook the first time any connection subscribes to it.
func NewWSServer(logger logrus.FieldLogger, cfg *config.Config, hub *NotebookHub, loader NotebookLoader) *WSServer {
	return &WSServer{logger: logger, cfg: cfg, hub: hub, loader: loader, registry: newConnRegistry()}
}

// ServeHTTP upgrades the request and runs the connection's read/write
// pumps until it disconnects.
func (s *WSServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	c := &wsConn{
		id:     NewSubscriberID(),
		conn:   conn,
		send:   make(chan []byte, 64),
		logger: s.logger.WithField("subscriber_id", "pending"),
	}
	c.logger = s.logger.WithField("subscriber_id", c.id)
	s.registry.register(c)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); s.writePump(c) }()
	go func() { defer wg.Done(); s.readPump(c) }()
	wg.Wait()

	s.registry.unregister(c.id)
	conn.Close()
}

func (s *WSServer) writePump(c *wsConn) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case raw, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				c.logger.WithError(err).Debug("write failed, closing connection")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *WSServer) readPump(c *wsConn) {
	defer close(c.send)
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logger.WithError(err).Debug("read failed, closing connection")
			return
		}
		msg, err := realtime.Decode(raw)
		if err != nil {
			c.logger.WithError(err).Warn("dropping undecodable client message")
			continue
		}
		s.handle(c, msg)
	}
}

func (s *WSServer) handle(c *wsConn, msg realtime.ClientMessage) {
	switch m := msg.(type) {
	case realtime.SubscribeMessage:
		s.handleSubscribe(c, m)
	case realtime.UnsubscribeMessage:
		if session, err := s.hub.Session(m.NotebookID, func() (*notebook.Notebook, io.Writer, error) { return s.loader(m.NotebookID) }); err == nil {
			session.Unsubscribe(c.id)
		}
	case realtime.ApplyOperationMessage:
		s.handleApply(c, m.NotebookID, m.Operation, m.Revision, m.OpID)
	case realtime.ApplyOperationBatchMessage:
		for _, op := range m.Operations {
			s.handleApply(c, m.NotebookID, op, m.Revision, m.OpID)
		}
	case realtime.DebugRequestMessage:
		c.Send(c.id, realtime.DebugResponseMessage{Info: map[string]string{"subscriber_id": c.id}})
	default:
		c.logger.WithField("type", msg.Type()).Debug("unhandled client message type")
	}
}

func (s *WSServer) handleSubscribe(c *wsConn, m realtime.SubscribeMessage) {
	session, err := s.hub.Session(m.NotebookID, func() (*notebook.Notebook, io.Writer, error) { return s.loader(m.NotebookID) })
	if err != nil {
		errMsg := err.Error()
		c.Send(c.id, realtime.ErrMessage{ErrorMessage: errMsg, OpID: m.OpID})
		return
	}
	session.Subscribe(c.id)
	c.Send(c.id, realtime.SubscriberAddedMessage{NotebookID: m.NotebookID, SubscriberID: c.id})
}

// handleApply applies a single operation against notebookID's session and
// replies with one err or rejected message, or, for an accepted operation,
// with an ack when opID is set; an accepted operation is then broadcast to
// every other subscriber.
func (s *WSServer) handleApply(c *wsConn, notebookID string, op operations.Operation, revision uint32, opID *string) {
	session, err := s.hub.Session(notebookID, func() (*notebook.Notebook, io.Writer, error) { return s.loader(notebookID) })
	if err != nil {
		c.Send(c.id, realtime.ErrMessage{ErrorMessage: err.Error(), OpID: opID})
		return
	}
	result := session.Apply(notebookID, op, revision)
	switch {
	case result.Rejected != nil:
		c.Send(c.id, realtime.RejectedMessage{Reason: *result.Rejected, OpID: opID})
	case result.Err != nil:
		c.Send(c.id, realtime.ErrMessage{ErrorMessage: result.Err.Error(), OpID: opID})
	default:
		if opID != nil {
			c.Send(c.id, realtime.AckMessage{OpID: *opID})
		}
		session.Broadcast(s.registry, notebookID, c.id, op, result.Revision)
	}
}

// Registry exposes the connection-backed Broadcaster, for callers that
// want to push server-initiated messages (workspace events, thread
// updates) outside of an apply_operation round trip.
func (s *WSServer) Registry() Broadcaster { return s.registry }
