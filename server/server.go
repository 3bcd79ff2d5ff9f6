// Package server is the thin reference layer above the pure OT core:
// it owns the mutable, authoritative notebook state the core's apply,
// validate and transform packages only ever see a snapshot of. Grounded
// on a NewGitP4Transfer(logger, opts)-style constructor convention and
// pond.WorkerPool usage for bounded concurrent work, repurposed here as
// a per-notebook serialized write queue.
package server

import (
	"fmt"
	"io"
	"sync"

	"github.com/alitto/pond"
	"github.com/fiberplane/fp-ot/apply"
	"github.com/fiberplane/fp-ot/cellrefs"
	"github.com/fiberplane/fp-ot/config"
	"github.com/fiberplane/fp-ot/notebook"
	"github.com/fiberplane/fp-ot/oplog"
	"github.com/fiberplane/fp-ot/operations"
	"github.com/fiberplane/fp-ot/realtime"
	"github.com/fiberplane/fp-ot/validate"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Broadcaster delivers a server message to one subscriber. NotebookHub
// never talks websocket directly; cmd/otreplay and tests can supply a
// trivial in-memory Broadcaster, while the real binary wires one backed
// by gorilla/websocket connections.
type Broadcaster interface {
	Send(subscriberID string, msg realtime.ServerMessage) error
}

// NotebookSession owns one notebook's authoritative state and the
// single-worker pond pool that serializes every mutation against it.
type NotebookSession struct {
	logger logrus.FieldLogger
	cfg    *config.Config

	mu          sync.Mutex
	notebook    *notebook.Notebook
	log         oplog.Log
	refs        cellrefs.Index
	subscribers map[string]struct{}

	pool *pond.WorkerPool
}

// NewNotebookSession starts a session for an already-materialized
// notebook. logWriter backs the session's oplog; passing nil disables
// persistence, and each accepted operation then logs a failed append.
func NewNotebookSession(logger logrus.FieldLogger, cfg *config.Config, nb *notebook.Notebook, logWriter io.Writer) *NotebookSession {
	s := &NotebookSession{
		logger:      logger,
		cfg:         cfg,
		notebook:    nb,
		subscribers: make(map[string]struct{}),
		pool:        pond.New(1, cfg.QueueDepth, pond.MinWorkers(1)),
	}
	if logWriter != nil {
		s.log.SetWriter(logWriter)
	}
	s.refs = cellrefs.BuildFromCells(nb.Cells)
	return s
}

// ReferencesOf returns the cell ids that currently name cellID as a data
// source, reflecting every operation applied so far.
func (s *NotebookSession) ReferencesOf(cellID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs.ReferencesOf(cellID)
}

// Subscribe registers a new subscriber id and returns the notebook's
// current revision, for the caller to send as the initial sync point.
func (s *NotebookSession) Subscribe(subscriberID string) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers[subscriberID] = struct{}{}
	return s.notebook.Revision()
}

// Unsubscribe drops a subscriber id.
func (s *NotebookSession) Unsubscribe(subscriberID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscribers, subscriberID)
}

// Revision returns the notebook's current revision.
func (s *NotebookSession) Revision() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notebook.Revision()
}

// ReplayFrom reads every logged entry from revision `from` onward, for a
// resubscribing client's subscribe{revision?} request.
func (s *NotebookSession) ReplayFrom(r io.Reader, from uint32) ([]oplog.Entry, error) {
	return oplog.Read(r, from)
}

// ApplyResult is what a submission to a NotebookSession's queue resolves
// to: either an assigned revision and change list, or the RejectReason/
// error that stopped it.
type ApplyResult struct {
	Revision uint32
	Changes  []apply.Change
	Rejected *validate.RejectReason
	Err      error
}

// Apply validates and, if accepted, applies op against the session's
// current state, submitted through the pool so concurrent submissions to
// the same notebook serialize while distinct notebooks run fully
// concurrently.
func (s *NotebookSession) Apply(notebookID string, op operations.Operation, observedRevision uint32) ApplyResult {
	resultCh := make(chan ApplyResult, 1)
	s.pool.Submit(func() {
		resultCh <- s.applyLocked(notebookID, op, observedRevision)
	})
	return <-resultCh
}

func (s *NotebookSession) applyLocked(notebookID string, op operations.Operation, observedRevision uint32) ApplyResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.notebook.Revision()
	if observedRevision != current {
		return ApplyResult{Rejected: &validate.RejectReason{Kind: validate.Outdated, CurrentRevision: current}}
	}
	if reason := validate.Validate(s.notebook, op); reason != nil {
		return ApplyResult{Rejected: reason}
	}
	changes, err := apply.Apply(s.notebook, op)
	if err != nil {
		s.logger.WithError(err).WithField("notebook_id", notebookID).Error("apply failed on a validated operation")
		return ApplyResult{Err: err}
	}
	apply.Fold(s.notebook, changes)
	s.notebook.RevisionCounter++
	newRevision := s.notebook.Revision()
	s.refs = cellrefs.BuildFromCells(s.notebook.Cells)
	if s.log.Append(newRevision, op) != nil {
		s.logger.WithField("notebook_id", notebookID).Warn("failed to append to oplog")
	}
	return ApplyResult{Revision: newRevision, Changes: changes}
}

// Broadcast fans an accepted operation out to every subscriber except the
// submitter, via b.
func (s *NotebookSession) Broadcast(b Broadcaster, notebookID string, submitterID string, op operations.Operation, revision uint32) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.subscribers))
	for id := range s.subscribers {
		if id == submitterID {
			continue
		}
		ids = append(ids, id)
	}
	s.mu.Unlock()

	msg := realtime.ServerApplyOperationMessage{NotebookID: notebookID, Operation: op, Revision: revision}
	for _, id := range ids {
		if err := b.Send(id, msg); err != nil {
			s.logger.WithError(err).WithField("subscriber_id", id).Warn("broadcast send failed")
		}
	}
}

// NotebookHub owns one NotebookSession per subscribed notebook id,
// creating sessions lazily and serving as the single place a connection
// handler looks up a notebook by id.
type NotebookHub struct {
	logger logrus.FieldLogger
	cfg    *config.Config

	mu       sync.Mutex
	sessions map[string]*NotebookSession
}

// NewNotebookHub constructs an empty hub bound to cfg's operational knobs.
func NewNotebookHub(logger logrus.FieldLogger, cfg *config.Config) *NotebookHub {
	return &NotebookHub{logger: logger, cfg: cfg, sessions: make(map[string]*NotebookSession)}
}

// Session returns the session for notebookID, creating one from loader if
// this is the first subscriber.
func (h *NotebookHub) Session(notebookID string, loader func() (*notebook.Notebook, io.Writer, error)) (*NotebookSession, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sessions[notebookID]; ok {
		return s, nil
	}
	nb, logWriter, err := loader()
	if err != nil {
		return nil, fmt.Errorf("loading notebook %s: %w", notebookID, err)
	}
	s := NewNotebookSession(h.logger.WithField("notebook_id", notebookID), h.cfg, nb, logWriter)
	h.sessions[notebookID] = s
	return s, nil
}

// NewSubscriberID generates a server-side subscriber identifier; the core
// never needs to generate ids itself, since operations always carry
// client-supplied ids.
func NewSubscriberID() string {
	return uuid.NewString()
}
