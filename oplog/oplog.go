// Package oplog is an append-only, revision-indexed log of accepted
// operations for one notebook, adapted from a prior journal package:
// where journal.Journal writes one db.rev/db.revcx record pair per change
// to an io.Writer, oplog.Log writes one JSON object per line, keyed by the
// revision the server assigned when it accepted the operation.
package oplog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fiberplane/fp-ot/operations"
)

// Entry is a single accepted operation at the revision it produced.
type Entry struct {
	Revision  uint32              `json:"revision"`
	Operation operations.Operation `json:"operation"`
}

type entryWire struct {
	Revision  uint32          `json:"revision"`
	Operation json.RawMessage `json:"operation"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	opJSON, err := json.Marshal(e.Operation)
	if err != nil {
		return nil, err
	}
	return json.Marshal(entryWire{Revision: e.Revision, Operation: opJSON})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var wire entryWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	op, err := operations.Decode(wire.Operation)
	if err != nil {
		return err
	}
	e.Revision = wire.Revision
	e.Operation = op
	return nil
}

// Log is an append-only JSON-Lines operation log. SetWriter mirrors the
// teacher's journal.Journal: the log itself holds no file handle opinions,
// callers wire in whatever io.Writer backs persistence.
type Log struct {
	w io.Writer
}

// SetWriter attaches the writer new entries are appended to.
func (l *Log) SetWriter(w io.Writer) {
	l.w = w
}

// Append writes one entry as a single JSON line.
func (l *Log) Append(rev uint32, op operations.Operation) error {
	if l.w == nil {
		return fmt.Errorf("oplog: no writer attached")
	}
	line, err := json.Marshal(Entry{Revision: rev, Operation: op})
	if err != nil {
		return fmt.Errorf("oplog: encoding entry at revision %d: %w", rev, err)
	}
	if _, err := l.w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("oplog: writing entry at revision %d: %w", rev, err)
	}
	return nil
}

// Read decodes every entry from r whose revision is >= from, in file
// order. Used by server.NotebookSession to replay history to a
// resubscribing client and by cmd/otreplay to replay a captured session.
func Read(r io.Reader, from uint32) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("oplog: decoding line %d: %w", lineNo, err)
		}
		if entry.Revision < from {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("oplog: scanning log: %w", err)
	}
	return entries, nil
}
