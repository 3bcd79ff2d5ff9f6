package main

// otreplay replays a captured notebook history: it loads a notebook
// snapshot and an oplog JSON-Lines file, validates and applies every
// logged operation in order, optionally transforming a side file of
// pending local operations against the replayed stream, and writes the
// resulting notebook plus a per-operation change summary. Grounded on the
// teacher's cmd/gitfilter and root main.go: a kingpin-flagged package main
// with a logrus.Logger, a pond.WorkerPool, and a pkg/profile CPU-profile
// flag.

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/alitto/pond"
	"github.com/fiberplane/fp-ot/apply"
	"github.com/fiberplane/fp-ot/internal/buildinfo"
	"github.com/fiberplane/fp-ot/notebook"
	"github.com/fiberplane/fp-ot/oplog"
	"github.com/fiberplane/fp-ot/operations"
	"github.com/fiberplane/fp-ot/transform"
	"github.com/fiberplane/fp-ot/validate"
	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
)

// transformState adapts a replaying notebook.Notebook to transform.State:
// the transform engine only ever needs to resolve a cell by id.
type transformState struct{ nb *notebook.Notebook }

func (s transformState) Cell(id string) (notebook.Cell, bool) { return s.nb.Cell(id) }

func loadNotebook(path string) (*notebook.Notebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading notebook snapshot: %w", err)
	}
	var nb notebook.Notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, fmt.Errorf("decoding notebook snapshot: %w", err)
	}
	return &nb, nil
}

func loadOplog(path string) ([]oplog.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening oplog: %w", err)
	}
	defer f.Close()
	return oplog.Read(f, 0)
}

func loadPendingOperations(path string) ([]operations.Operation, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pending operations file: %w", err)
	}
	defer f.Close()
	entries, err := oplog.Read(f, 0)
	if err != nil {
		return nil, err
	}
	ops := make([]operations.Operation, len(entries))
	for i, e := range entries {
		ops[i] = e.Operation
	}
	return ops, nil
}

// changeSummary is the JSON the --out change list is written as.
type changeSummary struct {
	Revision uint32         `json:"revision"`
	Kind     string         `json:"kind"`
	Changes  []apply.Change `json:"changes"`
}

func main() {
	var (
		notebookFile = kingpin.Flag("notebook", "Notebook snapshot (JSON) to start from.").Required().String()
		oplogFile    = kingpin.Flag("oplog", "Oplog file (JSON-Lines) of operations to replay.").Required().String()
		pendingFile  = kingpin.Flag("pending", "Optional oplog-shaped file of pending local operations to transform against the replay.").String()
		outFile      = kingpin.Flag("out", "Path to write the resulting notebook snapshot to.").Short('o').Required().String()
		debug        = kingpin.Flag("debug", "Enable debugging level.").Default("0").Int()
		cpuprofile   = kingpin.Flag("cpuprofile", "Write a CPU profile to this path.").String()
	)
	kingpin.UsageTemplate(kingpin.CompactUsageTemplate).Version(buildinfo.Print("otreplay")).Author("Fiberplane")
	kingpin.CommandLine.Help = "Replays a captured notebook operation history.\n"
	kingpin.HelpFlag.Short('h')
	kingpin.Parse()

	if *cpuprofile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*cpuprofile)).Stop()
	}

	logger := logrus.New()
	logger.Level = logrus.InfoLevel
	if *debug > 0 {
		logger.Level = logrus.DebugLevel
	}
	startTime := time.Now()
	logger.Infof("%v", buildinfo.Print("otreplay"))
	logger.Infof("Starting %s, notebook: %s, oplog: %s", startTime, *notebookFile, *oplogFile)

	nb, err := loadNotebook(*notebookFile)
	if err != nil {
		logger.Errorf("error loading notebook: %v", err)
		os.Exit(-1)
	}
	entries, err := loadOplog(*oplogFile)
	if err != nil {
		logger.Errorf("error loading oplog: %v", err)
		os.Exit(-1)
	}
	pending, err := loadPendingOperations(*pendingFile)
	if err != nil {
		logger.Errorf("error loading pending operations: %v", err)
		os.Exit(-1)
	}

	pondSize := runtime.NumCPU()
	pool := pond.New(pondSize, 0, pond.MinWorkers(1))
	defer pool.StopAndWait()

	summaryCh := make(chan changeSummary, len(entries))
	for _, entry := range entries {
		entry := entry
		if reason := validate.Validate(nb, entry.Operation); reason != nil {
			logger.Errorf("revision %d rejected on replay: %v", entry.Revision, reason.Error())
			continue
		}
		changes, err := apply.Apply(nb, entry.Operation)
		if err != nil {
			logger.Errorf("revision %d failed to apply: %v", entry.Revision, err)
			continue
		}
		apply.Fold(nb, changes)
		nb.RevisionCounter = entry.Revision
		pool.Submit(func() {
			summaryCh <- changeSummary{Revision: entry.Revision, Kind: entry.Operation.Kind().String(), Changes: changes}
		})

		for i, p := range pending {
			if p == nil {
				continue
			}
			transformed, err := transform.Transform(transformState{nb: nb}, p, entry.Operation)
			if err != nil {
				logger.Errorf("failed transforming pending operation %d against revision %d: %v", i, entry.Revision, err)
				continue
			}
			pending[i] = transformed
		}
	}
	pool.StopAndWait()
	close(summaryCh)

	summaries := make([]changeSummary, 0, len(entries))
	for s := range summaryCh {
		summaries = append(summaries, s)
	}

	out, err := json.MarshalIndent(nb, "", "  ")
	if err != nil {
		logger.Errorf("error encoding resulting notebook: %v", err)
		os.Exit(-1)
	}
	if err := os.WriteFile(*outFile, out, 0o644); err != nil {
		logger.Errorf("error writing %s: %v", *outFile, err)
		os.Exit(-1)
	}

	changesFile := *outFile + ".changes.json"
	changesJSON, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		logger.Errorf("error encoding change summary: %v", err)
		os.Exit(-1)
	}
	if err := os.WriteFile(changesFile, changesJSON, 0o644); err != nil {
		logger.Errorf("error writing %s: %v", changesFile, err)
		os.Exit(-1)
	}

	logger.Infof("Replayed %d operations to revision %d in %v", len(entries), nb.Revision(), time.Since(startTime))
}
