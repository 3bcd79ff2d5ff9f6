package main

// otgraph renders the cell-lineage graph of a replayed oplog: one node
// per cell id ever seen, with edges for the split, merge and move
// relationships a ReplaceCells/MoveCells operation records between old
// and new cell ids, each labeled with the revision that introduced it.
// Grounded on cmd/gitgraph's commit graph: a kingpin-flagged package
// main building a github.com/emicklei/dot graph incrementally while
// scanning a log, then writing graph.String() to --output.

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/emicklei/dot"
	"github.com/fiberplane/fp-ot/internal/buildinfo"
	"github.com/fiberplane/fp-ot/oplog"
	"github.com/fiberplane/fp-ot/operations"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
)

// OtGraphOption mirrors cmd/gitgraph's GitGraphOption shape: a flat
// options struct built once from flags and passed to the constructor.
type OtGraphOption struct {
	oplogFile    string
	graphFile    string
	firstRev     int
	lastRev      int
	maxRevisions int
}

// OtGraph walks an oplog and incrementally builds a lineage graph.
type OtGraph struct {
	logger *logrus.Logger
	opts   OtGraphOption
	nodes  map[string]dot.Node
	graph  *dot.Graph
}

func NewOtGraph(logger *logrus.Logger, opts *OtGraphOption) *OtGraph {
	return &OtGraph{logger: logger, opts: *opts, nodes: make(map[string]dot.Node)}
}

func (g *OtGraph) nodeFor(cellID string) dot.Node {
	if n, ok := g.nodes[cellID]; ok {
		return n
	}
	n := g.graph.Node(cellID)
	g.nodes[cellID] = n
	return n
}

func (g *OtGraph) inRange(revision uint32) bool {
	if g.opts.firstRev != 0 && int(revision) < g.opts.firstRev {
		return false
	}
	if g.opts.lastRev != 0 && int(revision) > g.opts.lastRev {
		return false
	}
	return true
}

// ParseOplog reads every entry and wires edges for the ones that touch
// cell lineage: ReplaceCells (split/merge/replace) and MoveCells.
func (g *OtGraph) ParseOplog() error {
	f, err := os.Open(g.opts.oplogFile)
	if err != nil {
		return fmt.Errorf("opening %s: %w", g.opts.oplogFile, err)
	}
	defer f.Close()

	entries, err := oplog.Read(f, 0)
	if err != nil {
		return fmt.Errorf("reading oplog: %w", err)
	}
	if g.opts.maxRevisions != 0 && len(entries) > g.opts.maxRevisions {
		entries = entries[:g.opts.maxRevisions]
	}

	for _, entry := range entries {
		if !g.inRange(entry.Revision) {
			continue
		}
		switch op := entry.Operation.(type) {
		case operations.ReplaceCellsOperation:
			g.addReplaceCellsEdges(op, entry.Revision)
		case operations.MoveCellsOperation:
			g.addMoveEdges(op, entry.Revision)
		}
	}
	return nil
}

func (g *OtGraph) addReplaceCellsEdges(op operations.ReplaceCellsOperation, revision uint32) {
	label := fmt.Sprintf("r%d", revision)
	switch {
	case op.SplitOffset != nil && len(op.OldCells) > 0:
		old := g.nodeFor(op.OldCells[0].Cell.ID())
		for _, nc := range op.NewCells {
			g.graph.Edge(old, g.nodeFor(nc.Cell.ID()), "split "+label)
		}
	case op.MergeOffset != nil && len(op.OldCells) > 0:
		for _, oc := range op.OldCells {
			survivor := op.NewCells[len(op.NewCells)-1].Cell.ID()
			g.graph.Edge(g.nodeFor(oc.Cell.ID()), g.nodeFor(survivor), "merge "+label)
		}
	default:
		newByID := make(map[string]bool, len(op.NewCells))
		for _, nc := range op.NewCells {
			newByID[nc.Cell.ID()] = true
		}
		for _, oc := range op.OldCells {
			if newByID[oc.Cell.ID()] {
				continue
			}
			for _, nc := range op.NewCells {
				g.graph.Edge(g.nodeFor(oc.Cell.ID()), g.nodeFor(nc.Cell.ID()), "replace "+label)
			}
		}
	}
}

// addMoveEdges chains the moved cell ids together so the graph records
// which cells traveled as one unit, labeled with the revision and the
// index range they moved between.
func (g *OtGraph) addMoveEdges(op operations.MoveCellsOperation, revision uint32) {
	label := fmt.Sprintf("move r%d %d->%d", revision, op.FromIndex, op.ToIndex)
	var prev dot.Node
	for i, id := range op.CellIDs {
		n := g.nodeFor(id)
		if i > 0 {
			g.graph.Edge(prev, n, label)
		}
		prev = n
	}
}

func main() {
	var (
		oplogFile = kingpin.Arg(
			"oplog",
			"Oplog file (JSON-Lines) to process.",
		).Required().String()
		maxRevisions = kingpin.Flag(
			"max.revisions",
			"Max number of oplog entries to process (default 0 means all).",
		).Default("0").Short('m').Int()
		outputGraph = kingpin.Flag(
			"output",
			"Graphviz dot file to write the cell lineage graph to.",
		).Short('o').Required().String()
		firstRev = kingpin.Flag(
			"first.revision",
			"Lowest revision to include (default 0 means all).",
		).Default("0").Short('f').Int()
		lastRev = kingpin.Flag(
			"last.revision",
			"Highest revision to include (default 0 means all).",
		).Default("0").Short('l').Int()
		debug = kingpin.Flag("debug", "Enable debugging level.").Default("0").Int()
	)
	kingpin.UsageTemplate(kingpin.CompactUsageTemplate).Version(buildinfo.Print("otgraph")).Author("Fiberplane")
	kingpin.CommandLine.Help = "Renders the cell-lineage graph of an oplog as a graphviz DOT file.\n"
	kingpin.HelpFlag.Short('h')
	kingpin.Parse()

	logger := logrus.New()
	logger.Level = logrus.InfoLevel
	if *debug > 0 {
		logger.Level = logrus.DebugLevel
	}
	startTime := time.Now()
	logger.Infof("%v", buildinfo.Print("otgraph"))
	logger.Infof("Starting %s, oplog: %v", startTime, *oplogFile)
	logger.Infof("OS: %s/%s", runtime.GOOS, runtime.GOARCH)

	opts := &OtGraphOption{
		oplogFile:    *oplogFile,
		graphFile:    *outputGraph,
		firstRev:     *firstRev,
		lastRev:      *lastRev,
		maxRevisions: *maxRevisions,
	}
	g := NewOtGraph(logger, opts)
	g.graph = dot.NewGraph(dot.Directed)
	if err := g.ParseOplog(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}

	f, err := os.OpenFile(g.opts.graphFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		logger.Error(err)
		os.Exit(1)
	}
	defer f.Close()
	f.Write([]byte(g.graph.String()))
}
