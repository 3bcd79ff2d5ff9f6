package cellrefs_test

import (
	"testing"

	"github.com/fiberplane/fp-ot/cellrefs"
	"github.com/stretchr/testify/assert"
)

func TestAddAndLookupReference(t *testing.T) {
	var idx cellrefs.Index
	idx.AddReference("src1", "graph1")
	idx.AddReference("src1", "table1")

	refs := idx.ReferencesOf("src1")
	assert.ElementsMatch(t, []string{"graph1", "table1"}, refs)
}

func TestAddReferenceIsIdempotent(t *testing.T) {
	var idx cellrefs.Index
	idx.AddReference("src1", "graph1")
	idx.AddReference("src1", "graph1")

	assert.Len(t, idx.ReferencesOf("src1"), 1)
}

func TestRemoveReferencePrunesEmptyEntry(t *testing.T) {
	var idx cellrefs.Index
	idx.AddReference("src1", "graph1")
	idx.RemoveReference("src1", "graph1")

	assert.Empty(t, idx.ReferencesOf("src1"))
}

func TestRemoveReferenceLeavesOthersIntact(t *testing.T) {
	var idx cellrefs.Index
	idx.AddReference("src1", "graph1")
	idx.AddReference("src1", "table1")
	idx.RemoveReference("src1", "graph1")

	assert.Equal(t, []string{"table1"}, idx.ReferencesOf("src1"))
}

func TestRemoveUnknownReferenceIsNoop(t *testing.T) {
	var idx cellrefs.Index
	idx.AddReference("src1", "graph1")
	idx.RemoveReference("src1", "nope")
	idx.RemoveReference("missing", "nope")

	assert.Equal(t, []string{"graph1"}, idx.ReferencesOf("src1"))
}

func TestHasMultipleReferences(t *testing.T) {
	var idx cellrefs.Index
	idx.AddReference("src1", "graph1")
	assert.False(t, idx.HasMultipleReferences("src1"))

	idx.AddReference("src1", "table1")
	assert.True(t, idx.HasMultipleReferences("src1"))
}
