package apply_test

import (
	"testing"

	"github.com/fiberplane/fp-ot/apply"
	"github.com/fiberplane/fp-ot/formatting"
	"github.com/fiberplane/fp-ot/notebook"
	"github.com/fiberplane/fp-ot/operations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeState is a minimal in-memory ApplyOperationState for exercising
// apply without a real notebook store.
type fakeState struct {
	cells []notebook.Cell
}

func (s *fakeState) AllCellIDs() []string {
	ids := make([]string, len(s.cells))
	for i, c := range s.cells {
		ids[i] = c.ID()
	}
	return ids
}

func (s *fakeState) AllRelevantCells() []notebook.CellRefWithIndex {
	refs := make([]notebook.CellRefWithIndex, len(s.cells))
	for i, c := range s.cells {
		refs[i] = notebook.CellRefWithIndex{Cell: c, Index: uint32(i)}
	}
	return refs
}

func (s *fakeState) Cell(id string) (notebook.Cell, bool) {
	for _, c := range s.cells {
		if c.ID() == id {
			return c, true
		}
	}
	return nil, false
}

func (s *fakeState) CellWithIndex(id string) (notebook.CellWithIndex, bool) {
	for i, c := range s.cells {
		if c.ID() == id {
			return notebook.CellWithIndex{Cell: c, Index: uint32(i)}, true
		}
	}
	return notebook.CellWithIndex{}, false
}

func (s *fakeState) CellTextAndFormatting(id string, field *string) (string, formatting.Formatting, error) {
	c, ok := s.Cell(id)
	if !ok {
		return "", nil, assertNotFound(id)
	}
	text, ok := c.Text()
	if !ok {
		return "", nil, assertNotFound(id)
	}
	f, _ := c.Formatting()
	return text, f, nil
}

func assertNotFound(id string) error {
	return &notFoundErr{id}
}

type notFoundErr struct{ id string }

func (e *notFoundErr) Error() string { return "not found: " + e.id }

func TestApplyReplaceTextSplicesUnicode(t *testing.T) {
	state := &fakeState{cells: []notebook.Cell{
		notebook.TextCell{}.WithID("c1").WithText("\U0001F1F3\U0001F1F1 and", nil),
	}}
	op := operations.ReplaceTextOperation{
		CellID:  "c1",
		Offset:  3,
		NewText: "more ",
		OldText: "",
	}
	changes, err := apply.Apply(state, op)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "\U0001F1F3\U0001F1F1 more and", changes[0].NewText)
}

func TestApplyReplaceCellsInsertsAndDeletes(t *testing.T) {
	state := &fakeState{cells: []notebook.Cell{
		notebook.TextCell{}.WithID("old1"),
	}}
	op := operations.ReplaceCellsOperation{
		NewCells: []notebook.CellWithIndex{{Cell: notebook.TextCell{}.WithID("new1"), Index: 0}},
		OldCells: []notebook.CellWithIndex{{Cell: notebook.TextCell{}.WithID("old1"), Index: 0}},
	}
	changes, err := apply.Apply(state, op)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, apply.ChangeInsertCell, changes[0].Kind)
	assert.Equal(t, apply.ChangeDeleteCell, changes[1].Kind)
}

func TestApplyReplaceCellsUpdatesInPlaceWhenIDSurvives(t *testing.T) {
	state := &fakeState{cells: []notebook.Cell{
		notebook.TextCell{}.WithID("c1"),
	}}
	op := operations.ReplaceCellsOperation{
		NewCells: []notebook.CellWithIndex{{Cell: notebook.TextCell{}.WithID("c1").WithText("hi", nil), Index: 0}},
		OldCells: []notebook.CellWithIndex{{Cell: notebook.TextCell{}.WithID("c1"), Index: 0}},
	}
	changes, err := apply.Apply(state, op)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, apply.ChangeUpdateCell, changes[0].Kind)
}

func TestApplyReplaceCellsSplitPrependsOldPrefix(t *testing.T) {
	state := &fakeState{cells: []notebook.Cell{
		notebook.TextCell{}.WithID("c1").WithText("hello world", nil),
	}}
	splitOffset := uint32(5)
	op := operations.ReplaceCellsOperation{
		OldCells:    []notebook.CellWithIndex{{Cell: state.cells[0], Index: 0}},
		NewCells:    []notebook.CellWithIndex{{Cell: notebook.TextCell{}.WithID("c2").WithText("!", nil), Index: 0}},
		SplitOffset: &splitOffset,
	}
	changes, err := apply.Apply(state, op)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, apply.ChangeInsertCell, changes[0].Kind)
	text, _ := changes[0].Cell.Text()
	assert.Equal(t, "hello!", text)
	assert.Equal(t, apply.ChangeDeleteCell, changes[1].Kind)
	assert.Equal(t, "c1", changes[1].CellID)
}

func TestApplyReplaceCellsMergeAppendsOldSuffix(t *testing.T) {
	state := &fakeState{cells: []notebook.Cell{
		notebook.TextCell{}.WithID("c1").WithText("hello world", nil),
	}}
	mergeOffset := uint32(5)
	op := operations.ReplaceCellsOperation{
		OldCells:    []notebook.CellWithIndex{{Cell: state.cells[0], Index: 0}},
		NewCells:    []notebook.CellWithIndex{{Cell: notebook.TextCell{}.WithID("c2").WithText("hi", nil), Index: 0}},
		MergeOffset: &mergeOffset,
	}
	changes, err := apply.Apply(state, op)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	text, _ := changes[0].Cell.Text()
	assert.Equal(t, "hi world", text)
}

func TestApplyReplaceCellsSplitMergeBoundaryAnnotation(t *testing.T) {
	boundary := formatting.Annotation{Kind: formatting.StartBold}

	// Claimed: the operation's own old-cell formatting lists the
	// boundary annotation at relative offset 0, so it is dropped rather
	// than bracketing the cut.
	t.Run("claimed at split boundary is dropped", func(t *testing.T) {
		oldCell := notebook.TextCell{}.WithID("c1").WithText("hello world",
			formatting.Formatting{{Offset: 5, Annotation: boundary}})
		state := &fakeState{cells: []notebook.Cell{oldCell}}
		splitOffset := uint32(5)
		op := operations.ReplaceCellsOperation{
			OldCells: []notebook.CellWithIndex{{Cell: notebook.TextCell{}.WithID("c1").WithText("hello world",
				formatting.Formatting{{Offset: 0, Annotation: boundary}}), Index: 0}},
			NewCells:    []notebook.CellWithIndex{{Cell: notebook.TextCell{}.WithID("c2").WithText("!", nil), Index: 0}},
			SplitOffset: &splitOffset,
		}
		changes, err := apply.Apply(state, op)
		require.NoError(t, err)
		require.Len(t, changes, 2)
		f, _ := changes[0].Cell.Formatting()
		assert.Empty(t, f)
	})

	// Not claimed: the operation's own old-cell formatting has nothing
	// at the matching relative offset, so the boundary annotation
	// brackets the cut and survives into the new cell.
	t.Run("unclaimed at merge boundary is kept", func(t *testing.T) {
		oldCell := notebook.TextCell{}.WithID("c1").WithText("hello world",
			formatting.Formatting{{Offset: 5, Annotation: boundary}})
		state := &fakeState{cells: []notebook.Cell{oldCell}}
		mergeOffset := uint32(5)
		op := operations.ReplaceCellsOperation{
			OldCells:    []notebook.CellWithIndex{{Cell: notebook.TextCell{}.WithID("c1").WithText("hello world", nil), Index: 0}},
			NewCells:    []notebook.CellWithIndex{{Cell: notebook.TextCell{}.WithID("c2").WithText("hi", nil), Index: 0}},
			MergeOffset: &mergeOffset,
		}
		changes, err := apply.Apply(state, op)
		require.NoError(t, err)
		require.Len(t, changes, 2)
		f, _ := changes[0].Cell.Formatting()
		require.Len(t, f, 1)
		assert.Equal(t, uint32(2), f[0].Offset)
		assert.Equal(t, boundary, f[0].Annotation)
	})
}

func TestApplyCellNotFoundReturnsCoreError(t *testing.T) {
	state := &fakeState{}
	_, err := apply.Apply(state, operations.ReplaceTextOperation{CellID: "missing"})
	require.Error(t, err)
}
