package formatting_test

import (
	"testing"

	"github.com/fiberplane/fp-ot/formatting"
	"github.com/stretchr/testify/assert"
)

func bold(offset uint32) formatting.AnnotationWithOffset {
	return formatting.AnnotationWithOffset{Offset: offset, Annotation: formatting.Annotation{Kind: formatting.StartBold}}
}

func TestTranslateShiftsEveryOffset(t *testing.T) {
	f := formatting.Formatting{bold(0), {Offset: 4, Annotation: formatting.Annotation{Kind: formatting.EndBold}}}
	out := formatting.Translate(f, 5)
	assert.Equal(t, uint32(5), out[0].Offset)
	assert.Equal(t, uint32(9), out[1].Offset)
}

func TestIsAnnotationIncludedExactMatch(t *testing.T) {
	ann := formatting.Annotation{Kind: formatting.StartBold}
	f := formatting.Formatting{{Offset: 3, Annotation: ann}}
	assert.True(t, formatting.IsAnnotationIncluded(ann, 3, f))
	assert.False(t, formatting.IsAnnotationIncluded(ann, 4, f))
	assert.False(t, formatting.IsAnnotationIncluded(formatting.Annotation{Kind: formatting.EndBold}, 3, f))
}

// TestReplaceFormattingBoundaryPolicy exercises property 6: annotations
// listed in old_formatting at the edit boundary are dropped; those at the
// same offset but absent from old_formatting survive, and at the start
// boundary they keep their offset.
func TestReplaceFormattingBoundaryPolicy(t *testing.T) {
	boldStart := formatting.Annotation{Kind: formatting.StartBold}
	italicsStart := formatting.Annotation{Kind: formatting.StartItalics}

	current := formatting.Formatting{
		{Offset: 5, Annotation: boldStart},    // claimed by the edit
		{Offset: 5, Annotation: italicsStart}, // not claimed, straddles the edit
	}
	oldFormatting := formatting.Formatting{{Offset: 0, Annotation: boldStart}}

	out := formatting.ReplaceFormatting(current, oldFormatting, nil, 5, 3, 1)

	assert.Len(t, out, 1)
	assert.Equal(t, italicsStart, out[0].Annotation)
	assert.Equal(t, uint32(5), out[0].Offset) // at the edit start, so not shifted
}

func TestReplaceFormattingKeepsOutsideEditTranslated(t *testing.T) {
	boldEnd := formatting.Annotation{Kind: formatting.EndBold}
	current := formatting.Formatting{{Offset: 10, Annotation: boldEnd}}
	out := formatting.ReplaceFormatting(current, nil, nil, 2, 1, 4)
	assert.Equal(t, uint32(13), out[0].Offset) // 10 + (4-1)
}

func TestReplaceFormattingSplicesNewFormattingShiftedByOffset(t *testing.T) {
	mention := formatting.AnnotationWithOffset{Offset: 2, Annotation: formatting.Annotation{Kind: formatting.Mention, Name: "bob"}}
	out := formatting.ReplaceFormatting(nil, nil, formatting.Formatting{mention}, 10, 0, 20)
	assert.Len(t, out, 1)
	assert.Equal(t, uint32(12), out[0].Offset)
}
