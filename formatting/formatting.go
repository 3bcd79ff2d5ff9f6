// Package formatting implements the annotation algebra used to keep rich
// text markup consistent across edits: translating ranges by an offset
// delta, testing whether an annotation is claimed by an old-formatting
// list, and rebuilding a formatting sequence around a text replacement.
package formatting

import "sort"

// AnnotationKind identifies the closed set of formatting markers a notebook
// cell can carry. Start/End pairs bracket a range; the rest are point
// annotations that stand alone.
type AnnotationKind int

const (
	StartBold AnnotationKind = iota
	EndBold
	StartItalics
	EndItalics
	StartUnderline
	EndUnderline
	StartStrikethrough
	EndStrikethrough
	StartCode
	EndCode
	StartHighlight
	EndHighlight
	StartLink
	EndLink
	Mention
	Timestamp
	Label
)

// Annotation is one marker in a Formatting sequence. Only the field
// relevant to its Kind is populated: URL for StartLink, Name/UserID for
// Mention, TimestampValue for Timestamp, Key/Value for Label.
type Annotation struct {
	Kind           AnnotationKind `json:"type"`
	URL            string         `json:"url,omitempty"`
	Name           string         `json:"name,omitempty"`
	UserID         string         `json:"userId,omitempty"`
	TimestampValue string         `json:"timestamp,omitempty"`
	Key            string         `json:"key,omitempty"`
	Value          string         `json:"value,omitempty"`
}

// Equal reports whether two annotations carry the same kind and payload.
func (a Annotation) Equal(b Annotation) bool {
	return a == b
}

// ConsumedLength returns how many code points a point annotation occupies
// in the cell's own text (mention: len(@name)+1, timestamp: the RFC-3339
// rendering, label: "key[:value]"). Start/End markers consume zero.
func (a Annotation) ConsumedLength() uint32 {
	switch a.Kind {
	case Mention:
		return uint32(len([]rune("@"+a.Name))) + 1
	case Timestamp:
		return uint32(len([]rune(a.TimestampValue)))
	case Label:
		s := a.Key
		if a.Value != "" {
			s = a.Key + ":" + a.Value
		}
		return uint32(len([]rune(s)))
	default:
		return 0
	}
}

// AnnotationWithOffset pairs an annotation with its code-point offset in
// the owning cell's text.
type AnnotationWithOffset struct {
	Offset     uint32     `json:"offset"`
	Annotation Annotation `json:"annotation"`
}

// Formatting is a sequence of annotations sorted by offset.
type Formatting []AnnotationWithOffset

// Sort orders the formatting list by offset, stable so that annotations
// already at the same offset keep their relative order.
func (f Formatting) Sort() {
	sort.SliceStable(f, func(i, j int) bool { return f[i].Offset < f[j].Offset })
}

// Translate shifts every annotation's offset by delta, dropping nothing.
// delta may be negative (e.g. when text shrinks).
func Translate(f Formatting, delta int64) Formatting {
	out := make(Formatting, len(f))
	for i, a := range f {
		out[i] = AnnotationWithOffset{
			Offset:     uint32(int64(a.Offset) + delta),
			Annotation: a.Annotation,
		}
	}
	return out
}

// IsAnnotationIncluded reports whether formatting contains ann at exactly
// offset. This is the "claimed by the replacement" test used at split,
// merge, and replace boundaries: an annotation is consumed by an edit iff
// it is listed in the operation's old_formatting at the matching relative
// offset.
func IsAnnotationIncluded(ann Annotation, offset uint32, f Formatting) bool {
	for _, a := range f {
		if a.Offset == offset && a.Annotation.Equal(ann) {
			return true
		}
	}
	return false
}

// ReplaceFormatting rebuilds the formatting sequence of a cell after a text
// replacement of the range [offset, offset+oldLen) with newLen code points
// of fresh text, given the operation's own oldFormatting/newFormatting.
//
// Annotations entirely before the edit are kept as-is. Annotations entirely
// after the edit are translated by newLen-oldLen. Annotations inside the
// edit (including at its boundaries) are dropped only if oldFormatting
// claims them at the matching relative offset. Those not claimed survive:
// one at the end boundary is translated the same way as trailing
// annotations, the others keep their offset. newFormatting is spliced in,
// shifted by offset.
func ReplaceFormatting(current, oldFormatting, newFormatting Formatting, offset, oldLen, newLen uint32) Formatting {
	editEnd := offset + oldLen
	delta := int64(newLen) - int64(oldLen)

	out := make(Formatting, 0, len(current)+len(newFormatting))
	for _, a := range current {
		switch {
		case a.Offset < offset:
			out = append(out, a)
		case a.Offset > editEnd:
			out = append(out, AnnotationWithOffset{
				Offset:     uint32(int64(a.Offset) + delta),
				Annotation: a.Annotation,
			})
		default:
			// a.Offset is in [offset, editEnd]: claimed iff listed in
			// oldFormatting at the matching relative offset.
			rel := a.Offset - offset
			if IsAnnotationIncluded(a.Annotation, rel, oldFormatting) {
				continue
			}
			newOffset := a.Offset
			if a.Offset == editEnd {
				newOffset = uint32(int64(a.Offset) + delta)
			}
			out = append(out, AnnotationWithOffset{Offset: newOffset, Annotation: a.Annotation})
		}
	}
	for _, a := range newFormatting {
		out = append(out, AnnotationWithOffset{Offset: a.Offset + offset, Annotation: a.Annotation})
	}
	out.Sort()
	return out
}
