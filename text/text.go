// Package text provides code-point indexed string slicing and replacement.
//
// Every offset the OT core hands around is a count of Unicode scalar values,
// not bytes and not grapheme clusters, so each of the two astral-plane
// regional indicators that make up 🇳🇱 counts as a single position even
// though it takes four bytes and two UTF-16 code units to store. All functions here convert to []rune once and
// index into that, which keeps the cost linear per call without pulling in
// a rope or measurement library.
package text

import "fmt"

// Count returns the number of Unicode code points in s.
func Count(s string) uint32 {
	return uint32(len([]rune(s)))
}

// Slice returns the code points of s in the half-open range [a, b).
// It returns an error if the range is out of bounds or inverted.
func Slice(s string, a, b uint32) (string, error) {
	runes := []rune(s)
	n := uint32(len(runes))
	if a > n || b > n {
		return "", fmt.Errorf("text: slice bounds [%d:%d] out of range for length %d", a, b, n)
	}
	if a > b {
		return "", fmt.Errorf("text: slice bounds [%d:%d] inverted", a, b)
	}
	return string(runes[a:b]), nil
}

// SliceFrom returns the code points of s starting at a through the end of s.
func SliceFrom(s string, a uint32) (string, error) {
	runes := []rune(s)
	n := uint32(len(runes))
	if a > n {
		return "", fmt.Errorf("text: slice start %d out of range for length %d", a, n)
	}
	return string(runes[a:]), nil
}

// Replace splices newText into s, replacing oldLen code points starting at
// offset. It is the code-point analogue of a byte-level splice: the result
// has Count(s) - oldLen + Count(newText) code points.
func Replace(s, newText string, offset, oldLen uint32) (string, error) {
	runes := []rune(s)
	n := uint32(len(runes))
	if offset > n {
		return "", fmt.Errorf("text: replace offset %d out of range for length %d", offset, n)
	}
	end := offset + oldLen
	if end > n {
		return "", fmt.Errorf("text: replace range [%d:%d] out of range for length %d", offset, end, n)
	}
	out := make([]rune, 0, n-oldLen+Count(newText))
	out = append(out, runes[:offset]...)
	out = append(out, []rune(newText)...)
	out = append(out, runes[end:]...)
	return string(out), nil
}
