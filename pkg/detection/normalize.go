package detection

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// segment marks a point from which normalized offsets map linearly onto the
// original: orig(p) = origin + (p - norm) until the next segment.
type segment struct {
	norm   int
	origin int
}

// normalized is a whitespace-collapsed copy of a string with enough
// bookkeeping to translate offsets back. Segments are only added where a
// whitespace run other than a single ASCII space was collapsed, so ordinary
// prose needs one segment.
type normalized struct {
	text    string
	segs    []segment
	origEnd int // end of the last non-space rune in the original
}

func normalize(s string) *normalized {
	n := &normalized{}

	var b strings.Builder
	b.Grow(len(s))

	inSpace := false
	runStart := 0

	for i := 0; i < len(s); {
		r, width := utf8.DecodeRuneInString(s[i:])

		if unicode.IsSpace(r) {
			if !inSpace {
				inSpace = true
				runStart = i
			}
			i += width
			continue
		}

		switch {
		case b.Len() == 0:
			n.segs = append(n.segs, segment{norm: 0, origin: i})
		case inSpace:
			if i-runStart == 1 && s[runStart] == ' ' {
				b.WriteByte(' ')
			} else {
				n.segs = append(n.segs, segment{norm: b.Len(), origin: runStart})
				b.WriteByte(' ')
				n.segs = append(n.segs, segment{norm: b.Len(), origin: i})
			}
		}
		inSpace = false

		b.WriteString(s[i : i+width])
		i += width
		n.origEnd = i
	}

	n.text = b.String()
	return n
}

// toOriginal maps a normalized offset in [0, len(text)] to the original.
// The end of the normalized text maps to the end of the last non-space rune.
func (n *normalized) toOriginal(p int) int {
	if p >= len(n.text) {
		return n.origEnd
	}
	k := sort.Search(len(n.segs), func(k int) bool {
		return n.segs[k].norm > p
	}) - 1
	seg := n.segs[k]
	return seg.origin + (p - seg.norm)
}

// span maps a normalized half-open range back to the original text.
func (n *normalized) span(start, end int) Span {
	return Span{Start: n.toOriginal(start), End: n.toOriginal(end)}
}
