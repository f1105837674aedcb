package markup

import (
	"fmt"
	"sort"
	"strings"
)

// Edit replaces doc[Start:End] with Text. An insertion has Start == End.
type Edit struct {
	Start int
	End   int
	Text  string
}

// Apply returns a new document with all edits applied. Edits are sorted by
// position; overlapping edits are a programming error and panic.
func Apply(doc string, edits []Edit) string {
	if len(edits) == 0 {
		return doc
	}
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var b strings.Builder
	b.Grow(len(doc))
	pos := 0
	for _, e := range sorted {
		if e.Start < pos || e.End < e.Start || e.End > len(doc) {
			panic(fmt.Sprintf("markup: bad edit [%d,%d) at %d (len %d)", e.Start, e.End, pos, len(doc)))
		}
		b.WriteString(doc[pos:e.Start])
		b.WriteString(e.Text)
		pos = e.End
	}
	b.WriteString(doc[pos:])
	return b.String()
}

// Delete is shorthand for an edit removing doc[start:end].
func Delete(start, end int) Edit { return Edit{Start: start, End: end} }
