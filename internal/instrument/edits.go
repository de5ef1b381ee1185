package instrument

import (
	"fmt"
	"sort"
)

// Edit inserts Text as a new line before line Pos of the original snapshot.
// Pos may equal the number of lines to append at the end.
type Edit struct {
	Pos   int
	Text  string
	order int
}

// EditList collects insertions against one immutable snapshot. Positions
// never shift while edits are being registered; Apply resolves them in one
// pass.
type EditList struct {
	edits []Edit
	next  int
}

// Insert registers an insertion. Edits at the same position keep the order
// in which they were registered.
func (l *EditList) Insert(pos int, text string) {
	l.edits = append(l.edits, Edit{Pos: pos, Text: text, order: l.next})
	l.next++
}

func (l *EditList) Len() int {
	return len(l.edits)
}

// Edits returns the registered edits in ascending (position, order).
func (l *EditList) Edits() []Edit {
	out := append([]Edit(nil), l.edits...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pos != out[j].Pos {
			return out[i].Pos < out[j].Pos
		}
		return out[i].order < out[j].order
	})
	return out
}

// Apply returns a new slice with every edit applied. The snapshot is not
// modified.
func (l *EditList) Apply(lines []string) ([]string, error) {
	for _, e := range l.edits {
		if e.Pos < 0 || e.Pos > len(lines) {
			return nil, fmt.Errorf("edit position %d out of range [0, %d]", e.Pos, len(lines))
		}
	}

	// с конца: вставка ниже не сдвигает позиции выше
	sorted := append([]Edit(nil), l.edits...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Pos != sorted[j].Pos {
			return sorted[i].Pos > sorted[j].Pos
		}
		return sorted[i].order > sorted[j].order
	})

	out := make([]string, 0, len(lines)+len(sorted))
	out = append(out, lines...)
	for _, e := range sorted {
		out = append(out, "")
		copy(out[e.Pos+1:], out[e.Pos:])
		out[e.Pos] = e.Text
	}
	return out, nil
}
