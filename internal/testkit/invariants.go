package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"fortrace/internal/marker"
)

// Statement is a marker write statement found in instrumented source.
type Statement struct {
	Line   uint32 // 1-based
	Marker marker.Marker
}

// CollectStatements returns every marker statement in lines, in order.
func CollectStatements(lines []string) ([]Statement, error) {
	var out []Statement
	for i, l := range lines {
		m, ok := marker.ParseStatement(l)
		if !ok {
			continue
		}
		ln, err := safecast.Conv[uint32](i + 1)
		if err != nil {
			return nil, fmt.Errorf("line number overflow: %w", err)
		}
		out = append(out, Statement{Line: ln, Marker: m})
	}
	return out, nil
}

// CheckMarkerInvariants runs the pairing invariants on instrumented source:
// 1) per routine identity, statements alternate Start, Finish, Start, ...
// 2) every Start is followed by its Finish (no dangling Start at the end)
// 3) every statement carries the expected origin when origin is non-empty
func CheckMarkerInvariants(lines []string, origin string) error {
	stmts, err := CollectStatements(lines)
	if err != nil {
		return err
	}
	open := make(map[marker.Identity]uint32)
	for _, s := range stmts {
		if origin != "" && s.Marker.Origin != origin {
			return fmt.Errorf("line %d: origin %q, want %q", s.Line, s.Marker.Origin, origin)
		}
		id := s.Marker.Identity()
		startLine, isOpen := open[id]
		switch s.Marker.Direction {
		case marker.Start:
			if isOpen {
				return fmt.Errorf("line %d: second start for %s (first at line %d)", s.Line, id.Routine, startLine)
			}
			open[id] = s.Line
		case marker.Finish:
			if !isOpen {
				return fmt.Errorf("line %d: finish for %s without start", s.Line, id.Routine)
			}
			delete(open, id)
		}
	}
	for id, line := range open {
		return fmt.Errorf("line %d: start for %s never finished", line, id.Routine)
	}
	return nil
}

// CountPairs returns the number of Start statements per routine label.
func CountPairs(lines []string) (map[string]int, error) {
	stmts, err := CollectStatements(lines)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int)
	for _, s := range stmts {
		if s.Marker.Direction == marker.Start {
			out[s.Marker.Routine]++
		}
	}
	return out, nil
}
