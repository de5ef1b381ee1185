// Package scan locates Fortran routine boundaries in raw source lines.
//
// The scanner is heuristic: it recognises routine headers by prefix, finds
// the matching terminator textually and walks the declaration preamble with
// a fixed list of statement prefixes. It never fails on odd input; routines
// it cannot resolve are reported and left alone.
package scan

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"fortrace/internal/diag"
	"fortrace/internal/marker"
	"fortrace/internal/source"
)

// Options configures a single scan.
type Options struct {
	// Origin is the file name written into markers. Defaults to the base of Path.
	Origin string
	// Path is used in diagnostics.
	Path     string
	Ignore   []Pattern
	Reporter diag.Reporter
}

type scanner struct {
	opts  Options
	norm  []string // trimmed, lower-cased
	code  []string // norm without trailing comment, single-spaced
	iface []bool   // interface block open before line k
}

// Scan resolves every routine header occurrence in lines, in document order.
// lines keep their terminators, as produced by source.SplitLines.
func Scan(lines []string, opts Options) []Routine {
	if opts.Origin == "" && opts.Path != "" {
		opts.Origin = source.BaseName(opts.Path)
	}
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	s := newScanner(lines, opts)

	var out []Routine
	for i, n := range s.norm {
		kind, ok := headerKind(n)
		if !ok {
			continue
		}
		out = append(out, s.resolve(i, kind, lines[i]))
	}
	return out
}

// ScanFile scans a loaded source file, filling Path and Origin from it.
func ScanFile(f *source.File, opts Options) []Routine {
	if opts.Path == "" {
		opts.Path = f.Path
	}
	if opts.Origin == "" {
		opts.Origin = f.Name()
	}
	return Scan(f.Lines, opts)
}

func newScanner(lines []string, opts Options) *scanner {
	s := &scanner{
		opts:  opts,
		norm:  make([]string, len(lines)),
		code:  make([]string, len(lines)),
		iface: make([]bool, len(lines)+1),
	}
	depth := 0
	for k, l := range lines {
		s.norm[k] = Normalize(l)
		s.code[k] = collapseSpaces(StripComment(s.norm[k]))
		s.iface[k] = depth > 0
		switch {
		case isInterfaceOpen(s.code[k]):
			depth++
		case isInterfaceClose(s.code[k]) && depth > 0:
			depth--
		}
	}
	s.iface[len(lines)] = depth > 0
	return s
}

func (s *scanner) resolve(i int, kind Kind, raw string) Routine {
	r := newRoutine(i, kind, raw)

	r.End = s.findTerminator(i, r.Terminator, kind)
	if r.End < 0 {
		r.Status = StatusNoTerminator
		s.report(i, diag.ScanNoTerminator, fmt.Sprintf("%s: %q not found, left untouched", r.Label, r.Terminator))
		return r
	}

	r.Contains = s.findContains(i, r.End)
	r.Insertion = s.insertionPoint(i, r.End)
	r.FinishAt = r.End
	if r.HasContains() {
		r.FinishAt = r.Contains
		// стартовый маркер не может уйти во вложенную процедуру
		r.Insertion = min(r.Insertion, r.Contains)
	}

	if s.instrumented(&r) {
		r.Status = StatusInstrumented
		s.report(i, diag.ScanAlreadyInstrumented, r.Label+": markers already present")
		return r
	}
	if p, ok := MatchAny(s.opts.Ignore, &r, s.opts.Origin); ok {
		r.Status = StatusIgnored
		r.Reason = p.String()
		s.report(i, diag.ScanIgnored, fmt.Sprintf("%s: ignored by %s", r.Label, p))
		return r
	}
	if s.iface[r.Insertion] {
		r.Status = StatusInterface
		s.report(i, diag.ScanInsideInterface, r.Label+": declared inside an interface block")
	}
	return r
}

// findTerminator returns the first line after the header matching term.
// Subroutines fall back to a bare "end subroutine".
func (s *scanner) findTerminator(header int, term string, kind Kind) int {
	for j := header + 1; j < len(s.code); j++ {
		if s.code[j] == term {
			return j
		}
	}
	if kind != Subroutine {
		return -1
	}
	for j := header + 1; j < len(s.code); j++ {
		if s.code[j] == "end subroutine" {
			return j
		}
	}
	return -1
}

func (s *scanner) findContains(header, end int) int {
	for k := header + 1; k < end; k++ {
		if s.code[k] == "contains" {
			return k
		}
	}
	return -1
}

// insertionPoint returns the first line in [header, end] that is not part of
// the declaration preamble, or end when the whole body qualifies. A select
// block belongs to the preamble only while it is open; its "end select"
// line is still inside it.
func (s *scanner) insertionPoint(header, end int) int {
	// endSelect[k-header]: an "end select" exists in [k, end]
	endSelect := make([]bool, end-header+2)
	for k := end; k >= header; k-- {
		endSelect[k-header] = endSelect[k-header+1] || strings.HasPrefix(s.code[k], "end select")
	}

	open := 0
	for k := header; k <= end; k++ {
		if !s.preamble(k, header, open > 0 && endSelect[k-header]) {
			return k
		}
		switch {
		case strings.HasPrefix(s.code[k], "select case"):
			open++
		case strings.HasPrefix(s.code[k], "end select") && open > 0:
			open--
		}
	}
	return end
}

func (s *scanner) preamble(k, header int, inSelect bool) bool {
	switch {
	case k == header, inSelect:
		return true
	case ContinuesNext(s.norm[k-1]):
		return true
	case s.iface[k]:
		// тело interface-блока целиком относится к объявлениям
		return true
	}
	return IsHeaderRegion(s.norm[k])
}

// instrumented reports whether the routine region already holds its own
// Start statement.
func (s *scanner) instrumented(r *Routine) bool {
	want := Normalize(marker.Statement(marker.Start, r.Label, s.opts.Origin))
	for k := r.Header; k <= r.End; k++ {
		if s.norm[k] == want {
			return true
		}
	}
	return false
}

func (s *scanner) report(line int, code diag.Code, msg string) {
	ln, err := safecast.Conv[uint32](line + 1)
	if err != nil {
		ln = 0
	}
	s.opts.Reporter.Report(diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     code,
		Message:  msg,
		Path:     s.opts.Path,
		Line:     ln,
	})
}
