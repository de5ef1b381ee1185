// Package marker defines the text form of trace markers.
//
// A marker is emitted by an instrumented routine as a single line:
//
//	start -- subroutine do_step -- evolve.f90
//	finsh -- subroutine do_step -- evolve.f90
//
// Both direction tokens are five characters wide so indented traces line up.
package marker

import (
	"errors"
	"fmt"
	"strings"
)

// Direction is the kind of a trace marker.
type Direction uint8

const (
	Start Direction = iota + 1
	Finish
)

const (
	// StartToken and FinishToken begin every marker line.
	StartToken  = "start"
	FinishToken = "finsh"

	// Separator sits between the marker fields.
	Separator = " -- "

	// StatementIndent is the leading indent of inserted write statements.
	StatementIndent = "      "
)

// ErrMalformed is returned by Parse for lines that start with a token but
// do not carry a routine and an origin.
var ErrMalformed = errors.New("malformed trace marker")

func (d Direction) String() string {
	switch d {
	case Start:
		return StartToken
	case Finish:
		return FinishToken
	default:
		return "unknown"
	}
}

// Marker is a parsed marker line.
type Marker struct {
	Direction Direction
	Routine   string
	Origin    string
}

// Identity is the routine+origin key used to pair Start and Finish markers.
type Identity struct {
	Routine string
	Origin  string
}

func (m Marker) Identity() Identity {
	return Identity{Routine: m.Routine, Origin: m.Origin}
}

// String renders the marker in log form.
func (m Marker) String() string {
	return Format(m.Direction, m.Routine, m.Origin)
}

// Format renders "<dir> -- <routine> -- <origin>".
func Format(dir Direction, routine, origin string) string {
	return dir.String() + Separator + routine + Separator + origin
}

// Statement renders the Fortran statement that prints the marker, without
// a line terminator. List-directed output adds a leading blank, which the
// reconstruction trims away.
func Statement(dir Direction, routine, origin string) string {
	return IndentedStatement(StatementIndent, dir, routine, origin)
}

// IndentedStatement is Statement with a caller-chosen leading indent.
func IndentedStatement(indent string, dir Direction, routine, origin string) string {
	return fmt.Sprintf("%swrite(*,*) ' %s '", indent, Format(dir, routine, origin))
}

// HasToken reports whether a trimmed line begins with a marker token.
func HasToken(line string) bool {
	return strings.HasPrefix(line, StartToken) || strings.HasPrefix(line, FinishToken)
}

// Parse reads a trimmed log line. The origin is the final whitespace-delimited
// token, the routine is everything between the separators.
func Parse(line string) (Marker, error) {
	line = strings.TrimSpace(line)
	var m Marker
	switch {
	case strings.HasPrefix(line, StartToken):
		m.Direction = Start
	case strings.HasPrefix(line, FinishToken):
		m.Direction = Finish
	default:
		return Marker{}, fmt.Errorf("%w: %q", ErrMalformed, line)
	}

	rest := line[len(StartToken):]
	if !strings.HasPrefix(rest, Separator) {
		return Marker{}, fmt.Errorf("%w: %q", ErrMalformed, line)
	}
	rest = rest[len(Separator):]

	cut := strings.LastIndex(rest, Separator)
	if cut < 0 {
		return Marker{}, fmt.Errorf("%w: %q", ErrMalformed, line)
	}
	m.Routine = strings.TrimSpace(rest[:cut])
	m.Origin = strings.TrimSpace(rest[cut+len(Separator):])
	if m.Routine == "" || m.Origin == "" || strings.ContainsAny(m.Origin, " \t") {
		return Marker{}, fmt.Errorf("%w: %q", ErrMalformed, line)
	}
	return m, nil
}

// ParseStatement extracts the marker printed by a write statement produced
// by Statement. ok is false for any other line.
func ParseStatement(line string) (Marker, bool) {
	s := strings.TrimSpace(line)
	if !strings.HasPrefix(strings.ToLower(s), "write(*,*)") {
		return Marker{}, false
	}
	open := strings.IndexByte(s, '\'')
	closing := strings.LastIndexByte(s, '\'')
	if open < 0 || closing <= open {
		return Marker{}, false
	}
	m, err := Parse(s[open+1 : closing])
	if err != nil {
		return Marker{}, false
	}
	return m, true
}
