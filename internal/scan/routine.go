package scan

import (
	"fmt"
	"strings"
)

// Kind distinguishes subroutines from functions.
type Kind uint8

const (
	Subroutine Kind = iota
	Function
)

func (k Kind) String() string {
	if k == Function {
		return "function"
	}
	return "subroutine"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Status tells whether a routine occurrence receives markers and, if not, why.
type Status uint8

const (
	StatusOK Status = iota
	StatusNoTerminator
	StatusInterface
	StatusIgnored
	StatusInstrumented
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoTerminator:
		return "no-terminator"
	case StatusInterface:
		return "interface"
	case StatusIgnored:
		return "ignored"
	case StatusInstrumented:
		return "instrumented"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Routine describes one header occurrence. Indices are 0-based positions in
// the line snapshot given to Scan; -1 marks a position that does not exist.
type Routine struct {
	Kind       Kind   `json:"kind" yaml:"kind"`
	Name       string `json:"name" yaml:"name"`
	Label      string `json:"label" yaml:"label"`
	Terminator string `json:"terminator" yaml:"terminator"`
	Header     int    `json:"header" yaml:"header"`
	End        int    `json:"end" yaml:"end"`
	Insertion  int    `json:"insertion" yaml:"insertion"`
	FinishAt   int    `json:"finish_at" yaml:"finish_at"`
	Contains   int    `json:"contains" yaml:"contains"`
	Status     Status `json:"status" yaml:"status"`
	Reason     string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Instrumentable reports whether markers should be inserted for r.
func (r *Routine) Instrumentable() bool {
	return r.Status == StatusOK
}

// HasContains reports whether the routine body holds nested subprograms.
func (r *Routine) HasContains() bool {
	return r.Contains >= 0
}

type headerPrefix struct {
	prefix string
	kind   Kind
}

var headerPrefixesByKind = [...]headerPrefix{
	{"subroutine", Subroutine},
	{"integer function", Function},
	{"logical function", Function},
}

// headerKind detects a routine header on a normalized line. The keyword
// must be followed by whitespace and a name.
func headerKind(norm string) (Kind, bool) {
	for _, h := range headerPrefixesByKind {
		if !strings.HasPrefix(norm, h.prefix) {
			continue
		}
		rest := norm[len(h.prefix):]
		if rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
			continue
		}
		if name := StripComment(strings.TrimSpace(rest)); name == "" || name[0] == '(' {
			continue
		}
		return h.kind, true
	}
	return 0, false
}

// newRoutine derives label, name and terminator from the raw header line.
func newRoutine(header int, kind Kind, raw string) Routine {
	label := strings.TrimSpace(raw)
	if i := strings.IndexByte(label, '!'); i >= 0 {
		label = label[:i]
	}
	if i := strings.IndexByte(label, '('); i >= 0 {
		label = label[:i]
	}
	label = collapseSpaces(label)

	r := Routine{
		Kind:      kind,
		Label:     label,
		Header:    header,
		End:       -1,
		Insertion: -1,
		FinishAt:  -1,
		Contains:  -1,
	}
	lower := strings.ToLower(label)
	switch kind {
	case Function:
		cut := strings.LastIndex(lower, " function")
		r.Name = strings.TrimSpace(label[cut+len(" function"):])
		r.Terminator = "end function " + strings.ToLower(r.Name)
	default:
		r.Name = strings.TrimSpace(label[len("subroutine"):])
		r.Terminator = "end " + lower
	}
	return r
}
