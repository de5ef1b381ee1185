package diag

import "fmt"

// Diagnostic is a single finding tied to a file line.
// Line is 1-based; 0 means the whole file.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Path     string
	Line     uint32
}

func (d Diagnostic) String() string {
	loc := d.Path
	if d.Line > 0 {
		loc = fmt.Sprintf("%s:%d", d.Path, d.Line)
	}
	return fmt.Sprintf("%s %s %s: %s", loc, d.Severity, d.Code.ID(), d.Message)
}
