// Package instrument inserts trace marker statements into Fortran sources.
//
// The engine scans an immutable line snapshot, registers one Start and one
// Finish insertion per eligible routine and applies all insertions in a
// single pass. Running it on its own output changes nothing.
package instrument

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"fortio.org/safecast"

	"fortrace/internal/diag"
	"fortrace/internal/marker"
	"fortrace/internal/scan"
	"fortrace/internal/source"
)

// Options configures an Engine. The zero value is usable.
type Options struct {
	IgnorePatterns []scan.Pattern
	// Indent prefixes inserted statements; defaults to marker.StatementIndent.
	Indent string
	// MaxDiagnostics caps the per-file bag; defaults to 256.
	MaxDiagnostics int
}

// Skipped records a routine occurrence that received no markers.
type Skipped struct {
	Label  string
	Line   uint32
	Status scan.Status
	Reason string
}

// Result is the outcome of instrumenting one file.
type Result struct {
	Path     string
	Origin   string
	Lines    []string
	Routines []scan.Routine
	Inserted int
	Skipped  []Skipped
	Bag      *diag.Bag
	Changed  bool
}

// Content joins the instrumented lines.
func (r *Result) Content() []byte {
	return source.JoinLines(r.Lines)
}

// Engine instruments files with a fixed set of options.
type Engine struct {
	opts Options
}

func New(opts Options) *Engine {
	if opts.Indent == "" {
		opts.Indent = marker.StatementIndent
	}
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = 256
	}
	return &Engine{opts: opts}
}

// Options returns a copy of the engine configuration.
func (e *Engine) Options() Options {
	return e.opts
}

// InstrumentFile reads path and instruments its content. The origin written
// into markers is the base name of path.
func (e *Engine) InstrumentFile(path string) (*Result, error) {
	f, err := source.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return e.InstrumentSource(f)
}

// InstrumentSource instruments an already loaded file.
func (e *Engine) InstrumentSource(f *source.File) (*Result, error) {
	return e.Instrument(f.Lines, f.Name(), f.Path)
}

// Instrument inserts markers into a snapshot of lines. origin is the file
// name carried by the markers, path is only used in diagnostics.
func (e *Engine) Instrument(lines []string, origin, path string) (*Result, error) {
	if origin == "" {
		return nil, fmt.Errorf("instrument %s: empty origin", path)
	}
	bag := diag.NewBag(e.opts.MaxDiagnostics)
	res := &Result{
		Path:   path,
		Origin: origin,
		Bag:    bag,
	}
	res.Routines = scan.Scan(lines, scan.Options{
		Origin:   origin,
		Path:     path,
		Ignore:   e.opts.IgnorePatterns,
		Reporter: diag.BagReporter{Bag: bag},
	})

	var edits EditList
	for i := range res.Routines {
		r := &res.Routines[i]
		if !r.Instrumentable() {
			res.Skipped = append(res.Skipped, skippedFrom(r))
			continue
		}
		eol := source.LineEnding(lines[r.Header])
		if eol == "" {
			eol = "\n"
		}
		edits.Insert(r.Insertion, marker.IndentedStatement(e.opts.Indent, marker.Start, r.Label, origin)+eol)
		edits.Insert(r.FinishAt, marker.IndentedStatement(e.opts.Indent, marker.Finish, r.Label, origin)+eol)
		res.Inserted++
	}

	out, err := edits.Apply(lines)
	if err != nil {
		return nil, fmt.Errorf("instrument %s: %w", path, err)
	}
	res.Lines = out
	res.Changed = edits.Len() > 0
	return res, nil
}

func skippedFrom(r *scan.Routine) Skipped {
	line, err := safecast.Conv[uint32](r.Header + 1)
	if err != nil {
		line = 0
	}
	reason := r.Reason
	if reason == "" {
		reason = r.Status.String()
	}
	return Skipped{Label: r.Label, Line: line, Status: r.Status, Reason: reason}
}

// WriteIfChanged writes content to dst unless dst already holds exactly that
// content. A missing dst is created. The file mode of an existing dst is kept.
func WriteIfChanged(dst string, content []byte) (bool, error) {
	mode := fs.FileMode(0o644)
	// #nosec G304 -- path is provided by the caller
	current, err := os.ReadFile(dst)
	switch {
	case err == nil:
		if bytes.Equal(current, content) {
			return false, nil
		}
		if info, statErr := os.Stat(dst); statErr == nil {
			mode = info.Mode().Perm()
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return false, fmt.Errorf("read %s: %w", dst, err)
	}
	if err := os.WriteFile(dst, content, mode); err != nil {
		return false, fmt.Errorf("write %s: %w", dst, err)
	}
	return true, nil
}
