// Package mirror keeps an instrumented copy of a pristine source tree.
//
// A sync instruments the selected pristine files into the mirror, then,
// when reset is requested, restores every other mirror file that differs
// from its pristine original. Files whose mirror content is already right
// are never rewritten, so a following build only recompiles what changed.
package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"fortrace/internal/diag"
	"fortrace/internal/instrument"
	"fortrace/internal/project"
)

// ErrNoSelection is returned when a sync has nothing to instrument.
var ErrNoSelection = errors.New("no files selected")

// Request describes one sync.
type Request struct {
	Pristine string
	Mirror   string
	// Group is recorded in the state file; empty for explicit file lists.
	Group string
	// Selected are pristine paths to instrument.
	Selected []string
	// Universe are all pristine paths eligible for reset.
	Universe []string
	Reset    bool
	Engine   *instrument.Engine
	Sink     ProgressSink
	Logger   *zerolog.Logger
	// MaxDiagnostics caps the report bag; defaults to 1024.
	MaxDiagnostics int
}

// FileOutcome is the result for one selected file.
type FileOutcome struct {
	Pristine string
	Mirror   string
	Changed  bool
	Inserted int
	Skipped  int
	Digest   project.Digest
}

// Report summarises a sync.
type Report struct {
	Files     []FileOutcome
	Written   int
	Unchanged int
	Reset     []string
	Bag       *diag.Bag
	Elapsed   time.Duration
}

// MirrorPath maps a pristine path into the mirror tree.
func MirrorPath(pristineRoot, mirrorRoot, path string) (string, error) {
	rel, err := filepath.Rel(pristineRoot, path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%s is outside the pristine tree %s", path, pristineRoot)
	}
	return filepath.Join(mirrorRoot, rel), nil
}

// Sync instruments the selection and then resets the rest of the universe.
// A missing mirror copy of a selected file aborts the sync; files written
// before that stay written and no reset happens.
func Sync(ctx context.Context, req Request) (*Report, error) {
	if len(req.Selected) == 0 {
		return nil, ErrNoSelection
	}
	if req.Engine == nil {
		req.Engine = instrument.New(instrument.Options{})
	}
	if req.Sink == nil {
		req.Sink = nopSink{}
	}
	logger := zerolog.Nop()
	if req.Logger != nil {
		logger = *req.Logger
	}
	if req.MaxDiagnostics <= 0 {
		req.MaxDiagnostics = 1024
	}

	began := time.Now()
	rep := &Report{Bag: diag.NewBag(req.MaxDiagnostics)}

	for _, p := range req.Selected {
		req.Sink.OnEvent(Event{File: p, Stage: StageInstrument, Status: StatusQueued})
	}

	written := make(map[string]bool, len(req.Selected))
	for _, src := range req.Selected {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		out, err := syncOne(req, src, rep.Bag)
		if err != nil {
			req.Sink.OnEvent(Event{File: src, Stage: StageInstrument, Status: StatusError, Err: err})
			logger.Error().Err(err).Str("file", src).Msg("instrument failed")
			return rep, err
		}
		written[out.Mirror] = true
		rep.Files = append(rep.Files, *out)
		if out.Changed {
			rep.Written++
		} else {
			rep.Unchanged++
		}
		logger.Debug().
			Str("file", out.Mirror).
			Bool("changed", out.Changed).
			Int("routines", out.Inserted).
			Msg("instrumented")
	}

	if req.Reset {
		if err := resetOthers(ctx, req, written, rep, logger); err != nil {
			return rep, err
		}
	}

	state := &State{
		Group:     req.Group,
		Pristine:  req.Pristine,
		UpdatedAt: time.Now().UTC(),
		Reset:     rep.Reset,
	}
	for _, f := range rep.Files {
		rel, err := filepath.Rel(req.Pristine, f.Pristine)
		if err != nil {
			rel = f.Pristine
		}
		state.Files = append(state.Files, FileState{
			Path:     filepath.ToSlash(rel),
			Digest:   f.Digest,
			Inserted: f.Inserted,
			Changed:  f.Changed,
		})
		state.Selection = project.Combine(state.Selection, f.Digest)
	}
	start := time.Now()
	if err := SaveState(req.Mirror, state); err != nil {
		req.Sink.OnEvent(Event{Stage: StageState, Status: StatusError, Err: err})
		return rep, fmt.Errorf("save state: %w", err)
	}
	req.Sink.OnEvent(Event{Stage: StageState, Status: StatusDone, Elapsed: time.Since(start)})

	rep.Elapsed = time.Since(began)
	logger.Info().
		Int("written", rep.Written).
		Int("unchanged", rep.Unchanged).
		Int("reset", len(rep.Reset)).
		Dur("elapsed", rep.Elapsed).
		Msg("sync finished")
	return rep, nil
}

func syncOne(req Request, src string, bag *diag.Bag) (*FileOutcome, error) {
	start := time.Now()
	req.Sink.OnEvent(Event{File: src, Stage: StageInstrument, Status: StatusWorking})

	dst, err := MirrorPath(req.Pristine, req.Mirror, src)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dst); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			bag.Add(diag.Diagnostic{
				Severity: diag.SevError,
				Code:     diag.SyncMissingFile,
				Message:  "mirror copy missing for " + src,
				Path:     dst,
			})
		}
		return nil, fmt.Errorf("mirror file %s: %w", dst, err)
	}

	res, err := req.Engine.InstrumentFile(src)
	if err != nil {
		return nil, err
	}
	bag.Merge(res.Bag)

	content := res.Content()
	changed, err := instrument.WriteIfChanged(dst, content)
	if err != nil {
		return nil, err
	}

	status := StatusUnchanged
	if changed {
		status = StatusDone
	}
	req.Sink.OnEvent(Event{File: src, Stage: StageInstrument, Status: status, Elapsed: time.Since(start)})
	return &FileOutcome{
		Pristine: src,
		Mirror:   dst,
		Changed:  changed,
		Inserted: res.Inserted,
		Skipped:  len(res.Skipped),
		Digest:   project.DigestBytes(content),
	}, nil
}

// resetOthers restores universe files that were not just written.
func resetOthers(ctx context.Context, req Request, written map[string]bool, rep *Report, logger zerolog.Logger) error {
	universe := append([]string(nil), req.Universe...)
	sort.Strings(universe)
	for _, src := range universe {
		if err := ctx.Err(); err != nil {
			return err
		}
		dst, err := MirrorPath(req.Pristine, req.Mirror, src)
		if err != nil {
			return err
		}
		if written[dst] {
			continue
		}
		restored, err := restore(src, dst)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				rep.Bag.Add(diag.Diagnostic{
					Severity: diag.SevWarning,
					Code:     diag.SyncMissingFile,
					Message:  "reset skipped: " + err.Error(),
					Path:     dst,
				})
				continue
			}
			req.Sink.OnEvent(Event{File: src, Stage: StageReset, Status: StatusError, Err: err})
			return err
		}
		if !restored {
			continue
		}
		rep.Reset = append(rep.Reset, dst)
		rep.Bag.Add(diag.Diagnostic{
			Severity: diag.SevInfo,
			Code:     diag.SyncReset,
			Message:  "restored from " + src,
			Path:     dst,
		})
		req.Sink.OnEvent(Event{File: src, Stage: StageReset, Status: StatusDone})
		logger.Debug().Str("file", dst).Msg("reset to pristine")
	}
	return nil
}

func restore(src, dst string) (bool, error) {
	// #nosec G304 -- paths come from the resolved file groups
	pristine, err := os.ReadFile(src)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", src, err)
	}
	// #nosec G304 -- see above
	current, err := os.ReadFile(dst)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", dst, err)
	}
	if bytes.Equal(pristine, current) {
		return false, nil
	}
	return instrument.WriteIfChanged(dst, pristine)
}
