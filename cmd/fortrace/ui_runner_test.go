package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fortrace/internal/mirror"
)

func TestSyncWithEventsSurvivesEarlyDisplayExit(t *testing.T) {
	dir := t.TempDir()
	pristine := filepath.Join(dir, "mesa")
	mirrorRoot := filepath.Join(dir, "mesa_print")

	// больше событий, чем вмещает буфер канала
	var selected []string
	for i := 0; i < 300; i++ {
		name := fmt.Sprintf("r%03d.f90", i)
		body := fmt.Sprintf("subroutine r%03d()\n  x = 1\nend subroutine r%03d\n", i, i)
		writeFile(t, filepath.Join(pristine, name), body)
		writeFile(t, filepath.Join(mirrorRoot, name), body)
		selected = append(selected, filepath.Join(pristine, name))
	}
	req := &mirror.Request{Pristine: pristine, Mirror: mirrorRoot, Selected: selected}

	type result struct {
		rep *mirror.Report
		err error
	}
	done := make(chan result, 1)
	go func() {
		rep, err := syncWithEvents(context.Background(), req, func(<-chan mirror.Event) error {
			return errors.New("no terminal")
		})
		done <- result{rep, err}
	}()

	select {
	case res := <-done:
		if res.err == nil || !strings.Contains(res.err.Error(), "no terminal") {
			t.Fatalf("expected display error, got %v", res.err)
		}
		if res.rep == nil || res.rep.Written != len(selected) {
			t.Fatalf("sync did not finish: %+v", res.rep)
		}
	case <-time.After(30 * time.Second):
		t.Fatalf("sync blocked after the display stopped")
	}
}

func TestSyncWithEventsDeliversEvents(t *testing.T) {
	dir := t.TempDir()
	pristine := filepath.Join(dir, "src")
	mirrorRoot := filepath.Join(dir, "src_print")
	writeFile(t, filepath.Join(pristine, "demo.f90"), demoRoutine)
	writeFile(t, filepath.Join(mirrorRoot, "demo.f90"), demoRoutine)
	req := &mirror.Request{Pristine: pristine, Mirror: mirrorRoot, Selected: []string{filepath.Join(pristine, "demo.f90")}}

	var seen []mirror.Event
	rep, err := syncWithEvents(context.Background(), req, func(events <-chan mirror.Event) error {
		for ev := range events {
			seen = append(seen, ev)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if rep.Written != 1 || len(seen) == 0 || seen[len(seen)-1].Stage != mirror.StageState {
		t.Fatalf("unexpected outcome: written=%d events=%+v", rep.Written, seen)
	}
}
