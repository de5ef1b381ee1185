package calltree

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"fortrace/internal/diag"
)

func ev(dir, routine, origin string) string {
	return " " + dir + " -- " + routine + " -- " + origin + " "
}

func noFilter() Options {
	return Options{FrequencyThreshold: 0, Indent: "\t\t"}
}

func TestReconstructDepths(t *testing.T) {
	cases := []struct {
		name string
		log  []string
		want []int
	}{
		{
			name: "nested",
			log: []string{
				ev("start", "subroutine a", "x.f90"),
				ev("start", "subroutine b", "x.f90"),
				ev("finsh", "subroutine b", "x.f90"),
				ev("finsh", "subroutine a", "x.f90"),
			},
			want: []int{0, 1, 1, 0},
		},
		{
			name: "truncated",
			log: []string{
				ev("start", "subroutine a", "x.f90"),
				ev("start", "subroutine b", "x.f90"),
			},
			want: []int{0, 0},
		},
		{
			name: "inner finished",
			log: []string{
				ev("start", "subroutine a", "x.f90"),
				ev("start", "subroutine b", "x.f90"),
				ev("finsh", "subroutine b", "x.f90"),
			},
			want: []int{0, 0, 0},
		},
		{
			name: "siblings",
			log: []string{
				ev("start", "subroutine a", "x.f90"),
				ev("start", "subroutine b", "x.f90"),
				ev("finsh", "subroutine b", "x.f90"),
				ev("start", "subroutine c", "x.f90"),
				ev("finsh", "subroutine c", "x.f90"),
				ev("finsh", "subroutine a", "x.f90"),
			},
			want: []int{0, 1, 1, 1, 1, 0},
		},
		{
			name: "unmatched inside span inherits next line",
			log: []string{
				ev("start", "subroutine a", "x.f90"),
				ev("start", "subroutine lost", "x.f90"),
				ev("start", "subroutine b", "x.f90"),
				ev("finsh", "subroutine b", "x.f90"),
				ev("finsh", "subroutine a", "x.f90"),
			},
			want: []int{0, 1, 1, 1, 0},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Reconstruct(tc.log, noFilter())
			if got := res.Depths(); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("depths = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestReconstructFinishMatchesStartDepth(t *testing.T) {
	log := []string{
		ev("start", "subroutine a", "x.f90"),
		ev("start", "subroutine b", "x.f90"),
		ev("start", "subroutine c", "x.f90"),
		ev("finsh", "subroutine c", "x.f90"),
		ev("finsh", "subroutine b", "x.f90"),
		ev("finsh", "subroutine a", "x.f90"),
	}
	res := Reconstruct(log, noFilter())
	for i, e := range res.Entries {
		if e.Partner < 0 {
			t.Fatalf("entry %d unmatched", i)
		}
		if p := res.Entries[e.Partner]; p.Depth != e.Depth {
			t.Fatalf("entry %d depth %d, partner %d depth %d", i, e.Depth, e.Partner, p.Depth)
		}
	}
	if res.Stats.Unmatched != 0 {
		t.Fatalf("unmatched = %d", res.Stats.Unmatched)
	}
}

func TestReconstructFrequencyFilter(t *testing.T) {
	var log []string
	log = append(log, ev("start", "subroutine run", "run.f90"))
	for range 5 {
		log = append(log, ev("start", "subroutine eos", "eos.f90"), ev("finsh", "subroutine eos", "eos.f90"))
	}
	log = append(log, ev("finsh", "subroutine run", "run.f90"))

	opts := DefaultOptions()
	res := Reconstruct(log, opts)
	if len(res.Entries) != 2 || res.Stats.DroppedFrequency != 10 {
		t.Fatalf("threshold 2: kept %d, dropped %d", len(res.Entries), res.Stats.DroppedFrequency)
	}
	for _, e := range res.Entries {
		if e.Routine != "subroutine run" {
			t.Fatalf("unexpected survivor %q", e.Raw)
		}
	}

	opts.FrequencyThreshold = 6
	res = Reconstruct(log, opts)
	if len(res.Entries) != 12 || res.Stats.DroppedFrequency != 0 {
		t.Fatalf("threshold 6: kept %d", len(res.Entries))
	}
	if res.Entries[1].Depth != 1 {
		t.Fatalf("eos depth = %d, want 1", res.Entries[1].Depth)
	}

	opts.FrequencyThreshold = 0
	if res = Reconstruct(log, opts); len(res.Entries) != 12 {
		t.Fatalf("disabled filter kept %d", len(res.Entries))
	}
}

func TestReconstructOriginFilter(t *testing.T) {
	log := []string{
		ev("start", "subroutine a", "a.f90"),
		ev("start", "subroutine b", "b.f90"),
		ev("finsh", "subroutine b", "b.f90"),
		ev("finsh", "subroutine a", "a.f90"),
	}
	opts := noFilter()
	opts.Origins = []string{"b.f90"}
	res := Reconstruct(log, opts)
	if got := res.Depths(); !reflect.DeepEqual(got, []int{0, 0}) {
		t.Fatalf("depths = %v, want [0 0]", got)
	}
	if res.Stats.DroppedOrigin != 2 {
		t.Fatalf("dropped by origin = %d", res.Stats.DroppedOrigin)
	}

	opts.Origins = []string{"b.f9"}
	if res = Reconstruct(log, opts); len(res.Entries) != 0 {
		t.Fatalf("origin filter must compare whole names, kept %v", res.Lines())
	}
}

func TestReconstructIgnoresNoise(t *testing.T) {
	bag := diag.NewBag(10)
	log := []string{
		"  Reading inlist",
		ev("start", "subroutine a", "a.f90"),
		"starting the run",
		"  start -- subroutine b",
		ev("finsh", "subroutine a", "a.f90"),
	}
	opts := noFilter()
	opts.Reporter = diag.BagReporter{Bag: bag}
	res := Reconstruct(log, opts)
	if len(res.Entries) != 2 || res.Stats.Malformed != 2 || res.Stats.Markers != 4 {
		t.Fatalf("stats = %+v", res.Stats)
	}
	if bag.Count(diag.TraceMalformedMarker) != 2 {
		t.Fatalf("diagnostics = %v", bag.Items())
	}
	if res.Entries[0].Line != 2 || res.Entries[1].Line != 5 {
		t.Fatalf("line numbers = %d, %d", res.Entries[0].Line, res.Entries[1].Line)
	}
}

func TestReconstructRender(t *testing.T) {
	log := []string{
		ev("start", "subroutine a", "x.f90"),
		ev("start", "subroutine b", "x.f90"),
		ev("finsh", "subroutine b", "x.f90"),
		ev("finsh", "subroutine a", "x.f90"),
	}
	res := Reconstruct(log, noFilter())
	want := "" +
		"start -- subroutine a -- x.f90\n" +
		"\t\tstart -- subroutine b -- x.f90\n" +
		"\t\tfinsh -- subroutine b -- x.f90\n" +
		"finsh -- subroutine a -- x.f90\n"
	if got := res.String(); got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}

	opts := noFilter()
	opts.Indent = "  "
	if got := Reconstruct(log, opts).Lines()[1]; got != "  start -- subroutine b -- x.f90" {
		t.Fatalf("custom indent: %q", got)
	}
}

func TestReconstructFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "out.txt")
	out := filepath.Join(dir, "trace.txt")
	content := strings.Join([]string{
		ev("start", "subroutine a", "x.f90"),
		"noise",
		ev("finsh", "subroutine a", "x.f90"),
	}, "\n") + "\n"
	if err := os.WriteFile(in, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	res, err := ReconstructFile(in, out, DefaultOptions())
	if err != nil {
		t.Fatalf("ReconstructFile: %v", err)
	}
	if res.Stats.Kept != 2 {
		t.Fatalf("kept = %d", res.Stats.Kept)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "start -- subroutine a -- x.f90\nfinsh -- subroutine a -- x.f90\n" {
		t.Fatalf("trace = %q", data)
	}

	missing := filepath.Join(dir, "nope.txt")
	_, err = ReconstructFile(missing, out, DefaultOptions())
	if !errors.Is(err, os.ErrNotExist) || !strings.Contains(err.Error(), missing) {
		t.Fatalf("expected not-exist error naming %s, got %v", missing, err)
	}
}
