// Package calltree rebuilds call nesting from a flat trace marker log.
//
// Only lines beginning with a marker token take part. Frequent lines are
// dropped before pairing, then the origin filter applies, then each Start
// is paired with the first later Finish of the same routine and origin.
package calltree

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"fortrace/internal/diag"
	"fortrace/internal/marker"
)

const (
	DefaultThreshold = 2
	DefaultIndent    = "\t\t"
)

// Options configures a reconstruction.
type Options struct {
	// FrequencyThreshold drops every line seen at least this many times.
	// Zero or less disables the filter.
	FrequencyThreshold int
	// Origins keeps only events whose origin file is listed. Empty keeps all.
	Origins []string
	// Indent is repeated depth times before each line; defaults to DefaultIndent.
	Indent   string
	Reporter diag.Reporter
}

// DefaultOptions returns the threshold and indent used by the CLI.
func DefaultOptions() Options {
	return Options{FrequencyThreshold: DefaultThreshold, Indent: DefaultIndent}
}

// Event is one surviving marker line.
type Event struct {
	Direction marker.Direction
	Routine   string
	Origin    string
	Raw       string
	// Line is the 1-based position in the input log.
	Line uint32
}

func (e Event) identity() marker.Identity {
	return marker.Identity{Routine: e.Routine, Origin: e.Origin}
}

// Entry is an event with its computed depth. Partner is the index of the
// paired event, or -1.
type Entry struct {
	Event
	Depth   int
	Partner int
}

// Stats counts what happened to the input.
type Stats struct {
	Markers          int `json:"markers"`
	Malformed        int `json:"malformed"`
	DroppedFrequency int `json:"dropped_frequency"`
	DroppedOrigin    int `json:"dropped_origin"`
	Kept             int `json:"kept"`
	Unmatched        int `json:"unmatched"`
}

// Result holds the reconstructed trace.
type Result struct {
	Entries []Entry
	Stats   Stats
	indent  string
}

// Lines renders each entry as indent×depth + raw marker text, without
// terminators.
func (r *Result) Lines() []string {
	out := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = strings.Repeat(r.indent, e.Depth) + e.Raw
	}
	return out
}

// Depths returns the depth of every entry.
func (r *Result) Depths() []int {
	out := make([]int, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.Depth
	}
	return out
}

// String renders the trace, one "\n"-terminated line per entry.
func (r *Result) String() string {
	var b strings.Builder
	for _, l := range r.Lines() {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

// Reconstruct filters, pairs and indents raw log lines.
func Reconstruct(lines []string, opts Options) *Result {
	if opts.Indent == "" {
		opts.Indent = DefaultIndent
	}
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	res := &Result{indent: opts.Indent}

	events := collect(lines, opts.Reporter, &res.Stats)
	events = filterFrequency(events, opts.FrequencyThreshold, &res.Stats)
	events = filterOrigin(events, opts.Origins, &res.Stats)

	res.Entries = nest(events)
	res.Stats.Kept = len(res.Entries)
	for _, e := range res.Entries {
		if e.Partner >= 0 {
			continue
		}
		res.Stats.Unmatched++
		report(opts.Reporter, diag.TraceUnmatched, e.Line, e.Direction.String()+" without partner: "+e.Raw)
	}
	return res
}

func collect(lines []string, rep diag.Reporter, st *Stats) []Event {
	events := make([]Event, 0, len(lines))
	for i, l := range lines {
		raw := strings.TrimSpace(l)
		if !marker.HasToken(raw) {
			continue
		}
		st.Markers++
		ln := lineNumber(i)
		m, err := marker.Parse(raw)
		if err != nil {
			st.Malformed++
			report(rep, diag.TraceMalformedMarker, ln, err.Error())
			continue
		}
		events = append(events, Event{
			Direction: m.Direction,
			Routine:   m.Routine,
			Origin:    m.Origin,
			Raw:       raw,
			Line:      ln,
		})
	}
	return events
}

// filterFrequency drops every raw line whose total count is not below threshold.
func filterFrequency(events []Event, threshold int, st *Stats) []Event {
	if threshold <= 0 {
		return events
	}
	counts := make(map[string]int, len(events))
	for _, e := range events {
		counts[e.Raw]++
	}
	kept := events[:0:0]
	for _, e := range events {
		if counts[e.Raw] < threshold {
			kept = append(kept, e)
			continue
		}
		st.DroppedFrequency++
	}
	return kept
}

func filterOrigin(events []Event, origins []string, st *Stats) []Event {
	if len(origins) == 0 {
		return events
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	kept := events[:0:0]
	for _, e := range events {
		if _, ok := allowed[e.Origin]; ok {
			kept = append(kept, e)
			continue
		}
		st.DroppedOrigin++
	}
	return kept
}

// nest pairs events and assigns depths.
func nest(events []Event) []Entry {
	n := len(events)
	entries := make([]Entry, n)
	for i, e := range events {
		entries[i] = Entry{Event: e, Partner: -1}
	}

	// партнёр старта: первый более поздний finish того же идентификатора.
	// Обратный проход хранит ближайший finish для каждого идентификатора.
	partner := make([]int, n)
	matchedStart := make([]bool, n)
	nextFinish := make(map[marker.Identity]int)
	for i := n - 1; i >= 0; i-- {
		partner[i] = -1
		id := events[i].identity()
		if events[i].Direction == marker.Finish {
			nextFinish[id] = i
			continue
		}
		if j, ok := nextFinish[id]; ok {
			partner[i] = j
			matchedStart[i] = true
		}
	}

	// глубина старта: сколько более ранних стартов ещё не закрыты к позиции i
	depth := make([]int, n)
	closing := make([]int, n)
	open := 0
	for i := range events {
		open -= closing[i]
		if !matchedStart[i] {
			continue
		}
		depth[i] = open
		open++
		closing[partner[i]]++
	}

	// остальные строки наследуют глубину следующей, последняя получает 0
	for i := n - 1; i >= 0; i-- {
		if matchedStart[i] {
			continue
		}
		if i == n-1 {
			depth[i] = 0
		} else {
			depth[i] = depth[i+1]
		}
	}

	for i := range events {
		if !matchedStart[i] {
			continue
		}
		j := partner[i]
		depth[j] = depth[i]
		entries[i].Partner = j
		entries[j].Partner = i
	}

	for i := range entries {
		entries[i].Depth = depth[i]
	}
	return entries
}

func lineNumber(i int) uint32 {
	ln, err := safecast.Conv[uint32](i + 1)
	if err != nil {
		return 0
	}
	return ln
}

func report(rep diag.Reporter, code diag.Code, line uint32, msg string) {
	rep.Report(diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     code,
		Message:  msg,
		Line:     line,
	})
}

// Summary is a one-line description of the stats.
func (s Stats) Summary() string {
	return fmt.Sprintf("%d markers, %d kept, %d dropped by frequency, %d dropped by origin, %d malformed, %d unmatched",
		s.Markers, s.Kept, s.DroppedFrequency, s.DroppedOrigin, s.Malformed, s.Unmatched)
}
