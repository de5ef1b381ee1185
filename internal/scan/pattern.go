package scan

import (
	"fmt"
	"strings"
)

// PatternKind selects how a Pattern matches a routine.
type PatternKind uint8

const (
	// NameContains matches a substring of the routine label ("subroutine check").
	NameContains PatternKind = iota
	// NameEquals matches the bare routine name.
	NameEquals
	// FileEquals matches the origin file name.
	FileEquals
)

func (k PatternKind) String() string {
	switch k {
	case NameEquals:
		return "name"
	case FileEquals:
		return "file"
	default:
		return "contains"
	}
}

// Pattern is an ignore rule for routines that must not receive markers.
type Pattern struct {
	Kind  PatternKind
	Value string
}

// ParsePattern reads "name:<x>", "contains:<x>", "file:<x>" or a bare
// string, which is treated as "contains:".
func ParsePattern(s string) (Pattern, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Pattern{}, fmt.Errorf("empty ignore pattern")
	}
	kind, value, found := strings.Cut(raw, ":")
	if !found {
		return Pattern{Kind: NameContains, Value: raw}, nil
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return Pattern{}, fmt.Errorf("ignore pattern %q has no value", s)
	}
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "name":
		return Pattern{Kind: NameEquals, Value: value}, nil
	case "contains":
		return Pattern{Kind: NameContains, Value: value}, nil
	case "file":
		return Pattern{Kind: FileEquals, Value: value}, nil
	default:
		return Pattern{}, fmt.Errorf("unknown ignore pattern kind %q (expected name|contains|file)", kind)
	}
}

// ParsePatterns parses every entry, failing on the first bad one.
func ParsePatterns(list []string) ([]Pattern, error) {
	out := make([]Pattern, 0, len(list))
	for _, s := range list {
		p, err := ParsePattern(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (p Pattern) String() string {
	return p.Kind.String() + ":" + p.Value
}

// Match reports whether the routine from origin is covered by the pattern.
// Name comparisons ignore case, file names do not.
func (p Pattern) Match(r *Routine, origin string) bool {
	if r == nil {
		return false
	}
	switch p.Kind {
	case NameEquals:
		return strings.EqualFold(r.Name, p.Value)
	case FileEquals:
		return origin == p.Value
	default:
		return strings.Contains(strings.ToLower(r.Label), strings.ToLower(p.Value))
	}
}

// MatchAny returns the first matching pattern.
func MatchAny(patterns []Pattern, r *Routine, origin string) (Pattern, bool) {
	for _, p := range patterns {
		if p.Match(r, origin) {
			return p, true
		}
	}
	return Pattern{}, false
}
