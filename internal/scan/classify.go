package scan

import "strings"

// LineClass is a coarse category of a normalized source line.
type LineClass uint8

const (
	ClassBlank LineClass = iota
	ClassComment
	ClassDeclaration
	ClassSelectOpen
	ClassSelectClose
	ClassContains
	ClassInterfaceOpen
	ClassInterfaceClose
	ClassHeader
	ClassExecutable
)

func (c LineClass) String() string {
	switch c {
	case ClassBlank:
		return "blank"
	case ClassComment:
		return "comment"
	case ClassDeclaration:
		return "declaration"
	case ClassSelectOpen:
		return "select"
	case ClassSelectClose:
		return "end-select"
	case ClassContains:
		return "contains"
	case ClassInterfaceOpen:
		return "interface"
	case ClassInterfaceClose:
		return "end-interface"
	case ClassHeader:
		return "header"
	default:
		return "executable"
	}
}

// headerPrefixes are the statements that may appear between a routine
// header and its first executable statement. Matching is by prefix on the
// normalized line, so "type" covers "type(foo) :: x" as well.
var headerPrefixes = [...]string{
	"real", "type", "use", "comment", "integer", "logical",
	"!", "include", "9", "character", "implicit",
	"interface", "procedure", "optional", "double", "save",
	"equivalence", "select case", "complex", "data", "*", ">",
	"import", "class", "parameter",
}

// Normalize trims and lower-cases a raw line (terminator included).
func Normalize(line string) string {
	return strings.ToLower(strings.TrimSpace(line))
}

// StripComment drops a trailing "!" comment from a normalized line.
// Bangs inside string literals are not recognised.
func StripComment(norm string) string {
	if i := strings.IndexByte(norm, '!'); i >= 0 {
		return strings.TrimSpace(norm[:i])
	}
	return norm
}

// IsHeaderRegion reports whether a normalized line may precede the first
// executable statement of a routine on its own merits. Continuations and
// open select blocks depend on neighbouring lines and are handled by the
// scanner.
func IsHeaderRegion(norm string) bool {
	if norm == "" {
		return true
	}
	for _, p := range headerPrefixes {
		if strings.HasPrefix(norm, p) {
			return true
		}
	}
	return false
}

// ContinuesNext reports whether the line following norm is attached to it:
// a "&" continuation or a trailing comment.
func ContinuesNext(norm string) bool {
	return strings.ContainsAny(norm, "&!")
}

// Classify returns the category of a normalized line.
func Classify(norm string) LineClass {
	code := StripComment(norm)
	switch {
	case norm == "":
		return ClassBlank
	case strings.HasPrefix(norm, "!"):
		return ClassComment
	case code == "contains":
		return ClassContains
	case strings.HasPrefix(code, "select case"):
		return ClassSelectOpen
	case strings.HasPrefix(code, "end select"):
		return ClassSelectClose
	case isInterfaceOpen(code):
		return ClassInterfaceOpen
	case isInterfaceClose(code):
		return ClassInterfaceClose
	}
	if _, ok := headerKind(norm); ok {
		return ClassHeader
	}
	if IsHeaderRegion(norm) {
		return ClassDeclaration
	}
	return ClassExecutable
}

// isInterfaceOpen matches "interface", "interface <generic>" and
// "abstract interface" on a comment-free line.
func isInterfaceOpen(code string) bool {
	code = collapseSpaces(code)
	if code == "interface" || code == "abstract interface" {
		return true
	}
	return strings.HasPrefix(code, "interface ") || strings.HasPrefix(code, "interface(")
}

func isInterfaceClose(code string) bool {
	code = collapseSpaces(code)
	return code == "end interface" || code == "endinterface" || strings.HasPrefix(code, "end interface ")
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
