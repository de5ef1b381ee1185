package source

import (
	"path/filepath"
	"strings"
)

// SplitLines splits content into lines, keeping each line's terminator.
// A trailing fragment without "\n" becomes the last line.
func SplitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	out := make([]string, 0, countNewlines(content)+1)
	start := 0
	for i, b := range content {
		if b == '\n' {
			out = append(out, string(content[start:i+1]))
			start = i + 1
		}
	}
	if start < len(content) {
		out = append(out, string(content[start:]))
	}
	return out
}

// JoinLines concatenates lines produced by SplitLines (or edited copies of them).
func JoinLines(lines []string) []byte {
	size := 0
	for _, l := range lines {
		size += len(l)
	}
	var b strings.Builder
	b.Grow(size)
	for _, l := range lines {
		b.WriteString(l)
	}
	return []byte(b.String())
}

// LineEnding returns the terminator of line: "\r\n", "\n" or "".
func LineEnding(line string) string {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return "\r\n"
	case strings.HasSuffix(line, "\n"):
		return "\n"
	default:
		return ""
	}
}

// TrimEnding strips the terminator from line.
func TrimEnding(line string) string {
	return strings.TrimSuffix(line, LineEnding(line))
}

func countNewlines(content []byte) int {
	n := 0
	for _, b := range content {
		if b == '\n' {
			n++
		}
	}
	return n
}

func detectFlags(content []byte, lines []string) FileFlags {
	var flags FileFlags
	for _, l := range lines {
		if strings.HasSuffix(l, "\r\n") {
			flags |= FileHasCRLF
			break
		}
	}
	if len(content) > 0 && content[len(content)-1] != '\n' {
		flags |= FileNoFinalNewline
	}
	return flags
}

func normalizePath(p string) string {
	// единый вид в кроссплатформенных дифах
	return filepath.ToSlash(filepath.Clean(p))
}

// BaseName returns the last element of path in slash form.
func BaseName(path string) string {
	return filepath.Base(filepath.FromSlash(path))
}

// RelativePath returns path relative to baseDir.
func RelativePath(path, baseDir string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path, err
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return path, err
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil {
		return path, err
	}
	// вне базовой директории относительный путь бесполезен
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return normalizePath(absPath), nil
	}
	return filepath.ToSlash(rel), nil
}
