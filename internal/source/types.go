package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32 // просто ID источника
	// FileFlags encodes metadata about a source file.
	FileFlags uint8 // метаданные
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota // добавлен не с диска (тест, stdin)
	// FileHasCRLF marks files with at least one "\r\n" terminator. Content is kept as is.
	FileHasCRLF
	// FileNoFinalNewline marks files whose last line has no terminator.
	FileNoFinalNewline
)

// File is an immutable snapshot of a line-oriented text file.
//
// Lines keep their own terminators, so JoinLines(f.Lines) reproduces Content
// byte-for-byte. Consumers that need edits work on a copy of Lines.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	Lines   []string
	Hash    [32]byte
	Flags   FileFlags
}
