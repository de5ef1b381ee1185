package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// Сканер процедур
	ScanInfo                Code = 1000
	ScanNoTerminator        Code = 1001
	ScanInsideInterface     Code = 1002
	ScanIgnored             Code = 1003
	ScanAlreadyInstrumented Code = 1004
	ScanReadFailed          Code = 1005

	// Восстановление трассы
	TraceInfo            Code = 2000
	TraceMalformedMarker Code = 2001
	TraceUnmatched       Code = 2002

	// Зеркало
	SyncInfo        Code = 3000
	SyncMissingFile Code = 3001
	SyncReset       Code = 3002
)

var codeDescription = map[Code]string{
	UnknownCode:             "Unknown error",
	ScanInfo:                "Scanner information",
	ScanNoTerminator:        "Routine terminator not found",
	ScanInsideInterface:     "Routine declared inside an interface block",
	ScanIgnored:             "Routine matches an ignore pattern",
	ScanAlreadyInstrumented: "Routine already carries trace markers",
	ScanReadFailed:          "Source file could not be read",
	TraceInfo:               "Trace information",
	TraceMalformedMarker:    "Malformed trace marker",
	TraceUnmatched:          "Trace event without partner",
	SyncInfo:                "Mirror information",
	SyncMissingFile:         "Mirror file is missing",
	SyncReset:               "Mirror file restored from pristine tree",
}

// ID returns the stable short identifier, e.g. SCN1001.
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("SCN%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("TRC%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SYN%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
