package mirror

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"fortrace/internal/project"
)

// Current schema version - increment when State format changes
const stateSchemaVersion uint16 = 1

const (
	StateDir  = ".fortrace"
	StateFile = "state.mp"
)

// FileState records one instrumented file.
type FileState struct {
	// Path is relative to the pristine root, slash separated.
	Path     string
	Digest   project.Digest
	Inserted int
	Changed  bool
}

// State is what the last successful sync left in the mirror.
type State struct {
	Schema    uint16
	Group     string
	Pristine  string
	UpdatedAt time.Time
	Files     []FileState
	Reset     []string
	// Selection combines the digests of Files in order.
	Selection project.Digest
}

// StatePath returns the state file location for a mirror root.
func StatePath(mirrorRoot string) string {
	return filepath.Join(mirrorRoot, StateDir, StateFile)
}

// SaveState writes st atomically.
func SaveState(mirrorRoot string, st *State) error {
	st.Schema = stateSchemaVersion
	p := StatePath(mirrorRoot)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmp)
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(st); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode state: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	if err := os.Rename(tmp, p); err != nil {
		return err
	}
	renamed = true
	return nil
}

// LoadState reads the state file. ok is false when there is none or it was
// written by an incompatible version.
func LoadState(mirrorRoot string) (*State, bool, error) {
	p := StatePath(mirrorRoot)
	// #nosec G304 -- path is derived from the configured mirror root
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var st State
	if err := msgpack.NewDecoder(f).Decode(&st); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", p, err)
	}
	if st.Schema != stateSchemaVersion {
		return nil, false, nil
	}
	return &st, true, nil
}
