package project

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"fortrace/internal/scan"
)

// DefaultExtensions are the source suffixes considered when none are configured.
var DefaultExtensions = []string{".f", ".f90", ".inc"}

const defaultThreshold = 2

// Manifest is a loaded and validated fortrace.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

type Config struct {
	Project    ProjectConfig          `toml:"project"`
	Instrument InstrumentConfig       `toml:"instrument"`
	Trace      TraceConfig            `toml:"trace"`
	Groups     map[string]GroupConfig `toml:"groups"`
}

type ProjectConfig struct {
	Pristine   string   `toml:"pristine"`
	Mirror     string   `toml:"mirror"`
	Extensions []string `toml:"extensions"`
	Preset     string   `toml:"preset"`
}

type InstrumentConfig struct {
	Ignore []string `toml:"ignore"`
	Reset  *bool    `toml:"reset"`
}

type TraceConfig struct {
	Threshold *int     `toml:"threshold"`
	Files     []string `toml:"files"`
	Indent    *string  `toml:"indent"`
}

type GroupConfig struct {
	Include []string `toml:"include"`
}

// LoadManifest finds and loads the manifest above startDir. It returns an
// error wrapping ErrNoManifest when there is none.
func LoadManifest(startDir string) (*Manifest, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoManifest
	}
	return LoadManifestFile(path)
}

// LoadManifestFile parses and validates the manifest at path. Relative
// pristine and mirror directories are resolved against the manifest directory.
func LoadManifestFile(path string) (*Manifest, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if !meta.IsDefined("project") {
		return nil, fmt.Errorf("%s: missing [project]", path)
	}
	if !meta.IsDefined("project", "pristine") || strings.TrimSpace(cfg.Project.Pristine) == "" {
		return nil, fmt.Errorf("%s: missing [project].pristine", path)
	}
	if !meta.IsDefined("project", "mirror") || strings.TrimSpace(cfg.Project.Mirror) == "" {
		return nil, fmt.Errorf("%s: missing [project].mirror", path)
	}

	root := filepath.Dir(path)
	cfg.Project.Pristine = resolveDir(root, cfg.Project.Pristine)
	cfg.Project.Mirror = resolveDir(root, cfg.Project.Mirror)
	if cfg.Project.Pristine == cfg.Project.Mirror {
		return nil, fmt.Errorf("%s: [project].pristine and [project].mirror must differ", path)
	}

	if cfg.Project.Preset != "" {
		if _, ok := presets[cfg.Project.Preset]; !ok {
			return nil, fmt.Errorf("%s: unknown [project].preset %q (known: %s)", path, cfg.Project.Preset, strings.Join(PresetNames(), ", "))
		}
	}
	for _, ext := range cfg.Project.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return nil, fmt.Errorf("%s: extension %q must start with '.'", path, ext)
		}
	}
	if _, err := scan.ParsePatterns(cfg.Instrument.Ignore); err != nil {
		return nil, fmt.Errorf("%s: [instrument].ignore: %w", path, err)
	}
	if cfg.Trace.Threshold != nil && *cfg.Trace.Threshold < 0 {
		return nil, fmt.Errorf("%s: [trace].threshold must not be negative", path)
	}
	for name, g := range cfg.Groups {
		if name == GroupAll {
			return nil, fmt.Errorf("%s: group name %q is reserved", path, GroupAll)
		}
		if len(g.Include) == 0 {
			return nil, fmt.Errorf("%s: missing [groups.%s].include", path, name)
		}
	}

	return &Manifest{Path: path, Root: root, Config: cfg}, nil
}

func resolveDir(root, dir string) string {
	dir = strings.TrimSpace(dir)
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, filepath.FromSlash(dir))
	}
	return filepath.Clean(dir)
}

// Extensions returns the configured suffixes or DefaultExtensions.
func (m *Manifest) Extensions() []string {
	if len(m.Config.Project.Extensions) == 0 {
		return DefaultExtensions
	}
	return m.Config.Project.Extensions
}

// IgnorePatterns parses [instrument].ignore. The manifest was validated on
// load, so the error is only reachable for hand-built manifests.
func (m *Manifest) IgnorePatterns() ([]scan.Pattern, error) {
	return scan.ParsePatterns(m.Config.Instrument.Ignore)
}

// Reset reports whether unselected mirror files are restored; default true.
func (m *Manifest) Reset() bool {
	if m.Config.Instrument.Reset == nil {
		return true
	}
	return *m.Config.Instrument.Reset
}

// Threshold returns [trace].threshold, default 2.
func (m *Manifest) Threshold() int {
	if m.Config.Trace.Threshold == nil {
		return defaultThreshold
	}
	return *m.Config.Trace.Threshold
}

// Indent returns [trace].indent, or "" when unset.
func (m *Manifest) Indent() string {
	if m.Config.Trace.Indent == nil {
		return ""
	}
	return *m.Config.Trace.Indent
}

// GroupNames lists manifest groups in sorted order.
func (m *Manifest) GroupNames() []string {
	names := make([]string, 0, len(m.Config.Groups))
	for name := range m.Config.Groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolver builds the file-group resolver for this manifest.
func (m *Manifest) Resolver() *Resolver {
	groups := make(map[string][]string, len(m.Config.Groups))
	for name, g := range m.Config.Groups {
		groups[name] = g.Include
	}
	return &Resolver{
		Pristine:   m.Config.Project.Pristine,
		Extensions: m.Extensions(),
		Preset:     m.Config.Project.Preset,
		Groups:     groups,
	}
}
