package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fortrace/internal/scan"
)

// GroupAll selects every source file of the pristine tree.
const GroupAll = "all"

// ErrUnknownGroup is returned for a group name that is neither built in,
// defined in the manifest nor part of the preset.
var ErrUnknownGroup = errors.New("unknown file group")

// presets hold built-in groups as globs relative to the pristine root.
var presets = map[string]map[string][]string{
	"mesa": {
		"lib": {
			"*/public/*_lib.f90",
			"star/private/evolve.f90",
			"star/public/star_lib.f90",
			"star/job/run_star.f90",
			"star/job/run_star_support.f90",
			"include/standard_run_star_extras.inc",
		},
		"star": {
			"star/private/adjust_mass.f90",
			"star/private/eps_grav.f90",
			"star/private/micro.f90",
			"star/private/overshoot.f90",
			"star/private/solve_hydro.f90",
			"star/private/solve_burn.f90",
			"star/private/struct_burn_mix.f90",
			"star/private/timestep.f90",
			"star/private/winds.f90",
			"star/private/star_newton.f90",
			"star/private/write_model.f90",
			"star/private/solve_mix.f90",
			"star/private/mesh_adjust.f90",
			"star/private/net.f90",
			"star/private/evolve.f90",
			"star/job/run_star.f",
			"include/standard_run_star_extras.inc",
		},
		"basic": {
			"star/public/star_lib.f90",
			"star/job/run_star.f90",
			"star/job/run_star.f",
			"star/job/run_star_support.f90",
			"star/private/evolve.f90",
			"include/standard_run_star_extras.inc",
		},
	},
}

// PresetNames lists the built-in presets.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolver turns group names into pristine file paths.
type Resolver struct {
	Pristine   string
	Extensions []string
	Preset     string
	// Groups maps a name to globs relative to Pristine.
	Groups map[string][]string
}

// Names lists every resolvable group: "all", manifest groups, then preset
// groups not shadowed by the manifest.
func (r *Resolver) Names() []string {
	names := []string{GroupAll}
	seen := map[string]bool{GroupAll: true}
	add := func(list []string) {
		sort.Strings(list)
		for _, n := range list {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	manifest := make([]string, 0, len(r.Groups))
	for n := range r.Groups {
		manifest = append(manifest, n)
	}
	add(manifest)
	preset := make([]string, 0)
	for n := range presets[r.Preset] {
		preset = append(preset, n)
	}
	add(preset)
	return names
}

// Has reports whether name is a resolvable group.
func (r *Resolver) Has(name string) bool {
	if name == GroupAll {
		return true
	}
	if _, ok := r.Groups[name]; ok {
		return true
	}
	_, ok := presets[r.Preset][name]
	return ok
}

// Universe returns every source file under Pristine with a known extension.
func (r *Resolver) Universe() ([]string, error) {
	files, err := scan.ListSources(r.Pristine, r.Extensions)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.Pristine, err)
	}
	return files, nil
}

// Resolve expands a group into existing pristine files. Manifest groups
// shadow preset groups of the same name. Globs that match nothing are
// skipped, so presets tolerate layout differences between releases.
func (r *Resolver) Resolve(name string) ([]string, error) {
	if name == GroupAll {
		return r.Universe()
	}
	patterns, ok := r.Groups[name]
	if !ok {
		patterns, ok = presets[r.Preset][name]
	}
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownGroup, name, strings.Join(r.Names(), ", "))
	}

	var out []string
	seen := make(map[string]bool)
	for _, p := range patterns {
		matches, err := filepath.Glob(filepath.Join(r.Pristine, filepath.FromSlash(p)))
		if err != nil {
			return nil, fmt.Errorf("group %s: pattern %q: %w", name, p, err)
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			if info, err := os.Stat(m); err != nil || info.IsDir() {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	return out, nil
}

// Select resolves command-line arguments: a single group name resolves the
// group, anything else is an explicit file list. Relative files are taken
// from the pristine root.
func (r *Resolver) Select(args []string) (files []string, group string, err error) {
	if len(args) == 0 {
		return nil, "", nil
	}
	if len(args) == 1 && r.Has(args[0]) {
		files, err := r.Resolve(args[0])
		return files, args[0], err
	}
	files = make([]string, 0, len(args))
	for _, a := range args {
		p := filepath.FromSlash(a)
		if !filepath.IsAbs(p) {
			p = filepath.Join(r.Pristine, p)
		}
		files = append(files, filepath.Clean(p))
	}
	return files, "", nil
}
