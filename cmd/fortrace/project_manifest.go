package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"fortrace/internal/project"
	"fortrace/internal/scan"
)

const noManifestMessage = "no " + project.ManifestName + " found\nplease pass --pristine and --mirror, or run:\n  fortrace init"

// loadManifestOptional loads the nearest manifest; a missing one is not an
// error.
func loadManifestOptional(startDir string) (*project.Manifest, bool, error) {
	m, err := project.LoadManifest(startDir)
	if errors.Is(err, project.ErrNoManifest) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// ignorePatterns merges manifest patterns with --ignore values.
func ignorePatterns(m *project.Manifest, extra []string) ([]scan.Pattern, error) {
	var out []scan.Pattern
	if m != nil {
		ps, err := m.IgnorePatterns()
		if err != nil {
			return nil, err
		}
		out = append(out, ps...)
	}
	ps, err := scan.ParsePatterns(extra)
	if err != nil {
		return nil, fmt.Errorf("--ignore: %w", err)
	}
	return append(out, ps...), nil
}

// treeRoots picks pristine and mirror from flags, falling back to the
// manifest.
func treeRoots(m *project.Manifest, pristineFlag, mirrorFlag string) (pristine, mirror string, err error) {
	if m != nil {
		pristine = m.Config.Project.Pristine
		mirror = m.Config.Project.Mirror
	}
	if pristineFlag != "" {
		if pristine, err = filepath.Abs(pristineFlag); err != nil {
			return "", "", err
		}
	}
	if mirrorFlag != "" {
		if mirror, err = filepath.Abs(mirrorFlag); err != nil {
			return "", "", err
		}
	}
	if pristine == "" || mirror == "" {
		return "", "", errors.New(noManifestMessage)
	}
	if filepath.Clean(pristine) == filepath.Clean(mirror) {
		return "", "", fmt.Errorf("pristine and mirror must differ (%s)", pristine)
	}
	return pristine, mirror, nil
}

// resolverFor builds a group resolver for pristine.
func resolverFor(m *project.Manifest, pristine string) *project.Resolver {
	if m == nil {
		return &project.Resolver{Pristine: pristine, Extensions: project.DefaultExtensions}
	}
	r := m.Resolver()
	r.Pristine = pristine
	return r
}

func formatPathForOutput(root, path string) string {
	if root == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
