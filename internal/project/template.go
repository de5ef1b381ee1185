package project

import (
	"fmt"
	"strconv"
)

// DefaultManifest returns a commented fortrace.toml for a pristine and a
// mirror directory.
func DefaultManifest(pristine, mirror string) string {
	return fmt.Sprintf(`# fortrace project manifest
[project]
# untouched source tree and the copy that gets instrumented and compiled
pristine = %s
mirror = %s
extensions = [".f", ".f90", ".inc"]
# built-in groups: lib, star, basic
# preset = "mesa"

[instrument]
# name:<routine>, contains:<label text> (default) or file:<name>
ignore = ["subroutine check"]
# restore mirror files that are instrumented but no longer selected
reset = true

[trace]
# drop log lines seen at least this many times (0 disables)
threshold = 2
# keep only markers from these files
# files = ["evolve.f90"]
indent = "\t\t"

# [groups.hydro]
# include = ["star/private/solve_hydro.f90", "star/private/*_newton.f90"]
`, strconv.Quote(pristine), strconv.Quote(mirror))
}
