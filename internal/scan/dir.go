package scan

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"fortrace/internal/diag"
	"fortrace/internal/source"
)

// FileReport is the scan outcome for one file.
type FileReport struct {
	Path     string    `json:"path" yaml:"path"`
	Routines []Routine `json:"routines" yaml:"routines"`
	Bag      *diag.Bag `json:"-" yaml:"-"`
}

// Count returns how many routines carry status st.
func (r *FileReport) Count(st Status) int {
	n := 0
	for i := range r.Routines {
		if r.Routines[i].Status == st {
			n++
		}
	}
	return n
}

// ListSources returns the sorted files under dir whose extension is in exts
// (case-insensitive, e.g. ".f90"). An empty exts keeps every regular file.
func ListSources(dir string, exts []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !hasExtension(path, exts) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	// детерминированный порядок
	sort.Strings(files)
	return files, nil
}

func hasExtension(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// ScanFiles scans paths in parallel. Files are only read. Load failures are
// reported in the file's bag instead of aborting the whole run; the returned
// error is the context error, if any.
func ScanFiles(ctx context.Context, paths []string, ignore []Pattern, maxDiagnostics, jobs int) ([]FileReport, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// индексы уникальны для каждой горутины, мьютекс не нужен
	results := make([]FileReport, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))

	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			bag := diag.NewBag(maxDiagnostics)
			results[i] = FileReport{Path: path, Bag: bag}

			f, err := source.ReadFile(path)
			if err != nil {
				bag.Add(diag.Diagnostic{
					Severity: diag.SevError,
					Code:     diag.ScanReadFailed,
					Message:  err.Error(),
					Path:     path,
				})
				return nil
			}
			results[i].Routines = ScanFile(f, Options{
				Path:     path,
				Ignore:   ignore,
				Reporter: diag.BagReporter{Bag: bag},
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
