package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"raven/internal/diag"
	"raven/internal/project"
	"raven/internal/source"
)

// BuildOptions configures a directory build.
type BuildOptions struct {
	MaxDiagnostics int
	// Jobs limits concurrency; <= 0 means GOMAXPROCS.
	Jobs int
	// Cache, when non-nil, lets clean units skip recompilation.
	Cache *DiskCache
}

// ListSourceFiles returns all *.rv files under dir in sorted order.
func ListSourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".rv") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// deterministic order
	sort.Strings(files)
	return files, nil
}

// BuildDir compiles every *.rv file under dir in parallel. Results come
// back in the sorted file order regardless of scheduling; per-file failures
// are reported through each result's bag, not the returned error.
func BuildDir(ctx context.Context, dir string, opts BuildOptions) (*source.FileSet, []Result, error) {
	files, err := ListSourceFiles(dir)
	if err != nil {
		return nil, nil, err
	}

	fileSet := source.NewFileSetWithBase(dir)
	if len(files) == 0 {
		return fileSet, nil, nil
	}

	// The FileSet is not safe for concurrent mutation, so load up front.
	fileIDs := make(map[string]source.FileID, len(files))
	loadErrors := make(map[string]error, len(files))
	for _, path := range files {
		id, err := fileSet.Load(path)
		if err != nil {
			loadErrors[path] = err
			continue
		}
		fileIDs[path] = id
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Each goroutine owns one slot, so no mutex is needed.
	results := make([]Result, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			if loadErr, hadError := loadErrors[path]; hadError {
				bag := diag.NewBag(opts.MaxDiagnostics)
				bag.Add(diag.Diagnostic{
					Severity: diag.SevError,
					Code:     diag.IOLoadFileError,
					Message:  "failed to load file: " + loadErr.Error(),
				})
				results[i] = Result{Path: path, Bag: bag}
				return nil
			}

			id := fileIDs[path]
			file := fileSet.Get(id)

			if cached, ok := lookupCache(opts.Cache, file); ok {
				results[i] = Result{
					Path: path, FileID: id,
					Bag:  diag.NewBag(opts.MaxDiagnostics),
					Wasm: cached,
				}
				return nil
			}

			res, err := Compile(fileSet, id, opts.MaxDiagnostics)
			if err != nil {
				return err
			}
			results[i] = *res

			if res.Ok() && opts.Cache != nil {
				_ = opts.Cache.Put(project.Digest(file.Hash), &DiskPayload{
					Schema:      diskCacheSchemaVersion,
					Path:        path,
					ContentHash: project.Digest(file.Hash),
					Wasm:        res.Wasm,
				})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fileSet, results, err
	}
	return fileSet, results, nil
}

// lookupCache returns the cached module for a file when its content hash
// matches. Cache failures degrade to a recompile.
func lookupCache(cache *DiskCache, file *source.File) ([]byte, bool) {
	if cache == nil {
		return nil, false
	}
	var payload DiskPayload
	ok, err := cache.Get(project.Digest(file.Hash), &payload)
	if err != nil || !ok {
		return nil, false
	}
	if payload.ContentHash != project.Digest(file.Hash) || len(payload.Wasm) == 0 {
		return nil, false
	}
	return payload.Wasm, true
}
