package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"raven/internal/diagfmt"
	"raven/internal/driver"
	"raven/internal/project"
	"raven/internal/ui"
)

const noRavenTomlMessage = "no raven.toml found\nplease specify the input explicitly, e.g.:\n  raven build path/to/main.rv"

var buildCmd = &cobra.Command{
	Use:   "build [flags] [path]",
	Short: "Compile sources to WebAssembly",
	Long:  "Compile a file or directory of .rv sources. Without a path, the nearest raven.toml picks the entry point.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  buildExecution,
}

func init() {
	buildCmd.Flags().StringP("output", "o", "", "output path (single-file builds only)")
	buildCmd.Flags().Bool("no-cache", false, "bypass the module cache")
}

func buildExecution(cmd *cobra.Command, args []string) error {
	outputFlag, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}

	target, manifest, err := resolveBuildTarget(args)
	if err != nil {
		return err
	}

	var cache *driver.DiskCache
	if !noCache {
		// a broken cache directory must not block the build
		cache, _ = driver.OpenDiskCache("raven")
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("cannot stat %s: %w", target, err)
	}

	if info.IsDir() {
		if outputFlag != "" {
			return errors.New("-o applies to single-file builds only")
		}
		return buildDir(cmd, target, cache)
	}
	return buildFile(cmd, target, outputPath(target, outputFlag, manifest))
}

// resolveBuildTarget picks the explicit path argument or falls back to the
// manifest entry.
func resolveBuildTarget(args []string) (string, *project.Manifest, error) {
	if len(args) > 0 && filepath.Clean(args[0]) != "." {
		manifest, _, _ := project.LoadManifest(filepath.Dir(args[0]))
		return args[0], manifest, nil
	}
	manifest, found, err := project.LoadManifest(".")
	if err != nil {
		return "", nil, err
	}
	if !found {
		return "", nil, errors.New(noRavenTomlMessage)
	}
	return manifest.EntryPath(), manifest, nil
}

func outputPath(input, flag string, manifest *project.Manifest) string {
	if flag != "" {
		return flag
	}
	if manifest != nil {
		return manifest.OutPath()
	}
	return strings.TrimSuffix(input, ".rv") + ".wasm"
}

func buildFile(cmd *cobra.Command, path, out string) error {
	fileSet, res, err := driver.CompileFile(path, maxDiagnostics(cmd))
	if err != nil {
		return err
	}

	res.Bag.Sort()
	diagfmt.Pretty(os.Stderr, res.Bag, fileSet, diagfmt.PrettyOpts{
		Color:     colorEnabled(cmd),
		ShowNotes: true,
	})
	if !res.Ok() {
		return fmt.Errorf("build failed: %s", ui.Plural(res.Bag.Len(), "diagnostic"))
	}

	if err := writeModule(out, res.Wasm); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", out, ui.FormatSize(len(res.Wasm)))
	return nil
}

func buildDir(cmd *cobra.Command, dir string, cache *driver.DiskCache) error {
	fileSet, results, err := driver.BuildDir(cmd.Context(), dir, driver.BuildOptions{
		MaxDiagnostics: maxDiagnostics(cmd),
		Jobs:           jobCount(cmd),
		Cache:          cache,
	})
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no .rv files under %s", dir)
	}

	statuses := make([]ui.FileStatus, 0, len(results))
	failed := 0
	for i := range results {
		r := &results[i]
		r.Bag.Sort()
		diagfmt.Pretty(os.Stderr, r.Bag, fileSet, diagfmt.PrettyOpts{
			Color:     colorEnabled(cmd),
			ShowNotes: true,
		})

		status := ui.FileStatus{Path: displayPath(r.Path, dir)}
		if r.Ok() {
			out := strings.TrimSuffix(r.Path, ".rv") + ".wasm"
			if err := writeModule(out, r.Wasm); err != nil {
				return err
			}
			status.Status = "ok"
			status.Detail = ui.FormatSize(len(r.Wasm))
		} else {
			failed++
			status.Status = "error"
			status.Detail = ui.Plural(r.Bag.Len(), "diagnostic")
		}
		statuses = append(statuses, status)
	}

	ui.Summary(cmd.OutOrStdout(), fmt.Sprintf("build %s", dir), statuses, terminalWidth())
	if failed > 0 {
		return fmt.Errorf("build failed: %s", ui.Plural(failed, "unit"))
	}
	return nil
}

func writeModule(path string, wasm []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, wasm, 0o644)
}

func displayPath(path, base string) string {
	if rel, err := filepath.Rel(base, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}

func terminalWidth() int {
	if w, _, err := termSize(os.Stdout); err == nil && w > 0 {
		return w
	}
	return 80
}
