package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"raven/internal/diagfmt"
	"raven/internal/driver"
	"raven/internal/source"
	"raven/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <path>",
	Short: "Parse and type-check without generating code",
	Args:  cobra.ExactArgs(1),
	RunE:  checkExecution,
}

func init() {
	checkCmd.Flags().Bool("json", false, "emit diagnostics as JSON")
}

func checkExecution(cmd *cobra.Command, args []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	target := args[0]
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("cannot stat %s: %w", target, err)
	}

	var paths []string
	if info.IsDir() {
		paths, err = driver.ListSourceFiles(target)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no .rv files under %s", target)
		}
	} else {
		paths = []string{target}
	}

	fileSet := source.NewFileSet()
	errCount := 0
	for _, path := range paths {
		id, err := fileSet.Load(path)
		if err != nil {
			return err
		}
		res := driver.Check(fileSet, id, maxDiagnostics(cmd))
		res.Bag.Sort()
		if res.Bag.HasErrors() {
			errCount++
		}

		if asJSON {
			err = diagfmt.JSON(cmd.OutOrStdout(), res.Bag, fileSet, diagfmt.JSONOpts{
				IncludePositions: true,
				IncludeNotes:     true,
			})
			if err != nil {
				return err
			}
			continue
		}
		diagfmt.Pretty(os.Stderr, res.Bag, fileSet, diagfmt.PrettyOpts{
			Color:     colorEnabled(cmd),
			ShowNotes: true,
		})
	}

	if errCount > 0 {
		return fmt.Errorf("check failed: %s", ui.Plural(errCount, "unit"))
	}
	if !asJSON {
		fmt.Fprintf(cmd.OutOrStdout(), "checked %s, no errors\n", ui.Plural(len(paths), "file"))
	}
	return nil
}
