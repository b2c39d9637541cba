package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cnotion/c2n/internal/cache"
	"github.com/cnotion/c2n/internal/convert"
	"github.com/cnotion/c2n/internal/index"
	"github.com/cnotion/c2n/internal/pullengine"
)

var (
	pullNewOnly      bool
	pullExistingOnly bool
	pullDryRun       bool
)

var pullCmd = &cobra.Command{
	Use:   "pull <folder>",
	Short: "Pull remote changes from Notion",
	Args:  cobra.ExactArgs(1),
	RunE:  runPull,
}

func init() {
	pullCmd.Flags().BoolVar(&pullNewOnly, "new-only", false, "only discover and materialize new remote pages")
	pullCmd.Flags().BoolVar(&pullExistingOnly, "existing-only", false, "only pull changes to already-tracked pages")
	pullCmd.Flags().BoolVar(&pullDryRun, "dry-run", false, "compute and print the plan without writing anything")
}

func runPull(cmd *cobra.Command, args []string) error {
	if pullNewOnly && pullExistingOnly {
		return newUsageError("--new-only and --existing-only are mutually exclusive")
	}

	folder, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	_, client, rootPageID, err := loadProject(folder)
	if err != nil {
		return err
	}

	idx, err := index.Load(folder)
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}
	conv := convert.New(nil)

	engine := pullengine.New(folder, idx, client, conv, rootPageID, pullengine.Options{
		ExistingOnly: pullExistingOnly,
		NewOnly:      pullNewOnly,
		DryRun:       pullDryRun,
	})

	if !pullDryRun {
		if c, err := cache.Open(filepath.Join(folder, ".c2n", "cache.db")); err == nil {
			defer c.Close()
			engine.WithCache(c)
		}
	}

	ctx, cancel := newRunContext()
	defer cancel()

	items, err := engine.Plan(ctx)
	if err != nil {
		return fmt.Errorf("plan pull: %w", err)
	}

	if verbose {
		for _, it := range items {
			glyph := "M"
			if it.Kind == pullengine.NewPage {
				glyph = "+"
			}
			fmt.Printf("  %s %s\n", glyph, it.RelPath)
		}
	}

	rpt, err := engine.Execute(ctx, items)
	if err != nil {
		return fmt.Errorf("execute pull: %w", err)
	}

	if !pullDryRun {
		if err := idx.Save(); err != nil {
			return fmt.Errorf("save index: %w", err)
		}
	}

	rpt.Print(os.Stdout)
	if n := rpt.MergeConflicts(); n > 0 {
		fmt.Printf("%d merge conflict(s) — resolve markers in the affected files\n", n)
	}
	if rpt.Fatal() {
		return fmt.Errorf("pull completed with failures")
	}
	return nil
}
