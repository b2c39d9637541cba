package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cnotion/c2n/internal/idutil"
	"github.com/cnotion/c2n/internal/ignore"
	"github.com/cnotion/c2n/internal/index"
	"github.com/cnotion/c2n/internal/projectconfig"
	"github.com/cnotion/c2n/internal/pushengine"
	"github.com/cnotion/c2n/internal/urlresolve"
)

var statusFix bool

var statusCmd = &cobra.Command{
	Use:   "status <folder>",
	Short: "Show pending local changes and project health",
	Long: `Status walks the local tree and reports what a push would do,
without contacting Notion. It also flags index records that fail the
project's invariants.

--fix is the sole recovery operation: it re-resolves the root URL,
migrates legacy root_page_url/parent_url keys into default_parent_url,
and rewrites the index in its canonical form. It issues no remote
writes.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusFix, "fix", false, "migrate legacy config keys and rewrite the index canonically")
}

func runStatus(cmd *cobra.Command, args []string) error {
	folder, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	cfg, err := projectconfig.Load(folder)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s is not a c2n project: run 'c2n init' first", folder)
		}
		return fmt.Errorf("load config: %w", err)
	}

	idx, err := index.Load(folder)
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}

	if statusFix {
		return runStatusFix(folder, cfg, idx)
	}

	fmt.Printf("Project: %s\n", folder)
	if cfg.DefaultParentURL == "" {
		fmt.Println("  warning: no default_parent_url configured; run 'status --fix' or edit .c2n/config")
	} else {
		fmt.Printf("  root: %s\n", cfg.DefaultParentURL)
	}
	fmt.Printf("  sync mode: %s\n", cfg.SyncMode)

	invalid := validateIndex(idx)
	if len(invalid) > 0 {
		fmt.Printf("\n%d index record(s) fail invariants:\n", len(invalid))
		for _, msg := range invalid {
			fmt.Printf("  ! %s\n", msg)
		}
		fmt.Println("Run 'status --fix' to normalize, or inspect .c2n/index directly.")
	}

	matcher, err := ignore.Load(filepath.Join(folder, ".c2n_ignore"))
	if err != nil {
		return fmt.Errorf("load ignore file: %w", err)
	}
	engine := pushengine.New(folder, idx, matcher, nil, nil, "", pushengine.Options{})
	items, err := engine.Plan()
	if err != nil {
		return fmt.Errorf("plan push: %w", err)
	}

	var creates, updates, skips, dirs int
	for _, it := range items {
		switch it.Kind {
		case pushengine.CreateFile:
			creates++
		case pushengine.UpdateFile:
			updates++
		case pushengine.SkipFile:
			skips++
		case pushengine.CreateDirectory:
			dirs++
		}
	}

	fmt.Println()
	printStatusLine("New (push)", creates)
	printStatusLine("Modified (push)", updates)
	printStatusLine("Unchanged", skips)
	printStatusLine("New directories", dirs)

	return nil
}

func runStatusFix(folder string, cfg *projectconfig.Config, idx *index.Index) error {
	fixed, changed := urlresolve.Fix(urlresolve.Config{
		DefaultParentURL: cfg.DefaultParentURL,
		RootPageURL:      cfg.RootPageURL,
		ParentURL:        cfg.ParentURL,
	})
	if changed {
		cfg.DefaultParentURL = fixed.DefaultParentURL
		idx.RootPageURL = cfg.DefaultParentURL
		if err := cfg.Save(folder); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Printf("Migrated root URL into default_parent_url: %s\n", cfg.DefaultParentURL)
	} else {
		fmt.Println("default_parent_url already canonical, nothing to migrate")
	}

	if err := idx.Save(); err != nil {
		return fmt.Errorf("rewrite index: %w", err)
	}
	fmt.Println("Index rewritten in canonical form")
	return nil
}

// validateIndex checks every record against invariants 1 and 3 (spec §3).
func validateIndex(idx *index.Index) []string {
	var problems []string
	for _, relPath := range idx.Paths() {
		rec, _ := idx.Get(relPath)
		if !idutil.Valid(rec.PageID) {
			problems = append(problems, fmt.Sprintf("%s: page_id %q is not a valid UUID", relPath, rec.PageID))
			continue
		}
		if !idutil.URLContainsID(rec.PageURL, rec.PageID) {
			problems = append(problems, fmt.Sprintf("%s: page_url does not contain page_id", relPath))
		}

		parent := filepath.ToSlash(filepath.Dir(relPath))
		if parent == "." {
			parent = ""
		}
		if parent == "" {
			continue
		}
		parentRec, ok := idx.Get(parent)
		if !ok || parentRec.Kind != index.KindDirectory {
			problems = append(problems, fmt.Sprintf("%s: parent %q has no directory record", relPath, parent))
		}
	}
	return problems
}

// printStatusLine prints a formatted status line with count.
func printStatusLine(label string, count int) {
	fmt.Printf("  %-18s %4d\n", label+":", count)
}
