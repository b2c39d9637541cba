package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cnotion/c2n/internal/cache"
	"github.com/cnotion/c2n/internal/convert"
	"github.com/cnotion/c2n/internal/ignore"
	"github.com/cnotion/c2n/internal/index"
	"github.com/cnotion/c2n/internal/notionclient"
	"github.com/cnotion/c2n/internal/projectconfig"
	"github.com/cnotion/c2n/internal/pushengine"
	"github.com/cnotion/c2n/internal/urlresolve"
)

var (
	pushForceAll bool
	pushDryRun   bool
)

var pushCmd = &cobra.Command{
	Use:   "push <folder>",
	Short: "Push local changes to Notion",
	Args:  cobra.ExactArgs(1),
	RunE:  runPush,
}

func init() {
	pushCmd.Flags().BoolVar(&pushForceAll, "force-all", false, "push every file regardless of content hash")
	pushCmd.Flags().BoolVar(&pushDryRun, "dry-run", false, "compute and print the plan without writing to Notion")
}

func runPush(cmd *cobra.Command, args []string) error {
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
	matcher, err := ignore.Load(filepath.Join(folder, ".c2n_ignore"))
	if err != nil {
		return fmt.Errorf("load ignore file: %w", err)
	}
	conv := convert.New(nil)

	engine := pushengine.New(folder, idx, matcher, client, conv, rootPageID, pushengine.Options{
		ForceAll: pushForceAll,
		DryRun:   pushDryRun,
	})

	if c, err := cache.Open(filepath.Join(folder, ".c2n", "cache.db")); err == nil {
		defer c.Close()
		engine.WithCache(c)
	}

	items, err := engine.Plan()
	if err != nil {
		return fmt.Errorf("plan push: %w", err)
	}

	if verbose {
		for _, it := range items {
			fmt.Printf("  %s %s\n", planGlyph(it.Kind), it.RelPath)
		}
	}

	ctx, cancel := newRunContext()
	defer cancel()

	rpt, err := engine.Execute(ctx, items)
	if err != nil {
		return fmt.Errorf("execute push: %w", err)
	}

	if !pushDryRun {
		if err := idx.Save(); err != nil {
			return fmt.Errorf("save index: %w", err)
		}
	}

	rpt.Print(os.Stdout)
	if rpt.Fatal() {
		return fmt.Errorf("push completed with failures")
	}
	return nil
}

// planGlyph renders a push plan Kind as the teacher's one-character
// create/modify/skip prefix (internal/cli/push.go's "+"/"M"/"D" verbose
// log lines, adapted to this spec's plan categories).
func planGlyph(kind pushengine.Kind) string {
	switch kind {
	case pushengine.CreateFile, pushengine.CreateDirectory:
		return "+"
	case pushengine.UpdateFile:
		return "M"
	default:
		return "="
	}
}

// loadProject loads a project's config and env, validates the Notion
// token and root URL, and returns a ready-to-use Remote Client.
func loadProject(folder string) (*projectconfig.Config, *notionclient.Client, string, error) {
	cfg, err := projectconfig.Load(folder)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, "", fmt.Errorf("%s is not a c2n project: run 'c2n init' first", folder)
		}
		return nil, nil, "", fmt.Errorf("load config: %w", err)
	}

	if err := projectconfig.LoadEnv(folder); err != nil {
		return nil, nil, "", err
	}
	token, ok := projectconfig.NotionToken()
	if !ok {
		return nil, nil, "", fmt.Errorf("NOTION_TOKEN or NOTION_API_KEY is required")
	}

	rootURL, ok := urlresolve.Resolve(urlresolve.Config{
		DefaultParentURL: cfg.DefaultParentURL,
		RootPageURL:      cfg.RootPageURL,
		ParentURL:        cfg.ParentURL,
	}, false)
	if !ok {
		return nil, nil, "", fmt.Errorf("no root URL configured: set default_parent_url in .c2n/config")
	}
	rootPageID, ok := urlresolve.ExtractPageID(rootURL)
	if !ok {
		return nil, nil, "", fmt.Errorf("root URL %q does not contain a recognizable page ID", rootURL)
	}

	return cfg, notionclient.New(token), rootPageID, nil
}
