package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cnotion/c2n/internal/convert"
	"github.com/cnotion/c2n/internal/index"
	"github.com/cnotion/c2n/internal/notionclient"
	"github.com/cnotion/c2n/internal/projectconfig"
	"github.com/cnotion/c2n/internal/pullengine"
	"github.com/cnotion/c2n/internal/urlresolve"
)

var cloneWorkspaceURL string

var cloneCmd = &cobra.Command{
	Use:   "clone [url] [folder]",
	Short: "Clone a Notion page subtree into a new local project",
	Long: `Clone initializes folder (default: current directory) as a c2n
project rooted at url, then runs a new-page pull to materialize the
entire remote subtree locally.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runClone,
}

func init() {
	cloneCmd.Flags().StringVar(&cloneWorkspaceURL, "workspace-url", "", "alternate form of the root URL, if url is omitted")
}

func runClone(cmd *cobra.Command, args []string) error {
	rootURL := ""
	if len(args) >= 1 {
		rootURL = args[0]
	}
	folder := "."
	if len(args) == 2 {
		folder = args[1]
	}
	folder, err := filepath.Abs(folder)
	if err != nil {
		return err
	}
	if rootURL == "" {
		rootURL = cloneWorkspaceURL
	}
	if rootURL == "" {
		return newUsageError("clone requires a root URL")
	}

	rootPageID, ok := urlresolve.ExtractPageID(rootURL)
	if !ok {
		return newUsageError("root URL %q does not contain a recognizable page ID", rootURL)
	}

	if err := os.MkdirAll(folder, 0o755); err != nil {
		return err
	}
	if _, err := os.Stat(projectconfig.ConfigPath(folder)); err == nil {
		return newUsageError("project already initialized at %s", folder)
	}

	if err := projectconfig.LoadEnv(folder); err != nil {
		return err
	}
	token, ok := projectconfig.NotionToken()
	if !ok {
		return fmt.Errorf("NOTION_TOKEN or NOTION_API_KEY is required")
	}

	cfg := projectconfig.Default()
	cfg.DefaultParentURL = rootURL
	if err := cfg.Save(folder); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	idx, err := index.Load(folder)
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}
	idx.RootPageURL = rootURL

	client := notionclient.New(token)
	conv := convert.New(nil)

	engine := pullengine.New(folder, idx, client, conv, rootPageID, pullengine.Options{NewOnly: true})

	ctx, cancel := newRunContext()
	defer cancel()

	items, err := engine.Plan(ctx)
	if err != nil {
		return fmt.Errorf("plan clone: %w", err)
	}

	rpt, err := engine.Execute(ctx, items)
	if err != nil {
		return fmt.Errorf("execute clone: %w", err)
	}

	if err := idx.Save(); err != nil {
		return fmt.Errorf("save index: %w", err)
	}

	rpt.Print(os.Stdout)
	if rpt.Fatal() {
		return fmt.Errorf("clone completed with failures")
	}
	fmt.Printf("Cloned %d item(s) into %s\n", len(items), folder)
	return nil
}
