package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cnotion/c2n/internal/index"
	"github.com/cnotion/c2n/internal/projectconfig"
	"github.com/cnotion/c2n/internal/urlresolve"
)

var (
	initWorkspaceURL string
	initRootURL      string
)

var initCmd = &cobra.Command{
	Use:   "init [folder]",
	Short: "Initialize a new c2n project",
	Long: `Initialize creates the .c2n metadata folder (config, an empty
index, and an ignore file) in folder, defaulting to the current
directory.

The project's root page is resolved, in order, from --root-url,
--workspace-url, and the NOTION_ROOT_URL environment variable; any of
these may be supplied later by editing .c2n/config directly.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initWorkspaceURL, "workspace-url", "", "Notion workspace or page URL to root the project at")
	initCmd.Flags().StringVar(&initRootURL, "root-url", "", "Notion page URL to root the project at (overrides --workspace-url)")
}

func runInit(cmd *cobra.Command, args []string) error {
	folder := "."
	if len(args) == 1 {
		folder = args[0]
	}
	folder, err := filepath.Abs(folder)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return err
	}

	if _, err := os.Stat(projectconfig.ConfigPath(folder)); err == nil {
		return newUsageError("project already initialized at %s", folder)
	}

	if err := projectconfig.LoadEnv(folder); err != nil && !os.IsNotExist(err) {
		return err
	}

	cfg := projectconfig.Default()
	rootURL := initRootURL
	if rootURL == "" {
		rootURL = initWorkspaceURL
	}
	cfg.DefaultParentURL = rootURL

	resolved, ok := urlresolve.Resolve(urlresolve.Config{DefaultParentURL: cfg.DefaultParentURL}, true)
	if ok {
		cfg.DefaultParentURL = resolved
		if _, idOK := urlresolve.ExtractPageID(resolved); !idOK {
			return newUsageError("root URL %q does not contain a recognizable page ID", resolved)
		}
	}

	if err := cfg.Save(folder); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	idx, err := index.Load(folder)
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}
	idx.RootPageURL = cfg.DefaultParentURL
	if err := idx.Save(); err != nil {
		return fmt.Errorf("save index: %w", err)
	}

	ignorePath := filepath.Join(folder, ".c2n_ignore")
	if _, err := os.Stat(ignorePath); os.IsNotExist(err) {
		if err := os.WriteFile(ignorePath, []byte("# c2n ignore patterns (gitignore syntax)\n"), 0o644); err != nil {
			return err
		}
	}

	fmt.Printf("Initialized c2n project in %s\n", projectconfig.MetaDir(folder))
	if cfg.DefaultParentURL == "" {
		fmt.Println("No root URL resolved yet — set default_parent_url in .c2n/config before pushing or pulling.")
	} else {
		fmt.Printf("Root page: %s\n", cfg.DefaultParentURL)
	}
	return nil
}
