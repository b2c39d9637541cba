//go:build e2e
// +build e2e

package e2e

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cnotion/c2n/internal/convert"
	"github.com/cnotion/c2n/internal/index"
	"github.com/cnotion/c2n/internal/notionclient"
	"github.com/cnotion/c2n/internal/projectconfig"
)

// fixture provisions a temporary project directory wired against a live
// Notion workspace for the literal end-to-end scenarios (spec §8). It
// mirrors the teacher's tests/e2e harness: a scratch vault, a real
// client, and tracked pages cleaned up after the test.
type fixture struct {
	t *testing.T

	Dir        string
	Client     *notionclient.Client
	Converter  *convert.Converter
	Idx        *index.Index
	Cfg        *projectconfig.Config
	ParentPage string

	mu      sync.Mutex
	created []string
}

func requireEnv(t *testing.T) (token, parentPageID string) {
	t.Helper()
	token = os.Getenv("NOTION_TOKEN")
	parentPageID = os.Getenv("NOTION_TEST_PAGE_ID")
	if token == "" || parentPageID == "" {
		t.Skip("NOTION_TOKEN and NOTION_TEST_PAGE_ID must be set to run end-to-end scenarios")
	}
	return token, parentPageID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	token, parentPageID := requireEnv(t)

	dir, err := os.MkdirTemp("", "c2n-e2e-*")
	if err != nil {
		t.Fatalf("create temp project dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	cfg := projectconfig.Default()
	cfg.DefaultParentURL = "https://www.notion.so/" + parentPageID
	if err := cfg.Save(dir); err != nil {
		t.Fatalf("save config: %v", err)
	}

	idx, err := index.Load(dir)
	if err != nil {
		t.Fatalf("load index: %v", err)
	}
	idx.RootPageURL = cfg.DefaultParentURL

	f := &fixture{
		t:          t,
		Dir:        dir,
		Client:     notionclient.New(token),
		Converter:  convert.New(nil),
		Idx:        idx,
		Cfg:        cfg,
		ParentPage: parentPageID,
	}
	t.Cleanup(f.cleanup)
	return f
}

// writeFile writes relPath under the fixture's project directory.
func (f *fixture) writeFile(relPath string, content []byte) {
	f.t.Helper()
	full := filepath.Join(f.Dir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		f.t.Fatalf("mkdir %s: %v", relPath, err)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		f.t.Fatalf("write %s: %v", relPath, err)
	}
}

func (f *fixture) readFile(relPath string) []byte {
	f.t.Helper()
	data, err := os.ReadFile(filepath.Join(f.Dir, filepath.FromSlash(relPath)))
	if err != nil {
		f.t.Fatalf("read %s: %v", relPath, err)
	}
	return data
}

// trackPage records a page created during the test for cleanup.
func (f *fixture) trackPage(pageID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, pageID)
}

func (f *fixture) cleanup() {
	f.mu.Lock()
	pages := append([]string(nil), f.created...)
	f.mu.Unlock()

	for _, pageID := range pages {
		_ = f.Client.ArchivePage(context.Background(), pageID)
	}
}
