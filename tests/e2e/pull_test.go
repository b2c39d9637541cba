//go:build e2e
// +build e2e

package e2e

import (
	"context"
	"os"
	"testing"

	"github.com/cnotion/c2n/internal/ignore"
	"github.com/cnotion/c2n/internal/pullengine"
	"github.com/cnotion/c2n/internal/pushengine"
)

// TestChangePull is end-to-end scenario 3 (spec §8): a remote edit to an
// already-synced file is pulled locally, and a second pull is a no-op.
func TestChangePull(t *testing.T) {
	f := newFixture(t)
	f.writeFile("README.md", []byte("A\n"))

	matcher, err := ignore.Load("")
	if err != nil {
		t.Fatalf("load ignore matcher: %v", err)
	}
	pushed := pushengine.New(f.Dir, f.Idx, matcher, f.Client, f.Converter, f.ParentPage, pushengine.Options{})
	items, err := pushed.Plan()
	if err != nil {
		t.Fatalf("plan push: %v", err)
	}
	if _, err := pushed.Execute(context.Background(), items); err != nil {
		t.Fatalf("execute push: %v", err)
	}
	rec, ok := f.Idx.Get("README.md")
	if !ok {
		t.Fatal("no index record for README.md after push")
	}
	f.trackPage(rec.PageID)

	editedBlocks, err := f.Converter.ToBlocks([]byte("A\nB\n"))
	if err != nil {
		t.Fatalf("parse edited markdown: %v", err)
	}
	if err := f.Client.ReplaceBlocks(context.Background(), rec.PageID, editedBlocks); err != nil {
		t.Fatalf("replace blocks with edited content: %v", err)
	}

	engine := pullengine.New(f.Dir, f.Idx, f.Client, f.Converter, f.ParentPage, pullengine.Options{ExistingOnly: true})
	plan, err := engine.Plan(context.Background())
	if err != nil {
		t.Fatalf("plan pull: %v", err)
	}
	if len(plan) != 1 {
		t.Fatalf("pull plan length = %d, want 1 (the edited README.md)", len(plan))
	}
	if _, err := engine.Execute(context.Background(), plan); err != nil {
		t.Fatalf("execute pull: %v", err)
	}

	got := f.readFile("README.md")
	if string(got) != "A\nB\n" {
		t.Errorf("pulled README.md = %q, want %q", got, "A\nB\n")
	}

	// Re-running pull with an unchanged remote is a no-op: empty plan.
	again, err := engine.Plan(context.Background())
	if err != nil {
		t.Fatalf("plan second pull: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second pull plan length = %d, want 0 (idempotent)", len(again))
	}
}

// TestProjectionSwitchNonDestructive is end-to-end scenario 6 (spec §8):
// a new-page pull run with FlatMode set leaves the hierarchical files
// already on disk in place. The pull engine does not read FlatMode, so
// the run writes no flat files.
func TestProjectionSwitchNonDestructive(t *testing.T) {
	f := newFixture(t)
	f.writeFile("Projects/notes.md", []byte("hierarchical\n"))

	matcher, err := ignore.Load("")
	if err != nil {
		t.Fatalf("load ignore matcher: %v", err)
	}
	pushed := pushengine.New(f.Dir, f.Idx, matcher, f.Client, f.Converter, f.ParentPage, pushengine.Options{})
	items, err := pushed.Plan()
	if err != nil {
		t.Fatalf("plan push: %v", err)
	}
	if _, err := pushed.Execute(context.Background(), items); err != nil {
		t.Fatalf("execute push: %v", err)
	}
	if rec, ok := f.Idx.Get("Projects/notes.md"); ok {
		f.trackPage(rec.PageID)
	}
	if rec, ok := f.Idx.Get("Projects"); ok {
		f.trackPage(rec.PageID)
	}

	if _, err := os.Stat(f.Dir + "/Projects/notes.md"); err != nil {
		t.Fatalf("hierarchical file missing before switch: %v", err)
	}

	f.Cfg.SyncMode = "flat"
	engine := pullengine.New(f.Dir, f.Idx, f.Client, f.Converter, f.ParentPage, pullengine.Options{
		NewOnly:  true,
		FlatMode: true,
	})
	plan, err := engine.Plan(context.Background())
	if err != nil {
		t.Fatalf("plan flat pull: %v", err)
	}
	if _, err := engine.Execute(context.Background(), plan); err != nil {
		t.Fatalf("execute flat pull: %v", err)
	}

	if _, err := os.Stat(f.Dir + "/Projects/notes.md"); err != nil {
		t.Errorf("hierarchical file removed after projection switch: %v", err)
	}
}
