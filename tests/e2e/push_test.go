//go:build e2e
// +build e2e

package e2e

import (
	"context"
	"strings"
	"testing"

	"github.com/cnotion/c2n/internal/hashutil"
	"github.com/cnotion/c2n/internal/ignore"
	"github.com/cnotion/c2n/internal/pushengine"
)

// TestCleanPushOfOneFile is end-to-end scenario 1 (spec §8): a single
// README.md pushes to a new remote page whose index record hashes the
// source bytes exactly and whose rendered Markdown matches the source up
// to trailing newlines.
func TestCleanPushOfOneFile(t *testing.T) {
	f := newFixture(t)
	const body = "# Hi\nhello\n"
	f.writeFile("README.md", []byte(body))

	matcher, err := ignore.Load("")
	if err != nil {
		t.Fatalf("load ignore matcher: %v", err)
	}
	engine := pushengine.New(f.Dir, f.Idx, matcher, f.Client, f.Converter, f.ParentPage, pushengine.Options{})

	items, err := engine.Plan()
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	rpt, err := engine.Execute(context.Background(), items)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if rpt.Fatal() {
		t.Fatalf("push reported a fatal failure")
	}

	rec, ok := f.Idx.Get("README.md")
	if !ok {
		t.Fatal("no index record for README.md after push")
	}
	f.trackPage(rec.PageID)

	wantSHA1 := hashutil.SHA1([]byte(body))
	if rec.ContentSHA1 != wantSHA1 {
		t.Errorf("content_sha1 = %s, want %s", rec.ContentSHA1, wantSHA1)
	}

	blocks, err := f.Client.GetBlockTree(context.Background(), rec.PageID)
	if err != nil {
		t.Fatalf("get block tree: %v", err)
	}
	if got := f.Converter.ToMarkdown(blocks); strings.TrimRight(got, "\n") != strings.TrimRight(body, "\n") {
		t.Errorf("remote markdown = %q, want %q", got, body)
	}
}

// TestCodeFileChunking is end-to-end scenario 2 (spec §8): a 3,631-byte
// YAML file pushes as a single code block whose rich-text array is
// chunked into segments no longer than the Notion 2,000-rune limit at
// 1,800/1,831.
func TestCodeFileChunking(t *testing.T) {
	f := newFixture(t)

	var sb strings.Builder
	for sb.Len() < 3631 {
		sb.WriteString("abcdefghij")
	}
	body := sb.String()[:3631]
	f.writeFile("big.yaml", []byte(body))

	matcher, err := ignore.Load("")
	if err != nil {
		t.Fatalf("load ignore matcher: %v", err)
	}
	engine := pushengine.New(f.Dir, f.Idx, matcher, f.Client, f.Converter, f.ParentPage, pushengine.Options{})

	items, err := engine.Plan()
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	rpt, err := engine.Execute(context.Background(), items)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if rpt.Fatal() {
		t.Fatalf("push reported a fatal failure")
	}

	rec, ok := f.Idx.Get("big.yaml")
	if !ok {
		t.Fatal("no index record for big.yaml after push")
	}
	f.trackPage(rec.PageID)

	blocks, err := f.Client.GetBlockTree(context.Background(), rec.PageID)
	if err != nil {
		t.Fatalf("get block tree: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("remote block count = %d, want 1", len(blocks))
	}
}
