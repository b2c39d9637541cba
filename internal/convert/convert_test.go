package convert

import (
	"strings"
	"testing"

	"github.com/jomei/notionapi"
)

func TestRoundTripHeadingAndParagraph(t *testing.T) {
	c := New(nil)
	src := []byte("# Hi\nhello\n")

	blocks, err := c.ToBlocks(src)
	if err != nil {
		t.Fatalf("ToBlocks: %v", err)
	}

	got := c.ToMarkdown(blocks)
	want := "# Hi\nhello\n\n"
	if got != want {
		t.Errorf("ToMarkdown() = %q, want %q", got, want)
	}
}

func TestChunkText(t *testing.T) {
	content := strings.Repeat("a", 3631)
	chunks := ChunkText(content)
	if len(chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2", len(chunks))
	}
	if len(chunks[0]) != 1800 {
		t.Errorf("len(chunks[0]) = %d, want 1800", len(chunks[0]))
	}
	if len(chunks[1]) != 1831 {
		t.Errorf("len(chunks[1]) = %d, want 1831", len(chunks[1]))
	}
}

func TestCodeLanguage(t *testing.T) {
	lang, ok := CodeLanguage(".yaml")
	if !ok || lang != "yaml" {
		t.Errorf("CodeLanguage(.yaml) = %q, %v, want yaml, true", lang, ok)
	}
	if _, ok := CodeLanguage(".unknown"); ok {
		t.Error("CodeLanguage(.unknown) should not be recognized")
	}
}

func TestNestedListPush(t *testing.T) {
	c := New(nil)
	src := []byte("- a\n  - b\n")

	blocks, err := c.ToBlocks(src)
	if err != nil {
		t.Fatalf("ToBlocks: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("len(blocks) = %d, want 1", len(blocks))
	}
	top, ok := blocks[0].(*notionapi.BulletedListItemBlock)
	if !ok {
		t.Fatalf("blocks[0] = %T, want *notionapi.BulletedListItemBlock", blocks[0])
	}
	if len(top.BulletedListItem.Children) != 1 {
		t.Fatalf("len(top.Children) = %d, want 1", len(top.BulletedListItem.Children))
	}
	nested, ok := top.BulletedListItem.Children[0].(*notionapi.BulletedListItemBlock)
	if !ok {
		t.Fatalf("nested child = %T, want *notionapi.BulletedListItemBlock", top.BulletedListItem.Children[0])
	}
	if got := nested.BulletedListItem.RichText[0].Text.Content; got != "b" {
		t.Errorf("nested text = %q, want %q", got, "b")
	}
}

func TestNestedListPull(t *testing.T) {
	c := New(nil)
	blocks := []notionapi.Block{
		&notionapi.BulletedListItemBlock{
			BasicBlock: notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeBulletedListItem},
			BulletedListItem: notionapi.ListItem{
				RichText: []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: "a"}}},
				Children: []notionapi.Block{
					&notionapi.BulletedListItemBlock{
						BasicBlock: notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeBulletedListItem},
						BulletedListItem: notionapi.ListItem{
							RichText: []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: "b"}}},
						},
					},
				},
			},
		},
	}

	got := c.ToMarkdown(blocks)
	want := "- a\n  - b\n"
	if got != want {
		t.Errorf("ToMarkdown() = %q, want %q", got, want)
	}
}

func TestStandaloneImagePush(t *testing.T) {
	c := New(nil)
	src := []byte("![a diagram](https://example.com/x.png)\n")

	blocks, err := c.ToBlocks(src)
	if err != nil {
		t.Fatalf("ToBlocks: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("len(blocks) = %d, want 1", len(blocks))
	}
	img, ok := blocks[0].(*notionapi.ImageBlock)
	if !ok {
		t.Fatalf("blocks[0] = %T, want *notionapi.ImageBlock", blocks[0])
	}
	if img.Image.External == nil || img.Image.External.URL != "https://example.com/x.png" {
		t.Errorf("image external URL = %+v, want https://example.com/x.png", img.Image.External)
	}
}

func TestStandaloneImageRoundTrip(t *testing.T) {
	c := New(nil)
	src := []byte("![a diagram](https://example.com/x.png)\n")

	blocks, err := c.ToBlocks(src)
	if err != nil {
		t.Fatalf("ToBlocks: %v", err)
	}
	got := c.ToMarkdown(blocks)
	want := "![a diagram](https://example.com/x.png)\n\n"
	if got != want {
		t.Errorf("ToMarkdown() = %q, want %q", got, want)
	}
}

func TestInlineImageNotStandalone(t *testing.T) {
	c := New(nil)
	src := []byte("see ![a](https://example.com/a.png) here\n")

	blocks, err := c.ToBlocks(src)
	if err != nil {
		t.Fatalf("ToBlocks: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("len(blocks) = %d, want 1", len(blocks))
	}
	if _, ok := blocks[0].(*notionapi.ParagraphBlock); !ok {
		t.Errorf("blocks[0] = %T, want *notionapi.ParagraphBlock", blocks[0])
	}
}

func TestIsImageExtension(t *testing.T) {
	if !IsImageExtension(".PNG") {
		t.Error("expected .PNG to be treated as an image extension")
	}
	if IsImageExtension(".md") {
		t.Error(".md should not be an image extension")
	}
}
