package projection

import (
	"reflect"
	"testing"
)

func TestIsDirectoryPage(t *testing.T) {
	cases := []struct {
		name string
		p    PageSummary
		want bool
	}{
		{"explicit folder", PageSummary{IsFolder: true}, true},
		{"children no content", PageSummary{HasChildPages: true, ContentBlocks: 0}, true},
		{"children with content", PageSummary{HasChildPages: true, ContentBlocks: 3}, false},
		{"leaf", PageSummary{HasChildPages: false, ContentBlocks: 2}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := IsDirectoryPage(c.p); got != c.want {
				t.Errorf("IsDirectoryPage() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestSanitizeTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Project Notes", "Project Notes"},
		{"a/b\\c", "a-b-c"},
		{"too   much   space", "too much space"},
		{"😀 Ideas", "Ideas"},
		{"", "untitled"},
	}
	for _, c := range cases {
		if got := SanitizeTitle(c.in); got != c.want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFileName(t *testing.T) {
	if got := FileName("My Note"); got != "My Note.md" {
		t.Errorf("FileName() = %q", got)
	}
}

func TestFrontMatterRoundTrip(t *testing.T) {
	fm := FrontMatter{
		PageID:      "11111111-1111-1111-1111-111111111111",
		PageURL:     "https://notion.so/page-11111111111111111111111111111111",
		ParentID:    "22222222-2222-2222-2222-222222222222",
		ParentType:  "page",
		ChildrenIDs: []string{"33333333-3333-3333-3333-333333333333"},
		SyncMode:    "flat",
	}
	rendered := RenderFrontMatter(fm, "# Hello\n")

	want := "---\n" +
		"page_id: 11111111-1111-1111-1111-111111111111\n" +
		"page_url: https://notion.so/page-11111111111111111111111111111111\n" +
		"parent_id: 22222222-2222-2222-2222-222222222222\n" +
		"parent_type: page\n" +
		"children_ids: [33333333-3333-3333-3333-333333333333]\n" +
		"sync_mode: flat\n" +
		"---\n" +
		"# Hello\n"
	if rendered != want {
		t.Errorf("RenderFrontMatter() = %q, want %q", rendered, want)
	}

	gotFM, body, ok, err := ParseFrontMatter([]byte(rendered))
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}
	if !ok {
		t.Fatal("expected front-matter block to be found")
	}
	if !reflect.DeepEqual(gotFM, fm) {
		t.Errorf("ParseFrontMatter() fm = %+v, want %+v", gotFM, fm)
	}
	if string(body) != "# Hello\n" {
		t.Errorf("ParseFrontMatter() body = %q", body)
	}
}

func TestParseFrontMatterAbsent(t *testing.T) {
	content := []byte("# No front matter\n")
	_, body, ok, err := ParseFrontMatter(content)
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}
	if ok {
		t.Error("expected ok=false when no front-matter block present")
	}
	if string(body) != string(content) {
		t.Errorf("body = %q, want original content", body)
	}
}
