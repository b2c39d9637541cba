package ignore

import "testing"

func TestMatchBasename(t *testing.T) {
	m := New([]string{"*.tmp"})
	if !m.Match("notes.tmp", false) {
		t.Error("expected notes.tmp to be ignored")
	}
	if !m.Match("sub/notes.tmp", false) {
		t.Error("expected sub/notes.tmp to be ignored (unanchored)")
	}
	if m.Match("notes.md", false) {
		t.Error("notes.md should not be ignored")
	}
}

func TestMatchAnchored(t *testing.T) {
	m := New([]string{"/build"})
	if !m.Match("build", true) {
		t.Error("expected root build/ to be ignored")
	}
	if m.Match("sub/build", true) {
		t.Error("anchored pattern should not match nested sub/build")
	}
}

func TestMatchDirOnly(t *testing.T) {
	m := New([]string{"drafts/"})
	if !m.Match("drafts", true) {
		t.Error("expected drafts/ directory to be ignored")
	}
	if m.Match("drafts", false) {
		t.Error("dirOnly rule should not match a file named drafts")
	}
	if !m.Match("drafts/todo.md", false) {
		t.Error("expected a file under an ignored directory to be ignored")
	}
}

func TestMatchDoubleStar(t *testing.T) {
	m := New([]string{"**/vendor/**"})
	if !m.Match("a/b/vendor/c.go", false) {
		t.Error("expected nested vendor path to match **/vendor/**")
	}
	if m.Match("a/b/other/c.go", false) {
		t.Error("unrelated path should not match **/vendor/**")
	}
}

func TestMatchNegation(t *testing.T) {
	m := New([]string{"*.md", "!keep.md"})
	if !m.Match("draft.md", false) {
		t.Error("expected draft.md to be ignored")
	}
	if m.Match("keep.md", false) {
		t.Error("expected keep.md to be un-ignored by the negation rule")
	}
}

func TestLoadMissingFile(t *testing.T) {
	m, err := Load("/nonexistent/.c2n_ignore")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Match("anything", false) {
		t.Error("a Matcher built from a missing file should never match")
	}
}
