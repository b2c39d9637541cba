package pullengine

import "testing"

func TestDepth(t *testing.T) {
	cases := []struct {
		relPath string
		want    int
	}{
		{"", 0},
		{"notes.md", 0},
		{"Projects/notes.md", 1},
		{"Projects/Q1/notes.md", 2},
	}
	for _, c := range cases {
		if got := depth(c.relPath); got != c.want {
			t.Errorf("depth(%q) = %d, want %d", c.relPath, got, c.want)
		}
	}
}

func TestJoinRel(t *testing.T) {
	if got := joinRel("", "notes.md"); got != "notes.md" {
		t.Errorf("joinRel(%q, %q) = %q", "", "notes.md", got)
	}
	if got := joinRel("Projects", "notes.md"); got != "Projects/notes.md" {
		t.Errorf("joinRel(%q, %q) = %q", "Projects", "notes.md", got)
	}
}

func TestSortPlanItems(t *testing.T) {
	items := []PlanItem{
		{RelPath: "Projects/Q1/notes.md", IsDir: false},
		{RelPath: "Projects", IsDir: true},
		{RelPath: "root.md", IsDir: false},
		{RelPath: "Projects/Q1", IsDir: true},
	}
	sortPlanItems(items)

	var gotOrder []string
	for _, it := range items {
		gotOrder = append(gotOrder, it.RelPath)
	}

	wantDepths := []int{0, 0, 1, 2}
	for i, it := range items {
		if depth(it.RelPath) != wantDepths[i] {
			t.Fatalf("sortPlanItems() order = %v, not depth-ascending at index %d", gotOrder, i)
		}
	}

	// At depth 0, the directory must precede the file.
	if items[0].RelPath != "Projects" || items[1].RelPath != "root.md" {
		t.Errorf("sortPlanItems() depth-0 order = [%s, %s], want directory before file", items[0].RelPath, items[1].RelPath)
	}
}

func TestRunExistingAndRunNew(t *testing.T) {
	cases := []struct {
		name         string
		opts         Options
		wantExisting bool
		wantNew      bool
	}{
		{"default runs both", Options{}, true, true},
		{"existing only", Options{ExistingOnly: true}, true, false},
		{"new only", Options{NewOnly: true}, false, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := &Engine{Opts: c.opts}
			if got := e.runExisting(); got != c.wantExisting {
				t.Errorf("runExisting() = %v, want %v", got, c.wantExisting)
			}
			if got := e.runNew(); got != c.wantNew {
				t.Errorf("runNew() = %v, want %v", got, c.wantNew)
			}
		})
	}
}
