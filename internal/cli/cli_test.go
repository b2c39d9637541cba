package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/cnotion/c2n/internal/index"
)

func TestIsUsageError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"usage error", newUsageError("bad flag %s", "--foo"), true},
		{"wrapped usage error", fmt.Errorf("context: %w", newUsageError("bad flag")), true},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := isUsageError(tc.err); got != tc.want {
				t.Errorf("isUsageError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestValidateIndex(t *testing.T) {
	idx, err := index.Load(t.TempDir())
	if err != nil {
		t.Fatalf("index.Load: %v", err)
	}
	validID := "11111111-1111-1111-1111-111111111111"

	if err := idx.Put("Projects", index.Record{
		PageID:  validID,
		PageURL: "https://notion.so/Projects-" + validID,
		Kind:    index.KindDirectory,
	}, true); err != nil {
		t.Fatalf("seed directory record: %v", err)
	}

	if err := idx.Put("Projects/notes.md", index.Record{
		PageID:  "22222222-2222-2222-2222-222222222222",
		PageURL: "https://notion.so/notes-22222222222222222222222222222222",
		Kind:    index.KindFile,
	}, true); err != nil {
		t.Fatalf("seed file record: %v", err)
	}

	if problems := validateIndex(idx); len(problems) != 0 {
		t.Errorf("validateIndex() on a consistent index = %v, want none", problems)
	}

	idx.Delete("Projects")
	if err := idx.Put("Projects", index.Record{
		PageID:  validID,
		PageURL: "https://notion.so/Projects-" + validID,
		Kind:    index.KindDirectory,
	}, false); err != nil {
		t.Fatalf("re-seed directory record: %v", err)
	}
	idx.Delete("Projects")

	if err := idx.Put("Orphan/notes.md", index.Record{
		PageID:  "33333333-3333-3333-3333-333333333333",
		PageURL: "https://notion.so/notes-33333333333333333333333333333333",
		Kind:    index.KindFile,
	}, false); err != nil {
		t.Fatalf("seed orphan record: %v", err)
	}

	problems := validateIndex(idx)
	if len(problems) == 0 {
		t.Fatal("validateIndex() found no problems for an orphaned file record")
	}
}
