// Package index implements the Index Store: the persistent per-project
// mapping from local relative path to remote item record. It is grounded
// on the teacher's state.DB load/save discipline, but the backing format
// moves from SQLite to a single structured JSON document with sorted keys
// so that saves diff minimally and round-trip byte-for-byte (spec P7) —
// database/sql has no notion of deterministic output ordering, which the
// Index Store's persistence contract requires.
package index

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cnotion/c2n/internal/ignore"
)

// Kind is the synchronized-item kind an IndexRecord describes.
type Kind string

const (
	KindFile      Kind = "file"
	KindDirectory Kind = "directory"
	KindPage      Kind = "page" // Flat mode
)

// Record is one entry of the Index Store, keyed by local relative path.
type Record struct {
	PageID           string         `json:"page_id"`
	PageURL          string         `json:"page_url"`
	ParentID         string         `json:"parent_id,omitempty"`
	Kind             Kind           `json:"kind"`
	ContentSHA1      string         `json:"content_sha1,omitempty"`
	LocalMtimeNS     int64          `json:"local_mtime_ns,omitempty"`
	RemoteLastEdited string         `json:"remote_last_edited,omitempty"`
	LastSyncAt       string         `json:"last_sync_at,omitempty"`
	Extra            map[string]any `json:"-"`
}

// ErrCorrupt is returned by Load when the on-disk index cannot be parsed.
var ErrCorrupt = errors.New("index: corrupt index file")

// ErrInvariantViolation is returned by Put when a Hierarchy-mode write
// would violate invariant 3 (parent directory record must exist first).
var ErrInvariantViolation = errors.New("index: invariant violation")

// document is the exact on-disk shape, kept separate from Index so that
// unmarshal/marshal round-trips preserve unknown record keys.
type document struct {
	RootPageURL string                     `json:"root_page_url"`
	Records     map[string]json.RawMessage `json:"records"`
}

// Index is the in-memory project index.
type Index struct {
	path        string
	RootPageURL string
	records     map[string]Record
	extra       map[string]map[string]any
}

// Load reads the index file at dir/.c2n/index, returning an empty Index
// if the file is absent. A present-but-unparseable file yields ErrCorrupt.
func Load(projectDir string) (*Index, error) {
	p := filepath.Join(projectDir, ".c2n", "index")
	idx := &Index{
		path:    p,
		records: make(map[string]Record),
		extra:   make(map[string]map[string]any),
	}

	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return idx, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return idx, nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	idx.RootPageURL = doc.RootPageURL

	for path, raw := range doc.Records {
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("%w: record %q: %v", ErrCorrupt, path, err)
		}
		var generic map[string]any
		if err := json.Unmarshal(raw, &generic); err == nil {
			idx.extra[path] = generic
		}
		idx.records[path] = rec
	}
	return idx, nil
}

// Get returns the record at relPath, or false if none is stored.
func (idx *Index) Get(relPath string) (Record, bool) {
	rec, ok := idx.records[relPath]
	return rec, ok
}

// Put upserts the record at relPath. hierarchyMode, when true, enforces
// invariant 3: every non-root path's parent directory must already have a
// kind=directory record.
func (idx *Index) Put(relPath string, rec Record, hierarchyMode bool) error {
	if hierarchyMode && relPath != "" {
		parent := filepath.Dir(relPath)
		if parent == "." {
			parent = ""
		}
		if parent != "" {
			parentRec, ok := idx.records[parent]
			if !ok || parentRec.Kind != KindDirectory {
				return fmt.Errorf("%w: %q has no directory record for parent %q", ErrInvariantViolation, relPath, parent)
			}
		}
	}
	idx.records[relPath] = rec
	return nil
}

// Delete removes the record at relPath, if any.
func (idx *Index) Delete(relPath string) {
	delete(idx.records, relPath)
	delete(idx.extra, relPath)
}

// Paths returns all stored relative paths, sorted.
func (idx *Index) Paths() []string {
	paths := make([]string, 0, len(idx.records))
	for p := range idx.records {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Save writes the index atomically: marshal to a temp file in the same
// directory, then rename over the target, so a crash mid-write never
// leaves a truncated index. Keys are sorted for a stable, diffable byte
// layout. root_page_url is always emitted, even when empty.
func (idx *Index) Save() error {
	dir := filepath.Dir(idx.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString("{\n")
	fmt.Fprintf(&buf, "  %q: %q,\n", "root_page_url", idx.RootPageURL)
	buf.WriteString("  \"records\": {")

	paths := idx.Paths()
	for i, p := range paths {
		rec := idx.records[p]
		merged, err := mergeUnknown(rec, idx.extra[p])
		if err != nil {
			return err
		}
		recJSON, err := json.MarshalIndent(merged, "    ", "  ")
		if err != nil {
			return err
		}
		if i == 0 {
			buf.WriteString("\n")
		} else {
			buf.WriteString(",\n")
		}
		fmt.Fprintf(&buf, "    %q: %s", p, recJSON)
	}
	if len(paths) > 0 {
		buf.WriteString("\n  ")
	}
	buf.WriteString("}\n}\n")

	tmp, err := os.CreateTemp(dir, ".index-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, idx.path)
}

// mergeUnknown folds a record's known fields together with any unrecognized
// keys preserved from the original on-disk document, per the Index Store's
// forward-compatibility contract.
func mergeUnknown(rec Record, extra map[string]any) (map[string]any, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, known := out[k]; !known {
			out[k] = v
		}
	}
	return out, nil
}

// IsIgnored loads .c2n_ignore from projectDir and evaluates relPath
// against it using gitignore matching semantics.
func IsIgnored(projectDir, relPath string, isDir bool) (bool, error) {
	m, err := ignore.Load(filepath.Join(projectDir, ".c2n_ignore"))
	if err != nil {
		return false, err
	}
	return m.Match(relPath, isDir), nil
}
