// Package pushengine is the synchronizer's Push Engine (spec §4.5): it
// walks the local project tree, pairs each path with an IndexRecord,
// and executes the create/update/skip plan against the Remote Client.
//
// Grounded on the teacher's internal/cli/push.go (scan → classify →
// parallel processFile → accumulate results), generalized from the
// teacher's SQLite sync-state lookup to the new Index Store and from
// per-file property mapping to the delete-then-append full-replace
// strategy spec §4.5 mandates.
package pushengine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jomei/notionapi"

	"github.com/cnotion/c2n/internal/cache"
	"github.com/cnotion/c2n/internal/convert"
	"github.com/cnotion/c2n/internal/hashutil"
	"github.com/cnotion/c2n/internal/ignore"
	"github.com/cnotion/c2n/internal/index"
	"github.com/cnotion/c2n/internal/notionclient"
	"github.com/cnotion/c2n/internal/report"
	"github.com/cnotion/c2n/internal/syncpool"
)

// dirIcon marks remote directory pages so they read as folders in
// Notion's sidebar (spec §4.5).
var dirIcon = notionclient.EmojiIcon("\U0001F4C1")

// Kind is a push plan category (spec §4.5).
type Kind string

const (
	CreateFile          Kind = "CreateFile"
	UpdateFile          Kind = "UpdateFile"
	SkipFile            Kind = "SkipFile"
	CreateDirectory     Kind = "CreateDirectory"
	SkipDirectoryUpdate Kind = "SkipDirectoryUpdate"
)

// Item is one planned push operation.
type Item struct {
	RelPath       string
	ParentRelPath string
	IsDir         bool
	Kind          Kind
	Content       []byte
}

// Options configures a push run.
type Options struct {
	ForceAll    bool
	NoDirUpdate bool
	DryRun      bool
	Workers     int
}

// Engine drives the push plan-then-execute cycle.
type Engine struct {
	ProjectDir string
	Idx        *index.Index
	Matcher    *ignore.Matcher
	Client     *notionclient.Client
	Converter  *convert.Converter
	RootPageID string
	Opts       Options

	// Cache memoizes directory listings by mtime across runs (spec §2's
	// "Memoized directory listings keyed by mtime"). Nil disables
	// memoization and every Plan call re-reads every directory.
	Cache *cache.Cache
}

// New builds an Engine for a single push run.
func New(projectDir string, idx *index.Index, matcher *ignore.Matcher, client *notionclient.Client, conv *convert.Converter, rootPageID string, opts Options) *Engine {
	return &Engine{
		ProjectDir: projectDir,
		Idx:        idx,
		Matcher:    matcher,
		Client:     client,
		Converter:  conv,
		RootPageID: rootPageID,
		Opts:       opts,
	}
}

// WithCache attaches a directory-listing cache to the engine.
func (e *Engine) WithCache(c *cache.Cache) *Engine {
	e.Cache = c
	return e
}

// Plan walks the local tree, skipping ignored paths, hidden metadata
// directories and image files, and classifies every remaining path.
func (e *Engine) Plan() ([]Item, error) {
	var items []Item
	if err := e.walkDir(e.ProjectDir, &items); err != nil {
		return nil, err
	}

	// Directories created before their contents; within a directory,
	// creations precede updates (spec §4.5 ordering).
	rank := func(it Item) int {
		switch it.Kind {
		case CreateDirectory, SkipDirectoryUpdate:
			return 0
		case CreateFile:
			return 1
		case UpdateFile:
			return 2
		default:
			return 3
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return rank(items[i]) < rank(items[j]) })

	return items, nil
}

// walkDir recurses into dir, classifying each non-ignored entry and
// descending into subdirectories depth-first — the same traversal order
// filepath.WalkDir gives, but driven off listDir's memoized entries
// instead of a fresh fs.ReadDir at every level.
func (e *Engine) walkDir(dir string, items *[]Item) error {
	entries, err := e.listDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name)
		relPath, err := filepath.Rel(e.ProjectDir, path)
		if err != nil {
			return err
		}
		relSlash := filepath.ToSlash(relPath)

		if entry.IsDir && strings.HasPrefix(entry.Name, ".") {
			continue
		}
		if e.Matcher.Match(relSlash, entry.IsDir) {
			continue
		}

		parent := filepath.ToSlash(filepath.Dir(relSlash))
		if parent == "." {
			parent = ""
		}

		if entry.IsDir {
			kind := CreateDirectory
			if _, exists := e.Idx.Get(relSlash); exists {
				kind = SkipDirectoryUpdate
			}
			*items = append(*items, Item{RelPath: relSlash, ParentRelPath: parent, IsDir: true, Kind: kind})
			if err := e.walkDir(path, items); err != nil {
				return err
			}
			continue
		}

		ext := strings.ToLower(filepath.Ext(relSlash))
		if convert.IsImageExtension(ext) {
			continue
		}
		if ext != ".md" {
			if _, ok := convert.CodeLanguage(ext); !ok {
				continue
			}
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		kind := CreateFile
		if rec, exists := e.Idx.Get(relSlash); exists {
			if e.Opts.ForceAll || hashutil.SHA1(content) != rec.ContentSHA1 {
				kind = UpdateFile
			} else {
				kind = SkipFile
			}
		}
		*items = append(*items, Item{RelPath: relSlash, ParentRelPath: parent, IsDir: false, Kind: kind, Content: content})
	}
	return nil
}

// listDir returns dir's entries, preferring a cached listing keyed by
// dir's mtime over a fresh os.ReadDir. --force-all invalidates the
// memoized entry first, since a forced push means "don't trust anything
// cached, including the directory shape."
func (e *Engine) listDir(dir string) ([]cache.DirEntry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	mtimeNS := info.ModTime().UnixNano()

	if e.Cache != nil {
		if e.Opts.ForceAll {
			if err := e.Cache.InvalidateDirListing(dir); err != nil {
				return nil, fmt.Errorf("invalidate dir listing %s: %w", dir, err)
			}
		} else if entries, ok, err := e.Cache.DirListing(dir, mtimeNS); err == nil && ok {
			return entries, nil
		}
	}

	raw, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	entries := make([]cache.DirEntry, 0, len(raw))
	for _, d := range raw {
		entries = append(entries, cache.DirEntry{Name: d.Name(), IsDir: d.IsDir()})
	}

	if e.Cache != nil {
		if err := e.Cache.PutDirListing(dir, mtimeNS, entries); err != nil {
			return nil, fmt.Errorf("cache dir listing %s: %w", dir, err)
		}
	}
	return entries, nil
}

// fileResult is the outcome of pushing a single file.
type fileResult struct {
	url string
}

type fileJob struct {
	item     Item
	parentID string
}

// Execute runs the plan against the Remote Client, updating e.Idx in
// place. In dry-run mode it makes no API calls and reports every item
// as skipped with its planned category as the reason.
func (e *Engine) Execute(ctx context.Context, items []Item) (*report.Report, error) {
	rpt := &report.Report{}

	if e.Opts.DryRun {
		for _, it := range items {
			rpt.Add(it.RelPath, report.KindSkipped, "", string(it.Kind))
		}
		return rpt, nil
	}

	dirPageID := map[string]string{"": e.RootPageID}

	for _, it := range items {
		if !it.IsDir {
			continue
		}
		parentID, ok := dirPageID[it.ParentRelPath]
		if !ok {
			rpt.Add(it.RelPath, report.KindSkipped, "", "parent directory failed")
			continue
		}

		switch it.Kind {
		case CreateDirectory:
			title := filepath.Base(it.RelPath)
			page, err := e.Client.CreateChildPage(ctx, parentID, title, dirIcon, nil)
			if err != nil {
				rpt.Add(it.RelPath, report.KindRemoteFailed, "", err.Error())
				continue
			}
			dirPageID[it.RelPath] = string(page.ID)
			rec := index.Record{PageID: string(page.ID), PageURL: page.URL, ParentID: parentID, Kind: index.KindDirectory}
			if err := e.Idx.Put(it.RelPath, rec, true); err != nil {
				rpt.Add(it.RelPath, report.KindInvariantViolation, "", err.Error())
				continue
			}
			rpt.OK(it.RelPath, page.URL)

		case SkipDirectoryUpdate:
			rec, _ := e.Idx.Get(it.RelPath)
			dirPageID[it.RelPath] = rec.PageID
			rpt.Add(it.RelPath, report.KindSkipped, "", "directory unchanged")
		}
	}

	var jobs []fileJob
	for _, it := range items {
		if it.IsDir {
			continue
		}
		if it.Kind == SkipFile {
			rpt.Add(it.RelPath, report.KindSkipped, "", "")
			continue
		}
		parentID, ok := dirPageID[it.ParentRelPath]
		if !ok {
			rpt.Add(it.RelPath, report.KindSkipped, "", "parent directory failed")
			continue
		}
		jobs = append(jobs, fileJob{item: it, parentID: parentID})
	}

	workers := e.Opts.Workers
	if workers < 1 {
		workers = 8
	}
	pool := syncpool.NewWorkerPool(workers)

	results := syncpool.Process(ctx, pool, jobs, func(ctx context.Context, j fileJob) (fileResult, error) {
		return e.pushFile(ctx, j.item, j.parentID)
	})

	for _, res := range results {
		it := res.Input.item
		if res.Err != nil {
			rpt.Add(it.RelPath, report.KindRemoteFailed, "", res.Err.Error())
			continue
		}
		rpt.OK(it.RelPath, res.Result.url)
	}

	return rpt, nil
}

// pushFile converts a single file's content to blocks and creates or
// replaces its remote page, then updates the Index Store.
func (e *Engine) pushFile(ctx context.Context, it Item, parentPageID string) (fileResult, error) {
	ext := strings.ToLower(filepath.Ext(it.RelPath))

	var blocks []notionapi.Block
	if lang, ok := convert.CodeLanguage(ext); ok {
		blocks = []notionapi.Block{convert.CodeBlock(string(it.Content), lang)}
	} else {
		var err error
		blocks, err = e.Converter.ToBlocks(it.Content)
		if err != nil {
			return fileResult{}, fmt.Errorf("convert %s: %w", it.RelPath, err)
		}
	}

	title := strings.TrimSuffix(filepath.Base(it.RelPath), filepath.Ext(it.RelPath))
	sum := hashutil.SHA1(it.Content)

	var pageID, url string
	rec, exists := e.Idx.Get(it.RelPath)

	if it.Kind == CreateFile || !exists {
		page, err := e.Client.CreateChildPage(ctx, parentPageID, title, nil, blocks)
		if err != nil {
			return fileResult{}, fmt.Errorf("create page %s: %w", it.RelPath, err)
		}
		pageID = string(page.ID)
		url = page.URL
	} else {
		pageID = rec.PageID
		if err := e.Client.ReplaceBlocks(ctx, pageID, blocks); err != nil {
			return fileResult{}, fmt.Errorf("replace blocks %s: %w", it.RelPath, err)
		}
		page, err := e.Client.RetrievePage(ctx, pageID)
		if err != nil {
			return fileResult{}, fmt.Errorf("retrieve page %s: %w", it.RelPath, err)
		}
		url = page.URL
	}

	newRec := index.Record{
		PageID:      pageID,
		PageURL:     url,
		ParentID:    parentPageID,
		Kind:        index.KindFile,
		ContentSHA1: sum,
	}
	if err := e.Idx.Put(it.RelPath, newRec, true); err != nil {
		return fileResult{}, fmt.Errorf("index put %s: %w", it.RelPath, err)
	}

	return fileResult{url: url}, nil
}
