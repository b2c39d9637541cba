// Package pullengine is the synchronizer's Pull Engine (spec §4.6): it
// combines the --existing-only (change pull) and --new-only (new-page
// pull) submodes, staging rendered Markdown for the Merge Engine and
// placing newly discovered remote pages under Projection Policy.
//
// Grounded on the teacher's internal/cli/pull.go (fetch → transform →
// write → update state), generalized from its per-page polling loop to
// breadth-first remote-tree discovery (spec has no database to query,
// unlike the teacher's Notion-database model) and from direct
// overwrite to Merge Engine staging.
package pullengine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jomei/notionapi"

	"github.com/cnotion/c2n/internal/cache"
	"github.com/cnotion/c2n/internal/convert"
	"github.com/cnotion/c2n/internal/hashutil"
	"github.com/cnotion/c2n/internal/index"
	"github.com/cnotion/c2n/internal/merge"
	"github.com/cnotion/c2n/internal/notionclient"
	"github.com/cnotion/c2n/internal/projection"
	"github.com/cnotion/c2n/internal/report"
	"github.com/cnotion/c2n/internal/syncpool"
)

// snapshotTTL bounds how long a cached remote last_edited_time is
// trusted before planExisting re-fetches it from Notion.
const snapshotTTL = 2 * time.Minute

// ChangeKind is a pull plan category (spec §4.6).
type ChangeKind string

const (
	ExistingUpdate ChangeKind = "ExistingUpdate"
	NewPage        ChangeKind = "NewPage"
)

// PlanItem is one planned pull operation.
type PlanItem struct {
	RelPath       string
	PageID        string
	ParentRelPath string
	ParentPageID  string
	Title         string
	IsDir         bool
	Kind          ChangeKind
}

// Options configures a pull run. ExistingOnly and NewOnly are
// mutually exclusive submode selectors (spec §4.6); with neither set,
// both submodes run. FlatMode is not read by the engine: new pages are
// always placed by the Hierarchy-mode rules and no front-matter is
// written.
type Options struct {
	ExistingOnly bool
	NewOnly      bool
	DryRun       bool
	Workers      int
	FlatMode     bool
}

// Engine drives the pull plan-then-execute cycle.
type Engine struct {
	ProjectDir string
	Idx        *index.Index
	Client     *notionclient.Client
	Converter  *convert.Converter
	RootPageID string
	Opts       Options

	// Cache memoizes remote last_edited_time lookups across runs. Nil
	// disables memoization and every planExisting call hits the network.
	Cache *cache.Cache
}

// New builds an Engine for a single pull run.
func New(projectDir string, idx *index.Index, client *notionclient.Client, conv *convert.Converter, rootPageID string, opts Options) *Engine {
	return &Engine{
		ProjectDir: projectDir,
		Idx:        idx,
		Client:     client,
		Converter:  conv,
		RootPageID: rootPageID,
		Opts:       opts,
	}
}

// WithCache attaches a Filesystem Cache used to skip re-fetching
// last_edited_time for pages whose remote snapshot is still fresh.
func (e *Engine) WithCache(c *cache.Cache) *Engine {
	e.Cache = c
	return e
}

func (e *Engine) runExisting() bool { return e.Opts.ExistingOnly || !e.Opts.NewOnly }
func (e *Engine) runNew() bool      { return e.Opts.NewOnly || !e.Opts.ExistingOnly }

// Plan runs whichever submodes are selected and returns the combined,
// directory-first-ordered item list.
func (e *Engine) Plan(ctx context.Context) ([]PlanItem, error) {
	var items []PlanItem

	if e.runExisting() {
		existing, err := e.planExisting(ctx)
		if err != nil {
			return nil, fmt.Errorf("plan existing-page pull: %w", err)
		}
		items = append(items, existing...)
	}

	if e.runNew() {
		fresh, err := e.planNew(ctx)
		if err != nil {
			return nil, fmt.Errorf("plan new-page pull: %w", err)
		}
		items = append(items, fresh...)
	}

	sortPlanItems(items)

	return items, nil
}

// sortPlanItems orders shallower paths before deeper ones, and
// directories before files at the same depth, so that pullNewPage can
// apply them sequentially without violating the Index Store's
// parent-record invariant.
func sortPlanItems(items []PlanItem) {
	sort.SliceStable(items, func(i, j int) bool {
		di, dj := depth(items[i].RelPath), depth(items[j].RelPath)
		if di != dj {
			return di < dj
		}
		if items[i].IsDir != items[j].IsDir {
			return items[i].IsDir
		}
		return false
	})
}

func depth(relPath string) int {
	if relPath == "" {
		return 0
	}
	return strings.Count(relPath, "/")
}

// planExisting fetches last_edited_time for every indexed file record
// and flags those whose remote copy has moved since last sync.
func (e *Engine) planExisting(ctx context.Context) ([]PlanItem, error) {
	var items []PlanItem
	for _, relPath := range e.Idx.Paths() {
		rec, _ := e.Idx.Get(relPath)
		if rec.Kind != index.KindFile {
			continue
		}

		lastEdited, ok := e.cachedLastEdited(rec.PageID)
		if !ok {
			fetched, err := e.Client.GetLastEditedTime(ctx, rec.PageID)
			if err != nil {
				return nil, fmt.Errorf("get last edited time %s: %w", relPath, err)
			}
			lastEdited = fetched
			if e.Cache != nil {
				if err := e.Cache.PutRemoteSnapshot(rec.PageID, lastEdited, time.Now()); err != nil {
					return nil, fmt.Errorf("cache remote snapshot %s: %w", relPath, err)
				}
			}
		}

		if lastEdited != rec.RemoteLastEdited {
			items = append(items, PlanItem{RelPath: relPath, PageID: rec.PageID, Kind: ExistingUpdate})
		}
	}
	return items, nil
}

// cachedLastEdited returns a still-fresh memoized last_edited_time for
// pageID, if a Filesystem Cache is attached and holds one.
func (e *Engine) cachedLastEdited(pageID string) (string, bool) {
	if e.Cache == nil {
		return "", false
	}
	lastEdited, fresh, err := e.Cache.RemoteSnapshot(pageID, snapshotTTL)
	if err != nil || !fresh {
		return "", false
	}
	return lastEdited, true
}

// planNew traverses the remote subtree breadth-first from the
// project's root page, yielding every page not already present in the
// Index Store.
func (e *Engine) planNew(ctx context.Context) ([]PlanItem, error) {
	pageToPath := map[string]string{}
	for _, relPath := range e.Idx.Paths() {
		rec, _ := e.Idx.Get(relPath)
		pageToPath[rec.PageID] = relPath
	}
	pageToPath[e.RootPageID] = ""

	type queued struct {
		pageID, relPath string
	}
	queue := []queued{{pageID: e.RootPageID, relPath: ""}}
	visited := map[string]bool{e.RootPageID: true}

	var items []PlanItem
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		refs, err := e.Client.ListChildPages(ctx, cur.pageID)
		if err != nil {
			return nil, fmt.Errorf("list child pages of %s: %w", cur.pageID, err)
		}

		for _, ref := range refs {
			if visited[ref.PageID] {
				continue
			}
			visited[ref.PageID] = true

			if known, ok := pageToPath[ref.PageID]; ok {
				queue = append(queue, queued{pageID: ref.PageID, relPath: known})
				continue
			}

			isDir, contentBlocks, hasChildren, err := e.classify(ctx, ref.PageID)
			if err != nil {
				return nil, fmt.Errorf("classify page %s: %w", ref.PageID, err)
			}

			// Open Question resolution: suppress empty-title,
			// zero-children remote pages rather than emitting a
			// placeholder local file.
			if ref.Title == "" && contentBlocks == 0 && !hasChildren {
				continue
			}

			var relPath string
			if isDir {
				relPath = joinRel(cur.relPath, projection.SanitizeTitle(ref.Title))
			} else {
				relPath = joinRel(cur.relPath, projection.FileName(ref.Title))
			}

			items = append(items, PlanItem{
				RelPath:       relPath,
				PageID:        ref.PageID,
				ParentRelPath: cur.relPath,
				ParentPageID:  cur.pageID,
				Title:         ref.Title,
				IsDir:         isDir,
				Kind:          NewPage,
			})
			pageToPath[ref.PageID] = relPath
			queue = append(queue, queued{pageID: ref.PageID, relPath: relPath})
		}
	}

	return items, nil
}

func joinRel(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// classify determines whether a newly discovered page should become a
// local directory, per Projection Policy's Hierarchy-mode rule.
func (e *Engine) classify(ctx context.Context, pageID string) (isDir bool, contentBlocks int, hasChildren bool, err error) {
	children, err := e.Client.ListChildPages(ctx, pageID)
	if err != nil {
		return false, 0, false, err
	}
	hasChildren = len(children) > 0

	blocks, err := e.Client.GetChildBlocks(ctx, pageID)
	if err != nil {
		return false, 0, false, err
	}
	for _, b := range blocks {
		if _, ok := b.(*notionapi.ChildPageBlock); ok {
			continue
		}
		contentBlocks++
	}

	isDir = projection.IsDirectoryPage(projection.PageSummary{
		HasChildPages: hasChildren,
		ContentBlocks: contentBlocks,
	})
	return isDir, contentBlocks, hasChildren, nil
}

// pullResult is the outcome of an existing-page pull.
type pullResult struct {
	conflicts int
}

// Execute runs the plan: existing-page updates are staged, merged
// against the local copy and written back; new pages are materialized
// directly (directory-first, since MkdirAll alone would not satisfy
// the Index Store's parent-record invariant).
func (e *Engine) Execute(ctx context.Context, items []PlanItem) (*report.Report, error) {
	rpt := &report.Report{}

	if e.Opts.DryRun {
		for _, it := range items {
			rpt.Add(it.RelPath, report.KindSkipped, "", string(it.Kind))
		}
		return rpt, nil
	}

	var existingItems, newItems []PlanItem
	for _, it := range items {
		if it.Kind == ExistingUpdate {
			existingItems = append(existingItems, it)
		} else {
			newItems = append(newItems, it)
		}
	}

	workers := e.Opts.Workers
	if workers < 1 {
		workers = 8
	}
	pool := syncpool.NewWorkerPool(workers)

	results := syncpool.Process(ctx, pool, existingItems, func(ctx context.Context, it PlanItem) (pullResult, error) {
		return e.pullExisting(ctx, it)
	})
	for _, res := range results {
		it := res.Input
		if res.Err != nil {
			rpt.Add(it.RelPath, report.KindRemoteFailed, "", res.Err.Error())
			continue
		}
		if res.Result.conflicts > 0 {
			rpt.Add(it.RelPath, report.KindMergeConflict, "", fmt.Sprintf("%d conflict(s)", res.Result.conflicts))
			continue
		}
		rpt.OK(it.RelPath, "")
	}

	// New pages are applied sequentially, directory-first (items are
	// already sorted that way by Plan), since a file record's parent
	// directory record must exist before Put will accept it.
	for _, it := range newItems {
		if err := e.pullNewPage(ctx, it); err != nil {
			rpt.Add(it.RelPath, report.KindRemoteFailed, "", err.Error())
			continue
		}
		rpt.OK(it.RelPath, "")
	}

	return rpt, nil
}

// pullExisting renders a changed remote page to Markdown, stages it
// under .c2n/pull/latest, then merges it into the working copy.
func (e *Engine) pullExisting(ctx context.Context, it PlanItem) (pullResult, error) {
	blocks, err := e.Client.GetBlockTree(ctx, it.PageID)
	if err != nil {
		return pullResult{}, fmt.Errorf("get block tree %s: %w", it.RelPath, err)
	}
	remoteMD := []byte(e.Converter.ToMarkdown(blocks))

	stagingPath := filepath.Join(e.ProjectDir, ".c2n", "pull", "latest", filepath.FromSlash(it.RelPath))
	if err := os.MkdirAll(filepath.Dir(stagingPath), 0o755); err != nil {
		return pullResult{}, err
	}
	if err := os.WriteFile(stagingPath, remoteMD, 0o644); err != nil {
		return pullResult{}, err
	}

	localPath := filepath.Join(e.ProjectDir, filepath.FromSlash(it.RelPath))
	localBytes, err := os.ReadFile(localPath)
	localPresent := err == nil
	if err != nil && !os.IsNotExist(err) {
		return pullResult{}, err
	}

	page, err := e.Client.RetrievePage(ctx, it.PageID)
	if err != nil {
		return pullResult{}, err
	}
	rec, _ := e.Idx.Get(it.RelPath)
	rec.RemoteLastEdited = page.LastEditedTime.String()

	// SAME: bytes equal, no write (spec §4.7).
	if merge.Classify(localPresent, localBytes, remoteMD) == merge.ClassSame {
		if err := e.Idx.Put(it.RelPath, rec, true); err != nil {
			return pullResult{}, err
		}
		return pullResult{}, nil
	}

	merged, conflicts := merge.Merge(localBytes, remoteMD)
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return pullResult{}, err
	}
	if err := os.WriteFile(localPath, merged, 0o644); err != nil {
		return pullResult{}, err
	}

	rec.ContentSHA1 = hashutil.SHA1(merged)
	if err := e.Idx.Put(it.RelPath, rec, true); err != nil {
		return pullResult{}, err
	}

	return pullResult{conflicts: conflicts}, nil
}

// pullNewPage materializes a remote page not yet present in the Index
// Store, as a directory or a rendered Markdown file per Projection
// Policy.
func (e *Engine) pullNewPage(ctx context.Context, it PlanItem) error {
	localPath := filepath.Join(e.ProjectDir, filepath.FromSlash(it.RelPath))
	parentPageID := it.ParentPageID

	if it.IsDir {
		if err := os.MkdirAll(localPath, 0o755); err != nil {
			return err
		}
		rec := index.Record{ParentID: parentPageID, Kind: index.KindDirectory}
		if page, err := e.Client.RetrievePage(ctx, it.PageID); err == nil {
			rec.PageURL = page.URL
		}
		rec.PageID = it.PageID
		return e.Idx.Put(it.RelPath, rec, true)
	}

	blocks, err := e.Client.GetBlockTree(ctx, it.PageID)
	if err != nil {
		return fmt.Errorf("get block tree %s: %w", it.RelPath, err)
	}
	md := []byte(e.Converter.ToMarkdown(blocks))

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(localPath, md, 0o644); err != nil {
		return err
	}

	page, err := e.Client.RetrievePage(ctx, it.PageID)
	if err != nil {
		return fmt.Errorf("retrieve page %s: %w", it.RelPath, err)
	}

	rec := index.Record{
		PageID:           it.PageID,
		PageURL:          page.URL,
		ParentID:         parentPageID,
		Kind:             index.KindFile,
		ContentSHA1:      hashutil.SHA1(md),
		RemoteLastEdited: page.LastEditedTime.String(),
	}
	return e.Idx.Put(it.RelPath, rec, true)
}
