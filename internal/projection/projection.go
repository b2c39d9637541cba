// Package projection is the synchronizer's Projection Policy (spec
// §4.8): the rules mapping a remote page tree onto local filesystem
// paths, in either Hierarchy or Flat mode.
//
// Title sanitization follows the teacher's vault.Scanner conventions
// (hidden-file/path safety), extended with github.com/forPelevin/gomoji
// to strip emoji Notion titles commonly carry. The Flat-mode
// front-matter splitter is grounded on internal/parser/frontmatter.go's
// delimiter-scanning approach, rewritten to emit the bit-exact key
// order spec §4.8 requires rather than a map, since gopkg.in/yaml.v3
// does not preserve map key order on Marshal.
package projection

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/forPelevin/gomoji"
	"gopkg.in/yaml.v3"
)

// Mode selects Hierarchy or Flat layout.
type Mode string

const (
	ModeHierarchy Mode = "hierarchy"
	ModeFlat      Mode = "flat"
)

// PageSummary is the subset of a remote page's shape the policy needs
// to classify it as a directory or a leaf file (Hierarchy mode only).
type PageSummary struct {
	PageID        string
	Title         string
	HasChildPages bool
	ContentBlocks int // block count beyond the title itself
	IsFolder      bool
}

// IsDirectoryPage reports whether p should become a local directory
// under Hierarchy mode: explicitly marked as a folder, or it has child
// pages and no inline content of its own.
func IsDirectoryPage(p PageSummary) bool {
	if p.IsFolder {
		return true
	}
	return p.HasChildPages && p.ContentBlocks == 0
}

var (
	controlChars  = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	collapseSpace = regexp.MustCompile(`\s+`)
)

// SanitizeTitle converts a remote page title into a safe filesystem
// name: strips emoji, control characters and path separators, and
// collapses whitespace runs.
func SanitizeTitle(title string) string {
	s := gomoji.RemoveEmojis(title)
	s = controlChars.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = collapseSpace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if s == "" {
		s = "untitled"
	}
	return s
}

// FileName returns the local .md file name for a sanitized title.
func FileName(title string) string {
	return SanitizeTitle(title) + ".md"
}

// FrontMatter is the Flat-mode front-matter block (spec §4.8). Field
// order matches declaration order on render, matching the bit-exact
// key order the spec requires.
type FrontMatter struct {
	PageID      string   `yaml:"page_id"`
	PageURL     string   `yaml:"page_url"`
	ParentID    string   `yaml:"parent_id"`
	ParentType  string   `yaml:"parent_type"`
	ChildrenIDs []string `yaml:"children_ids"`
	SyncMode    string   `yaml:"sync_mode"`
}

const frontMatterDelim = "---"

// RenderFrontMatter emits fm as a bit-exact front-matter block
// followed by body, matching spec §4.8's literal key order.
func RenderFrontMatter(fm FrontMatter, body string) string {
	var buf bytes.Buffer
	buf.WriteString(frontMatterDelim + "\n")
	fmt.Fprintf(&buf, "page_id: %s\n", fm.PageID)
	fmt.Fprintf(&buf, "page_url: %s\n", fm.PageURL)
	fmt.Fprintf(&buf, "parent_id: %s\n", fm.ParentID)
	fmt.Fprintf(&buf, "parent_type: %s\n", fm.ParentType)
	fmt.Fprintf(&buf, "children_ids: [%s]\n", strings.Join(fm.ChildrenIDs, ", "))
	fmt.Fprintf(&buf, "sync_mode: %s\n", fm.SyncMode)
	buf.WriteString(frontMatterDelim + "\n")
	buf.WriteString(body)
	return buf.String()
}

// ParseFrontMatter splits a Flat-mode file into its front-matter and
// body, grounded on the teacher's extractFrontmatter delimiter scan.
// A file with no leading "---" block returns ok=false and the whole
// content as body.
func ParseFrontMatter(content []byte) (fm FrontMatter, body []byte, ok bool, err error) {
	if !bytes.HasPrefix(content, []byte(frontMatterDelim+"\n")) {
		return FrontMatter{}, content, false, nil
	}

	rest := content[len(frontMatterDelim)+1:]
	closing := "\n" + frontMatterDelim + "\n"
	idx := bytes.Index(rest, []byte(closing))
	if idx == -1 {
		return FrontMatter{}, content, false, fmt.Errorf("projection: unclosed front-matter block")
	}

	yamlContent := rest[:idx]
	body = rest[idx+len(closing):]

	if err := yaml.Unmarshal(yamlContent, &fm); err != nil {
		return FrontMatter{}, content, false, fmt.Errorf("projection: parse front-matter: %w", err)
	}
	return fm, body, true, nil
}
