// Package ignore implements gitignore-syntax pattern matching for the
// Index Store's .c2n_ignore file, generalizing the teacher's
// filepath.Match-based approximation to real gitignore semantics:
// anchored patterns, trailing-slash directory-only patterns, recursive
// "**" globbing, and leading-"!" negation. Pattern matching itself is
// github.com/bmatcuk/doublestar/v4, grounded on its use for this exact
// "**"-glob path-matching concern in fulmenhq-goneat's
// pkg/pathfinder/discovery.go (MatchesAnyPattern).
package ignore

import (
	"bufio"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// rule is one parsed, non-comment, non-blank line of an ignore file.
type rule struct {
	negate    bool
	dirOnly   bool
	anchored  bool // pattern contained a "/" before the final segment
	pattern   string
	raw       string
}

// Matcher evaluates a path against an ordered list of gitignore rules.
// Later rules override earlier ones, matching git's own precedence.
type Matcher struct {
	rules []rule
}

// New builds a Matcher from raw ignore-file lines (no filesystem access).
func New(lines []string) *Matcher {
	m := &Matcher{}
	for _, line := range lines {
		if r, ok := parseLine(line); ok {
			m.rules = append(m.rules, r)
		}
	}
	return m
}

// Load reads a .c2n_ignore file at path. A missing file yields an empty,
// always-unmatching Matcher.
func Load(path string) (*Matcher, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(nil), nil
		}
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return New(lines), nil
}

func parseLine(line string) (rule, bool) {
	trimmed := strings.TrimRight(line, " \t")
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return rule{}, false
	}

	r := rule{raw: trimmed}
	pat := trimmed

	if strings.HasPrefix(pat, "!") {
		r.negate = true
		pat = pat[1:]
	}
	// A leading "\!" or "\#" escapes a literal ! or # — unescape it.
	if strings.HasPrefix(pat, `\!`) || strings.HasPrefix(pat, `\#`) {
		pat = pat[1:]
	}

	if strings.HasSuffix(pat, "/") {
		r.dirOnly = true
		pat = strings.TrimSuffix(pat, "/")
	}

	// A slash anywhere except a trailing one anchors the pattern to the
	// ignore file's directory rather than matching at every depth.
	if idx := strings.Index(pat, "/"); idx >= 0 && idx != len(pat)-1 {
		r.anchored = true
	}
	pat = strings.TrimPrefix(pat, "/")

	r.pattern = pat
	return r, true
}

// Match reports whether relPath (slash-separated, relative to the project
// root) is ignored. isDir indicates whether relPath names a directory,
// relevant for dirOnly rules.
func (m *Matcher) Match(relPath string, isDir bool) bool {
	relPath = filepathToSlash(relPath)
	ignored := false
	for _, r := range m.rules {
		matched := matchRule(r, relPath)
		if r.dirOnly {
			matched = (isDir && matched) || matchAncestorDir(r, relPath)
		}
		if matched {
			ignored = !r.negate
		}
	}
	return ignored
}

// matchAncestorDir reports whether a dirOnly rule matches because one of
// relPath's ancestor directories matches the pattern (a file under an
// ignored directory is ignored even though the file itself isn't a dir).
func matchAncestorDir(r rule, relPath string) bool {
	segs := strings.Split(relPath, "/")
	for i := 0; i < len(segs)-1; i++ {
		prefix := strings.Join(segs[:i+1], "/")
		if matchRule(r, prefix) {
			return true
		}
	}
	return false
}

func matchRule(r rule, relPath string) bool {
	if r.anchored {
		ok, _ := doublestar.Match(r.pattern, relPath)
		return ok
	}

	// Unanchored: the pattern may match relPath itself or any suffix
	// component of it (i.e. at any directory depth).
	segs := strings.Split(relPath, "/")
	for i := range segs {
		candidate := strings.Join(segs[i:], "/")
		if ok, _ := doublestar.Match(r.pattern, candidate); ok {
			return true
		}
		// Also allow a bare basename pattern to match the final segment only.
		if !strings.Contains(r.pattern, "/") {
			if ok, _ := doublestar.Match(r.pattern, segs[len(segs)-1]); ok {
				return true
			}
		}
	}
	return false
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
