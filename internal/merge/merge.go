// Package merge implements the line-granularity two-way merge described
// in spec §4.7. It is pure — a function from (local bytes, remote bytes)
// to (merged bytes, conflict count) — with no I/O, matching Design Note
// §9's requirement that merging stay isolated for property tests.
//
// The aligned-range classification (equal/insert/delete/replace) is
// produced by github.com/sergi/go-diff's line-mode diff
// (DiffLinesToChars + DiffMain), the "standard sequence matcher" spec
// §4.7 refers to — grounded on go-diff's presence in the retrieval pack
// (go-git's dependency set) as the one example of this exact diff
// contract available in the corpus.
package merge

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	markerLocal  = "<<<<<<< LOCAL"
	markerSplit  = "======="
	markerRemote = ">>>>>>> REMOTE"
)

// Class is the pairwise classification from spec §4.7.
type Class string

const (
	ClassSame    Class = "SAME"
	ClassAdd     Class = "ADD"
	ClassReplace Class = "REPLACE"
	ClassUpdate  Class = "UPDATE"
)

// Classify determines which of the four merge classes a (local, remote)
// pair falls into. localPresent distinguishes "file absent" from "file
// present but empty" for the ADD vs REPLACE split.
func Classify(localPresent bool, local, remote []byte) Class {
	if !localPresent {
		return ClassAdd
	}
	if len(local) == 0 {
		return ClassReplace
	}
	if sameModuloTrailingNewline(local, remote) {
		return ClassSame
	}
	return ClassUpdate
}

func sameModuloTrailingNewline(a, b []byte) bool {
	return strings.TrimRight(string(a), "\n") == strings.TrimRight(string(b), "\n")
}

// Merge performs the UPDATE-class two-way merge: split both sides by
// "\n", diff at line granularity, and emit conflict hunks for any
// delete/replace range. Insertions from remote are adopted silently.
func Merge(local, remote []byte) (merged []byte, conflicts int) {
	localTrailingNL := endsWithNewline(local)
	remoteTrailingNL := endsWithNewline(remote)

	localLines := splitLines(local)
	remoteLines := splitLines(remote)

	// Every line, including the last, is diffed with a terminating "\n" so
	// that a final line compares equal whether or not it is followed by
	// further lines on the other side.
	localJoined, remoteJoined := strings.Join(localLines, "\n"), strings.Join(remoteLines, "\n")
	if len(localLines) > 0 {
		localJoined += "\n"
	}
	if len(remoteLines) > 0 {
		remoteJoined += "\n"
	}

	dmp := diffmatchpatch.New()
	localText, remoteText, lineArray := dmp.DiffLinesToChars(localJoined, remoteJoined)
	diffs := dmp.DiffMain(localText, remoteText, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var out []string
	pendingDelete := []string(nil)
	pendingInsert := []string(nil)

	flushHunk := func() {
		if len(pendingDelete) == 0 && len(pendingInsert) == 0 {
			return
		}
		if len(pendingDelete) == 0 {
			// Pure insertion: adopt remote lines silently.
			out = append(out, pendingInsert...)
		} else if len(pendingInsert) == 0 {
			// Pure deletion: local-only lines against an empty remote side.
			conflicts++
			out = append(out, markerLocal)
			out = append(out, pendingDelete...)
			out = append(out, markerSplit)
			out = append(out, markerRemote)
		} else {
			// Replace: both sides present and differing.
			conflicts++
			out = append(out, markerLocal)
			out = append(out, pendingDelete...)
			out = append(out, markerSplit)
			out = append(out, pendingInsert...)
			out = append(out, markerRemote)
		}
		pendingDelete = nil
		pendingInsert = nil
	}

	for _, d := range diffs {
		lines := splitDiffLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flushHunk()
			out = append(out, lines...)
		case diffmatchpatch.DiffDelete:
			pendingDelete = append(pendingDelete, lines...)
		case diffmatchpatch.DiffInsert:
			pendingInsert = append(pendingInsert, lines...)
		}
	}
	flushHunk()

	trailingNL := localTrailingNL || remoteTrailingNL
	return []byte(joinWithTrailingNewline(out, trailingNL)), conflicts
}

// splitLines splits content on "\n", dropping one trailing empty element
// produced by a trailing newline (tracked separately).
func splitLines(content []byte) []string {
	s := string(content)
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// splitDiffLines splits a diff chunk's joined text back into lines,
// discarding the trailing empty element from a final "\n".
func splitDiffLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

func endsWithNewline(b []byte) bool {
	return len(b) > 0 && b[len(b)-1] == '\n'
}

func joinWithTrailingNewline(lines []string, trailing bool) string {
	s := strings.Join(lines, "\n")
	if trailing {
		s += "\n"
	}
	return s
}
