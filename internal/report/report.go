// Package report implements the per-item Result/Report collection that
// replaces exception-driven control flow: commands never abort on a
// single item's failure, they collect a Result per item and print a
// summary table at the end.
package report

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
)

// Kind is the error taxonomy from spec §7 — kinds, not Go type names.
type Kind string

const (
	KindNone              Kind = ""
	KindAuthMissing       Kind = "AuthMissing"
	KindUrlMalformed      Kind = "UrlMalformed"
	KindIndexCorrupt      Kind = "IndexCorrupt"
	KindInvariantViolation Kind = "InvariantViolation"
	KindRemoteTransient   Kind = "RemoteTransient"
	KindRemoteFailed      Kind = "RemoteFailed"
	KindRemoteFatal       Kind = "RemoteFatal"
	KindMergeConflict     Kind = "MergeConflict"
	KindIoError           Kind = "IoError"
	KindSkipped           Kind = "Skipped"
	KindOK                Kind = "OK"
)

// exitOneKinds are the kinds that make Fatal report true, so a command
// exits 1 when any is present in its Report even though other items may
// have succeeded.
var exitOneKinds = map[Kind]bool{
	KindRemoteFailed:       true,
	KindRemoteFatal:        true,
	KindIndexCorrupt:       true,
	KindInvariantViolation: true,
	KindIoError:            true,
	KindUrlMalformed:       true,
}

// Item is one row of the summary table: a single file or page's outcome.
type Item struct {
	Path   string
	Status Kind
	URL    string
	Reason string
}

// Report accumulates Items across a command invocation.
type Report struct {
	Items []Item
}

// Add records one item outcome.
func (r *Report) Add(path string, status Kind, url, reason string) {
	r.Items = append(r.Items, Item{Path: path, Status: status, URL: url, Reason: reason})
}

// OK records a successful item.
func (r *Report) OK(path, url string) {
	r.Add(path, KindOK, url, "")
}

// Fatal reports whether any item in the report carries a kind that should
// make the command exit 1.
func (r *Report) Fatal() bool {
	for _, it := range r.Items {
		if exitOneKinds[it.Status] {
			return true
		}
	}
	return false
}

// MergeConflicts counts items flagged with MergeConflict.
func (r *Report) MergeConflicts() int {
	n := 0
	for _, it := range r.Items {
		if it.Status == KindMergeConflict {
			n++
		}
	}
	return n
}

// Print renders the summary table to w (os.Stdout by convention).
func (r *Report) Print(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tSTATUS\tURL\tREASON")
	for _, it := range r.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.Path, it.Status, it.URL, it.Reason)
	}
	tw.Flush()
}

// Error implements the error interface for taxonomy-tagged failures
// returned from engine internals before they're folded into a Report.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a taxonomy Error.
func New(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}
