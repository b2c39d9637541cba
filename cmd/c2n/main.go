// Package main provides the entry point for the c2n CLI tool.
//
// c2n is a bidirectional synchronizer between a local directory tree of
// Markdown and code files and a Notion page subtree. It offers a
// version-control-style workflow (init, clone, push, pull, status) with
// content-hash based change detection and line-granularity auto-merge.
package main

import (
	"os"

	"github.com/cnotion/c2n/internal/cli"
)

// Version information set by build flags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersion(version, commit, date)
	os.Exit(cli.Execute())
}
