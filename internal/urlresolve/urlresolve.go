// Package urlresolve is the single source of truth for a project's root
// remote URL (spec §4.2).
package urlresolve

import (
	"os"

	"github.com/cnotion/c2n/internal/idutil"
)

// Config is the subset of ProjectConfig the resolver reads.
type Config struct {
	DefaultParentURL string
	// RootPageURL and ParentURL are legacy keys: read but never written,
	// except by status --fix which migrates them into DefaultParentURL.
	RootPageURL string
	ParentURL   string
}

// Resolve returns the project's root URL, trying config.default_parent_url
// first, then — only meaningful during init — NOTION_ROOT_URL.
func Resolve(cfg Config, duringInit bool) (string, bool) {
	if cfg.DefaultParentURL != "" {
		return cfg.DefaultParentURL, true
	}
	if duringInit {
		if v := os.Getenv("NOTION_ROOT_URL"); v != "" {
			return v, true
		}
	}
	if cfg.RootPageURL != "" {
		return cfg.RootPageURL, true
	}
	if cfg.ParentURL != "" {
		return cfg.ParentURL, true
	}
	return "", false
}

// ExtractPageID pulls the canonical dashed-form UUID out of a root URL.
func ExtractPageID(rootURL string) (string, bool) {
	return idutil.ExtractID(rootURL)
}

// Fix migrates legacy root-url keys into DefaultParentURL, as
// `status --fix` does. It returns the config with DefaultParentURL
// populated and the legacy fields cleared, plus whether anything changed.
func Fix(cfg Config) (Config, bool) {
	if cfg.DefaultParentURL != "" {
		return cfg, false
	}
	resolved, ok := Resolve(cfg, false)
	if !ok {
		return cfg, false
	}
	cfg.DefaultParentURL = resolved
	cfg.RootPageURL = ""
	cfg.ParentURL = ""
	return cfg, true
}
