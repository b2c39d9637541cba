// Package projectconfig loads and saves the project's ProjectConfig
// (spec §3) and the cascading .env files spec §6 describes. It follows
// the teacher's internal/config package's YAML + env-var-expansion idiom
// (gopkg.in/yaml.v3), generalized to the new config shape.
package projectconfig

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SyncMode selects the local filesystem projection (spec §4.8).
type SyncMode string

const (
	ModeHierarchy SyncMode = "hierarchy"
	ModeFlat      SyncMode = "flat"
)

// Config is the on-disk ProjectConfig (spec §3), persisted as YAML at
// <project>/.c2n/config.
type Config struct {
	DefaultParentURL       string   `yaml:"default_parent_url"`
	SyncMode               SyncMode `yaml:"sync_mode"`
	PullApplyDefault       bool     `yaml:"pull_apply_default"`
	PushChangedOnlyDefault bool     `yaml:"push_changed_only_default"`
	NoDirUpdateDefault     bool     `yaml:"no_dir_update_default"`

	// RootPageURL and ParentURL are legacy keys, read but never written
	// except by `status --fix`.
	RootPageURL string `yaml:"root_page_url,omitempty"`
	ParentURL   string `yaml:"parent_url,omitempty"`
}

// Default returns the default ProjectConfig used by `init`.
func Default() *Config {
	return &Config{
		SyncMode:               ModeHierarchy,
		PullApplyDefault:       true,
		PushChangedOnlyDefault: true,
		NoDirUpdateDefault:     false,
	}
}

// metaDir is the project's hidden metadata folder name.
const metaDir = ".c2n"

// ConfigPath returns the path to a project's config file.
func ConfigPath(projectDir string) string {
	return filepath.Join(projectDir, metaDir, "config")
}

// Load reads the ProjectConfig for projectDir. A missing file yields the
// read error unchanged, so callers can detect it with os.IsNotExist.
func Load(projectDir string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(projectDir))
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("projectconfig: parse %s: %w", ConfigPath(projectDir), err)
	}
	return cfg, nil
}

// Save writes cfg to <project>/.c2n/config, creating the directory if
// needed.
func (c *Config) Save(projectDir string) error {
	dir := filepath.Join(projectDir, metaDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(ConfigPath(projectDir), data, 0o644)
}

// MetaDir returns the project's hidden metadata directory path.
func MetaDir(projectDir string) string {
	return filepath.Join(projectDir, metaDir)
}

// LoadEnv applies the cascading .env lookup from spec §6:
// <project>/.c2n/.env, then <project>/.env, then a .env next to the
// running binary; first definition of a key wins. Existing process
// environment variables are never overridden.
func LoadEnv(projectDir string) error {
	candidates := []string{
		filepath.Join(projectDir, metaDir, ".env"),
		filepath.Join(projectDir, ".env"),
	}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), ".env"))
	}

	seen := map[string]bool{}
	for _, path := range candidates {
		vars, err := parseEnvFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		for k, v := range vars {
			if seen[k] {
				continue
			}
			seen[k] = true
			if os.Getenv(k) == "" {
				os.Setenv(k, v)
			}
		}
	}
	return nil
}

func parseEnvFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vars := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		val = strings.Trim(val, `"'`)
		vars[key] = val
	}
	return vars, scanner.Err()
}

// NotionToken bridges NOTION_TOKEN and NOTION_API_KEY — either accepted,
// the first one found wins.
func NotionToken() (string, bool) {
	if v := os.Getenv("NOTION_TOKEN"); v != "" {
		return v, true
	}
	if v := os.Getenv("NOTION_API_KEY"); v != "" {
		return v, true
	}
	return "", false
}
