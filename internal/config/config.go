package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Environment variables consulted by Resolve.
const (
	EnvHome           = "LOCKY_HOME"
	EnvVaultDir       = "LOCKY_VAULT_DIR"
	EnvVaultDirCompat = "TEMPVAULT_DIR"
	EnvDBPath         = "LOCKY_DB_PATH"
)

// DefaultDBName is the metadata database filename used when db_path is unset.
const DefaultDBName = "metadata.sqlite3"

// Selector modes.
const (
	SelectorAuto = "auto"
	SelectorFzf  = "fzf"
	SelectorTUI  = "tui"
)

// Describer providers.
const (
	ProviderAuto     = "auto"
	ProviderBaseline = "baseline"
	ProviderGemini   = "gemini"
	ProviderOpenAI   = "openai"
)

// Config holds application configuration.
type Config struct {
	// VaultDir is where stored copies live. Defaults to ~/vault.
	VaultDir string `json:"vault_dir,omitempty"`

	// DBPath is the SQLite metadata file. Defaults to <vault_dir>/metadata.sqlite3.
	DBPath string `json:"db_path,omitempty"`

	// Selector picks the interactive chooser: auto (fzf when on PATH), fzf, or tui.
	Selector string `json:"selector,omitempty"`

	Describer DescriberConfig `json:"describer"`
	Add       AddConfig       `json:"add"`
	Preview   PreviewConfig   `json:"preview"`
	Log       LogConfig       `json:"log"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DescriberConfig controls description generation after an add.
type DescriberConfig struct {
	// Provider is auto, baseline, gemini or openai. auto picks a remote
	// provider when its API key is present and falls back to baseline.
	Provider string `json:"provider,omitempty"`

	// Model overrides the provider's default model.
	Model string `json:"model,omitempty"`

	// MaxBytes is how much of a file is read for describing.
	MaxBytes int `json:"max_bytes,omitempty"`

	// TimeoutSeconds bounds a single remote describe call.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
}

// AddConfig controls the candidate list offered by `add` without a path.
type AddConfig struct {
	Root          string   `json:"root,omitempty"`
	Ignore        []string `json:"ignore,omitempty"`
	MaxDepth      int      `json:"max_depth,omitempty"`
	MaxCandidates int      `json:"max_candidates,omitempty"`
}

// PreviewConfig controls the picker preview pane.
type PreviewConfig struct {
	MaxBytes int    `json:"max_bytes,omitempty"`
	Style    string `json:"style,omitempty"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `json:"level,omitempty"`
	File  string `json:"file,omitempty"`
}

// DefaultConfig returns the default configuration. Paths are left empty
// and filled in by Resolve.
func DefaultConfig() *Config {
	return &Config{
		Selector: SelectorAuto,
		Describer: DescriberConfig{
			Provider:       ProviderAuto,
			MaxBytes:       16000,
			TimeoutSeconds: 20,
		},
		Add: AddConfig{
			Ignore:        []string{".*", "node_modules", "vendor", "__pycache__"},
			MaxDepth:      4,
			MaxCandidates: 20000,
		},
		Preview: PreviewConfig{
			MaxBytes: 64 * 1024,
			Style:    "monokai",
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// BaseDir returns the directory holding config.json and the log file:
// $LOCKY_HOME if set, else ~/.locky.
func BaseDir(home string, getenv func(string) string) string {
	if dir := strings.TrimSpace(getenv(EnvHome)); dir != "" {
		return expandHome(dir, home)
	}
	return filepath.Join(home, ".locky")
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		VaultDir:       pickString(overlay.VaultDir, base.VaultDir),
		DBPath:         pickString(overlay.DBPath, base.DBPath),
		Selector:       pickString(overlay.Selector, base.Selector),
		DBMaxOpenConns: pickInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns: pickInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
		Describer: DescriberConfig{
			Provider:       pickString(overlay.Describer.Provider, base.Describer.Provider),
			Model:          pickString(overlay.Describer.Model, base.Describer.Model),
			MaxBytes:       pickInt(overlay.Describer.MaxBytes, base.Describer.MaxBytes),
			TimeoutSeconds: pickInt(overlay.Describer.TimeoutSeconds, base.Describer.TimeoutSeconds),
		},
		Add: AddConfig{
			Root:          pickString(overlay.Add.Root, base.Add.Root),
			MaxDepth:      pickInt(overlay.Add.MaxDepth, base.Add.MaxDepth),
			MaxCandidates: pickInt(overlay.Add.MaxCandidates, base.Add.MaxCandidates),
		},
		Preview: PreviewConfig{
			MaxBytes: pickInt(overlay.Preview.MaxBytes, base.Preview.MaxBytes),
			Style:    pickString(overlay.Preview.Style, base.Preview.Style),
		},
		Log: LogConfig{
			Level: pickString(overlay.Log.Level, base.Log.Level),
			File:  pickString(overlay.Log.File, base.Log.File),
		},
	}

	// Arrays: merge and deduplicate
	// A configured ignore list replaces the base one; [] ignores nothing
	if overlay.Add.Ignore != nil {
		result.Add.Ignore = mergeStringSlice(nil, overlay.Add.Ignore)
	} else {
		result.Add.Ignore = slices.Clone(base.Add.Ignore)
	}
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// Resolve fills in path defaults, applies environment overrides and
// validates enumerated settings. getenv is usually os.Getenv.
func (c *Config) Resolve(baseDir, home string, getenv func(string) string) error {
	if dir := strings.TrimSpace(getenv(EnvVaultDir)); dir != "" {
		c.VaultDir = dir
	} else if dir := strings.TrimSpace(getenv(EnvVaultDirCompat)); dir != "" {
		c.VaultDir = dir
	}
	if p := strings.TrimSpace(getenv(EnvDBPath)); p != "" {
		c.DBPath = p
	}

	if c.VaultDir == "" {
		c.VaultDir = filepath.Join(home, "vault")
	}
	vaultDir, err := filepath.Abs(expandHome(c.VaultDir, home))
	if err != nil {
		return fmt.Errorf("resolve vault_dir: %w", err)
	}
	c.VaultDir = vaultDir

	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.VaultDir, DefaultDBName)
	}
	dbPath, err := filepath.Abs(expandHome(c.DBPath, home))
	if err != nil {
		return fmt.Errorf("resolve db_path: %w", err)
	}
	c.DBPath = dbPath

	if c.Add.Root == "" {
		c.Add.Root = home
	}
	c.Add.Root = expandHome(c.Add.Root, home)

	if c.Log.File == "" {
		c.Log.File = filepath.Join(baseDir, "locky.log")
	}
	c.Log.File = expandHome(c.Log.File, home)

	return c.Validate()
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if !slices.Contains([]string{"", SelectorAuto, SelectorFzf, SelectorTUI}, c.Selector) {
		return fmt.Errorf("invalid selector %q (want auto, fzf or tui)", c.Selector)
	}
	providers := []string{"", ProviderAuto, ProviderBaseline, ProviderGemini, ProviderOpenAI}
	if !slices.Contains(providers, c.Describer.Provider) {
		return fmt.Errorf("invalid describer provider %q (want auto, baseline, gemini or openai)", c.Describer.Provider)
	}
	if c.Describer.MaxBytes < 0 || c.Preview.MaxBytes < 0 || c.Add.MaxDepth < 0 || c.Add.MaxCandidates < 0 {
		return fmt.Errorf("size and depth limits must be non-negative")
	}
	return nil
}

// ReservedNames returns vault filenames that must never be added because
// they belong to the metadata database living inside the vault dir.
func (c *Config) ReservedNames() []string {
	if filepath.Clean(filepath.Dir(c.DBPath)) != filepath.Clean(c.VaultDir) {
		return nil
	}
	base := filepath.Base(c.DBPath)
	return []string{base, base + "-wal", base + "-shm", base + "-journal"}
}

// expandHome replaces a leading "~" with home.
func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(home, rest)
	}
	return path
}

func pickString(overlay, base string) string {
	if overlay != "" {
		return overlay
	}
	return base
}

func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(slices.Clone(a), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
