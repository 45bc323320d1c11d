// Package nvramconfig loads nvram's configuration file: the default
// section paths, storage medium, and wire format, layered under
// explicit flags and environment variables.
//
// Grounded on the teacher's own root config.go: the same precedence
// chain (defaults, then global config, then project config, then
// explicit overrides), the same JSONC-via-hujson parsing so config
// files can carry comments, and the same "explicitly empty field is an
// error, absent field falls through" distinction.
package nvramconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

// Config holds everything nvram needs to locate and open its sections.
type Config struct {
	Interface   string `json:"interface,omitempty"`
	Format      string `json:"format,omitempty"`
	SectionSize uint64 `json:"section_size,omitempty"`

	SystemSectionA string `json:"system_section_a,omitempty"`
	SystemSectionB string `json:"system_section_b,omitempty"`
	UserSectionA   string `json:"user_section_a,omitempty"`
	UserSectionB   string `json:"user_section_b,omitempty"`
}

// ConfigFileName is the default project config file name.
const ConfigFileName = ".nvram.json"

// defaultSectionSize is used when neither config nor flags specify one.
const defaultSectionSize = 64 * 1024

var (
	errConfigFileNotFound = errors.New("nvramconfig: config file not found")
	errConfigFileRead     = errors.New("nvramconfig: could not read config file")
	errConfigInvalid      = errors.New("nvramconfig: invalid config")
	errSectionSizeEmpty   = errors.New("nvramconfig: section_size must not be explicitly zero")
)

// DefaultConfig returns nvram's built-in defaults.
func DefaultConfig() Config {
	return Config{
		Interface:      "file",
		Format:         "v2",
		SectionSize:    defaultSectionSize,
		SystemSectionA: "/var/lib/nvram/system.a",
		SystemSectionB: "/var/lib/nvram/system.b",
		UserSectionA:   "/var/lib/nvram/user.a",
		UserSectionB:   "/var/lib/nvram/user.b",
	}
}

// getGlobalConfigPath mirrors the teacher's XDG resolution, swapped to
// nvram's own config directory name.
func getGlobalConfigPath(env []string) string {
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "XDG_CONFIG_HOME="); ok {
			return filepath.Join(after, "nvram", "config.json")
		}
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "nvram", "config.json")
	}

	home, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(home, ".config", "nvram", "config.json")
	}

	return ""
}

// Load resolves configuration with the following precedence (highest
// wins): 1. defaults, 2. global user config, 3. project config
// (.nvram.json, or an explicit configPath), 4. cliOverrides.
func Load(workDir, configPath string, cliOverrides Config, env []string) (Config, error) {
	cfg := DefaultConfig()

	globalCfg, _, err := loadGlobalConfig(env)
	if err != nil {
		return Config{}, err
	}

	cfg = mergeConfig(cfg, globalCfg)

	projectCfg, _, err := loadProjectConfig(workDir, configPath)
	if err != nil {
		return Config{}, err
	}

	cfg = mergeConfig(cfg, projectCfg)
	cfg = mergeConfig(cfg, cliOverrides)

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadGlobalConfig(env []string) (Config, string, error) {
	path := getGlobalConfigPath(env)
	if path == "" {
		return Config{}, "", nil
	}

	cfg, explicitZero, loaded, err := loadConfigFile(path, false)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	if explicitZero["section_size"] {
		return Config{}, "", fmt.Errorf("%w %s: %w", errConfigInvalid, path, errSectionSizeEmpty)
	}

	return cfg, path, nil
}

func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	var cfgFile string

	mustExist := configPath != ""

	if mustExist {
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		if _, err := os.Stat(cfgFile); err != nil {
			return Config{}, "", fmt.Errorf("%w: %s", errConfigFileNotFound, configPath)
		}
	} else {
		cfgFile = filepath.Join(workDir, ConfigFileName)
	}

	cfg, explicitZero, loaded, err := loadConfigFile(cfgFile, mustExist)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	if explicitZero["section_size"] {
		return Config{}, "", fmt.Errorf("%w %s: %w", errConfigInvalid, cfgFile, errSectionSizeEmpty)
	}

	return cfg, cfgFile, nil
}

func loadConfigFile(path string, mustExist bool) (Config, map[string]bool, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, nil, false, nil
		}

		if mustExist {
			return Config{}, nil, false, fmt.Errorf("%w: %s", errConfigFileRead, path)
		}

		return Config{}, nil, false, nil
	}

	cfg, explicitZero, err := parseConfig(data)
	if err != nil {
		return Config{}, nil, false, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}

	return cfg, explicitZero, true, nil
}

func parseConfig(data []byte) (Config, map[string]bool, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, nil, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, nil, fmt.Errorf("invalid JSON: %w", err)
	}

	var raw map[string]any

	_ = json.Unmarshal(standardized, &raw)

	explicitZero := make(map[string]bool)

	if val, exists := raw["section_size"]; exists {
		if n, ok := val.(float64); ok && n == 0 {
			explicitZero["section_size"] = true
		}
	}

	return cfg, explicitZero, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.Interface != "" {
		base.Interface = overlay.Interface
	}

	if overlay.Format != "" {
		base.Format = overlay.Format
	}

	if overlay.SectionSize != 0 {
		base.SectionSize = overlay.SectionSize
	}

	if overlay.SystemSectionA != "" {
		base.SystemSectionA = overlay.SystemSectionA
	}

	if overlay.SystemSectionB != "" {
		base.SystemSectionB = overlay.SystemSectionB
	}

	if overlay.UserSectionA != "" {
		base.UserSectionA = overlay.UserSectionA
	}

	if overlay.UserSectionB != "" {
		base.UserSectionB = overlay.UserSectionB
	}

	return base
}

func validateConfig(cfg Config) error {
	if cfg.SectionSize == 0 {
		return errSectionSizeEmpty
	}

	return nil
}

// FormatConfig renders cfg as formatted JSON. No nvram flag calls it.
func FormatConfig(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format config: %w", err)
	}

	return string(data), nil
}
