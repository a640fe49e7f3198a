// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitfsorg/vesting-go/schedule"
)

// DefaultNamespace is SHA256("vesting-schedule"), the derivation namespace
// used when none is configured.
const DefaultNamespace = "fec2a654b722dce1c45cee2e9170086c4029c9e67458b4d3f08bef601efec70d"

// Config holds the settings of a vesting program host.
type Config struct {
	DataDir          string
	Namespace        string // hex, 32 bytes
	CustodyTag       string
	TransferURL      string // JSON-RPC transfer endpoint; required unless a service is supplied
	TransferUser     string
	TransferPassword string
	LogLevel         string
	LogFile          string // empty = stderr
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		DataDir:    DefaultDataDir(),
		Namespace:  DefaultNamespace,
		CustodyTag: schedule.CustodyTag,
		LogLevel:   "info",
	}
}

// DefaultDataDir returns ~/.vesting, or .vesting when the home directory
// cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vesting"
	}
	return filepath.Join(home, ".vesting")
}

// ConfigPath returns the config file location inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config")
}

// DBPath returns the state database location inside the data directory.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "vesting.db")
}

// NamespaceID decodes the configured derivation namespace.
func (c Config) NamespaceID() (schedule.Identity, error) {
	id, err := schedule.ParseIdentity(c.Namespace)
	if err != nil {
		return id, fmt.Errorf("%w: %w", ErrInvalidNamespace, err)
	}
	return id, nil
}

// LoadConfig reads a key = value config file. Keys not present keep their
// defaults; unknown keys are ignored.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := parseKeyValue(line)
		if err != nil {
			return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, lineNo, line)
		}
		cfg.set(key, value)
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	return cfg, nil
}

// parseKeyValue splits a line on the first '='.
func parseKeyValue(line string) (string, string, error) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", ErrInvalidConfigLine
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return "", "", ErrInvalidConfigLine
	}
	return key, strings.TrimSpace(value), nil
}

func (c *Config) set(key, value string) {
	switch key {
	case "datadir":
		c.DataDir = value
	case "namespace":
		c.Namespace = value
	case "custodytag":
		c.CustodyTag = value
	case "transferurl":
		c.TransferURL = value
	case "transferuser":
		c.TransferUser = value
	case "transferpass":
		c.TransferPassword = value
	case "loglevel":
		c.LogLevel = value
	case "logfile":
		c.LogFile = value
	}
}

// SaveConfig writes cfg to path, creating parent directories.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Vesting Configuration\n\n")
	fmt.Fprintf(&b, "datadir = %s\n", cfg.DataDir)
	fmt.Fprintf(&b, "namespace = %s\n", cfg.Namespace)
	fmt.Fprintf(&b, "custodytag = %s\n", cfg.CustodyTag)
	fmt.Fprintf(&b, "transferurl = %s\n", cfg.TransferURL)
	fmt.Fprintf(&b, "transferuser = %s\n", cfg.TransferUser)
	fmt.Fprintf(&b, "transferpass = %s\n", cfg.TransferPassword)
	fmt.Fprintf(&b, "loglevel = %s\n", cfg.LogLevel)
	fmt.Fprintf(&b, "logfile = %s\n", cfg.LogFile)

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides file settings with VESTING_* environment variables.
// Empty values are ignored.
func ApplyEnv(cfg *Config, env map[string]string) {
	if env == nil {
		return
	}
	overrides := []struct {
		key string
		dst *string
	}{
		{"VESTING_DATADIR", &cfg.DataDir},
		{"VESTING_NAMESPACE", &cfg.Namespace},
		{"VESTING_CUSTODYTAG", &cfg.CustodyTag},
		{"VESTING_TRANSFER_URL", &cfg.TransferURL},
		{"VESTING_TRANSFER_USER", &cfg.TransferUser},
		{"VESTING_TRANSFER_PASS", &cfg.TransferPassword},
		{"VESTING_LOGLEVEL", &cfg.LogLevel},
		{"VESTING_LOGFILE", &cfg.LogFile},
	}
	for _, o := range overrides {
		if v, ok := env[o.key]; ok && v != "" {
			*o.dst = v
		}
	}
}

// EnvMap returns the process environment as a map for ApplyEnv.
func EnvMap() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
