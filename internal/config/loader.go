package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".leaklens"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the YAML configuration file format. Every field is optional;
// absent fields keep the defaults or whatever CLI flags set.
type File struct {
	BackendURL       string      `yaml:"backend_url,omitempty"`
	Snapshot         string      `yaml:"snapshot,omitempty"`
	Proxy            string      `yaml:"proxy,omitempty"`
	STUNServers      []string    `yaml:"stun_servers,omitempty"`
	ClaimedVPN       *bool       `yaml:"claimed_vpn,omitempty"`
	ServerScoreCheck *bool       `yaml:"server_score_check,omitempty"`
	Thresholds       *Thresholds `yaml:"thresholds,omitempty"`
	DBDir            string      `yaml:"db_dir,omitempty"`
}

// LoadConfigFile loads configuration overrides from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound. Callers
// should handle this based on whether the path was explicitly given.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	return &cf, nil
}

// ApplyTo overlays the file's values onto cfg. Only fields present in
// the file are touched, so CLI flags applied afterwards still win and
// defaults survive an empty file.
func (f *File) ApplyTo(cfg *Config) {
	if f.BackendURL != "" {
		cfg.BackendURL = f.BackendURL
	}
	if f.Snapshot != "" {
		cfg.SnapshotPath = f.Snapshot
	}
	if f.Proxy != "" {
		cfg.ProxyAddress = f.Proxy
	}
	if len(f.STUNServers) > 0 {
		cfg.STUNServers = append([]string(nil), f.STUNServers...)
	}
	if f.ClaimedVPN != nil {
		cfg.ClaimedVPN = *f.ClaimedVPN
	}
	if f.ServerScoreCheck != nil {
		cfg.ServerScoreCheck = *f.ServerScoreCheck
	}
	if f.Thresholds != nil {
		cfg.Thresholds = *f.Thresholds
	}
	if f.DBDir != "" {
		cfg.DBDir = f.DBDir
		cfg.SaveToDB = true
	}
}

// FindConfigFile searches for the configuration file in order:
// 1. If configPath is specified, use it directly
// 2. Look for .leaklens in the current directory
// 3. Look for .leaklens in the user's home directory
//
// Returns the path if found, or empty string if not.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
