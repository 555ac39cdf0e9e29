package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/williampepple1/desktop-weekly-planner/internal/db"
)

// EnvDBPath overrides the database path from the config file for one run.
// It is applied by WithEnv and never written back by Save.
const EnvDBPath = "WEEKLY_PLANNER_DB"

type Config struct {
	DBPath     string `json:"db_path" yaml:"db_path"`
	WebEnabled bool   `json:"web_enabled" yaml:"web_enabled"`
	WebPort    int    `json:"web_port" yaml:"web_port"`
	LogLevel   string `json:"log_level" yaml:"log_level"`
	LogFile    string `json:"log_file" yaml:"log_file"`
}

func Default() Config {
	return Config{WebPort: 8080, LogLevel: "info"}
}

func DefaultConfigPath() (string, error) {
	dataDir, err := db.DefaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "config.json"), nil
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

// Load reads the config at path. A missing file yields the defaults. The
// format follows the extension: .yaml/.yml or JSON otherwise. Environment
// overrides are not applied; see WithEnv.
func Load(path string) (Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return Config{}, err
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, &config)
	} else {
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	config.applyDefaults()
	return config, nil
}

func Save(path string, cfg Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// ResolveDBPath returns the database file, defaulting to the planner file
// next to the config.
func (c Config) ResolveDBPath(cfgPath string) string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(filepath.Dir(cfgPath), db.DBFileName)
}

// ResolveLogFile returns the log file, defaulting to logs/planner.log next
// to the config.
func (c Config) ResolveLogFile(cfgPath string) string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(filepath.Dir(cfgPath), "logs", "planner.log")
}

func (c *Config) applyDefaults() {
	defaults := Default()
	if c.WebPort == 0 {
		c.WebPort = defaults.WebPort
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
}

// WithEnv returns a copy of c with environment overrides applied. Keep the
// result out of Save.
func (c Config) WithEnv() Config {
	if value := strings.TrimSpace(os.Getenv(EnvDBPath)); value != "" {
		c.DBPath = value
	}
	return c
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
