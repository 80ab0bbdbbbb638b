package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/padkit/internal/paths"
	"github.com/mesh-intelligence/padkit/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "PADKIT"

	cfgKeyBackend       = "backend"
	cfgKeyDataDir       = "data_dir"
	cfgKeyLogLevel      = "log_level"
	cfgKeyLogFormat     = "log_format"
	cfgKeyJournalMode   = "sqlite.journal_mode"
	cfgKeyBusyTimeoutMs = "sqlite.busy_timeout_ms"
	cfgKeyPollInterval  = "sqlite.poll_interval_ms"
)

// configFile is the document written to config.yaml on first run.
type configFile struct {
	Backend   string             `yaml:"backend"`
	DataDir   string             `yaml:"data_dir,omitempty"`
	LogLevel  string             `yaml:"log_level"`
	LogFormat string             `yaml:"log_format"`
	SQLite    types.SQLiteConfig `yaml:"sqlite"`
}

func defaultConfigFile() configFile {
	return configFile{
		Backend:   types.BackendSQLite,
		LogLevel:  "warn",
		LogFormat: "text",
		SQLite: types.SQLiteConfig{
			JournalMode:   types.JournalWAL,
			BusyTimeoutMs: types.SQLiteConfig{}.GetBusyTimeoutMs(),
		},
	}
}

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run. data_dir is taken from the file only so that
// PADKIT_DATA_DIR keeps its lower precedence; the other keys may be
// overridden by PADKIT_* variables.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(filepath.Join(configDir, paths.ConfigFileName)); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}

	def := defaultConfigFile()
	v := viper.New()
	v.SetDefault(cfgKeyBackend, def.Backend)
	v.SetDefault(cfgKeyLogLevel, def.LogLevel)
	v.SetDefault(cfgKeyLogFormat, def.LogFormat)
	v.SetDefault(cfgKeyJournalMode, def.SQLite.JournalMode)
	v.SetDefault(cfgKeyBusyTimeoutMs, def.SQLite.BusyTimeoutMs)

	v.SetEnvPrefix(envPrefix)
	for key, env := range map[string]string{
		cfgKeyBackend:       "BACKEND",
		cfgKeyLogLevel:      "LOG_LEVEL",
		cfgKeyLogFormat:     "LOG_FORMAT",
		cfgKeyJournalMode:   "SQLITE_JOURNAL_MODE",
		cfgKeyBusyTimeoutMs: "SQLITE_BUSY_TIMEOUT_MS",
		cfgKeyPollInterval:  "SQLITE_POLL_INTERVAL_MS",
	} {
		if err := v.BindEnv(key, envPrefix+"_"+env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return v, nil
}

// ensureDefaultConfigFile writes the default config.yaml if path does not
// exist. An existing file is left untouched.
func ensureDefaultConfigFile(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(defaultConfigFile())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# padkit configuration\n# data_dir is optional; --data-dir overrides it.\n")
	return os.WriteFile(path, append(header, data...), 0o644)
}

// storeConfig builds the backend Config from viper and the resolved data
// directory.
func storeConfig(v *viper.Viper, dataDir string) types.Config {
	return types.Config{
		Backend: v.GetString(cfgKeyBackend),
		DataDir: dataDir,
		SQLite: types.SQLiteConfig{
			JournalMode:    v.GetString(cfgKeyJournalMode),
			BusyTimeoutMs:  v.GetInt(cfgKeyBusyTimeoutMs),
			PollIntervalMs: v.GetInt(cfgKeyPollInterval),
		},
	}
}
