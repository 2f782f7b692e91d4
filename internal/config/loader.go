package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load builds the configuration from defaults, then the global file, then
// the project file, then TASKS_* environment variables. If path is set,
// only that file is read and it must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix("TASKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		for _, p := range []string{GlobalConfigPath(), ProjectConfigPath()} {
			if _, err := os.Stat(p); err != nil {
				continue
			}
			v.SetConfigFile(p)
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", p, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment variables can override
// keys that no file sets.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("env", cfg.Env)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("storage.backend", cfg.Storage.Backend)
	v.SetDefault("storage.file_path", cfg.Storage.FilePath)
	v.SetDefault("storage.kv_url", cfg.Storage.KVURL)
	v.SetDefault("storage.dsn", cfg.Storage.DSN)
	v.SetDefault("http.addr", cfg.HTTP.Addr)
	v.SetDefault("http.allowed_origins", cfg.HTTP.AllowedOrigins)
	v.SetDefault("kv_server.addr", cfg.KVServer.Addr)
	v.SetDefault("kv_server.secret", cfg.KVServer.Secret)
}

// TasksDir returns the global tasks directory (~/.tasks)
func TasksDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".tasks")
}

// GlobalConfigPath returns the path to the global config file
func GlobalConfigPath() string {
	return filepath.Join(TasksDir(), "config.yaml")
}

// ProjectConfigPath returns the path to the project config file
func ProjectConfigPath() string {
	cwd, _ := os.Getwd()
	return filepath.Join(cwd, ".tasks", "config.yaml")
}
