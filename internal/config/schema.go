package config

import "fmt"

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendKV       = "kv"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config is the full tasks configuration.
type Config struct {
	// Env selects logging defaults: local, dev or prod.
	Env string `yaml:"env" mapstructure:"env"`

	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Storage  StorageConfig  `yaml:"storage" mapstructure:"storage"`
	HTTP     HTTPConfig     `yaml:"http" mapstructure:"http"`
	KVServer KVServerConfig `yaml:"kv_server" mapstructure:"kv_server"`
}

type LogConfig struct {
	// Level overrides the environment's default level when set.
	Level string `yaml:"level" mapstructure:"level"`
}

// StorageConfig picks where the repository persists its snapshots.
type StorageConfig struct {
	Backend  string `yaml:"backend" mapstructure:"backend"`
	FilePath string `yaml:"file_path" mapstructure:"file_path"`
	KVURL    string `yaml:"kv_url" mapstructure:"kv_url"`
	// DSN is a file path for sqlite and a connection string for postgres.
	DSN string `yaml:"dsn" mapstructure:"dsn"`
}

type HTTPConfig struct {
	Addr           string   `yaml:"addr" mapstructure:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

type KVServerConfig struct {
	Addr   string `yaml:"addr" mapstructure:"addr"`
	Secret string `yaml:"secret" mapstructure:"secret"`
}

// Validate checks the fields the rest of the program relies on.
func (c *Config) Validate() error {
	switch c.Env {
	case "local", "dev", "prod":
	default:
		return fmt.Errorf("invalid env: %q (want local, dev or prod)", c.Env)
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Storage.FilePath == "" {
			return fmt.Errorf("storage.file_path is required for the file backend")
		}
	case BackendKV:
		if c.Storage.KVURL == "" {
			return fmt.Errorf("storage.kv_url is required for the kv backend")
		}
	case BackendSQLite, BackendPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the %s backend", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("invalid storage backend: %q", c.Storage.Backend)
	}
	return nil
}
