package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	dir := TasksDir()
	return &Config{
		Env: "dev",
		Storage: StorageConfig{
			Backend:  BackendFile,
			FilePath: filepath.Join(dir, "tasks.csv"),
			KVURL:    "http://localhost:8078",
			DSN:      filepath.Join(dir, "tasks.db"),
		},
		HTTP: HTTPConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
		KVServer: KVServerConfig{
			Addr:   ":8078",
			Secret: "change-me",
		},
	}
}

const defaultHeader = `# tasks configuration
#
# storage.backend: memory, file, kv, sqlite or postgres
# Every key can be overridden with a TASKS_ environment variable,
# e.g. TASKS_STORAGE_BACKEND=sqlite.

`

// WriteDefault writes the default configuration to path, creating its
// directory if needed.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(path, append([]byte(defaultHeader), data...), 0644)
}
