package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// isolate points HOME and the working directory at empty temp dirs so no
// real config files are picked up.
func isolate(t *testing.T) (home, project string) {
	t.Helper()
	home = t.TempDir()
	project = t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(project)
	return home, project
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Env != "dev" {
		t.Errorf("Env = %q, want %q", cfg.Env, "dev")
	}
	if cfg.Storage.Backend != BackendFile {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, BackendFile)
	}
	if cfg.Log.Level != "" {
		t.Errorf("Log.Level = %q, want empty so Env picks the level", cfg.Log.Level)
	}
	if !strings.HasSuffix(cfg.Storage.FilePath, filepath.Join(".tasks", "tasks.csv")) {
		t.Errorf("Storage.FilePath = %q", cfg.Storage.FilePath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	home, _ := isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.Level != "" {
		t.Errorf("Log.Level = %q, want empty", cfg.Log.Level)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.KVServer.Addr != ":8078" {
		t.Errorf("addrs = %q, %q", cfg.HTTP.Addr, cfg.KVServer.Addr)
	}
	if want := filepath.Join(home, ".tasks", "tasks.csv"); cfg.Storage.FilePath != want {
		t.Errorf("Storage.FilePath = %q, want %q", cfg.Storage.FilePath, want)
	}
}

func TestLoad_ProjectOverridesGlobal(t *testing.T) {
	home, project := isolate(t)

	writeFile(t, filepath.Join(home, ".tasks", "config.yaml"), `
env: prod
storage:
  backend: sqlite
  dsn: /tmp/global.db
http:
  addr: ":9000"
`)
	writeFile(t, filepath.Join(project, ".tasks", "config.yaml"), `
storage:
  dsn: /tmp/project.db
`)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Env != "prod" {
		t.Errorf("Env = %q, want prod", cfg.Env)
	}
	if cfg.Storage.Backend != BackendSQLite {
		t.Errorf("Storage.Backend = %q, want sqlite", cfg.Storage.Backend)
	}
	if cfg.Storage.DSN != "/tmp/project.db" {
		t.Errorf("Storage.DSN = %q, want project value", cfg.Storage.DSN)
	}
	if cfg.HTTP.Addr != ":9000" {
		t.Errorf("HTTP.Addr = %q, want :9000", cfg.HTTP.Addr)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	home, _ := isolate(t)

	writeFile(t, filepath.Join(home, ".tasks", "config.yaml"), "storage:\n  backend: file\n")
	t.Setenv("TASKS_STORAGE_BACKEND", "memory")
	t.Setenv("TASKS_KV_SERVER_SECRET", "from-env")
	t.Setenv("TASKS_HTTP_ALLOWED_ORIGINS", "http://a.example,http://b.example")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Backend != BackendMemory {
		t.Errorf("Storage.Backend = %q, want memory", cfg.Storage.Backend)
	}
	if cfg.KVServer.Secret != "from-env" {
		t.Errorf("KVServer.Secret = %q, want from-env", cfg.KVServer.Secret)
	}
	if want := []string{"http://a.example", "http://b.example"}; !reflect.DeepEqual(cfg.HTTP.AllowedOrigins, want) {
		t.Errorf("HTTP.AllowedOrigins = %v, want %v", cfg.HTTP.AllowedOrigins, want)
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	_, project := isolate(t)

	path := filepath.Join(project, "custom.yaml")
	writeFile(t, path, "storage:\n  backend: kv\n  kv_url: http://kv.internal:8078\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Backend != BackendKV || cfg.Storage.KVURL != "http://kv.internal:8078" {
		t.Errorf("storage = %+v", cfg.Storage)
	}

	if _, err := Load(filepath.Join(project, "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown backend", "storage:\n  backend: redis\n"},
		{"unknown env", "env: staging\n"},
		{"kv without url", "storage:\n  backend: kv\n  kv_url: \"\"\n"},
		{"malformed yaml", "storage: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, project := isolate(t)
			path := filepath.Join(project, "config.yaml")
			writeFile(t, path, tt.content)

			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWriteDefault(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load of written default failed: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("loaded default differs\n got: %+v\nwant: %+v", cfg, DefaultConfig())
	}
}
