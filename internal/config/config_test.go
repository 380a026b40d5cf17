package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/remindr/internal/constants"
)

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Storage.Backend != "file" {
		t.Errorf("backend = %q, want file", cfg.Storage.Backend)
	}
	if want := filepath.Join(home, ".config/remindr/reminders.json"); cfg.Storage.Path != want {
		t.Errorf("path = %q, want %q", cfg.Storage.Path, want)
	}
	if cfg.Storage.Key != constants.StorageKey {
		t.Errorf("key = %q", cfg.Storage.Key)
	}
	if !cfg.Notifications.Enabled || cfg.Notifications.PollInterval != 30*time.Second {
		t.Errorf("unexpected notifications config %+v", cfg.Notifications)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
storage:
  backend: sqlite
  path: /tmp/remindr-test.db
notifications:
  enabled: false
  poll_interval: 10s
log:
  level: info
  debug: true
`
	if err := os.WriteFile(path, []byte(yaml), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REMINDR_NOTIFICATIONS__DURATION_MS", "2500")
	t.Setenv("REMINDR_STORAGE__KEY", "reminders_test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Storage.Backend != "sqlite" || cfg.Storage.Path != "/tmp/remindr-test.db" {
		t.Errorf("file values not applied: %+v", cfg.Storage)
	}
	if cfg.Notifications.Enabled || cfg.Notifications.PollInterval != 10*time.Second {
		t.Errorf("file values not applied: %+v", cfg.Notifications)
	}
	if !cfg.Log.Debug || cfg.Log.Level != "info" {
		t.Errorf("log values not applied: %+v", cfg.Log)
	}
	if cfg.Notifications.DurationMs != 2500 || cfg.Storage.Key != "reminders_test" {
		t.Errorf("env overrides not applied: %+v %+v", cfg.Notifications, cfg.Storage)
	}
}

func TestLoad_SQLiteDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("REMINDR_STORAGE__BACKEND", "SQLite")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("backend = %q, want sqlite", cfg.Storage.Backend)
	}
	if want := filepath.Join(home, ".config/remindr/remindr.db"); cfg.Storage.Path != want {
		t.Errorf("path = %q, want %q", cfg.Storage.Path, want)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Storage:       StorageConfig{Backend: "file", Path: "/tmp/r.json", Key: "k", RedisAddr: "localhost:6379"},
			Notifications: NotificationsConfig{Enabled: true, QueuePath: "/tmp/q.db", PollInterval: time.Minute, DurationMs: 5000},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "memory", mutate: func(c *Config) { c.Storage.Backend = "memory" }},
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "etcd" }, wantErr: true},
		{name: "postgres with password", mutate: func(c *Config) {
			c.Storage.Backend = "postgres"
			c.Storage.DSN = "postgres://u:p@localhost/remindr"
		}, wantErr: true},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Storage.Backend = "postgres" }},
		{name: "redis without addr", mutate: func(c *Config) {
			c.Storage.Backend = "redis"
			c.Storage.RedisAddr = ""
		}, wantErr: true},
		{name: "empty key", mutate: func(c *Config) { c.Storage.Key = "" }, wantErr: true},
		{name: "fast polling", mutate: func(c *Config) { c.Notifications.PollInterval = time.Millisecond }, wantErr: true},
		{name: "zero duration", mutate: func(c *Config) { c.Notifications.DurationMs = 0 }, wantErr: true},
		{name: "info log level", mutate: func(c *Config) { c.Log.Level = "INFO" }},
		{name: "unknown log level", mutate: func(c *Config) { c.Log.Level = "verbose" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	written, err := WriteDefault(path, false)
	if err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}
	if !written {
		t.Fatal("expected the config file to be written")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config mode = %o, want 0600", perm)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load of written config failed: %v", err)
	}
	if cfg.Storage.Backend != "file" || cfg.Notifications.PollInterval != 30*time.Second {
		t.Errorf("written config did not round-trip: %+v", cfg)
	}

	if err := os.WriteFile(path, []byte("storage:\n  backend: memory\n"), 0600); err != nil {
		t.Fatal(err)
	}
	written, err = WriteDefault(path, false)
	if err != nil || written {
		t.Fatalf("expected existing file to be kept, written=%v err=%v", written, err)
	}

	written, err = WriteDefault(path, true)
	if err != nil || !written {
		t.Fatalf("expected forced overwrite, written=%v err=%v", written, err)
	}
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("backend = %q after forced write, want file", cfg.Storage.Backend)
	}
}
