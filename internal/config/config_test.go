package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestDecodeYAMLKeepsDefaults(t *testing.T) {
	src := `
server:
  addr: ":9090"
  cors_origins: ["http://localhost:3000"]
analytics:
  default_policy: work_size
`
	cfg, err := Decode("taskflow.yaml", []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":9090" || len(cfg.Server.CORSOrigins) != 1 {
		t.Fatalf("server not decoded: %+v", cfg.Server)
	}
	if cfg.Analytics.DefaultPolicy != "work_size" {
		t.Fatalf("policy = %q", cfg.Analytics.DefaultPolicy)
	}
	if cfg.Analytics.DefaultWindowDays != 14 || cfg.Server.ReadTimeout != "10s" {
		t.Fatal("omitted fields should keep their defaults")
	}
}

func TestDecodeJSON(t *testing.T) {
	cfg, err := Decode("taskflow.json", []byte(`{"reminders":{"enabled":false}}`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Reminders.Enabled {
		t.Fatal("explicit false should override the default")
	}
}

func TestDecodeEmptyYAML(t *testing.T) {
	cfg, err := Decode("taskflow.yml", nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != Default().Server.Addr {
		t.Fatal("empty file should yield defaults")
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		path string
		src  string
		want string
	}{
		{"unknown field", "c.yaml", "server:\n  port: 80\n", "unknown field"},
		{"trailing data", "c.json", `{} {}`, "trailing data"},
		{"bad duration", "c.yaml", "server:\n  read_timeout: soon\n", "server.read_timeout"},
		{"bad policy", "c.yaml", "analytics:\n  default_policy: random\n", "analytics.default_policy"},
		{"bad cron", "c.yaml", "reminders:\n  schedule: every day\n", "reminders.schedule"},
		{"bad timezone", "c.yaml", "reminders:\n  timezone: Mars/Olympus\n", "reminders.timezone"},
		{"bad level", "c.yaml", "logging:\n  level: loud\n", "logging.level"},
		{"zero window", "c.yaml", "analytics:\n  default_window_days: 0\n", "default_window_days"},
		{"window over limit", "c.yaml", "analytics:\n  default_window_days: 732\n", "default_window_days"},
		{"burst", "c.yaml", "server:\n  burst: 0\n", "server.burst"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.path, []byte(tt.src))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestDisabledRemindersSkipCronCheck(t *testing.T) {
	_, err := Decode("c.yaml", []byte("reminders:\n  enabled: false\n  schedule: nonsense\n"))
	if err != nil {
		t.Fatalf("disabled reminders should not validate schedule: %v", err)
	}
}

func TestCronParserAcceptsSecondsAndDescriptors(t *testing.T) {
	for _, spec := range []string{"0 8 * * *", "30 0 8 * * *", "@hourly", "@every 10m"} {
		if _, err := CronParser.Parse(spec); err != nil {
			t.Errorf("%q: %v", spec, err)
		}
	}
}

func TestTimeouts(t *testing.T) {
	r, w, i, err := ServerConfig{ReadTimeout: "5s", WriteTimeout: "0s"}.Timeouts()
	if err != nil {
		t.Fatal(err)
	}
	if r != 5*time.Second || w != 30*time.Second || i != 2*time.Minute {
		t.Fatalf("timeouts = %v %v %v", r, w, i)
	}
	if _, _, _, err := (ServerConfig{IdleTimeout: "-1s"}).Timeouts(); err == nil || !strings.Contains(err.Error(), "server.idle_timeout") {
		t.Fatalf("negative duration should be rejected, got %v", err)
	}
}

func TestManagerEmptyPath(t *testing.T) {
	m := NewManager("")
	cfg, err := m.Load()
	if err != nil {
		t.Fatal(err)
	}
	if m.Get() != cfg {
		t.Fatal("Get should return the loaded config")
	}
}

func TestManagerLoadMissingFile(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := m.Load(); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestManagerWatchPublishesReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taskflow.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := NewManager(path)
	if _, err := m.Load(); err != nil {
		t.Fatal(err)
	}
	ch := m.Subscribe(1)
	defer m.Unsubscribe(ch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-ch:
		if cfg.Logging.Level != "debug" {
			t.Fatalf("level = %q", cfg.Logging.Level)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
	if m.Get().Logging.Level != "debug" {
		t.Fatal("reload should be committed")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watch returned %v", err)
	}
}

func TestManagerReloadIgnoresInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taskflow.yaml")
	os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o644)

	m := NewManager(path)
	m.Load()
	ch := m.Subscribe(1)

	os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0o644)
	m.reload()

	select {
	case <-ch:
		t.Fatal("invalid config should not be published")
	default:
	}
	if m.Get().Logging.Level != "info" {
		t.Fatal("previous config should stay active")
	}
}
