package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", `addr: :9999
model_dir: /tmp/models
default_model: qwen-coder
auto_download: true
max_loaded_models: 3
model_ttl_minutes: 15
min_available_memory_gb: 1.5
model_paths:
  echo: /opt/echo.gguf
model_checksums:
  qwen-coder: abc
model_configs:
  qwen2.5-coder-1.5b:
    context_size: 2048
download:
  max_attempts: 5
cors:
  enabled: true
  origins: ["http://localhost:5173"]
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.ModelDir != "/tmp/models" || cfg.DefaultModel != "qwen-coder" || !cfg.AutoDownload {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.MaxLoadedModels != 3 || cfg.ModelTTLMinutes != 15 || cfg.MinAvailableMemoryGB != 1.5 {
		t.Fatalf("unexpected limits: %+v", cfg)
	}
	if cfg.ModelPaths["echo"] != "/opt/echo.gguf" || cfg.ModelConfigs["qwen2.5-coder-1.5b"]["context_size"] != 2048 {
		t.Fatalf("unexpected maps: %+v %+v", cfg.ModelPaths, cfg.ModelConfigs)
	}
	if cfg.ModelChecksums["qwen-coder"] != "abc" {
		t.Fatalf("unexpected checksums: %+v", cfg.ModelChecksums)
	}
	if cfg.Download.MaxAttempts != 5 || !cfg.CORS.Enabled || len(cfg.CORS.Origins) != 1 {
		t.Fatalf("unexpected nested: %+v %+v", cfg.Download, cfg.CORS)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070","model_dir":"/m","max_loaded_models":4,"default_model":"m2","warmup_on_load":true}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.ModelDir != "/m" || cfg.MaxLoadedModels != 4 || cfg.DefaultModel != "m2" || !cfg.WarmupOnLoad {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr=\":8081\"\nmodel_dir=\"/x\"\nmodel_ttl_minutes=9\ndefault_model=\"m3\"\n\n[download]\nuser_agent=\"ua/1\"\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8081" || cfg.ModelDir != "/x" || cfg.ModelTTLMinutes != 9 || cfg.DefaultModel != "m3" || cfg.Download.UserAgent != "ua/1" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}
