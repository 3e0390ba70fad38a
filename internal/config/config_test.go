package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docflow.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvFile, "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Address != defaultAddress || cfg.DownloadPrefix != "/downloadFile/" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.RoleCacheTTL != defaultRoleCacheTTL || cfg.WorkerConcurrency != defaultWorkerCount {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
address: ":9090"
download_prefix: "/files/"
role_cache_ttl: 90s
archive_enabled: true
worker_concurrency: 4
`)
	t.Setenv("DOCFLOW_ADDRESS", ":7070")
	t.Setenv("DOCFLOW_WORKERS", "not-a-number")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Address != ":7070" {
		t.Errorf("env must win over file, got %q", cfg.Address)
	}
	if cfg.DownloadPrefix != "/files/" {
		t.Errorf("expected prefix from file, got %q", cfg.DownloadPrefix)
	}
	if cfg.RoleCacheTTL != 90*time.Second {
		t.Errorf("expected 90s ttl, got %s", cfg.RoleCacheTTL)
	}
	if !cfg.ArchiveEnabled {
		t.Errorf("expected archive enabled from file")
	}
	if cfg.WorkerConcurrency != 4 {
		t.Errorf("invalid env value should keep file value, got %d", cfg.WorkerConcurrency)
	}
}

func TestLoadRejectsBadPrefix(t *testing.T) {
	t.Setenv(EnvFile, "")
	t.Setenv("DOCFLOW_DOWNLOAD_PREFIX", "files")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for prefix without slashes")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestNonPositiveFallsBack(t *testing.T) {
	t.Setenv(EnvFile, "")
	t.Setenv("DOCFLOW_MAX_UPLOAD_BYTES", "-1")
	t.Setenv("DOCFLOW_ROLE_CACHE_TTL", "0s")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxUploadBytes != defaultMaxUploadBytes || cfg.RoleCacheTTL != defaultRoleCacheTTL {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestParseList(t *testing.T) {
	got := ParseList(" invoice, ,leave ,")
	if len(got) != 2 || got[0] != "invoice" || got[1] != "leave" {
		t.Fatalf("unexpected list %q", got)
	}
}
