package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "env.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalConfig = `
db:
  url: postgres://localhost:5432/watchtower
redis:
  url: redis://localhost:6379/0
hooks:
  internal_key: k
`

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.ServiceName != "watchtower-core" {
		t.Fatalf("unexpected service name %q", cfg.ServiceName)
	}
	if cfg.Scheduler.Interval != time.Second {
		t.Fatalf("unexpected scheduler interval %v", cfg.Scheduler.Interval)
	}
	if cfg.Scheduler.VisibilityTimeout != 60*time.Second {
		t.Fatalf("unexpected visibility timeout %v", cfg.Scheduler.VisibilityTimeout)
	}
	if cfg.Executor.WorkerCount != 10 {
		t.Fatalf("unexpected worker count %d", cfg.Executor.WorkerCount)
	}
	if cfg.Executor.FlapThreshold != 1 {
		t.Fatalf("unexpected flap threshold %d", cfg.Executor.FlapThreshold)
	}
	if cfg.RegionHealth.Interval != time.Minute {
		t.Fatalf("unexpected region health interval %v", cfg.RegionHealth.Interval)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig+`
executor:
  worker_count: 50
  flap_threshold: 3
scheduler:
  batch_size: 250
`))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Executor.WorkerCount != 50 {
		t.Fatalf("override lost, got %d", cfg.Executor.WorkerCount)
	}
	if cfg.Executor.FlapThreshold != 3 {
		t.Fatalf("override lost, got %d", cfg.Executor.FlapThreshold)
	}
	if cfg.Scheduler.BatchSize != 250 {
		t.Fatalf("override lost, got %d", cfg.Scheduler.BatchSize)
	}
}

func TestLoadConfigRequiresDBURL(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
redis:
  url: redis://localhost:6379/0
hooks:
  internal_key: k
`))
	if err == nil {
		t.Fatal("config without a db url must not validate")
	}
}

func TestLoadAgentConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	if err := os.WriteFile(path, []byte(`
agent:
  region_code: eu-west
  shared_key: k
`), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadAgentConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServiceName != "watchtower-agent" {
		t.Fatalf("unexpected service name %q", cfg.ServiceName)
	}
	if cfg.Agent.Port != 8090 {
		t.Fatalf("default port lost, got %d", cfg.Agent.Port)
	}
	if cfg.Agent.RegionCode != "eu-west" {
		t.Fatalf("region code lost, got %q", cfg.Agent.RegionCode)
	}
	if cfg.Agent.Timeout != 30*time.Second {
		t.Fatalf("default timeout lost, got %v", cfg.Agent.Timeout)
	}
}
