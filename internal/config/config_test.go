package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDecodesDurationsAndJobs(t *testing.T) {
	t.Parallel()

	raw := []byte(`
scheduler:
  timezone: Europe/Berlin
  jobs:
    - name: daily-product-curation
      interval: 12h
      enabled: true
    - name: inventory-sync
      interval: 90m
      enabled: false
curation:
  fetchTimeout: 5s
  filter:
    minPrice: 80
    requireInStock: false
`)

	cfg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(cfg.Scheduler.Jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(cfg.Scheduler.Jobs))
	}
	if cfg.Scheduler.Jobs[0].Interval != 12*time.Hour {
		t.Fatalf("unexpected interval: %v", cfg.Scheduler.Jobs[0].Interval)
	}
	if cfg.Scheduler.Jobs[1].Interval != 90*time.Minute || cfg.Scheduler.Jobs[1].Enabled {
		t.Fatalf("unexpected second job: %+v", cfg.Scheduler.Jobs[1])
	}
	if cfg.Curation.FetchTimeout != 5*time.Second {
		t.Fatalf("unexpected fetch timeout: %v", cfg.Curation.FetchTimeout)
	}
	if cfg.Curation.Filter.InStockRequired() {
		t.Fatalf("expected requireInStock=false to be honoured")
	}
}

func TestMergeKeepsDefaultsForUnsetFields(t *testing.T) {
	t.Parallel()

	override, err := Parse([]byte(`
curation:
  filter:
    minPrice: 80
  luxuryKeywords: [bespoke]
`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	merged := mergeConfig(defaultConfig(), override)
	if merged.Curation.Filter.MinPrice != 80 {
		t.Fatalf("expected minPrice override, got %v", merged.Curation.Filter.MinPrice)
	}
	if merged.Curation.Filter.MaxPrice != 5000 {
		t.Fatalf("expected default maxPrice, got %v", merged.Curation.Filter.MaxPrice)
	}
	if !merged.Curation.Filter.InStockRequired() {
		t.Fatalf("expected in-stock requirement by default")
	}
	if len(merged.Curation.LuxuryKeywords) != 1 || merged.Curation.LuxuryKeywords[0] != "bespoke" {
		t.Fatalf("unexpected keywords: %v", merged.Curation.LuxuryKeywords)
	}
	if len(merged.Curation.Thresholds) != 2 {
		t.Fatalf("expected default thresholds, got %d", len(merged.Curation.Thresholds))
	}
	if len(merged.Scheduler.Jobs) != 3 {
		t.Fatalf("expected default jobs, got %d", len(merged.Scheduler.Jobs))
	}
}

func TestLoadAppliesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("http:\n  addr: \":9090\"\nlogging:\n  level: warn\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(adminSecretEnv, "s3cret")
	t.Setenv(logLevelEnv, "debug")

	cfg := Load()
	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("expected addr from file, got %q", cfg.HTTP.Addr)
	}
	if cfg.HTTP.AdminSecret != "s3cret" {
		t.Fatalf("expected admin secret from env, got %q", cfg.HTTP.AdminSecret)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected env to win over file, got %q", cfg.Logging.Level)
	}
	if cfg.Scheduler.Location() == nil {
		t.Fatalf("expected bound location")
	}
}

func TestExampleConfigLoads(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFile(filepath.Join("..", "..", "configs", "config.example.yaml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(cfg.Suppliers) != 2 || cfg.Suppliers[1].Kind != "fixture" {
		t.Fatalf("unexpected suppliers: %+v", cfg.Suppliers)
	}
	if len(cfg.Scheduler.Jobs) != 3 || cfg.Scheduler.Jobs[2].Interval != 168*time.Hour {
		t.Fatalf("unexpected jobs: %+v", cfg.Scheduler.Jobs)
	}
	if cfg.Scheduler.Timezone != "Europe/London" {
		t.Fatalf("unexpected timezone: %q", cfg.Scheduler.Timezone)
	}
	if len(cfg.Curation.Thresholds) != 2 || cfg.Curation.MarkupTiers[2].UpTo != 0 {
		t.Fatalf("unexpected curation config: %+v", cfg.Curation)
	}
}

func TestLoadFileFailsOnExplicitPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(broken, []byte("http: [unclosed\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cases := []struct {
		name string
		path string
	}{
		{name: "missing", path: filepath.Join(dir, "absent.yaml")},
		{name: "invalid yaml", path: broken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadFile(tc.path); err == nil {
				t.Fatalf("expected error for %s", tc.path)
			}
		})
	}
}

func TestLoadFallsBackWhenEnvFileIsMissing(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "absent.yaml"))

	cfg := Load()
	if cfg.HTTP.Addr != defaultConfig().HTTP.Addr {
		t.Fatalf("expected default addr, got %q", cfg.HTTP.Addr)
	}
}
