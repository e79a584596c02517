package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBaseConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := BaseConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
	})

	t.Run("production environment keeps debug false", func(t *testing.T) {
		cfg := BaseConfig{Name: "svc", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
	})
}

func TestBaseConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     BaseConfig
		wantErr bool
		errMsg  string
	}{
		{"valid development", BaseConfig{Name: "svc", Environment: "development"}, false, ""},
		{"valid staging", BaseConfig{Name: "svc", Environment: "staging"}, false, ""},
		{"valid production", BaseConfig{Name: "svc", Environment: "production"}, false, ""},
		{"missing name", BaseConfig{Environment: "production"}, true, "config.name is required"},
		{"invalid environment", BaseConfig{Name: "svc", Environment: "invalid"}, true, "config.environment must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestServiceConfigDefaultsAndValidate(t *testing.T) {
	cfg := ServiceConfig{BaseConfig: BaseConfig{Name: "cocopipe"}}
	cfg.ApplyDefaults()
	if cfg.Logging.Level != "info" || cfg.Logging.Output != "stderr" {
		t.Errorf("unexpected logging defaults %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "config.logging") {
		t.Errorf("expected a logging error, got %v", err)
	}
}

// testKind decodes through encoding.TextUnmarshaler.
type testKind string

func (k *testKind) UnmarshalText(text []byte) error {
	*k = testKind(strings.ToUpper(string(text)))
	return nil
}

type testDataset struct {
	Split       string     `mapstructure:"split"`
	Kinds       []testKind `mapstructure:"kinds"`
	MaxBuffered int        `mapstructure:"max_buffered"`
}

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Dataset       testDataset `mapstructure:"dataset"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFile(t, dir, "config.yml", `
name: cocopipe
environment: staging
logging:
  level: warn
dataset:
  split: val
  kinds: [instances, captions]
`)

	var cfg testConfig
	if err := LoadConfig("cocopipe-test-yaml", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "cocopipe" || cfg.Environment != "staging" {
		t.Errorf("unexpected base config %+v", cfg.BaseConfig)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected logging.level warn, got %q", cfg.Logging.Level)
	}
	if cfg.Dataset.Split != "val" || len(cfg.Dataset.Kinds) != 2 {
		t.Fatalf("unexpected dataset config %+v", cfg.Dataset)
	}
	if cfg.Dataset.Kinds[0] != "INSTANCES" || cfg.Dataset.Kinds[1] != "CAPTIONS" {
		t.Errorf("expected kinds decoded by UnmarshalText, got %v", cfg.Dataset.Kinds)
	}
}

func TestLoadConfigEnvList(t *testing.T) {
	t.Setenv("LISTTEST_DATASET_KINDS", "instances,person_keypoints")

	var cfg testConfig
	if err := LoadConfig("listtest", &cfg, WithConfigFile("/nonexistent/path.yml")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if len(cfg.Dataset.Kinds) != 2 || cfg.Dataset.Kinds[1] != "PERSON_KEYPOINTS" {
		t.Errorf("expected two kinds from a comma list, got %v", cfg.Dataset.Kinds)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFile(t, dir, "config.yml", "dataset:\n  split: train\n  max_buffered: 10\n")
	t.Setenv("CFGTEST_DATASET_SPLIT", "val")
	t.Setenv("CFGTEST_DATASET_MAX_BUFFERED", "500")
	t.Setenv("DATASET_SPLIT", "ignored")

	var cfg testConfig
	if err := LoadConfig("cfgtest", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Dataset.Split != "val" {
		t.Errorf("expected env override, got %q", cfg.Dataset.Split)
	}
	if cfg.Dataset.MaxBuffered != 500 {
		t.Errorf("expected max_buffered 500, got %d", cfg.Dataset.MaxBuffered)
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "ENVFILETEST_NAME=from-dotenv\n")
	defer os.Unsetenv("ENVFILETEST_NAME")

	var cfg testConfig
	if err := LoadConfig("envfiletest", &cfg, WithEnvFile(envPath), WithConfigFile(filepath.Join(dir, "none.yml"))); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "from-dotenv" {
		t.Errorf("expected name from .env, got %q", cfg.Name)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("nonexistent-service", &cfg, WithConfigFile("/nonexistent/path.yml"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestLoadConfigBrokenFile(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFile(t, dir, "config.yml", "dataset: [unclosed\n")

	var cfg testConfig
	if err := LoadConfig("broken", &cfg, WithConfigFile(configPath)); err == nil {
		t.Fatal("expected an error for an unparsable config file")
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/cocopipe/config.yml": true,
		"./config.yml":              true,
		"./.env":                    true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("cocopipe", LoaderConfig{})
	if files.ConfigFile != "./cmd/cocopipe/config.yml" {
		t.Errorf("expected the command's config file, got %q", files.ConfigFile)
	}
	if files.EnvFile != "./.env" {
		t.Errorf("expected ./.env, got %q", files.EnvFile)
	}

	explicit := resolver.ResolveFiles("cocopipe", LoaderConfig{ConfigFile: "/etc/cocopipe.yml"})
	if explicit.ConfigFile != "/etc/cocopipe.yml" {
		t.Errorf("expected explicit path to win, got %q", explicit.ConfigFile)
	}
}

func TestGenerateEnvKeyVariants(t *testing.T) {
	got := generateEnvKeyVariants("DATASET_MAX_BUFFERED")
	want := []string{"dataset_max_buffered", "dataset.max.buffered", "dataset.max_buffered", "dataset_max.buffered"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestEnvPrefix(t *testing.T) {
	if p := envPrefix("coco-pipe"); p != "COCO_PIPE" {
		t.Errorf("expected COCO_PIPE, got %q", p)
	}
}

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	WithFileSystem(&mockFS{})(&lc)
	WithConfigFile("/path/to/config.yml")(&lc)
	WithEnvFile("/path/to/.env")(&lc)
	WithEnvPrefix("X")(&lc)
	if lc.FileSystem == nil || lc.ConfigFile != "/path/to/config.yml" || lc.EnvFile != "/path/to/.env" || lc.EnvPrefix != "X" {
		t.Errorf("unexpected loader config %+v", lc)
	}
}
