package config

import (
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Query.DefaultPageSize != 1000 {
		t.Errorf("expected DefaultPageSize=1000, got %d", cfg.Query.DefaultPageSize)
	}
	if cfg.Query.MaxPageSize != 10000 {
		t.Errorf("expected MaxPageSize=10000, got %d", cfg.Query.MaxPageSize)
	}
	if cfg.Storage.CounterKey != "index:counters" {
		t.Errorf("expected CounterKey='index:counters', got %q", cfg.Storage.CounterKey)
	}
	if cfg.Storage.ScanBatchSize != 100 {
		t.Errorf("expected ScanBatchSize=100, got %d", cfg.Storage.ScanBatchSize)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		Database: DatabaseConfig{ReadinessTimeout: 15},
		Query:    QueryConfig{DefaultPageSize: 50, MaxPageSize: 500},
		Storage:  StorageConfig{CounterKey: "custom:counters", ScanBatchSize: 25},
	}
	cfg.ApplyDefaults()

	if cfg.Database.ReadinessTimeout != 15 {
		t.Errorf("expected ReadinessTimeout=15, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Query.DefaultPageSize != 50 {
		t.Errorf("expected DefaultPageSize=50, got %d", cfg.Query.DefaultPageSize)
	}
	if cfg.Storage.CounterKey != "custom:counters" {
		t.Errorf("expected CounterKey='custom:counters', got %q", cfg.Storage.CounterKey)
	}
	if cfg.Storage.ScanBatchSize != 25 {
		t.Errorf("expected ScanBatchSize=25, got %d", cfg.Storage.ScanBatchSize)
	}
}

func TestValidate_MissingAddrs(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_PageSizeOrdering(t *testing.T) {
	cfg := Config{
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Query:    QueryConfig{DefaultPageSize: 500, MaxPageSize: 100},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for default page size above max")
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := Config{
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("HASHMODEL_TEST_ADDR", "db:6379")

	in := []byte("addrs: [\"${HASHMODEL_TEST_ADDR}\"]\npassword: \"${HASHMODEL_TEST_UNSET:-secret}\"\n")
	out := string(expandEnvVars(in))

	want := "addrs: [\"db:6379\"]\npassword: \"secret\"\n"
	if out != want {
		t.Errorf("unexpected expansion:\ngot:  %q\nwant: %q", out, want)
	}
}

func TestExpandEnvVars_EmptyWithoutDefault(t *testing.T) {
	out := string(expandEnvVars([]byte("password: \"${HASHMODEL_TEST_UNSET}\"")))
	if out != `password: ""` {
		t.Errorf("unexpected expansion: %q", out)
	}
}
