package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromYAML(t *testing.T) {
	cfg, err := FromYAML([]byte(`contacts:
  production: prod@plant.example
  manager: boss@plant.example
notifier:
  webhook_url: https://hooks.example/plant
  timeout_seconds: 3
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Contacts.Production != "prod@plant.example" {
		t.Errorf("production = %q", cfg.Contacts.Production)
	}
	if cfg.Notifier.WebhookURL != "https://hooks.example/plant" {
		t.Errorf("webhook_url = %q", cfg.Notifier.WebhookURL)
	}
	if cfg.Notifier.TimeoutSeconds != 3 {
		t.Errorf("timeout_seconds = %d", cfg.Notifier.TimeoutSeconds)
	}
}

func TestValidateRequiresProduction(t *testing.T) {
	if _, err := FromYAML([]byte(`contacts:
  manager: boss@plant.example
`)); err == nil {
		t.Fatal("expected error without production contact")
	}
}

func TestLoadOptionalDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOptional(dir)
	if err != nil {
		t.Fatalf("load optional: %v", err)
	}
	if cfg.Contacts.Production == "" {
		t.Error("default config should carry a production contact")
	}
	if cfg.Notifier.QueueSize == 0 {
		t.Error("default config should set a queue size")
	}
}

func TestLoadOptionalReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plantline.yml")
	if err := os.WriteFile(path, []byte("contacts:\n  production: ops@plant.example\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadOptional(dir)
	if err != nil {
		t.Fatalf("load optional: %v", err)
	}
	if cfg.Contacts.Production != "ops@plant.example" {
		t.Errorf("production = %q", cfg.Contacts.Production)
	}
}
