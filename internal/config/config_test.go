package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_TOKEN", "tok")
	t.Setenv("MINIFLUX_BASE_URL", "https://reader.example.com/")
	t.Setenv("MINIFLUX_API_KEY", "key")
	t.Setenv("MINIFLUX_USERNAME", "")
	t.Setenv("MINIFLUX_PASSWORD", "")
	t.Setenv("RSS_BRIDGE_URL", "")
	t.Setenv("ADMIN", "")
	t.Setenv("ACCEPT_CHANNELS_WITHOUT_USERNAME", "")
	t.Setenv("DATABASE_PATH", "")
	t.Setenv("LOG_LEVEL", "")
}

func TestLoad(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		setRequired(t)
		t.Setenv("TELEGRAM_TOKEN", "")
		if _, err := Load(); err == nil {
			t.Fatal("expected error, got nil")
		}
	})

	t.Run("missing miniflux url", func(t *testing.T) {
		setRequired(t)
		t.Setenv("MINIFLUX_BASE_URL", "")
		if _, err := Load(); err == nil {
			t.Fatal("expected error, got nil")
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		setRequired(t)
		t.Setenv("MINIFLUX_API_KEY", "")
		if _, err := Load(); err == nil {
			t.Fatal("expected error, got nil")
		}
	})

	t.Run("username and password accepted without api key", func(t *testing.T) {
		setRequired(t)
		t.Setenv("MINIFLUX_API_KEY", "")
		t.Setenv("MINIFLUX_USERNAME", "admin")
		t.Setenv("MINIFLUX_PASSWORD", "secret")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff("admin", cfg.MinifluxUsername); diff != "" {
			t.Errorf("username (-want +got):\n%s", diff)
		}
	})

	t.Run("defaults and trimming", func(t *testing.T) {
		setRequired(t)
		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff("https://reader.example.com", cfg.MinifluxBaseURL); diff != "" {
			t.Errorf("base url (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff("./data/channels.db", cfg.DatabasePath); diff != "" {
			t.Errorf("db path (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff("info", cfg.LogLevel); diff != "" {
			t.Errorf("log level (-want +got):\n%s", diff)
		}
	})

	t.Run("accept channels flag", func(t *testing.T) {
		setRequired(t)
		t.Setenv("ACCEPT_CHANNELS_WITHOUT_USERNAME", "TRUE")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cfg.AllowNoUsername {
			t.Error("expected AllowNoUsername to be true")
		}
	})
}

func TestIsAdmin(t *testing.T) {
	cfg := &Config{AdminUsername: "operator"}
	if !cfg.IsAdmin("operator") {
		t.Error("expected operator to be admin")
	}
	if cfg.IsAdmin("Operator") {
		t.Error("admin check is case-sensitive")
	}
	if cfg.IsAdmin("") {
		t.Error("empty username is never admin")
	}

	empty := &Config{}
	if empty.IsAdmin("anyone") {
		t.Error("empty admin setting authorizes nobody")
	}
}
