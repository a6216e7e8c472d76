// internal/config/config_test.go

package config

import (
	"net/url"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Cache.TrendsTTL != time.Hour {
		t.Errorf("Cache.TrendsTTL: got %v, want 1h", cfg.Cache.TrendsTTL)
	}
	if cfg.Cache.TitleLookupTTL != 30*time.Minute {
		t.Errorf("Cache.TitleLookupTTL: got %v, want 30m", cfg.Cache.TitleLookupTTL)
	}
	if cfg.Cache.ModelPerformanceTTL != 24*time.Hour {
		t.Errorf("Cache.ModelPerformanceTTL: got %v, want 24h", cfg.Cache.ModelPerformanceTTL)
	}
	if cfg.Warehouse.LatestTable != "prediction_latest" {
		t.Errorf("Warehouse.LatestTable: got %q", cfg.Warehouse.LatestTable)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CACHE_TRENDS_TTL", "15m")
	t.Setenv("SERVER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port: got %d, want 9090", cfg.Server.Port)
	}
	if cfg.Cache.TrendsTTL != 15*time.Minute {
		t.Errorf("Cache.TrendsTTL: got %v, want 15m", cfg.Cache.TrendsTTL)
	}
	if len(cfg.Server.CorsOrigins) != 2 || cfg.Server.CorsOrigins[1] != "https://b.example" {
		t.Errorf("Server.CorsOrigins: got %v", cfg.Server.CorsOrigins)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("SERVER_PORT", "70000")

	if _, err := Load(); err == nil {
		t.Error("expected error for out-of-range port")
	}
}

func TestLoad_NegativeWarmInterval(t *testing.T) {
	t.Setenv("CACHE_WARM_INTERVAL", "-1m")

	if _, err := Load(); err == nil {
		t.Error("expected error for negative warm interval")
	}
}

func TestWarehouseConfig_ConnString(t *testing.T) {
	c := WarehouseConfig{
		User: "u", Password: "p", Host: "db", Port: 5433, Database: "wh", SSLMode: "require",
	}
	want := "postgres://u:p@db:5433/wh?sslmode=require"
	if got := c.ConnString(); got != want {
		t.Errorf("ConnString: got %q, want %q", got, want)
	}
}

func TestWarehouseConfig_ConnStringEscapesCredentials(t *testing.T) {
	c := WarehouseConfig{
		User: "dash@board", Password: "p@ss/w:rd?", Host: "db", Port: 5432, Database: "wh", SSLMode: "disable",
	}

	u, err := url.Parse(c.ConnString())
	if err != nil {
		t.Fatalf("ConnString is not a valid URL: %v", err)
	}
	if u.User.Username() != c.User {
		t.Errorf("user: got %q, want %q", u.User.Username(), c.User)
	}
	if pass, _ := u.User.Password(); pass != c.Password {
		t.Errorf("password: got %q, want %q", pass, c.Password)
	}
	if u.Host != "db:5432" || u.Path != "/wh" || u.Query().Get("sslmode") != "disable" {
		t.Errorf("unexpected URL %q", u.String())
	}
}
