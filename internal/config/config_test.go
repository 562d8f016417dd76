package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
port: "9000"
mysqlHost: db.internal
mysqlUser: reader
mysqlPassword: from-file
mysqlDatabase: movies
trustedProxyCidrs: ["10.0.0.0/8"]
`)
	t.Setenv("MYSQL_HOST", "db.override")
	t.Setenv("MYSQL_PORT", "3307")
	t.Setenv("MOVIEDB_TRUSTED_PROXY_CIDRS", "192.168.0.0/16, 172.16.0.1")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9000" || cfg.MySQLHost != "db.override" || cfg.MySQLPort != 3307 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.MySQLPassword != "from-file" {
		t.Fatalf("file password should stay when env unset: %q", cfg.MySQLPassword)
	}
	if len(cfg.TrustedProxyCIDRs) != 2 || cfg.TrustedProxyCIDRs[1] != "172.16.0.1" {
		t.Fatalf("unexpected proxies: %v", cfg.TrustedProxyCIDRs)
	}
}

func TestLoadFallsBackToRootPassword(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MYSQL_USER", "root")
	t.Setenv("MYSQL_DATABASE", "movies")
	t.Setenv("MYSQL_ROOT_PASSWORD", "rootpw")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load without file: %v", err)
	}
	if cfg.MySQLPassword != "rootpw" {
		t.Fatalf("expected root password fallback, got %q", cfg.MySQLPassword)
	}

	t.Setenv("MYSQL_PASSWORD", "apppw")
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MySQLPassword != "apppw" {
		t.Fatalf("MYSQL_PASSWORD should win, got %q", cfg.MySQLPassword)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "dataSource: memory\ncatalogPath: catalog.yaml\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.SessionBackend != SessionMemory || cfg.SessionCookieName != "moviedb_session" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if ttl, err := ParseSessionTTL(cfg.SessionTTL); err != nil || ttl != 12*time.Hour {
		t.Fatalf("unexpected ttl: %v %v", ttl, err)
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for explicit missing file")
	}
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"mysql needs user", "mysqlDatabase: movies\n", "mysqlUser"},
		{"memory needs catalog", "dataSource: memory\n", "catalogPath"},
		{"unknown source", "dataSource: sqlite\n", "dataSource"},
		{"redis needs addr", "dataSource: memory\ncatalogPath: c.yaml\nsessionBackend: redis\n", "redisAddr"},
		{"cookie needs secret", "dataSource: memory\ncatalogPath: c.yaml\nsessionBackend: cookie\nsessionSecret: short\n", "sessionSecret"},
		{"padded secret too short", "dataSource: memory\ncatalogPath: c.yaml\nsessionBackend: cookie\nsessionSecret: \"   short-secret    \"\n", "sessionSecret"},
		{"bad ttl", "dataSource: memory\ncatalogPath: c.yaml\nsessionTTL: soon\n", "sessionTTL"},
		{"negative ttl", "dataSource: memory\ncatalogPath: c.yaml\nsessionTTL: -1m\n", "sessionTTL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadTrimsSessionSecret(t *testing.T) {
	cfg, err := Load(writeConfig(t, "dataSource: memory\ncatalogPath: c.yaml\nsessionBackend: cookie\nsessionSecret: \"  0123456789abcdef  \"\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SessionSecret != "0123456789abcdef" {
		t.Fatalf("expected trimmed secret, got %q", cfg.SessionSecret)
	}
}
