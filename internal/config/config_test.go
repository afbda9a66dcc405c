package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":8080" || cfg.Server.MaxUploadMB != 25 || cfg.Convert.PageSize != "A4" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if got := cfg.Server.MaxUploadBytes(); got != 25<<20 {
		t.Errorf("MaxUploadBytes = %d", got)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "docconv.toml", `
[server]
addr = "127.0.0.1:9000"
cors_origins = ["https://app.example.com"]

[convert]
page_size = "Letter"
keep_data_uris = true

[log]
level = "debug"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.MaxUploadMB != 25 {
		t.Errorf("MaxUploadMB default lost: %d", cfg.Server.MaxUploadMB)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "https://app.example.com" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Convert.PageSize != "Letter" || !cfg.Convert.KeepDataURIs {
		t.Errorf("Convert = %+v", cfg.Convert)
	}
	if lvl, _ := cfg.Log.SlogLevel(); lvl != slog.LevelDebug {
		t.Errorf("level = %v", lvl)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "docconv.yaml", `
server:
  max_upload_mb: 5
  access_log: false
log:
  format: json
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.MaxUploadMB != 5 || cfg.Server.AccessLog {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr default lost: %q", cfg.Server.Addr)
	}
	if cfg.Log.Format != "json" || cfg.Log.Level != "info" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"bad page size", "a.toml", "[convert]\npage_size = \"B5\"\n", "page_size"},
		{"bad level", "b.yml", "log:\n  level: loud\n", "log.level"},
		{"zero upload", "c.toml", "[server]\nmax_upload_mb = 0\n", "max_upload_mb"},
		{"bold without regular", "d.toml", "[convert]\npdf_bold_font = \"b.ttf\"\n", "pdf_font"},
		{"syntax", "e.toml", "[server\n", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFonts(t *testing.T) {
	c := ConvertConfig{}
	if r, b, err := c.Fonts(); r != nil || b != nil || err != nil {
		t.Errorf("no fonts configured: %v %v %v", r, b, err)
	}

	c.PDFFont = writeFile(t, "r.ttf", "regular")
	r, b, err := c.Fonts()
	if err != nil || string(r) != "regular" || b != nil {
		t.Errorf("Fonts = %q %q %v", r, b, err)
	}
}
