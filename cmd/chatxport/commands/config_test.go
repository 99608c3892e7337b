package commands

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/jmylchreest/chatxport/pkg/segment"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	return v
}

func TestDecodeConfig_Defaults(t *testing.T) {
	cfg, err := decodeConfig(newTestViper(t))
	if err != nil {
		t.Fatalf("decodeConfig() error = %v", err)
	}

	if cfg.Format != "markdown" || cfg.Normalizer != "builtin" || !cfg.HTML.Safe {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.OutputDir != "." {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if !reflect.DeepEqual(cfg.Segment, segment.DefaultConfig()) {
		t.Errorf("Segment = %+v, want defaults", cfg.Segment)
	}
	if cfg.Fetch.Timeout != 60*time.Second {
		t.Errorf("Fetch.Timeout = %v", cfg.Fetch.Timeout)
	}
	if got := cfg.MaxPageBytes(); got != 10_000_000 {
		t.Errorf("MaxPageBytes() = %d", got)
	}
}

func TestDecodeConfig_File(t *testing.T) {
	v := newTestViper(t)
	v.SetConfigFile(filepath.Join("testdata", "config.yaml"))
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig() error = %v", err)
	}

	cfg, err := decodeConfig(v)
	if err != nil {
		t.Fatalf("decodeConfig() error = %v", err)
	}

	if cfg.Format != "html" || cfg.OutputDir != "exports" || !cfg.AllowUnsupported {
		t.Errorf("top level keys not applied: %+v", cfg)
	}
	if cfg.Normalizer != "library" || cfg.HTML.Safe {
		t.Errorf("conversion keys not applied: %+v", cfg)
	}
	if cfg.Segment.GroupGap != 40 || !reflect.DeepEqual(cfg.Segment.MainSelectors, []string{"#thread"}) {
		t.Errorf("segment keys not applied: %+v", cfg.Segment)
	}
	if cfg.Segment.BlockSelector != segment.DefaultConfig().BlockSelector {
		t.Errorf("unset segment key lost its default: %q", cfg.Segment.BlockSelector)
	}
	if cfg.Fetch.Mode != "static" || cfg.Fetch.Timeout != 30*time.Second || cfg.Fetch.Wait != 500*time.Millisecond {
		t.Errorf("fetch keys not applied: %+v", cfg.Fetch)
	}
	if got := cfg.MaxPageBytes(); got != 1<<20 {
		t.Errorf("MaxPageBytes() = %d, want %d", got, 1<<20)
	}

	opts, err := cfg.FetchOptions()
	if err != nil {
		t.Fatalf("FetchOptions() error = %v", err)
	}
	if len(opts.Cookies) != 1 || opts.Cookies[0].Name != "sessionKey" || opts.Cookies[0].Domain != ".claude.ai" {
		t.Errorf("Cookies = %+v", opts.Cookies)
	}
	if opts.MaxBodySize != 1<<20 || opts.WaitDuration != 500*time.Millisecond {
		t.Errorf("FetchOptions() = %+v", opts)
	}
}

func TestDecodeConfig_Env(t *testing.T) {
	t.Setenv("CHATXPORT_FETCH_MODE", "dynamic")
	t.Setenv("CHATXPORT_FORMAT", "text")

	v := newTestViper(t)
	v.SetEnvPrefix("CHATXPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := decodeConfig(v)
	if err != nil {
		t.Fatalf("decodeConfig() error = %v", err)
	}
	if cfg.Fetch.Mode != "dynamic" || cfg.Format != "text" {
		t.Errorf("env not applied: format %q mode %q", cfg.Format, cfg.Fetch.Mode)
	}
}

func TestDecodeConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		wantErr string
	}{
		{"format", "format", "pdf", "Format"},
		{"normalizer", "normalizer", "pandoc", "Normalizer"},
		{"platform", "platform", "copilot", "Platform"},
		{"fetch mode", "fetch.mode", "ftp", "Mode"},
		{"page size", "fetch.max_page_size", "lots", "MaxPageSize"},
		{"cookie", "fetch.cookies", []string{"novalue"}, "Cookies"},
		{"threshold", "segment.min_content_chars", -1, "MinContentChars"},
		{"selector", "segment.block_selector", "div[", "selector"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestViper(t)
			v.Set(tt.key, tt.value)

			_, err := decodeConfig(v)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ResolveMode(t *testing.T) {
	tests := []struct {
		mode   string
		target string
		want   string
	}{
		{"", "https://claude.ai/chat/1", modeDynamic},
		{"", "http://localhost:8080/share", modeDynamic},
		{"", "chat.html", modeFile},
		{"", "-", modeFile},
		{"static", "https://claude.ai/share/1", modeStatic},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			cfg := Config{Fetch: FetchConfig{Mode: tt.mode}}
			if got := cfg.ResolveMode(tt.target); got != tt.want {
				t.Errorf("ResolveMode(%q) = %q, want %q", tt.target, got, tt.want)
			}
		})
	}
}

func TestConfig_NewFetcher(t *testing.T) {
	cfg := Config{}
	for _, mode := range []string{modeFile, modeStatic} {
		f, err := cfg.NewFetcher(mode)
		if err != nil {
			t.Fatalf("NewFetcher(%q) error = %v", mode, err)
		}
		if f.Type() != mode {
			t.Errorf("NewFetcher(%q).Type() = %q", mode, f.Type())
		}
		_ = f.Close()
	}

	if _, err := cfg.NewFetcher("ftp"); err == nil {
		t.Error("NewFetcher(ftp) should fail")
	}
}

func TestConfig_ExporterOptions(t *testing.T) {
	cfg, err := decodeConfig(newTestViper(t))
	if err != nil {
		t.Fatal(err)
	}
	cfg.Normalizer = "library"
	cfg.Platform = "claude"

	opts, err := cfg.ExporterOptions()
	if err != nil {
		t.Fatalf("ExporterOptions() error = %v", err)
	}
	if len(opts) != 4 {
		t.Errorf("got %d options, want 4 with a fixed platform", len(opts))
	}

	cfg.Normalizer = "pandoc"
	if _, err := cfg.ExporterOptions(); err == nil {
		t.Error("unknown normalizer should fail")
	}
}
