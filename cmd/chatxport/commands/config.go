package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	clifetcher "github.com/jmylchreest/chatxport/cmd/chatxport/fetcher"
	"github.com/jmylchreest/chatxport/pkg/chatxport"
	"github.com/jmylchreest/chatxport/pkg/cleaner"
	"github.com/jmylchreest/chatxport/pkg/cleaner/sanitize"
	"github.com/jmylchreest/chatxport/pkg/fetcher"
	"github.com/jmylchreest/chatxport/pkg/normalize"
	"github.com/jmylchreest/chatxport/pkg/platform"
	"github.com/jmylchreest/chatxport/pkg/render"
	"github.com/jmylchreest/chatxport/pkg/segment"
)

// Fetch modes.
const (
	modeFile    = "file"
	modeStatic  = "static"
	modeDynamic = "dynamic"
)

// Config is the merged configuration of file, environment and flags.
type Config struct {
	Format           string         `mapstructure:"format" validate:"oneof=markdown md html text txt plain"`
	OutputDir        string         `mapstructure:"output_dir"`
	Platform         string         `mapstructure:"platform" validate:"omitempty,oneof=claude chatgpt gemini deepseek unknown"`
	AllowUnsupported bool           `mapstructure:"allow_unsupported"`
	Normalizer       string         `mapstructure:"normalizer" validate:"oneof=builtin library"`
	HTML             HTMLConfig     `mapstructure:"html"`
	Segment          segment.Config `mapstructure:"segment"`
	Fetch            FetchConfig    `mapstructure:"fetch"`
}

// HTMLConfig controls the HTML export.
type HTMLConfig struct {
	// Safe chains the bluemonday policy after the sanitizer.
	Safe bool `mapstructure:"safe"`
}

// FetchConfig controls how the conversation page is obtained.
type FetchConfig struct {
	// Mode is file, static or dynamic. Empty picks file for local input
	// and dynamic for URLs.
	Mode         string        `mapstructure:"mode" validate:"omitempty,oneof=file static dynamic"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gte=0"`
	UserDataDir  string        `mapstructure:"user_data_dir"`
	Headful      bool          `mapstructure:"headful"`
	ChromePath   string        `mapstructure:"chrome_path"`
	WaitSelector string        `mapstructure:"wait_selector"`
	Wait         time.Duration `mapstructure:"wait" validate:"gte=0"`
	Cookies      []string      `mapstructure:"cookies" validate:"dive,contains=="`
	MaxPageSize  string        `mapstructure:"max_page_size" validate:"bytesize"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("bytesize", func(fl validator.FieldLevel) bool {
		s := strings.TrimSpace(fl.Field().String())
		if s == "" || s == "0" {
			return true
		}
		_, err := humanize.ParseBytes(s)
		return err == nil
	})
	return v
}

// setDefaults registers every key so file, env and flags can override it.
func setDefaults(v *viper.Viper) {
	seg := segment.DefaultConfig()

	v.SetDefault("format", string(render.Markdown))
	v.SetDefault("output_dir", ".")
	v.SetDefault("platform", "")
	v.SetDefault("allow_unsupported", false)
	v.SetDefault("normalizer", string(normalize.KindBuiltin))
	v.SetDefault("html.safe", true)

	v.SetDefault("segment.human_selectors", seg.HumanSelectors)
	v.SetDefault("segment.assistant_selectors", seg.AssistantSelectors)
	v.SetDefault("segment.main_selectors", seg.MainSelectors)
	v.SetDefault("segment.block_selector", seg.BlockSelector)
	v.SetDefault("segment.min_content_chars", seg.MinContentChars)
	v.SetDefault("segment.min_content_height", seg.MinContentHeight)
	v.SetDefault("segment.layout_min_height", seg.LayoutMinHeight)
	v.SetDefault("segment.layout_min_width", seg.LayoutMinWidth)
	v.SetDefault("segment.layout_min_chars", seg.LayoutMinChars)
	v.SetDefault("segment.group_gap", seg.GroupGap)

	v.SetDefault("fetch.mode", "")
	v.SetDefault("fetch.timeout", 60*time.Second)
	v.SetDefault("fetch.user_data_dir", "")
	v.SetDefault("fetch.headful", false)
	v.SetDefault("fetch.chrome_path", "")
	v.SetDefault("fetch.wait_selector", "")
	v.SetDefault("fetch.wait", time.Duration(0))
	v.SetDefault("fetch.cookies", []string{})
	v.SetDefault("fetch.max_page_size", "10MB")
}

// bindFlags binds the flags a command defines to their config keys.
// Binding happens per run so commands sharing a key do not clash.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	for key, name := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

var flagKeys = map[string]string{
	"format":              "format",
	"output_dir":          "output-dir",
	"platform":            "platform",
	"allow_unsupported":   "allow-unsupported",
	"normalizer":          "normalizer",
	"html.safe":           "safe-html",
	"fetch.mode":          "fetch-mode",
	"fetch.timeout":       "timeout",
	"fetch.user_data_dir": "user-data-dir",
	"fetch.headful":       "headful",
	"fetch.wait_selector": "wait-selector",
	"fetch.wait":          "wait",
	"fetch.cookies":       "cookie",
	"fetch.max_page_size": "max-page-size",
}

// decodeConfig unmarshals and validates the configuration held by v.
func decodeConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field constraints and the segment selectors.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return c.Segment.Validate()
}

// MaxPageBytes returns the page size limit, zero for none.
func (c Config) MaxPageBytes() int64 {
	s := strings.TrimSpace(c.Fetch.MaxPageSize)
	if s == "" || s == "0" {
		return 0
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0
	}
	return int64(n)
}

// FetchOptions builds per-request fetch options.
func (c Config) FetchOptions() (fetcher.Options, error) {
	opts := fetcher.Options{
		Timeout:         c.Fetch.Timeout,
		WaitForSelector: c.Fetch.WaitSelector,
		WaitDuration:    c.Fetch.Wait,
		MaxBodySize:     c.MaxPageBytes(),
	}
	for _, raw := range c.Fetch.Cookies {
		ck, err := fetcher.ParseCookie(raw)
		if err != nil {
			return opts, err
		}
		opts.Cookies = append(opts.Cookies, ck)
	}
	return opts, nil
}

// ResolveMode picks the fetch mode for a target.
func (c Config) ResolveMode(target string) string {
	if c.Fetch.Mode != "" {
		return c.Fetch.Mode
	}
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return modeDynamic
	}
	return modeFile
}

// NewFetcher creates the fetcher for mode.
func (c Config) NewFetcher(mode string) (fetcher.Fetcher, error) {
	switch mode {
	case modeFile:
		return fetcher.NewFile(), nil
	case modeStatic:
		return fetcher.NewStatic(fetcher.StaticConfig{
			Timeout:     c.Fetch.Timeout,
			MaxBodySize: c.MaxPageBytes(),
		}), nil
	case modeDynamic:
		return clifetcher.NewSnapshotter(clifetcher.Config{
			Timeout:     c.Fetch.Timeout,
			UserDataDir: c.Fetch.UserDataDir,
			Headful:     c.Fetch.Headful,
			ChromePath:  c.Fetch.ChromePath,
		})
	default:
		return nil, fmt.Errorf("unknown fetch mode: %s (use 'file', 'static' or 'dynamic')", mode)
	}
}

// Renderer builds the renderer for the configured normalizer and HTML
// safety.
func (c Config) Renderer() (*render.Renderer, error) {
	n, err := normalize.New(normalize.Kind(c.Normalizer))
	if err != nil {
		return nil, err
	}

	var cl cleaner.Cleaner = sanitize.New(nil)
	if c.HTML.Safe {
		cl = cleaner.NewChain(sanitize.New(nil), cleaner.NewPolicy(nil))
	}
	return render.New(render.WithNormalizer(n), render.WithCleaner(cl)), nil
}

// ExporterOptions builds the exporter collaborators, except the saver.
func (c Config) ExporterOptions() ([]chatxport.Option, error) {
	seg, err := segment.New(c.Segment)
	if err != nil {
		return nil, err
	}
	r, err := c.Renderer()
	if err != nil {
		return nil, err
	}

	opts := []chatxport.Option{
		chatxport.WithSegmenter(seg),
		chatxport.WithRenderer(r),
		chatxport.WithAllowUnsupported(c.AllowUnsupported),
	}
	if c.Platform != "" {
		opts = append(opts, chatxport.WithPlatformDetector(platform.Fixed(c.Platform)))
	}
	return opts, nil
}
