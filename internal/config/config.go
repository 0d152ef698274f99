package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Output  string `yaml:"output"`
	BaseURL string `yaml:"base_url"`
	Debug   bool   `yaml:"debug"`

	// browser
	Headless          bool          `yaml:"headless"`
	SlowMo            time.Duration `yaml:"slow_mo"`
	ViewportWidth     int           `yaml:"viewport_width"`
	ViewportHeight    int           `yaml:"viewport_height"`
	DeviceScaleFactor float64       `yaml:"device_scale_factor"`
	ChromePath        string        `yaml:"chrome_path,omitempty"`
	CDPURL            string        `yaml:"cdp_url,omitempty"`
	UserAgent         string        `yaml:"user_agent,omitempty"`
	HideSelectors     []string      `yaml:"hide_selectors,omitempty"`

	// encoding
	Encoder       string `yaml:"encoder"`
	FFmpegPath    string `yaml:"ffmpeg_path"`
	Framerate     int    `yaml:"framerate"`
	ScaleWidth    int    `yaml:"scale_width"`
	MaxColors     int    `yaml:"max_colors"`
	KeepFrames    bool   `yaml:"keep_frames"`
	ArchiveFrames bool   `yaml:"archive_frames"`

	// readiness probe
	WaitServer       bool          `yaml:"wait_server"`
	ServerTimeout    time.Duration `yaml:"server_timeout"`
	BypassCloudflare bool          `yaml:"bypass_cloudflare"`
}

// Options carries CLI overrides. Zero values mean "not set".
type Options struct {
	IgnoreConfig  bool
	Debug         bool
	Output        string
	BaseURL       string
	Headless      bool
	ChromePath    string
	CDPURL        string
	Encoder       string
	FFmpegPath    string
	Framerate     int
	ScaleWidth    int
	KeepFrames    bool
	ArchiveFrames bool
}

const (
	defaultBaseURL    = "http://localhost:3000"
	defaultFramerate  = 6
	defaultScaleWidth = 1000
	defaultMaxColors  = 256
)

func DefaultConfig() *Config {
	return &Config{
		Output:            "docs/demo/gifs",
		BaseURL:           defaultBaseURL,
		Headless:          false,
		SlowMo:            50 * time.Millisecond,
		ViewportWidth:     1400,
		ViewportHeight:    900,
		DeviceScaleFactor: 1,
		Encoder:           "auto",
		FFmpegPath:        "ffmpeg",
		Framerate:         defaultFramerate,
		ScaleWidth:        defaultScaleWidth,
		MaxColors:         defaultMaxColors,
		WaitServer:        true,
		ServerTimeout:     30 * time.Second,
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func loadYAML(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	c := DefaultConfig()
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return nil, err
	}

	return c, nil
}

// LoadMerged loads the active profile from the default store.
func LoadMerged(opts Options) (*Config, string, error) {
	return DefaultStore().LoadMerged(opts)
}

// LoadMerged returns the active profile (or defaults) with CLI overrides
// applied, plus a description of where it came from.
func (s *Store) LoadMerged(opts Options) (*Config, string, error) {
	if opts.IgnoreConfig {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(ignored config)", nil
	}

	activePath, err := s.ActivePath()
	if err == ErrNoConfig {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(default config in memory)\nRun `democap config init` to create an actual config", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := loadYAML(activePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
	}

	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	return cfg, activePath, nil
}

func mergeConfig(c *Config, o Options) {
	if o.Debug {
		c.Debug = true
	}
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.BaseURL != "" {
		c.BaseURL = o.BaseURL
	}
	if o.Headless {
		c.Headless = true
	}
	if o.ChromePath != "" {
		c.ChromePath = o.ChromePath
	}
	if o.CDPURL != "" {
		c.CDPURL = o.CDPURL
	}
	if o.Encoder != "" {
		c.Encoder = o.Encoder
	}
	if o.FFmpegPath != "" {
		c.FFmpegPath = o.FFmpegPath
	}
	if o.Framerate != 0 {
		c.Framerate = o.Framerate
	}
	if o.ScaleWidth != 0 {
		c.ScaleWidth = o.ScaleWidth
	}
	if o.KeepFrames {
		c.KeepFrames = true
	}
	if o.ArchiveFrames {
		c.ArchiveFrames = true
	}
}

func normalizeDefaults(c *Config) {
	if c.Output == "" {
		c.Output = "."
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = 1400
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = 900
	}
	if c.DeviceScaleFactor <= 0 {
		c.DeviceScaleFactor = 1
	}
	if c.Encoder == "" {
		c.Encoder = "auto"
	}
	if c.FFmpegPath == "" {
		c.FFmpegPath = "ffmpeg"
	}
	if c.Framerate <= 0 {
		c.Framerate = defaultFramerate
	}
	if c.ScaleWidth <= 0 {
		c.ScaleWidth = defaultScaleWidth
	}
	if c.MaxColors <= 0 || c.MaxColors > 256 {
		c.MaxColors = defaultMaxColors
	}
	if c.ServerTimeout <= 0 {
		c.ServerTimeout = 30 * time.Second
	}
}

// HideCSS turns HideSelectors into a stylesheet that hides them without
// shifting layout.
func (c *Config) HideCSS() string {
	if len(c.HideSelectors) == 0 {
		return ""
	}
	return strings.Join(c.HideSelectors, ",\n") + " {\n  visibility: hidden !important;\n}\n"
}

func (c *Config) Print(w io.Writer) {
	p := func(format string, args ...any) { _, _ = fmt.Fprintf(w, format, args...) }

	p(" -output: %s\n", c.Output)
	p(" -base_url: %s\n", c.BaseURL)
	p(" -headless: %t\n", c.Headless)
	if c.SlowMo > 0 {
		p(" -slow_mo: %s\n", c.SlowMo)
	}
	p(" -viewport: %dx%d @%gx\n", c.ViewportWidth, c.ViewportHeight, c.DeviceScaleFactor)
	if c.ChromePath != "" {
		p(" -chrome_path: %s\n", c.ChromePath)
	}
	if c.CDPURL != "" {
		p(" -cdp_url: %s\n", c.CDPURL)
	}
	p(" -encoder: %s (%s)\n", c.Encoder, c.FFmpegPath)
	p(" -gif: %d fps, %dpx wide, %d colors\n", c.Framerate, c.ScaleWidth, c.MaxColors)
	if c.KeepFrames {
		p(" -keep_frames: %t\n", c.KeepFrames)
	}
	if c.ArchiveFrames {
		p(" -archive_frames: %t\n", c.ArchiveFrames)
	}
	if c.WaitServer {
		p(" -wait_server: %s\n", c.ServerTimeout)
	}
	if c.BypassCloudflare {
		p(" -bypass_cloudflare: %t\n", c.BypassCloudflare)
	}
	if len(c.HideSelectors) > 0 {
		p(" -hide_selectors: %s\n", strings.Join(c.HideSelectors, ", "))
	}
	if c.Debug {
		p(" -debug: %t\n", c.Debug)
	}
}
