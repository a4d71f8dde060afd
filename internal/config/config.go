// Package config loads the scrapeking YAML configuration and the site
// credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/scrapeking/internal/site"
)

// Config is the top-level configuration.
type Config struct {
	Site      SiteConfig     `yaml:"site"`
	Browser   BrowserConfig  `yaml:"browser"`
	Selectors site.Selectors `yaml:"selectors"`
	Waits     WaitConfig     `yaml:"waits"`
	Output    OutputConfig   `yaml:"output"`
	Lexicon   LexiconConfig  `yaml:"lexicon"`
	Store     StoreConfig    `yaml:"store"`
	Sinks     []SinkConfig   `yaml:"sinks"`
	Review    ReviewConfig   `yaml:"review"`
}

// SiteConfig locates the pages to crawl.
type SiteConfig struct {
	LoginURL   string      `yaml:"login_url"`
	IndexBase  string      `yaml:"index_base"`
	IndexPages int         `yaml:"index_pages"`
	Login      LoginConfig `yaml:"login"`
}

// LoginConfig holds the login form selectors.
type LoginConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Submit   string `yaml:"submit"`
}

// BrowserConfig controls Chrome.
type BrowserConfig struct {
	Remote           string   `yaml:"remote"`
	Stealth          string   `yaml:"stealth"` // headless | headful
	XvfbDisplay      string   `yaml:"xvfb_display"`
	XvfbScreen       string   `yaml:"xvfb_screen"`
	ResourceBlocking []string `yaml:"resource_blocking"`
	DumpDir          string   `yaml:"dump_dir"`
}

// WaitConfig bounds every wait on the live page.
type WaitConfig struct {
	Navigation time.Duration `yaml:"navigation"`
	Links      time.Duration `yaml:"links"`
	Alert      time.Duration `yaml:"alert"`
	Cards      time.Duration `yaml:"cards"`
	Expand     time.Duration `yaml:"expand"`
	Settle     time.Duration `yaml:"settle"`
	Login      time.Duration `yaml:"login"`
}

// OutputConfig names the files of the text stages.
type OutputConfig struct {
	Dir            string `yaml:"dir"`
	CategoryPrefix string `yaml:"category_prefix"`
	ValuesFile     string `yaml:"values_file"`
	CleanFile      string `yaml:"clean_file"`
}

// LexiconConfig configures the dictionary stages.
type LexiconConfig struct {
	Dictionary   string   `yaml:"dictionary"`
	Inputs       []string `yaml:"inputs"`
	Untranslated string   `yaml:"untranslated"`
	Uncovered    string   `yaml:"uncovered"`
}

// StoreConfig enables the SQLite store when Path is set.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// SinkConfig defines an extra output backend.
type SinkConfig struct {
	Type    string `yaml:"type"` // stdout | webhook
	URL     string `yaml:"url"`
	Retries int    `yaml:"retries"`
}

// ReviewConfig configures the review HTTP server.
type ReviewConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used without a file.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that have no usable default.
func (c *Config) Validate() error {
	switch c.Browser.Stealth {
	case "headless", "headful":
	default:
		return fmt.Errorf("config: browser.stealth must be headless or headful, got %q", c.Browser.Stealth)
	}
	for i, s := range c.Sinks {
		switch s.Type {
		case "stdout":
		case "webhook":
			if s.URL == "" {
				return fmt.Errorf("config: sinks[%d]: webhook needs a url", i)
			}
		default:
			return fmt.Errorf("config: sinks[%d]: unknown type %q", i, s.Type)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Site.LoginURL == "" {
		c.Site.LoginURL = "http://www.pokeking.icu/king/tree/first/1"
	}
	if c.Site.IndexBase == "" {
		c.Site.IndexBase = "http://www.pokeking.icu/king/tree/first/"
	}
	if c.Site.IndexPages <= 0 {
		c.Site.IndexPages = 26
	}
	if c.Site.Login.Username == "" {
		c.Site.Login.Username = "#username"
	}
	if c.Site.Login.Password == "" {
		c.Site.Login.Password = "#__BVID__17"
	}
	if c.Site.Login.Submit == "" {
		c.Site.Login.Submit = "#btnLogin"
	}

	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
	if c.Browser.XvfbScreen == "" {
		c.Browser.XvfbScreen = "1920x1080x24"
	}
	if c.Browser.ResourceBlocking == nil {
		c.Browser.ResourceBlocking = []string{"font", "media"}
	}
	if c.Browser.DumpDir == "" {
		c.Browser.DumpDir = "dumps"
	}

	c.Selectors.ApplyDefaults()

	for _, d := range []struct {
		v   *time.Duration
		def time.Duration
	}{
		{&c.Waits.Navigation, 30 * time.Second},
		{&c.Waits.Links, 15 * time.Second},
		{&c.Waits.Alert, 5 * time.Second},
		{&c.Waits.Cards, 7 * time.Second},
		{&c.Waits.Expand, 5 * time.Second},
		{&c.Waits.Settle, 3 * time.Second},
		{&c.Waits.Login, 10 * time.Second},
	} {
		if *d.v <= 0 {
			*d.v = d.def
		}
	}

	if c.Output.Dir == "" {
		c.Output.Dir = "pokeking_scraped_data_by_x"
	}
	if c.Output.CategoryPrefix == "" {
		c.Output.CategoryPrefix = "pokeking_icu_home_X_"
	}
	if c.Output.ValuesFile == "" {
		c.Output.ValuesFile = filepath.Join(c.Output.Dir, "extracted_pokeking_values.txt")
	}
	if c.Output.CleanFile == "" {
		c.Output.CleanFile = "new_values_to_check.txt"
	}

	if c.Lexicon.Dictionary == "" {
		c.Lexicon.Dictionary = "dictionary.json"
	}
	if len(c.Lexicon.Inputs) == 0 {
		c.Lexicon.Inputs = []string{c.Output.CleanFile}
	}
	if c.Lexicon.Untranslated == "" {
		c.Lexicon.Untranslated = "untranslated_values.txt"
	}
	if c.Lexicon.Uncovered == "" {
		c.Lexicon.Uncovered = "uncovered_values.txt"
	}

	for i := range c.Sinks {
		if c.Sinks[i].Type == "webhook" && c.Sinks[i].Retries == 0 {
			c.Sinks[i].Retries = 3
		}
	}

	if c.Review.Addr == "" {
		c.Review.Addr = "127.0.0.1:8089"
	}
}
