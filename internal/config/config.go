// Package config loads quill.toml, .env files and QUILL_* environment
// variables into the options of a check pass.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"

	"quill/internal/check"
	"quill/internal/checker"
	"quill/internal/segment"
	"quill/internal/source"
)

// FileName is the name of the project configuration file.
const FileName = "quill.toml"

// DefaultTimeout bounds one checker request.
const DefaultTimeout = 30 * time.Second

// Duration is a time.Duration written as "30s" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	// Path of the file the config was read from, empty for defaults.
	Path string `toml:"-"`

	Server ServerConfig            `toml:"server"`
	Check  CheckConfig             `toml:"check"`
	Nodes  map[string]segment.Rule `toml:"nodes"`
}

type ServerConfig struct {
	URL      string   `toml:"url"`
	Username string   `toml:"username"`
	APIKey   string   `toml:"api_key"`
	Timeout  Duration `toml:"timeout"`
}

type CheckConfig struct {
	Language      string   `toml:"language"`
	MaxChunk      int      `toml:"max_chunk"`
	Jobs          int      `toml:"jobs"`
	Offsets       string   `toml:"offsets"`
	Level         string   `toml:"level"`
	EnabledRules  []string `toml:"enabled_rules"`
	DisabledRules []string `toml:"disabled_rules"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:     checker.DefaultServerURL,
			Timeout: Duration{DefaultTimeout},
		},
		Check: CheckConfig{
			Language: "auto",
			MaxChunk: segment.DefaultMaxChunk,
			Jobs:     check.DefaultJobs,
			Offsets:  source.UnitCodepoint.String(),
		},
	}
}

// Find walks up from startDir looking for quill.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load reads the file at path over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("server", "url") && strings.TrimSpace(cfg.Server.URL) == "" {
		return nil, fmt.Errorf("%s: [server].url is empty", path)
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover loads the nearest quill.toml above startDir, or the defaults.
func Discover(startDir string) (*Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// LoadDotEnv loads dir/.env into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides settings from QUILL_* variables. lookup is usually
// os.Getenv.
func (c *Config) ApplyEnv(lookup func(string) string) error {
	get := func(key string) string { return strings.TrimSpace(lookup(key)) }
	c.Server.URL = firstNonEmpty(get("QUILL_SERVER_URL"), c.Server.URL)
	c.Server.Username = firstNonEmpty(get("QUILL_USERNAME"), c.Server.Username)
	c.Server.APIKey = firstNonEmpty(get("QUILL_API_KEY"), c.Server.APIKey)
	c.Check.Language = firstNonEmpty(get("QUILL_LANGUAGE"), c.Check.Language)
	if raw := get("QUILL_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("QUILL_TIMEOUT: %w", err)
		}
		c.Server.Timeout = Duration{d}
	}
	if raw := get("QUILL_JOBS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("QUILL_JOBS: %w", err)
		}
		c.Check.Jobs = n
	}
	return c.Validate()
}

// Validate checks values and canonicalises the language tag.
func (c *Config) Validate() error {
	lang, err := NormalizeLanguage(c.Check.Language)
	if err != nil {
		return err
	}
	c.Check.Language = lang
	if c.Check.MaxChunk < 0 {
		return fmt.Errorf("[check].max_chunk must not be negative")
	}
	if c.Check.Jobs < 0 {
		return fmt.Errorf("[check].jobs must not be negative")
	}
	if _, err := source.ParseUnit(c.Check.Offsets); err != nil {
		return fmt.Errorf("[check].offsets: %w", err)
	}
	if !slices.Contains([]string{"", "default", "picky"}, c.Check.Level) {
		return fmt.Errorf("[check].level must be \"default\" or \"picky\", got %q", c.Check.Level)
	}
	if c.Server.Timeout.Duration < 0 {
		return fmt.Errorf("[server].timeout must not be negative")
	}
	if _, err := segment.NewRules(c.Nodes); err != nil {
		return fmt.Errorf("[nodes]: %w", err)
	}
	return nil
}

// NormalizeLanguage returns the canonical BCP 47 form of tag. An empty tag
// and "auto" select language detection.
func NormalizeLanguage(tag string) (string, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" || strings.EqualFold(tag, "auto") {
		return "auto", nil
	}
	t, err := language.Parse(tag)
	if err != nil {
		return "", fmt.Errorf("invalid language %q: %w", tag, err)
	}
	return t.String(), nil
}

// Unit returns how checker offsets are counted.
func (c *Config) Unit() source.Unit {
	u, _ := source.ParseUnit(c.Check.Offsets)
	return u
}

// Client builds the checker client for the configured server.
func (c *Config) Client() *checker.Client {
	return checker.NewClient(c.Server.URL,
		checker.WithTimeout(c.Server.Timeout.Duration),
		checker.WithCredentials(c.Server.Username, c.Server.APIKey),
	)
}

// CheckOptions returns the coordinator options.
func (c *Config) CheckOptions() (check.Options, error) {
	rules, err := segment.NewRules(c.Nodes)
	if err != nil {
		return check.Options{}, err
	}
	return check.Options{
		Rules:         rules,
		MaxChunk:      c.Check.MaxChunk,
		Unit:          c.Unit(),
		Language:      c.Check.Language,
		Level:         c.Check.Level,
		EnabledRules:  c.Check.EnabledRules,
		DisabledRules: c.Check.DisabledRules,
		Jobs:          c.Check.Jobs,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
