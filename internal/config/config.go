package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration shared by the labdash service and the
// gids2pdf CLI. Values come from a YAML file (CONFIG_PATH or ./config.yaml),
// with secrets overridable through environment variables.
type Config struct {
	Server      Server      `yaml:"server"`
	Limits      Limits      `yaml:"limits"`
	Logger      Logger      `yaml:"logger"`
	Cache       Cache       `yaml:"cache"`
	PDF         PDF         `yaml:"pdf"`
	Odoo        Odoo        `yaml:"odoo"`
	Dashboard   Dashboard   `yaml:"dashboard"`
	Auth        Auth        `yaml:"auth"`
	RateLimiter RateLimiter `yaml:"rate_limiter"`
	Close       Close       `yaml:"close"`
}

type Server struct {
	Host    string `yaml:"host"`
	Port    string `yaml:"port"`
	Prefork bool   `yaml:"prefork"`
}

type Limits struct {
	MaxHTMLBytes int `yaml:"max_html_bytes"`
	MaxPDFBytes  int `yaml:"max_pdf_bytes"`
}

type Logger struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type Cache struct {
	Enabled     bool          `yaml:"enabled"`
	RedisHost   string        `yaml:"redis_host"`
	RateLimitDB int           `yaml:"redis_rate_db"`
	CacheDB     int           `yaml:"redis_cache_db"`
	FastTTL     time.Duration `yaml:"fast_ttl"`
	SlowTTL     time.Duration `yaml:"slow_ttl"`
	StaticTTL   time.Duration `yaml:"static_ttl"`
	ReportTTL   time.Duration `yaml:"report_ttl"`
}

// PaperSize dimensions are in inches, matching Chrome's printToPDF units.
type PaperSize struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type PDF struct {
	DefaultPaper    string               `yaml:"default_paper"`
	PaperSizes      map[string]PaperSize `yaml:"paper_sizes"`
	TimeoutSecs     int                  `yaml:"timeout_secs"`
	ChromePath      string               `yaml:"chrome_path"`
	ChromeNoSandbox bool                 `yaml:"chrome_no_sandbox"`
	ChromePoolSize  int                  `yaml:"chrome_pool_size"`
	UserDataDir     string               `yaml:"user_data_dir"`
}

type Odoo struct {
	URL                  string           `yaml:"url"`
	Database             string           `yaml:"database"`
	UID                  int              `yaml:"uid"`
	APIKey               string           `yaml:"api_key"`
	TimeoutSecs          int              `yaml:"timeout_secs"`
	Companies            map[int64]string `yaml:"companies"`
	IntercompanyPartners []int64          `yaml:"intercompany_partner_ids"`
}

// Dashboard seeds the page session for served dashboard views. The sidebar
// starts expanded unless collapsed explicitly.
type Dashboard struct {
	Title            string `yaml:"title"`
	Icon             string `yaml:"icon"`
	Layout           string `yaml:"layout"`
	SidebarCollapsed bool   `yaml:"sidebar_collapsed"`
}

// Postgres holds discrete connection fields for deployments that do not
// hand us a ready-made DSN.
type Postgres struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type Auth struct {
	PostgresDSN         string        `yaml:"postgres_dsn"`
	Postgres            Postgres      `yaml:"postgres"`
	TokenReloadInterval time.Duration `yaml:"token_reload_interval"`
}

type RateLimiter struct {
	Interval               time.Duration `yaml:"interval"`
	UserLimit              int           `yaml:"user_limit"`
	EnableUserLimiter      bool          `yaml:"enable_user_limiter"`
	EnableTokenRateLimiter bool          `yaml:"enable_token_rate_limiter"`
}

type Close struct {
	Password string `yaml:"password"`
}

// Default returns the built-in configuration used when no file is present.
// The gids2pdf CLI starts from these values and applies flag overrides.
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

// Load reads the configuration from CONFIG_PATH, falling back to
// ./config.yaml. A missing file yields the defaults.
func Load() (Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		cfg.applyEnv()
		return cfg, nil
	}
	return LoadFrom(path)
}

// LoadFrom reads and validates the configuration at the given path.
func LoadFrom(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MustLoad is Load for service mains: configuration problems are fatal at
// startup, not something to limp past.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
	if c.Limits.MaxHTMLBytes == 0 {
		c.Limits.MaxHTMLBytes = 5 * 1024 * 1024
	}
	if c.Limits.MaxPDFBytes == 0 {
		c.Limits.MaxPDFBytes = 20 * 1024 * 1024
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.MaxSizeMB == 0 {
		c.Logger.MaxSizeMB = 10
	}
	if c.Logger.MaxBackups == 0 {
		c.Logger.MaxBackups = 3
	}
	if c.Logger.MaxAgeDays == 0 {
		c.Logger.MaxAgeDays = 7
	}
	if c.Cache.RedisHost == "" {
		c.Cache.RedisHost = "127.0.0.1:6379"
	}
	if c.Cache.CacheDB == 0 {
		c.Cache.CacheDB = 1
	}
	if c.Cache.FastTTL == 0 {
		c.Cache.FastTTL = 5 * time.Minute
	}
	if c.Cache.SlowTTL == 0 {
		c.Cache.SlowTTL = 30 * time.Minute
	}
	if c.Cache.StaticTTL == 0 {
		c.Cache.StaticTTL = time.Hour
	}
	if c.Cache.ReportTTL == 0 {
		c.Cache.ReportTTL = time.Hour
	}
	if c.PDF.DefaultPaper == "" {
		c.PDF.DefaultPaper = "A4"
	}
	if len(c.PDF.PaperSizes) == 0 {
		c.PDF.PaperSizes = map[string]PaperSize{
			"A4":     {Width: 8.27, Height: 11.69},
			"LETTER": {Width: 8.5, Height: 11},
		}
	}
	if c.PDF.TimeoutSecs == 0 {
		c.PDF.TimeoutSecs = 30
	}
	if c.Odoo.TimeoutSecs == 0 {
		c.Odoo.TimeoutSecs = 30
	}
	if len(c.Odoo.Companies) == 0 {
		c.Odoo.Companies = map[int64]string{
			1: "LAB Conceptstore",
			2: "LAB Shops",
			3: "LAB Projects",
		}
	}
	if len(c.Odoo.IntercompanyPartners) == 0 {
		c.Odoo.IntercompanyPartners = []int64{1, 7, 8}
	}
	if c.Dashboard.Title == "" {
		c.Dashboard.Title = "LAB Groep Dashboard"
	}
	if c.Dashboard.Icon == "" {
		c.Dashboard.Icon = "📊"
	}
	if c.Dashboard.Layout == "" {
		c.Dashboard.Layout = "wide"
	}
	if c.Auth.TokenReloadInterval == 0 {
		c.Auth.TokenReloadInterval = time.Minute
	}
	if c.RateLimiter.Interval == 0 {
		c.RateLimiter.Interval = time.Hour
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ODOO_API_KEY"); v != "" {
		c.Odoo.APIKey = v
	}
	if v := os.Getenv("CLOSE_PASSWORD"); v != "" {
		c.Close.Password = v
	}
}

func (c Config) validate() error {
	if len(c.Server.Port) < 2 || c.Server.Port[0] != ':' {
		return fmt.Errorf("config: server.port must look like \":8080\", got %q", c.Server.Port)
	}
	if c.Dashboard.Layout != "centered" && c.Dashboard.Layout != "wide" {
		return fmt.Errorf("config: dashboard.layout must be \"centered\" or \"wide\", got %q", c.Dashboard.Layout)
	}
	if c.PDF.TimeoutSecs <= 0 {
		return fmt.Errorf("config: pdf.timeout_secs must be positive")
	}
	if _, ok := c.PDF.PaperSizes[c.PDF.DefaultPaper]; !ok {
		return fmt.Errorf("config: pdf.default_paper %q is not in pdf.paper_sizes", c.PDF.DefaultPaper)
	}
	if c.PDF.ChromePoolSize < 0 {
		return fmt.Errorf("config: pdf.chrome_pool_size must not be negative")
	}
	if c.Auth.TokenReloadInterval <= 0 {
		return fmt.Errorf("config: auth.token_reload_interval must be positive")
	}
	if c.RateLimiter.Interval <= 0 {
		return fmt.Errorf("config: rate_limiter.interval must be positive")
	}
	if c.RateLimiter.UserLimit < 0 {
		return fmt.Errorf("config: rate_limiter.user_limit must not be negative")
	}
	if c.Odoo.UID < 0 {
		return fmt.Errorf("config: odoo.uid must not be negative")
	}
	return nil
}
