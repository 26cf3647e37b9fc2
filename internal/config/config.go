package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	URL  string `yaml:"url" json:"url"`
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// DisplayConfig is the geometry of the target panel.
type DisplayConfig struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
	// Rotation in degrees. Accepted and passed through; rendering ignores it.
	Rotation int `yaml:"rotation" json:"rotation"`
}

// WeatherConfig configures the OpenWeatherMap One Call client.
type WeatherConfig struct {
	APIKey  string  `yaml:"api_key" json:"-"`
	Lat     float64 `yaml:"lat" json:"lat"`
	Lon     float64 `yaml:"lon" json:"lon"`
	Units   string  `yaml:"units" json:"units"`
	Lang    string  `yaml:"lang" json:"lang"`
	BaseURL string  `yaml:"base_url,omitempty" json:"base_url,omitempty"`
}

// BatteryConfig enables reading a PiSugar style controller over I2C.
type BatteryConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Bus     string `yaml:"bus" json:"bus"`
	Addr    uint16 `yaml:"addr" json:"addr"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the preview server.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
}

// Config is the top-level application configuration.
type Config struct {
	Display DisplayConfig `yaml:"display" json:"display"`

	// MaxLines is the line budget of the event list, one line of which
	// is always kept free.
	MaxLines int `yaml:"max_lines" json:"max_lines"`

	// NumDays is the number of days in the event list.
	NumDays int `yaml:"num_days" json:"num_days"`

	// CalendarDetails lists event summaries that also show an end time.
	CalendarDetails []string `yaml:"calendar_details" json:"calendar_details"`

	// TemplatePath is the dashboard template; the filled document and the
	// default cache image live next to it.
	TemplatePath string `yaml:"template_path" json:"template_path"`

	// CacheImagePath overrides the local screenshot copy location.
	CacheImagePath string `yaml:"cache_image_path,omitempty" json:"cache_image_path,omitempty"`

	// ImagePath is where the screenshot is delivered for the device.
	ImagePath string `yaml:"image_path" json:"image_path"`

	// Timezone is the IANA timezone the dashboard date is taken in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is the daemon's render schedule (robfig/cron syntax).
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Listen is the preview server address. Empty disables it.
	Listen string `yaml:"listen" json:"listen"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	// ChromePath overrides the browser executable.
	ChromePath string `yaml:"chrome_path,omitempty" json:"chrome_path,omitempty"`

	ICS         []ICSConfig `yaml:"ics" json:"ics"`
	ICSCacheDir string      `yaml:"ics_cache_dir" json:"ics_cache_dir"`

	Weather WeatherConfig `yaml:"weather" json:"weather"`
	Battery BatteryConfig `yaml:"battery" json:"battery"`

	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultWidth       = 800
	defaultHeight      = 480
	defaultMaxLines    = 20
	defaultNumDays     = 5
	defaultTemplate    = "./templates/dashboard_template.html"
	defaultImagePath   = "./out/dashboard.png"
	defaultTimezone    = "Europe/Berlin"
	defaultRefreshCron = "0 * * * *"
	defaultListen      = "127.0.0.1:8080"
	defaultLogLevel    = "info"
	defaultICSCacheDir = "./cache/ics"
	defaultUnits       = "metric"
	defaultLang        = "de"
	defaultBatteryAddr = 0x57
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in missing/zero values so partially-filled configs
// still behave.
func (c *Config) Normalize() {
	if c.Display.Width <= 0 {
		c.Display.Width = defaultWidth
	}
	if c.Display.Height <= 0 {
		c.Display.Height = defaultHeight
	}
	if c.MaxLines <= 0 {
		c.MaxLines = defaultMaxLines
	}
	if c.NumDays <= 0 {
		c.NumDays = defaultNumDays
	}
	if c.CalendarDetails == nil {
		c.CalendarDetails = []string{}
	}
	if c.TemplatePath == "" {
		c.TemplatePath = defaultTemplate
	}
	if c.ImagePath == "" {
		c.ImagePath = defaultImagePath
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.ICSCacheDir == "" {
		c.ICSCacheDir = defaultICSCacheDir
	}
	if c.Weather.Units == "" {
		c.Weather.Units = defaultUnits
	}
	if c.Weather.Lang == "" {
		c.Weather.Lang = defaultLang
	}
	if c.Battery.Addr == 0 {
		c.Battery.Addr = defaultBatteryAddr
	}
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist a default config is written there with 0600
// permissions and returned. Otherwise the YAML is decoded and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			cfg.Listen = defaultListen
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".inkdash-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience wrapper around the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
