// Package config loads service configuration with viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/joeblew999/plat-claimmap/internal/geocode"
	"github.com/joeblew999/plat-claimmap/internal/staticmap"
)

// Default map viewport.
var (
	DefaultCenter = []float64{33.645003281720776, -117.93291469288867}
	DefaultZoom   = 18.0
)

// MapConfig is the initial viewport of new projects.
type MapConfig struct {
	Center []float64 `mapstructure:"center"`
	Zoom   float64   `mapstructure:"zoom"`
}

// LatLng returns the center as a pair.
func (m MapConfig) LatLng() [2]float64 {
	return [2]float64{m.Center[0], m.Center[1]}
}

// TilesConfig selects tile styles and how they are fetched.
type TilesConfig struct {
	Default   string            `mapstructure:"default"`
	Styles    []staticmap.Style `mapstructure:"styles"`
	Timeout   time.Duration     `mapstructure:"timeout"`
	UserAgent string            `mapstructure:"userAgent"`
	Workers   int               `mapstructure:"workers"`
}

// Catalog returns the configured styles.
func (t TilesConfig) Catalog() staticmap.Catalog {
	return staticmap.Catalog(t.Styles)
}

// GeocoderConfig points at the address search service.
type GeocoderConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ReportConfig controls PDF assembly and caching.
type ReportConfig struct {
	FontDir      string        `mapstructure:"fontDir"`
	FontFamily   string        `mapstructure:"fontFamily"`
	BannerPath   string        `mapstructure:"bannerPath"`
	Organization string        `mapstructure:"organization"`
	CacheTTL     time.Duration `mapstructure:"cacheTTL"`
	CacheSize    int           `mapstructure:"cacheSize"`
	Width        int           `mapstructure:"width"`
	Height       int           `mapstructure:"height"`
}

// Config is the full service configuration.
type Config struct {
	LogLevel  string         `mapstructure:"logLevel"`
	LogFormat string         `mapstructure:"logFormat"`
	DataDir   string         `mapstructure:"dataDir"`
	Map       MapConfig      `mapstructure:"map"`
	Tiles     TilesConfig    `mapstructure:"tiles"`
	Geocoder  GeocoderConfig `mapstructure:"geocoder"`
	Report    ReportConfig   `mapstructure:"report"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("logFormat", "console")
	v.SetDefault("dataDir", "")

	v.SetDefault("map.center", DefaultCenter)
	v.SetDefault("map.zoom", DefaultZoom)

	styles := make([]map[string]any, 0, 4)
	for _, s := range staticmap.DefaultCatalog() {
		styles = append(styles, map[string]any{"name": s.Name, "url": s.URL})
	}
	v.SetDefault("tiles.default", staticmap.DefaultStyleName)
	v.SetDefault("tiles.styles", styles)
	v.SetDefault("tiles.timeout", "10s")
	v.SetDefault("tiles.userAgent", "claimmap/1.0")
	v.SetDefault("tiles.workers", 4)

	v.SetDefault("geocoder.url", geocode.DefaultURL)
	v.SetDefault("geocoder.timeout", "10s")

	v.SetDefault("report.fontDir", "assets/fonts")
	v.SetDefault("report.fontFamily", "Aptos")
	v.SetDefault("report.bannerPath", "assets/banner.png")
	v.SetDefault("report.organization", "Boardwalk Investments Group")
	v.SetDefault("report.cacheTTL", "5m")
	v.SetDefault("report.cacheSize", 32)
	v.SetDefault("report.width", staticmap.DefaultWidth)
	v.SetDefault("report.height", staticmap.DefaultHeight)
}

// Load reads configuration. An empty path uses defaults and environment
// variables (CLAIMMAP_LOGLEVEL, CLAIMMAP_REPORT_FONTDIR, ...) only; a path
// that cannot be read is an error.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("claimmap")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration with no file or environment overrides.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}

// Validate checks the values the service cannot start without.
func (c Config) Validate() error {
	var errs []error
	if len(c.Map.Center) != 2 {
		errs = append(errs, fmt.Errorf("map.center must be [lat, lng], got %v", c.Map.Center))
	} else if c.Map.Center[0] < -90 || c.Map.Center[0] > 90 || c.Map.Center[1] < -180 || c.Map.Center[1] > 180 {
		errs = append(errs, fmt.Errorf("map.center %v out of range", c.Map.Center))
	}
	if c.Map.Zoom < 0 || c.Map.Zoom > 22 {
		errs = append(errs, fmt.Errorf("map.zoom %v out of range", c.Map.Zoom))
	}
	if len(c.Tiles.Styles) == 0 {
		errs = append(errs, errors.New("tiles.styles is empty"))
	}
	for _, s := range c.Tiles.Styles {
		if err := staticmap.ValidateTemplate(s.URL); err != nil {
			errs = append(errs, fmt.Errorf("tiles.styles %q: %w", s.Name, err))
		}
	}
	if _, ok := c.Tiles.Catalog().Lookup(c.Tiles.Default); !ok {
		errs = append(errs, fmt.Errorf("tiles.default %q is not a configured style", c.Tiles.Default))
	}
	return errors.Join(errs...)
}
