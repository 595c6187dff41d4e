package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/vitrine/internal/exhibition"
	"github.com/starford/vitrine/internal/portfolio"
	"github.com/starford/vitrine/internal/upload"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Store drivers.
const (
	StoreDriverSQLite = "sqlite"
	StoreDriverFS     = "fs"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Store      StoreConfig       `yaml:"store"`
	Catalog    CatalogConfig     `yaml:"catalog"`
	Upload     UploadConfig      `yaml:"upload"`
	Exhibition ExhibitionConfig  `yaml:"exhibition"`
	SSE        SSEConfig         `yaml:"sse"`
	Auth       AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Upload.Validate(); err != nil {
		return err
	}
	if err := c.Exhibition.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// Portfolio returns the service configuration derived from c.
func (c *Config) Portfolio() portfolio.Config {
	return portfolio.Config{
		Exhibition: exhibition.Config{AssumedHeight: c.Exhibition.AssumedHeightPercent},
		Upload: upload.Config{
			MaxWidth:  c.Upload.MaxWidth,
			MaxHeight: c.Upload.MaxHeight,
			Quality:   c.Upload.Quality,
			Format:    c.Upload.Format,
			MaxBytes:  c.Upload.MaxBytes,
		},
	}
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	// LogFile, when set, receives a rotated copy of the JSON log.
	LogFile string     `yaml:"log_file"`
	HTTP    HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig selects the key/value backend.
//
// Driver "sqlite" stores every key in the database at Path; driver "fs"
// writes one JSON file per key under Dir.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	Dir    string `yaml:"dir"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = StoreDriverSQLite
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(StoreDriverSQLite, StoreDriverFS)),
		validation.Field(&c.Path, validation.When(c.Driver == StoreDriverSQLite, validation.Required)),
		validation.Field(&c.Dir, validation.When(c.Driver == StoreDriverFS, validation.Required)),
	)
}

// CatalogConfig points at an optional YAML catalog file. Without a path the
// built-in works are used.
type CatalogConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// UploadConfig is the downscale and encode policy for uploaded images.
type UploadConfig struct {
	MaxWidth  int    `yaml:"max_width"`
	MaxHeight int    `yaml:"max_height"`
	Quality   int    `yaml:"quality"`
	Format    string `yaml:"format"`
	MaxBytes  int64  `yaml:"max_bytes"`
}

// Validate validates the upload configuration.
func (c *UploadConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxWidth, validation.Min(1)),
		validation.Field(&c.MaxHeight, validation.Min(1)),
		validation.Field(&c.Quality, validation.Min(1), validation.Max(100)),
		validation.Field(&c.Format, validation.In(upload.FormatJPEG, upload.FormatPNG)),
		validation.Field(&c.MaxBytes, validation.Min(int64(1))),
	)
}

// ExhibitionConfig holds canvas settings.
type ExhibitionConfig struct {
	AssumedHeightPercent float64 `yaml:"assumed_height_percent"`
}

// Validate validates the exhibition configuration.
func (c *ExhibitionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.AssumedHeightPercent, validation.Min(0.0), validation.Max(99.0)),
	)
}

// SSEConfig holds event stream settings.
type SSEConfig struct {
	// SidebarThrottle bounds how often sidebar refresh events are sent.
	SidebarThrottle time.Duration `yaml:"sidebar_throttle"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	up := upload.DefaultConfig()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Driver: StoreDriverSQLite,
			Path:   "./vitrine.db",
			Dir:    "./data",
		},
		Upload: UploadConfig{
			MaxWidth:  up.MaxWidth,
			MaxHeight: up.MaxHeight,
			Quality:   up.Quality,
			Format:    up.Format,
			MaxBytes:  up.MaxBytes,
		},
		Exhibition: ExhibitionConfig{
			AssumedHeightPercent: exhibition.DefaultAssumedHeight,
		},
		SSE: SSEConfig{
			SidebarThrottle: time.Second,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
