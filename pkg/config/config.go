package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override the file when set.
const (
	EnvDatasetSource = "ADIS_DATASET_SOURCE"
	EnvServerAddress = "ADIS_SERVER_ADDRESS"
)

// Config holds the application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Request   RequestConfig   `yaml:"request"`
	Globe     GlobeConfig     `yaml:"globe"`
	Animation AnimationConfig `yaml:"animation"`
	Data      DataConfig      `yaml:"data"`
	Cities    CitiesConfig    `yaml:"cities"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// RequestConfig holds HTTP request settings.
type RequestConfig struct {
	Attempts int           `yaml:"attempts"`
	Timeout  Duration      `yaml:"timeout"`
	Backoff  BackoffConfig `yaml:"backoff"`
}

// BackoffConfig holds exponential backoff settings.
type BackoffConfig struct {
	BaseDelay Duration `yaml:"base_delay"`
	MaxDelay  Duration `yaml:"max_delay"`
}

// GlobeConfig holds scene and camera settings.
type GlobeConfig struct {
	Radius          float64        `yaml:"radius"`
	CameraDistance  float64        `yaml:"camera_distance"`
	FOV             float64        `yaml:"fov"`
	MinDistance     float64        `yaml:"min_distance"`
	MaxDistance     float64        `yaml:"max_distance"`
	AutoRotateSpeed float64        `yaml:"auto_rotate_speed"`
	Damping         bool           `yaml:"damping"`
	DampingFactor   float64        `yaml:"damping_factor"`
	FrameRate       int            `yaml:"frame_rate"`
	Background      string         `yaml:"background"`
	Textures        TexturesConfig `yaml:"textures"`
	Surface         SurfaceConfig  `yaml:"surface"`
}

// TexturesConfig holds the globe texture URLs.
type TexturesConfig struct {
	Map      string `yaml:"map"`
	Bump     string `yaml:"bump"`
	Specular string `yaml:"specular"`
}

// SurfaceConfig is the initial size of the headless drawing surface.
type SurfaceConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// AnimationConfig holds camera fly-to settings.
type AnimationConfig struct {
	FlyDuration Duration `yaml:"fly_duration"`
	FlyDistance float64  `yaml:"fly_distance"`
	FlyOnSelect bool     `yaml:"fly_on_select"`
}

// DataConfig holds pollution dataset settings.
type DataConfig struct {
	Source        string   `yaml:"source"`
	RenderBudget  int      `yaml:"render_budget"`
	SeverityScale float64  `yaml:"severity_scale"`
	FetchTimeout  Duration `yaml:"fetch_timeout"`
	// WatchInterval polls a local source for changes. Zero disables it.
	WatchInterval Duration `yaml:"watch_interval"`
}

// CitiesConfig points at the city marker list.
type CitiesConfig struct {
	Path string `yaml:"path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
		Server: ServerConfig{
			Address: "localhost:1930",
		},
		Request: RequestConfig{
			Attempts: 1,
			Timeout:  Duration(60 * time.Second),
			Backoff: BackoffConfig{
				BaseDelay: Duration(1 * time.Second),
				MaxDelay:  Duration(60 * time.Second),
			},
		},
		Globe: GlobeConfig{
			Radius:          100,
			CameraDistance:  320,
			FOV:             45,
			MinDistance:     140,
			MaxDistance:     450,
			AutoRotateSpeed: 0.35,
			Damping:         true,
			DampingFactor:   0.05,
			FrameRate:       60,
			Background:      "#0a0e1a",
			Textures: TexturesConfig{
				Map:      "https://threejs.org/examples/textures/land_ocean_ice_cloud_2048.jpg",
				Bump:     "https://threejs.org/examples/textures/earthbump1k.jpg",
				Specular: "https://threejs.org/examples/textures/earthspec1k.jpg",
			},
			Surface: SurfaceConfig{
				Width:  1280,
				Height: 720,
			},
		},
		Animation: AnimationConfig{
			FlyDuration: Duration(900 * time.Millisecond),
			FlyDistance: 260,
			FlyOnSelect: true,
		},
		Data: DataConfig{
			Source:        "./data/fused_data.json",
			RenderBudget:  20000,
			SeverityScale: 5e16,
			FetchTimeout:  Duration(30 * time.Second),
			WatchInterval: Duration(5 * time.Second),
		},
		Cities: CitiesConfig{
			Path: "./configs/cities.yaml",
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT save back to disk (to preserve user formatting and comments).
// Environment overrides are applied last and never written back.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		// If file does not exist, save defaults
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvDatasetSource); v != "" {
		cfg.Data.Source = v
	}
	if v := os.Getenv(EnvServerAddress); v != "" {
		cfg.Server.Address = v
	}
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Validate rejects settings the globe cannot run with.
func (c *Config) Validate() error {
	g := c.Globe
	if g.Radius <= 0 {
		return fmt.Errorf("globe.radius must be positive, got %v", g.Radius)
	}
	if g.MinDistance <= g.Radius {
		return fmt.Errorf("globe.min_distance (%v) must exceed the radius (%v)", g.MinDistance, g.Radius)
	}
	if g.MaxDistance < g.MinDistance {
		return fmt.Errorf("globe.max_distance (%v) is below min_distance (%v)", g.MaxDistance, g.MinDistance)
	}
	if g.CameraDistance < g.MinDistance || g.CameraDistance > g.MaxDistance {
		return fmt.Errorf("globe.camera_distance (%v) outside [%v, %v]", g.CameraDistance, g.MinDistance, g.MaxDistance)
	}
	if !hexColor.MatchString(g.Background) {
		return fmt.Errorf("invalid globe.background '%s': must be '#rrggbb'", g.Background)
	}
	if c.Data.RenderBudget <= 0 {
		return fmt.Errorf("data.render_budget must be positive, got %d", c.Data.RenderBudget)
	}
	if c.Data.FetchTimeout <= 0 {
		return fmt.Errorf("data.fetch_timeout must be positive, got %v", c.Data.FetchTimeout)
	}
	if c.Request.Attempts < 1 {
		return fmt.Errorf("request.attempts must be at least 1, got %d", c.Request.Attempts)
	}
	return nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# adisglobe Configuration
# -----------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
# Environment overrides: ` + EnvDatasetSource + `, ` + EnvServerAddress + `

`)
	data = append(header, data...)

	// Inject comments for fields whose meaning is not obvious from the key.
	reSource := regexp.MustCompile(`(?m)^(\s+)source:`)
	data = reSource.ReplaceAll(data, []byte("${1}# Local path, file:// or http(s) URL of the sample JSON array\n${1}source:"))

	reSpeed := regexp.MustCompile(`(?m)^(\s+)auto_rotate_speed:`)
	data = reSpeed.ReplaceAll(data, []byte("${1}# Revolutions per minute\n${1}auto_rotate_speed:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return nil // File exists, do nothing
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write default config
	return Save(path, DefaultConfig())
}
