package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "adisglobe.yaml")

	tests := []struct {
		name          string
		setup         func(*testing.T)
		validate      func(*testing.T, *Config)
		checkFile     func(*testing.T)
		expectedError bool
	}{
		{
			name:  "NewFile_Defaults",
			setup: func(*testing.T) {}, // No file
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Globe.Radius != 100 {
					t.Errorf("expected default radius 100, got %v", cfg.Globe.Radius)
				}
				if time.Duration(cfg.Animation.FlyDuration) != 900*time.Millisecond {
					t.Errorf("expected fly duration 900ms, got %v", time.Duration(cfg.Animation.FlyDuration))
				}
				if cfg.Request.Attempts != 1 {
					t.Errorf("expected a single request attempt, got %d", cfg.Request.Attempts)
				}
			},
			checkFile: func(t *testing.T) {
				content, err := os.ReadFile(configPath)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}
				if !strings.Contains(string(content), "render_budget: 20000") {
					t.Error("config file missing default values")
				}
				if !strings.Contains(string(content), "# Revolutions per minute") {
					t.Error("config file missing injected comment")
				}
			},
		},
		{
			name: "ExistingFile_Override",
			setup: func(t *testing.T) {
				err := os.WriteFile(configPath, []byte("globe:\n  frame_rate: 30\nanimation:\n  fly_duration: 1.5s\ndata:\n  render_budget: 500\n"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Globe.FrameRate != 30 {
					t.Errorf("expected frame rate 30, got %d", cfg.Globe.FrameRate)
				}
				if time.Duration(cfg.Animation.FlyDuration) != 1500*time.Millisecond {
					t.Errorf("expected fly duration 1.5s, got %v", time.Duration(cfg.Animation.FlyDuration))
				}
				if cfg.Data.RenderBudget != 500 {
					t.Errorf("expected budget 500, got %d", cfg.Data.RenderBudget)
				}
				// Untouched sections keep their defaults.
				if cfg.Globe.CameraDistance != 320 {
					t.Errorf("expected camera distance 320, got %v", cfg.Globe.CameraDistance)
				}
			},
			checkFile: func(t *testing.T) {
				content, err := os.ReadFile(configPath)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}
				if strings.Contains(string(content), "camera_distance") {
					t.Error("existing config file should not be rewritten")
				}
			},
		},
		{
			name: "Env_Override",
			setup: func(t *testing.T) {
				t.Setenv(EnvDatasetSource, "https://data.example.org/fused.json")
				t.Setenv(EnvServerAddress, "0.0.0.0:9000")
				err := os.WriteFile(configPath, []byte("data:\n  source: ./local.json\n"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Data.Source != "https://data.example.org/fused.json" {
					t.Errorf("expected env dataset source, got '%s'", cfg.Data.Source)
				}
				if cfg.Server.Address != "0.0.0.0:9000" {
					t.Errorf("expected env address, got '%s'", cfg.Server.Address)
				}
			},
			checkFile: func(t *testing.T) {
				// Env overrides should NOT be saved to disk
				content, err := os.ReadFile(configPath)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}
				if strings.Contains(string(content), "data.example.org") {
					t.Error("environment override should NOT be persisted to config file")
				}
			},
		},
		{
			name: "Invalid_YAML",
			setup: func(t *testing.T) {
				err := os.WriteFile(configPath, []byte("globe: [not a map]"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			expectedError: true,
		},
		{
			name: "Invalid_Duration",
			setup: func(t *testing.T) {
				err := os.WriteFile(configPath, []byte("animation:\n  fly_duration: soon\n"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			expectedError: true,
		},
		{
			name: "Invalid_ZoomBounds",
			setup: func(t *testing.T) {
				err := os.WriteFile(configPath, []byte("globe:\n  min_distance: 90\n"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			expectedError: true,
		},
		{
			name: "Invalid_Background",
			setup: func(t *testing.T) {
				err := os.WriteFile(configPath, []byte("globe:\n  background: navy\n"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Each case starts from a clean file.
			os.Remove(configPath)
			tt.setup(t)

			cfg, err := Load(configPath)
			if (err != nil) != tt.expectedError {
				t.Fatalf("Load() error = %v, expectedError %v", err, tt.expectedError)
			}
			if err == nil {
				tt.validate(t, cfg)
				tt.checkFile(t)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cfg.yaml")
	cfg := DefaultConfig()
	cfg.Globe.AutoRotateSpeed = 1.25
	cfg.Data.Source = "file:///srv/fused.json"

	if err := GenerateDefault(path); err != nil {
		t.Fatalf("GenerateDefault() error = %v", err)
	}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Globe.AutoRotateSpeed != 1.25 || got.Data.Source != cfg.Data.Source {
		t.Errorf("round trip lost values: %+v %+v", got.Globe, got.Data)
	}
	if got.Globe.Textures != cfg.Globe.Textures {
		t.Errorf("textures = %+v", got.Globe.Textures)
	}
}

func TestGenerateDefault(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "default_config.yaml")

	err := GenerateDefault(configPath)
	if err != nil {
		t.Fatalf("GenerateDefault() error = %v", err)
	}

	// Verify file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("GenerateDefault() did not create file")
	}

	// Running again should not fail
	err = GenerateDefault(configPath)
	if err != nil {
		t.Errorf("GenerateDefault() error on second run = %v", err)
	}
}
