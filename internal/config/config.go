package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Vision   VisionConfig   `yaml:"vision"`
	Tracking TrackingConfig `yaml:"tracking"`
	Engine   EngineConfig   `yaml:"engine"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

// StorageConfig selects the catalog backend and local artifact directories.
type StorageConfig struct {
	// Backend is "file" (JSON catalog + local faces dir) or "postgres".
	Backend    string `yaml:"backend"`
	DataFile   string `yaml:"data_file"`
	FacesDir   string `yaml:"faces_dir"`
	UploadsDir string `yaml:"uploads_dir"`
	OutputDir  string `yaml:"output_dir"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type NATSConfig struct {
	// URL empty disables event publishing.
	URL string `yaml:"url"`
}

type MinIOConfig struct {
	// Enabled switches face artifacts from the local faces dir to MinIO.
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type VisionConfig struct {
	ModelsDir          string  `yaml:"models_dir"`
	DetectionThreshold float64 `yaml:"detection_threshold"`
	// Padding is added on every side of a tracked box before cropping.
	Padding int `yaml:"padding"`
}

type TrackingConfig struct {
	// MaxAge is the number of consecutive missed frames before a track is retired.
	MaxAge int `yaml:"max_age"`
	// MinHits is the number of sightings before a track is confirmed.
	MinHits int `yaml:"min_hits"`
}

type EngineConfig struct {
	// StabilizeWindow is the number of recent attribute predictions the
	// majority vote runs over.
	StabilizeWindow int `yaml:"stabilize_window"`
	// MatchThreshold is the minimum appearance similarity for a new track
	// to be resolved to an existing catalogued person.
	MatchThreshold float64 `yaml:"match_threshold"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

// Default returns a config with defaults applied and no file read.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "file"
	}
	if cfg.Storage.DataFile == "" {
		cfg.Storage.DataFile = "data/detections.json"
	}
	if cfg.Storage.FacesDir == "" {
		cfg.Storage.FacesDir = "data/faces"
	}
	if cfg.Storage.UploadsDir == "" {
		cfg.Storage.UploadsDir = "data/uploads"
	}
	if cfg.Storage.OutputDir == "" {
		cfg.Storage.OutputDir = "data/outputs"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Vision.ModelsDir == "" {
		cfg.Vision.ModelsDir = "models"
	}
	if cfg.Vision.DetectionThreshold == 0 {
		cfg.Vision.DetectionThreshold = 0.5
	}
	if cfg.Vision.Padding == 0 {
		cfg.Vision.Padding = 20
	}
	if cfg.Tracking.MaxAge == 0 {
		cfg.Tracking.MaxAge = 5
	}
	if cfg.Tracking.MinHits == 0 {
		cfg.Tracking.MinHits = 1
	}
	if cfg.Engine.StabilizeWindow == 0 {
		cfg.Engine.StabilizeWindow = 3
	}
	if cfg.Engine.MatchThreshold == 0 {
		cfg.Engine.MatchThreshold = 0.85
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FACECAT_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FACECAT_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("FACECAT_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("FACECAT_DATA_FILE"); v != "" {
		cfg.Storage.DataFile = v
	}
	if v := os.Getenv("FACECAT_FACES_DIR"); v != "" {
		cfg.Storage.FacesDir = v
	}
	if v := os.Getenv("FACECAT_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("FACECAT_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("FACECAT_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("FACECAT_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("FACECAT_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("FACECAT_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("FACECAT_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
		cfg.MinIO.Enabled = true
	}
	if v := os.Getenv("FACECAT_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("FACECAT_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("FACECAT_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("FACECAT_MODELS_DIR"); v != "" {
		cfg.Vision.ModelsDir = v
	}
}
