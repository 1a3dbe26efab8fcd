package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Models ModelsConfig `yaml:"models"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	FrontendDir string `yaml:"frontend_dir"`
	OpenBrowser bool   `yaml:"open_browser"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
}

type ModelsConfig struct {
	Dir        string `yaml:"dir"`
	Language   string `yaml:"language"`
	WhisperBin string `yaml:"whisper_bin"`
	FFmpegBin  string `yaml:"ffmpeg_bin"`
	BeamSize   int    `yaml:"beam_size"`
	Threads    int    `yaml:"threads"`
	ScratchDir string `yaml:"scratch_dir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":5000"
	}
	if c.Server.FrontendDir == "" {
		c.Server.FrontendDir = "./frontend"
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 50
	}
	if c.Models.Dir == "" {
		c.Models.Dir = "./models"
	}
	if c.Models.Language == "" {
		c.Models.Language = "id"
	}
	if c.Models.WhisperBin == "" {
		c.Models.WhisperBin = "whisper-cli"
	}
	if c.Models.FFmpegBin == "" {
		c.Models.FFmpegBin = "ffmpeg"
	}
	if c.Models.BeamSize == 0 {
		c.Models.BeamSize = 5
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// MaxUploadBytes converts the configured upload limit to bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB << 20
}
