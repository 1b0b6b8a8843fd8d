package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel      int    `yaml:"log_level"`
	FileExtension string `yaml:"file_extension"`
	DataDir       string `yaml:"data_dir"`
	TempDir       string `yaml:"temp_dir"`

	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Registry RegistryConfig `yaml:"registry"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type StorageConfig struct {
	// Type of storage: "local" or "gcs"
	Type string `yaml:"type"`

	// Local storage options
	OutputDir string `yaml:"output_dir"`

	// GCS storage options
	Bucket          string `yaml:"bucket"`
	ObjectPrefix    string `yaml:"object_prefix"`
	CredentialsFile string `yaml:"credentials_file"`
}

type FetchConfig struct {
	UserAgent      string     `yaml:"user_agent"`
	TimeoutMinutes int        `yaml:"timeout_minutes"`
	Auth           AuthConfig `yaml:"auth"`
}

type AuthConfig struct {
	// Type of authentication: "none", "basic" or "bearer"
	Type     string `yaml:"type"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Token    string `yaml:"token"`
}

type RegistryConfig struct {
	URL string `yaml:"url"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config *Config

	// Unmarshal the YAML data into the struct
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}

	if config == nil {
		config = &Config{}
	}

	config.applyDefaults()

	return config, nil
}

// Default returns a configuration with every default applied, for use when
// no config file is given.
func Default() *Config {
	config := &Config{}
	config.applyDefaults()
	return config
}

func (c *Config) applyDefaults() {
	if c.FileExtension == "" {
		c.FileExtension = "mp3"
	}

	if c.DataDir == "" {
		c.DataDir = "data"
	}

	if c.TempDir == "" {
		c.TempDir = "tmp"
	}

	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}

	if c.Storage.Type == "" {
		c.Storage.Type = "local"
	}

	if c.Storage.OutputDir == "" {
		c.Storage.OutputDir = "output"
	}

	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = "audiotoc"
	}

	if c.Fetch.TimeoutMinutes == 0 {
		c.Fetch.TimeoutMinutes = 30
	}

	if c.Registry.URL == "" {
		c.Registry.URL = "https://registry.thepalaceproject.org"
	}
}
