package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"

	qhttp "housepricing/http"
	"housepricing/logging"
	"housepricing/ml"
)

type Config struct {
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
		MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	} `yaml:"http"`
	Dataset struct {
		Path string `yaml:"path"`
	} `yaml:"dataset"`
	Model struct {
		Type string `yaml:"type"`
		Path string `yaml:"path"`
	} `yaml:"model"`
	Registry struct {
		Path string `yaml:"path"`
	} `yaml:"registry"`
	Log logging.Config `yaml:"log"`
}

func defaultConfig() *Config {
	server := qhttp.DefaultServerConfig()

	var config Config
	config.Http.Port = server.Port
	config.Http.Timeout = server.Timeout
	config.Http.AllowedOrigins = server.AllowedOrigins
	config.Http.MaxBodyBytes = server.MaxBodyBytes
	config.Dataset.Path = "data/boston.csv"
	config.Model.Type = ml.GradientBoostingType
	config.Model.Path = "boston_model_gb.json"
	config.Log = logging.DefaultConfig()
	return &config
}

// resolveConfigPath looks in the working directory first, then its parent,
// so the server can be started from cmd/ as well as the repository root.
func resolveConfigPath(path string) string {
	if _, err := os.Stat(path); err == nil || filepath.IsAbs(path) {
		return path
	}
	parent := filepath.Join("..", path)
	if _, err := os.Stat(parent); err == nil {
		return parent
	}
	return path
}

// loadConfig reads path over the defaults. A missing file leaves the
// defaults in place. Relative paths in the file are taken relative to it.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, applyEnv(config)
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	base := filepath.Dir(path)
	config.Dataset.Path = relativeTo(base, config.Dataset.Path)
	config.Model.Path = relativeTo(base, config.Model.Path)
	config.Registry.Path = relativeTo(base, config.Registry.Path)
	config.Log.File = relativeTo(base, config.Log.File)

	return config, applyEnv(config)
}

func applyEnv(config *Config) error {
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		config.Http.Port = p
	}
	return nil
}

func relativeTo(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func (c *Config) serverConfig() qhttp.ServerConfig {
	return qhttp.ServerConfig{
		Port:           c.Http.Port,
		Timeout:        c.Http.Timeout,
		AllowedOrigins: c.Http.AllowedOrigins,
		MaxBodyBytes:   c.Http.MaxBodyBytes,
	}
}
