package engine

import (
	"log"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReadConfigFile loads a YAML config file, expanding environment variables
// first so EnvVars can override file contents (spec.md §6, "Environment
// variables override config file"), exactly as the teacher's
// engine.ReadConfigFile does for its static site config.
func ReadConfigFile(configFile string) *Config {
	yamlData, err := os.ReadFile(configFile)
	if err != nil {
		log.Fatalf("failed to read config file %v", err)
	}

	yamlData = []byte(os.ExpandEnv(string(yamlData)))

	var result *Config
	if err := yaml.Unmarshal(yamlData, &result); err != nil {
		log.Fatalf("failed to unmarshal config file %v", err)
	}
	if result.Limits.DefaultLimit <= 0 {
		result.Limits.DefaultLimit = 10
	}
	if result.Limits.MaxLimit <= 0 {
		result.Limits.MaxLimit = 10_000
	}
	return result
}

// Config carries the non-API-specific substrate configuration: title,
// abstract, base URL, database URL, optional object store and pagination
// limits, generalized from the teacher's
// OgcAPI-family-of-static-collections Config to the dynamic backend this
// system exposes. Host, port and the OpenAPI file are not part of Config;
// they come from command-line flags (see main.go).
type Config struct {
	Title       string        `yaml:"title"`
	Abstract    string        `yaml:"abstract"`
	BaseURL     YAMLURL       `yaml:"baseUrl"`
	DatabaseURL string        `yaml:"databaseUrl"`
	ObjectStore *ObjectStore  `yaml:"objectStore"`
	Limits      Limits        `yaml:"limits"`
}

// Limits bounds query pagination (spec.md §4.2, "limit clamped to [1,
// IMPL_MAX] (a configurable ceiling, default 10 000 for search)").
type Limits struct {
	DefaultLimit int `yaml:"defaultLimit"`
	MaxLimit     int `yaml:"maxLimit"`
}

// ObjectStore configures the alternate object-store backend (C6), mirrored
// from objectstore.Config so the config file can select it without the
// engine package importing the objectstore package directly.
type ObjectStore struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"accessKeyId"`
	SecretAccessKey string `yaml:"secretAccessKey"`
}

// YAMLURL parses a config string into a *url.URL, stripping any trailing
// slash so handlers can append a path without double slashes, unchanged
// from the teacher's engine.YAMLURL.
type YAMLURL struct {
	*url.URL
}

func (j *YAMLURL) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsedURL, err := url.ParseRequestURI(strings.TrimSuffix(s, "/"))
	j.URL = parsedURL
	return err
}
