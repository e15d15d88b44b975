// Package config loads pipeline configuration from defaults, an optional
// YAML file and environment variables, in that precedence order.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete configuration of the pipeline.
type Config struct {
	OutputDir string        `yaml:"output_dir" env:"WORKFLOW_OUTPUT_DIR"`
	CacheDir  string        `yaml:"cache_dir" env:"WORKFLOW_CACHE_DIR"`
	Logging   LoggingConfig `yaml:"logging"`
	Apify     ApifyConfig   `yaml:"apify"`
	OpenAI    OpenAIConfig  `yaml:"openai"`
	Search    SearchConfig  `yaml:"search"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level     string `yaml:"level" env:"LOG_LEVEL"`
	Format    string `yaml:"format" env:"WORKFLOW_LOG_FORMAT"`
	MaxSizeMB int    `yaml:"max_size_mb" env:"WORKFLOW_LOG_MAX_SIZE_MB"`
}

// ApifyConfig holds scraping actor API configuration.
type ApifyConfig struct {
	Token      string        `yaml:"token" env:"APIFY_API_TOKEN"`
	ActorID    string        `yaml:"actor_id" env:"APIFY_ACTOR_ID"`
	RunTimeout time.Duration `yaml:"run_timeout" env:"APIFY_RUN_TIMEOUT"`
}

// OpenAIConfig holds chat completion API configuration.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key" env:"OPENAI_API_KEY"`
	Model   string `yaml:"model" env:"OPENAI_MODEL"`
	BaseURL string `yaml:"base_url" env:"OPENAI_BASE_URL"`
}

// SearchConfig holds browser-session search API configuration.
type SearchConfig struct {
	APIKey     string `yaml:"api_key" env:"BROWSERBASE_API_KEY"`
	MaxResults int    `yaml:"max_results" env:"SEARCH_MAX_RESULTS"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		OutputDir: "./outputs",
		CacheDir:  "./cache",
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "console",
			MaxSizeMB: 1,
		},
		Apify: ApifyConfig{
			ActorID: "apify~website-content-crawler",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-3.5-turbo",
		},
		Search: SearchConfig{
			MaxResults: 10,
		},
	}
}

// Loader loads configuration from multiple sources.
type Loader struct {
	configPath string
}

// NewLoader creates a configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// WithConfigPath sets the path of the YAML configuration file.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// Load resolves configuration with precedence defaults < YAML file <
// environment variables.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := applyEnvToStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	return cfg, nil
}

// loadFromFile merges YAML settings over cfg. A missing file is not an
// error; the defaults stand.
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// applyEnvToStruct recursively overrides struct fields from the environment
// variables named by their env tags.
func applyEnvToStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if field.Kind() == reflect.Struct {
			if err := applyEnvToStruct(field); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}
		envValue := os.Getenv(envTag)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set field %s from %s: %w", fieldType.Name, envTag, err)
		}
	}

	return nil
}

// setFieldValue parses value into the field's type.
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return fmt.Errorf("field cannot be set")
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", field.Type().Elem().Kind())
		}
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		field.Set(reflect.ValueOf(parts))

	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file path.
func LoadFromFile(path string) (*Config, error) {
	return NewLoader().WithConfigPath(path).Load()
}

// EnvStatus describes one credential's presence after validation.
type EnvStatus struct {
	Name     string
	Present  bool
	Required bool
}

// ValidateEnv checks the API credentials the pipeline depends on. The
// scraping token is required; the rest degrade specific steps only, so
// their absence is reported but not fatal.
func (c *Config) ValidateEnv() ([]EnvStatus, error) {
	statuses := []EnvStatus{
		{Name: "APIFY_API_TOKEN", Present: c.Apify.Token != "", Required: true},
		{Name: "OPENAI_API_KEY", Present: c.OpenAI.APIKey != "", Required: false},
		{Name: "BROWSERBASE_API_KEY", Present: c.Search.APIKey != "", Required: false},
	}

	for _, s := range statuses {
		if s.Required && !s.Present {
			return statuses, fmt.Errorf("required environment variable %s is not set", s.Name)
		}
	}
	return statuses, nil
}
