// Package config loads the server configuration from defaults, an optional
// genui.yaml, a .env file, the environment and command line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hupe1980/genui/core"
	"github.com/hupe1980/genui/logging"
)

// Config is the resolved server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigins []string

	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string

	DefaultProvider string
	DefaultModel    string
	MockProvider    bool

	Debug    bool
	Dev      bool
	MaxSteps int

	LogLevel  string
	LogFormat string
}

// envBindings maps config keys to environment variables. The first variable
// that is set wins.
var envBindings = map[string][]string{
	"host":              {"GENUI_HOST"},
	"port":              {"PORT", "PETERCAT_PORT"},
	"cors_origins":      {"CORS_ORIGINS"},
	"openai_api_key":    {"OPENAI_API_KEY"},
	"openai_base_url":   {"OPENAI_BASE_URL"},
	"anthropic_api_key": {"ANTHROPIC_API_KEY"},
	"default_provider":  {"DEFAULT_PROVIDER"},
	"default_model":     {"DEFAULT_MODEL"},
	"mock_provider":     {"MOCK_PROVIDER"},
	"debug":             {"DEBUG"},
	"dev":               {"IS_DEV"},
	"max_steps":         {"MAX_STEPS"},
	"log_level":         {"LOG_LEVEL"},
	"log_format":        {"LOG_FORMAT"},
}

// flagBindings maps config keys to flag names.
var flagBindings = map[string]string{
	"host":          "host",
	"port":          "port",
	"debug":         "debug",
	"mock_provider": "mock-provider",
	"log_level":     "log-level",
	"log_format":    "log-format",
}

// Options configures Load.
type Options struct {
	// ConfigFile overrides the genui.yaml lookup.
	ConfigFile string

	// EnvFiles lists dotenv files to load. Missing files are ignored.
	EnvFiles []string

	// SearchPaths lists directories searched for genui.yaml.
	SearchPaths []string
}

// RegisterFlags adds the flags understood by Load to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (default is ./genui.yaml)")
	fs.String("host", "0.0.0.0", "listen host")
	fs.Int("port", 8080, "listen port")
	fs.Bool("debug", false, "forward debug events to clients")
	fs.Bool("mock-provider", false, "register the offline mock provider")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-format", "text", "log format (text, json)")
}

// Load resolves the configuration. flags may be nil.
func Load(flags *pflag.FlagSet, optFns ...func(o *Options)) (*Config, error) {
	opts := Options{
		EnvFiles:    []string{".env"},
		SearchPaths: []string{"."},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	for _, f := range opts.EnvFiles {
		// Missing files are fine; existing env vars are not overridden.
		_ = godotenv.Load(f)
	}

	v := viper.New()
	setDefaults(v)

	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if flags != nil {
		for key, name := range flagBindings {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
		if f := flags.Lookup("config"); f != nil && f.Value.String() != "" {
			opts.ConfigFile = f.Value.String()
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("genui")
		v.SetConfigType("yaml")
		for _, p := range opts.SearchPaths {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	port, err := strconv.Atoi(strings.TrimSpace(v.GetString("port")))
	if err != nil {
		return nil, fmt.Errorf("invalid port %q: %w", v.GetString("port"), err)
	}

	cfg := &Config{
		Host:            v.GetString("host"),
		Port:            port,
		CORSOrigins:     splitList(v.GetString("cors_origins")),
		OpenAIAPIKey:    v.GetString("openai_api_key"),
		OpenAIBaseURL:   v.GetString("openai_base_url"),
		AnthropicAPIKey: v.GetString("anthropic_api_key"),
		DefaultProvider: v.GetString("default_provider"),
		DefaultModel:    v.GetString("default_model"),
		MockProvider:    v.GetBool("mock_provider"),
		Debug:           v.GetBool("debug"),
		Dev:             v.GetBool("dev"),
		MaxSteps:        v.GetInt("max_steps"),
		LogLevel:        v.GetString("log_level"),
		LogFormat:       v.GetString("log_format"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("cors_origins", "*")
	v.SetDefault("default_provider", "openai")
	v.SetDefault("default_model", "gpt-4o")
	v.SetDefault("mock_provider", false)
	v.SetDefault("debug", false)
	v.SetDefault("dev", false)
	v.SetDefault("max_steps", core.DefaultMaxSteps)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// splitList parses a comma separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MaxSteps <= 0 {
		errs = append(errs, fmt.Errorf("max_steps must be positive, got %d", c.MaxSteps))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if strings.TrimSpace(c.DefaultProvider) == "" {
		errs = append(errs, errors.New("default_provider is required"))
	}

	return errors.Join(errs...)
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Logger builds the configured logger.
func (c *Config) Logger() logging.Logger {
	level, _ := logging.ParseLevel(c.LogLevel)
	return logging.NewSlogLogger(level, c.LogFormat, c.Dev)
}
