package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading
type Loader struct {
	configPath string
}

// NewLoader creates a new config loader
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// Load loads the configuration from file and environment.
// Precedence, lowest to highest: defaults, config file, WABRIDGE_* env vars,
// legacy flat env vars (AGENT_URL, WHATSAPP_* and their *_FILE variants).
func (l *Loader) Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")

	v.SetEnvPrefix("WABRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Viper only honors AutomaticEnv for keys it has seen
	for _, key := range []string{
		"app.name", "app.env", "app.host", "app.port",
		"agent.url", "agent.app_name",
		"whatsapp.verify_token", "whatsapp.api_url", "whatsapp.access_token",
		"logging.level", "logging.file", "logging.pretty", "logging.redaction",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if l.configPath != "" {
		if _, err := os.Stat(l.configPath); err == nil {
			v.SetConfigFile(l.configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := l.applyLegacyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyLegacyEnv maps the flat deployment environment variables onto the
// config struct. Secrets may also arrive through *_FILE indirection.
func (l *Loader) applyLegacyEnv(cfg *Config) error {
	if val := os.Getenv("APP_NAME"); val != "" {
		cfg.App.Name = val
	}
	if val := os.Getenv("ENV"); val != "" {
		cfg.App.Env = val
	}
	if val := os.Getenv("PORT"); val != "" {
		port, err := parsePort(val)
		if err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}
		cfg.App.Port = port
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Logging.Level = strings.ToLower(val)
	}
	if val := os.Getenv("AGENT_URL"); val != "" {
		cfg.Agent.URL = val
	}
	if val := os.Getenv("AGENT_APP_NAME"); val != "" {
		cfg.Agent.AppName = val
	}
	if val := os.Getenv("WHATSAPP_API_URL"); val != "" {
		cfg.WhatsApp.APIURL = val
	}

	verifyToken, err := SecretFromEnv("WHATSAPP_VERIFY_TOKEN")
	if err != nil {
		return err
	}
	if verifyToken != "" {
		cfg.WhatsApp.VerifyToken = verifyToken
	}

	accessToken, err := SecretFromEnv("WHATSAPP_ACCESS_TOKEN")
	if err != nil {
		return err
	}
	if accessToken != "" {
		cfg.WhatsApp.AccessToken = accessToken
	}

	return nil
}

func parsePort(s string) (int, error) {
	var port int
	if _, err := fmt.Sscanf(s, "%d", &port); err != nil {
		return 0, err
	}
	return port, nil
}

// GetConfigPath returns the config file path
func (l *Loader) GetConfigPath() string {
	return l.configPath
}
