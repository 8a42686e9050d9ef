package config

import (
	"encoding/json"
	"fmt"
)

// Config represents the main wabridge configuration
type Config struct {
	// App
	App AppConfig `json:"app" mapstructure:"app"`

	// Agent endpoint
	Agent AgentConfig `json:"agent" mapstructure:"agent"`

	// WhatsApp Cloud API
	WhatsApp WhatsAppConfig `json:"whatsapp" mapstructure:"whatsapp"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// AppConfig holds process-level settings
type AppConfig struct {
	Name string `json:"name" mapstructure:"name"`
	Env  string `json:"env" mapstructure:"env"` // dev, qa, prod
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`
}

// AgentConfig holds the backend agent endpoint configuration
type AgentConfig struct {
	URL     string `json:"url" mapstructure:"url"`
	AppName string `json:"app_name" mapstructure:"app_name"`
}

// WhatsAppConfig holds WhatsApp Cloud API credentials.
// APIURL and AccessToken are optional; both must be present for the
// outbound relay to be enabled. VerifyToken is always required.
type WhatsAppConfig struct {
	VerifyToken string `json:"verify_token" mapstructure:"verify_token"`
	APIURL      string `json:"api_url" mapstructure:"api_url"`
	AccessToken string `json:"access_token" mapstructure:"access_token"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// RelayEnabled reports whether outbound sends to WhatsApp are configured.
func (w WhatsAppConfig) RelayEnabled() bool {
	return w.APIURL != "" && w.AccessToken != ""
}

// AgentEnabled reports whether the agent hop is configured.
func (a AgentConfig) AgentEnabled() bool {
	return a.URL != ""
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name: "wabridge",
			Env:  "dev",
			Host: "0.0.0.0",
			Port: 8080,
		},
		Agent: AgentConfig{
			AppName: "alma",
		},
		Logging: LoggingConfig{
			Level:     "info",
			Redaction: true,
		},
	}
}

// String returns a JSON representation of the config with secrets masked
func (c *Config) String() string {
	masked := *c
	if masked.WhatsApp.VerifyToken != "" {
		masked.WhatsApp.VerifyToken = "****"
	}
	if masked.WhatsApp.AccessToken != "" {
		masked.WhatsApp.AccessToken = "****"
	}
	data, _ := json.MarshalIndent(masked, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	v := NewValidator()

	if err := v.ValidateEnv(c.App.Env); err != nil {
		return err
	}
	if err := v.ValidatePort(c.App.Port); err != nil {
		return err
	}
	if err := v.ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}

	if c.WhatsApp.VerifyToken == "" {
		return fmt.Errorf("whatsapp.verify_token is required (set WHATSAPP_VERIFY_TOKEN or WHATSAPP_VERIFY_TOKEN_FILE)")
	}

	if c.Agent.URL != "" {
		if err := v.ValidateURL(c.Agent.URL, "agent.url"); err != nil {
			return err
		}
	}
	if c.WhatsApp.APIURL != "" {
		if err := v.ValidateURL(c.WhatsApp.APIURL, "whatsapp.api_url"); err != nil {
			return err
		}
	}

	return nil
}
