package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Telephony TelephonyConfig `yaml:"telephony"`
	Engine    EngineConfig    `yaml:"engine"`
	Audio     AudioConfig     `yaml:"audio"`
	Guardrail GuardrailConfig `yaml:"guardrail"`
	Calendar  CalendarConfig  `yaml:"calendar"`
	Database  DatabaseConfig  `yaml:"database"`
	Reports   ReportsConfig   `yaml:"reports"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig contains HTTP/WebSocket server configuration
type ServerConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
	// PublicHost is the externally reachable hostname the telephony
	// provider connects back to (TwiML stream URL and call webhook).
	PublicHost string `yaml:"public_host"`
}

// TelephonyConfig contains telephony provider REST credentials
type TelephonyConfig struct {
	AccountSID     string `yaml:"account_sid"`
	AuthToken      string `yaml:"auth_token"`
	FromNumber     string `yaml:"from_number"`
	APIBaseURL     string `yaml:"api_base_url"`
	RequestTimeout int    `yaml:"request_timeout"` // seconds
}

// EngineConfig contains speech-engine realtime API configuration
type EngineConfig struct {
	URL              string  `yaml:"url"`
	Model            string  `yaml:"model"`
	APIKey           string  `yaml:"api_key"`
	Voice            string  `yaml:"voice"`
	Temperature      float64 `yaml:"temperature"`
	HandshakeTimeout int     `yaml:"handshake_timeout"` // seconds
	InstructionsFile string  `yaml:"instructions_file"`
}

// AudioConfig contains media path parameters
type AudioConfig struct {
	Encoding   string `yaml:"encoding"`
	SampleRate int    `yaml:"sample_rate"`
	Channels   int    `yaml:"channels"`
}

// GuardrailConfig contains turn validation configuration
type GuardrailConfig struct {
	AllowedIntents    []string `yaml:"allowed_intents"`
	DisallowedPattern string   `yaml:"disallowed_pattern"`
}

// CalendarConfig contains free-slot lookup configuration
type CalendarConfig struct {
	Enabled         bool   `yaml:"enabled"`
	CredentialsFile string `yaml:"credentials_file"`
	CalendarID      string `yaml:"calendar_id"`
	SlotMinutes     int    `yaml:"slot_minutes"`
	DayStartHour    int    `yaml:"day_start_hour"`
	DayEndHour      int    `yaml:"day_end_hour"`
}

// DatabaseConfig contains call summary persistence configuration
type DatabaseConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// ReportsConfig contains per-call markdown report configuration
type ReportsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file. Environment references of
// the form ${VAR} are expanded before parsing so secrets stay out of the
// file itself.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Telephony.Validate(); err != nil {
		return fmt.Errorf("telephony config: %w", err)
	}

	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Calendar.Validate(); err != nil {
		return fmt.Errorf("calendar config: %w", err)
	}

	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database config: %w", err)
	}

	if err := c.Reports.Validate(); err != nil {
		return fmt.Errorf("reports config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}

	if s.Address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	if s.PublicHost == "" {
		return fmt.Errorf("public_host cannot be empty")
	}

	return nil
}

// Validate validates telephony configuration
func (t *TelephonyConfig) Validate() error {
	if t.AccountSID == "" {
		return fmt.Errorf("account_sid cannot be empty")
	}

	if t.AuthToken == "" {
		return fmt.Errorf("auth_token cannot be empty")
	}

	if t.FromNumber == "" {
		return fmt.Errorf("from_number cannot be empty")
	}

	if t.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout cannot be negative, got %d", t.RequestTimeout)
	}

	return nil
}

// Validate validates engine configuration
func (e *EngineConfig) Validate() error {
	if e.URL == "" {
		return fmt.Errorf("url cannot be empty")
	}

	if e.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}

	if e.APIKey == "" {
		return fmt.Errorf("api_key cannot be empty")
	}

	if e.Temperature < 0 || e.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %f", e.Temperature)
	}

	if e.HandshakeTimeout < 1 {
		return fmt.Errorf("handshake_timeout must be at least 1 second, got %d", e.HandshakeTimeout)
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	validEncodings := map[string]bool{"g711_ulaw": true, "pcm16": true}
	if !validEncodings[a.Encoding] {
		return fmt.Errorf("encoding must be 'g711_ulaw' or 'pcm16', got '%s'", a.Encoding)
	}

	if a.SampleRate != 8000 {
		return fmt.Errorf("sample_rate must be 8000 Hz for telephony media, got %d", a.SampleRate)
	}

	if a.Channels != 1 {
		return fmt.Errorf("channels must be 1 (mono) for telephony media, got %d", a.Channels)
	}

	return nil
}

// Validate validates calendar configuration
func (c *CalendarConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.CredentialsFile == "" {
		return fmt.Errorf("credentials_file cannot be empty when calendar is enabled")
	}

	if c.CalendarID == "" {
		return fmt.Errorf("calendar_id cannot be empty when calendar is enabled")
	}

	if c.SlotMinutes < 5 || c.SlotMinutes > 240 {
		return fmt.Errorf("slot_minutes must be between 5 and 240, got %d", c.SlotMinutes)
	}

	if c.DayStartHour < 0 || c.DayStartHour > 23 {
		return fmt.Errorf("day_start_hour must be between 0 and 23, got %d", c.DayStartHour)
	}

	if c.DayEndHour <= c.DayStartHour || c.DayEndHour > 24 {
		return fmt.Errorf("day_end_hour (%d) must be greater than day_start_hour (%d) and at most 24",
			c.DayEndHour, c.DayStartHour)
	}

	return nil
}

// Validate validates database configuration
func (d *DatabaseConfig) Validate() error {
	if d.Enabled && d.URL == "" {
		return fmt.Errorf("url cannot be empty when database is enabled")
	}

	return nil
}

// Validate validates reports configuration
func (r *ReportsConfig) Validate() error {
	if r.Enabled && r.Dir == "" {
		return fmt.Errorf("dir cannot be empty when reports are enabled")
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetRequestTimeout returns the telephony REST timeout as a time.Duration
func (t *TelephonyConfig) GetRequestTimeout() time.Duration {
	return time.Duration(t.RequestTimeout) * time.Second
}

// GetHandshakeTimeout returns the engine dial timeout as a time.Duration
func (e *EngineConfig) GetHandshakeTimeout() time.Duration {
	return time.Duration(e.HandshakeTimeout) * time.Second
}
