package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:       5050,
			Address:    "0.0.0.0",
			PublicHost: "calls.example.com",
		},
		Telephony: TelephonyConfig{
			AccountSID:     "AC0000000000000000000000000000_test",
			AuthToken:      "test-token",
			FromNumber:     "+15550100",
			RequestTimeout: 15,
		},
		Engine: EngineConfig{
			URL:              "wss://api.openai.com/v1/realtime",
			Model:            "gpt-4o-realtime-preview",
			APIKey:           "test-key",
			Voice:            "alloy",
			Temperature:      0.8,
			HandshakeTimeout: 10,
		},
		Audio: AudioConfig{
			Encoding:   "g711_ulaw",
			SampleRate: 8000,
			Channels:   1,
		},
		Guardrail: GuardrailConfig{
			AllowedIntents:    []string{"greeting", "ask_date"},
			DisallowedPattern: "medical advice",
		},
		Calendar: CalendarConfig{
			Enabled:         true,
			CredentialsFile: "./credentials.json",
			CalendarID:      "primary",
			SlotMinutes:     30,
			DayStartHour:    9,
			DayEndHour:      17,
		},
		Database: DatabaseConfig{
			Enabled: true,
			URL:     "postgres://localhost:5432/calls",
		},
		Reports: ReportsConfig{
			Enabled: true,
			Dir:     "./reports",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid configuration",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "invalid server port",
			mutate:      func(c *Config) { c.Server.Port = 70000 },
			expectError: true,
			errorMsg:    "port must be between 1 and 65535",
		},
		{
			name:        "missing public host",
			mutate:      func(c *Config) { c.Server.PublicHost = "" },
			expectError: true,
			errorMsg:    "public_host cannot be empty",
		},
		{
			name:        "missing telephony credentials",
			mutate:      func(c *Config) { c.Telephony.AuthToken = "" },
			expectError: true,
			errorMsg:    "auth_token cannot be empty",
		},
		{
			name:        "missing engine api key",
			mutate:      func(c *Config) { c.Engine.APIKey = "" },
			expectError: true,
			errorMsg:    "api_key cannot be empty",
		},
		{
			name:        "temperature out of range",
			mutate:      func(c *Config) { c.Engine.Temperature = 3.5 },
			expectError: true,
			errorMsg:    "temperature must be between 0 and 2",
		},
		{
			name:        "unsupported audio encoding",
			mutate:      func(c *Config) { c.Audio.Encoding = "opus" },
			expectError: true,
			errorMsg:    "encoding must be 'g711_ulaw' or 'pcm16'",
		},
		{
			name:        "invalid sample rate",
			mutate:      func(c *Config) { c.Audio.SampleRate = 16000 },
			expectError: true,
			errorMsg:    "sample_rate must be 8000 Hz",
		},
		{
			name: "calendar day window inverted",
			mutate: func(c *Config) {
				c.Calendar.DayStartHour = 17
				c.Calendar.DayEndHour = 9
			},
			expectError: true,
			errorMsg:    "day_end_hour",
		},
		{
			name: "disabled calendar skips validation",
			mutate: func(c *Config) {
				c.Calendar = CalendarConfig{Enabled: false}
			},
			expectError: false,
		},
		{
			name: "enabled database without url",
			mutate: func(c *Config) {
				c.Database = DatabaseConfig{Enabled: true}
			},
			expectError: true,
			errorMsg:    "url cannot be empty when database is enabled",
		},
		{
			name: "disabled reports skip validation",
			mutate: func(c *Config) {
				c.Reports = ReportsConfig{Enabled: false}
			},
			expectError: false,
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.Logging.Level = "verbose" },
			expectError: true,
			errorMsg:    "level must be one of",
		},
		{
			name:        "invalid log format",
			mutate:      func(c *Config) { c.Logging.Format = "xml" },
			expectError: true,
			errorMsg:    "format must be 'json' or 'text'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(&config)

			err := config.Validate()

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errorMsg != "" && !contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				}
			}
		})
	}
}

func TestConfigLoad(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name        string
		configYAML  string
		expectError bool
		errorMsg    string
	}{
		{
			name: "valid config file",
			configYAML: `
server:
  port: 5050
  address: "0.0.0.0"
  public_host: "calls.example.com"
telephony:
  account_sid: "AC0000000000000000000000000000_test"
  auth_token: "test-token"
  from_number: "+15550100"
  request_timeout: 15
engine:
  url: "wss://api.openai.com/v1/realtime"
  model: "gpt-4o-realtime-preview"
  api_key: "test-key"
  voice: "alloy"
  temperature: 0.8
  handshake_timeout: 10
audio:
  encoding: "g711_ulaw"
  sample_rate: 8000
  channels: 1
guardrail:
  allowed_intents: ["greeting", "ask_date"]
  disallowed_pattern: "medical advice"
logging:
  level: "info"
  format: "json"
  output: "stdout"
`,
			expectError: false,
		},
		{
			name: "invalid YAML syntax",
			configYAML: `
server:
  port: 5050
  address: [unterminated
`,
			expectError: true,
			errorMsg:    "failed to parse",
		},
		{
			name: "missing required fields",
			configYAML: `
server:
  port: 5050
  # missing address and public_host
`,
			expectError: true,
			errorMsg:    "address cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(tempDir, "config.yaml")
			err := os.WriteFile(configPath, []byte(tt.configYAML), 0644)
			if err != nil {
				t.Fatalf("Failed to create test config file: %v", err)
			}

			config, err := Load(configPath)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errorMsg != "" && !contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				} else if config == nil {
					t.Errorf("Expected config to be loaded but got nil")
				}
			}
		})
	}
}

func TestConfigLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_ENGINE_KEY", "expanded-secret")

	configYAML := `
server:
  port: 5050
  address: "0.0.0.0"
  public_host: "calls.example.com"
telephony:
  account_sid: "AC0000000000000000000000000000_test"
  auth_token: "test-token"
  from_number: "+15550100"
engine:
  url: "wss://api.openai.com/v1/realtime"
  model: "gpt-4o-realtime-preview"
  api_key: "${TEST_ENGINE_KEY}"
  handshake_timeout: 10
audio:
  encoding: "g711_ulaw"
  sample_rate: 8000
  channels: 1
logging:
  level: "info"
  format: "json"
  output: "stdout"
`

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(configYAML), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	config, err := Load(configPath)
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if config.Engine.APIKey != "expanded-secret" {
		t.Errorf("Expected api_key expanded from environment, got '%s'", config.Engine.APIKey)
	}
}

func TestConfigLoadNonexistentFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Errorf("Expected error for nonexistent file but got none")
	}
	if !contains(err.Error(), "failed to read config file") {
		t.Errorf("Expected error about reading file, got: %v", err)
	}
}

func TestDurationHelpers(t *testing.T) {
	telephony := TelephonyConfig{RequestTimeout: 15}
	if got := telephony.GetRequestTimeout(); got != 15*time.Second {
		t.Errorf("Expected 15s request timeout, got %v", got)
	}

	engine := EngineConfig{HandshakeTimeout: 10}
	if got := engine.GetHandshakeTimeout(); got != 10*time.Second {
		t.Errorf("Expected 10s handshake timeout, got %v", got)
	}
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}
