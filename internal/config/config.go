package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Login methods offered by the booth's waiting screen.
const (
	LoginTag = "tag"
	LoginPIN = "pin"
)

// Key reader kinds.
const (
	ReaderEM4100   = "em4100"
	ReaderKeyboard = "keyboard"
)

// Config holds booth settings. Values come from ~/.memberbooth/config.yaml,
// fall back to MEMBERBOOTH_* environment variables, and are overridden by
// command line flags.
type Config struct {
	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging

	// Backends
	MakerAdminURL    string `yaml:"makeradmin_url" json:"makeradmin_url"`
	MakerAdminToken  string `yaml:"makeradmin_token_path" json:"makeradmin_token_path"`
	SlackTokenPath   string `yaml:"slack_token_path" json:"slack_token_path"`
	SlackChannelID   string `yaml:"slack_channel_id" json:"slack_channel_id"`
	DevStorePath     string `yaml:"devstore_path" json:"devstore_path"`
	DevServerAddress string `yaml:"devserver_address" json:"devserver_address"`

	// Hardware
	LoginMethod    string   `yaml:"login_method" json:"login_method"` // tag or pin
	KeyReader      string   `yaml:"key_reader" json:"key_reader"`     // em4100 or keyboard
	SerialPrefixes []string `yaml:"serial_prefixes" json:"serial_prefixes"`
	PrinterDevice  string   `yaml:"printer_device" json:"printer_device"`
	PrinterModel   string   `yaml:"printer_model" json:"printer_model"`
	LabelType      string   `yaml:"label_type" json:"label_type"`

	// Label policy
	TempStorageDays int    `yaml:"temp_storage_days" json:"temp_storage_days"`
	WarningDays     int    `yaml:"warning_days" json:"warning_days"`
	FireBoxDays     int    `yaml:"fire_box_days" json:"fire_box_days"`
	DryingHours     int    `yaml:"drying_hours" json:"drying_hours"`
	WikiLink        string `yaml:"wiki_link" json:"wiki_link"`

	// Kiosk behaviour
	IdleTimeout   time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	OutputDir     string        `yaml:"output_dir" json:"output_dir"`
	LogoPath      string        `yaml:"logo_path" json:"logo_path"`
	FlammablePath string        `yaml:"flammable_path" json:"flammable_path"`
	RotatingPath  string        `yaml:"rotating_path" json:"rotating_path"`
	StatusAddress string        `yaml:"status_address" json:"status_address"`

	// Modes
	Development bool `yaml:"development" json:"development"`
	NoPrinter   bool `yaml:"no_printer" json:"no_printer"`
	NoBackend   bool `yaml:"no_backend" json:"no_backend"`
	NoSlack     bool `yaml:"no_slack" json:"no_slack"`
}

// Dir returns ~/.memberbooth.
func Dir() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		return ".memberbooth"
	}
	return filepath.Join(home, ".memberbooth")
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	dir := Dir()

	return &Config{
		LogLevel:   getEnv("MEMBERBOOTH_LOG_LEVEL", "INFO"),
		LogFile:    getEnv("MEMBERBOOTH_LOG_FILE", filepath.Join(dir, "logs", "memberbooth.log")),
		LogConsole: getEnv("MEMBERBOOTH_LOG_CONSOLE", "false") == "true",

		MakerAdminURL:    getEnv("MEMBERBOOTH_MAKERADMIN_URL", "https://api.makerspace.se"),
		MakerAdminToken:  getEnv("MEMBERBOOTH_MAKERADMIN_TOKEN_PATH", filepath.Join(dir, "makeradmin.token")),
		SlackTokenPath:   getEnv("MEMBERBOOTH_SLACK_TOKEN_PATH", filepath.Join(dir, "slack.token")),
		SlackChannelID:   getEnv("MEMBERBOOTH_SLACK_CHANNEL_ID", ""),
		DevStorePath:     getEnv("MEMBERBOOTH_DEVSTORE_PATH", filepath.Join(dir, "devstore.db")),
		DevServerAddress: getEnv("MEMBERBOOTH_DEVSERVER_ADDRESS", ":8010"),

		LoginMethod:    getEnv("MEMBERBOOTH_LOGIN_METHOD", LoginTag),
		KeyReader:      getEnv("MEMBERBOOTH_KEY_READER", ReaderEM4100),
		SerialPrefixes: splitList(getEnv("MEMBERBOOTH_SERIAL_PREFIXES", "/dev/ttyACM,/dev/ttyUSB")),
		PrinterDevice:  getEnv("MEMBERBOOTH_PRINTER_DEVICE", "/dev/usb/lp0"),
		PrinterModel:   getEnv("MEMBERBOOTH_PRINTER_MODEL", "QL-800"),
		LabelType:      getEnv("MEMBERBOOTH_LABEL_TYPE", "62"),

		TempStorageDays: getEnvInt("MEMBERBOOTH_TEMP_STORAGE_LENGTH", 60),
		WarningDays:     getEnvInt("MEMBERBOOTH_TEMP_WARNING_STORAGE_LENGTH", 90),
		FireBoxDays:     getEnvInt("MEMBERBOOTH_FIRE_BOX_STORAGE_LENGTH", 90),
		DryingHours:     getEnvInt("MEMBERBOOTH_DRYING_HOURS", 24),
		WikiLink:        getEnv("MEMBERBOOTH_WIKI_LINK", "https://wiki.makerspace.se/Medlemsförvaring"),

		IdleTimeout:   time.Duration(getEnvInt("MEMBERBOOTH_IDLE_TIMEOUT_SECONDS", 60)) * time.Second,
		OutputDir:     getEnv("MEMBERBOOTH_OUTPUT_DIR", "."),
		LogoPath:      getEnv("MEMBERBOOTH_LOGO_PATH", ""),
		FlammablePath: getEnv("MEMBERBOOTH_FLAMMABLE_PATH", ""),
		RotatingPath:  getEnv("MEMBERBOOTH_ROTATING_PATH", ""),
		StatusAddress: getEnv("MEMBERBOOTH_STATUS_ADDRESS", "127.0.0.1:9310"),

		Development: getEnv("MEMBERBOOTH_DEVELOPMENT", "false") == "true",
		NoPrinter:   getEnv("MEMBERBOOTH_NO_PRINTER", "false") == "true",
		NoBackend:   getEnv("MEMBERBOOTH_NO_BACKEND", "false") == "true",
		NoSlack:     getEnv("MEMBERBOOTH_NO_SLACK", "false") == "true",
	}
}

// Validate rejects settings the booth cannot run with.
func (c *Config) Validate() error {
	switch c.LoginMethod {
	case LoginTag, LoginPIN:
	default:
		return fmt.Errorf("unknown login method %q", c.LoginMethod)
	}
	switch c.KeyReader {
	case ReaderEM4100, ReaderKeyboard:
	default:
		return fmt.Errorf("unknown key reader %q", c.KeyReader)
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("idle timeout must be positive, got %s", c.IdleTimeout)
	}
	for name, days := range map[string]int{
		"temp_storage_days": c.TempStorageDays,
		"warning_days":      c.WarningDays,
		"fire_box_days":     c.FireBoxDays,
		"drying_hours":      c.DryingHours,
	} {
		if days <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, days)
		}
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Path returns the config file location.
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load loads config from ~/.memberbooth/config.yaml
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom loads config from path, returning defaults when it does not exist.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save saves config to ~/.memberbooth/config.yaml
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

// SaveTo writes the config as YAML to path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
