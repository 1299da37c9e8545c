package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds application configuration.
//
// The decode cooldown and the duplicate window are two distinct debounce
// layers: the cooldown re-arms the decode engine between frames, the
// duplicate window suppresses repeat reads at the arbiter. Both are tunable
// independently.
type Config struct {
	// DecodeCooldownMS is the re-arm delay after an accepted decode.
	DecodeCooldownMS int `json:"decode_cooldown_ms"`

	// DuplicateWindowMS is the arbiter's repeat-read suppression window.
	DuplicateWindowMS int `json:"duplicate_window_ms"`

	// FragmentWindowMS is how long a split-code fragment stays eligible
	// for assembly.
	FragmentWindowMS int `json:"fragment_window_ms"`

	// HIDIdleMS is the hardware-scanner keystroke idle flush timeout.
	HIDIdleMS int `json:"hid_idle_ms"`

	// HIDMinLength is the minimum buffered length for an idle-timeout flush.
	// Guards against stray keystrokes. Enter bypasses it.
	HIDMinLength int `json:"hid_min_length"`

	// RecordCap is the maximum retained records per session partition.
	RecordCap int `json:"record_cap"`

	// SessionIndexCap bounds the most-recent-first session index.
	SessionIndexCap int `json:"session_index_cap"`

	// HardwareScanner forces hardware-scanner input on or off.
	// When nil, it defaults on for recognized handheld-scanner devices.
	HardwareScanner *bool `json:"hardware_scanner,omitempty"`

	// ScannerSignaturePattern overrides the handheld-scanner device
	// signature match. Empty uses the built-in pattern.
	ScannerSignaturePattern string `json:"scanner_signature_pattern,omitempty"`

	// WebBind and WebPort configure the report HTTP surface.
	WebBind string `json:"web_bind,omitempty"`
	WebPort int    `json:"web_port,omitempty"`

	// DBMaxOpenConns limits open database connections. If set to 1, all
	// database access is serialized. 0 means use sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits idle database connections. 0 means default.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DecodeCooldownMS:  500,
		DuplicateWindowMS: 1200,
		FragmentWindowMS:  1000,
		HIDIdleMS:         60,
		HIDMinLength:      8,
		RecordCap:         2000,
		SessionIndexCap:   200,
		WebBind:           "127.0.0.1",
		WebPort:           8714,
	}
}

// Duration accessors.

func (c *Config) DecodeCooldown() time.Duration {
	return time.Duration(c.DecodeCooldownMS) * time.Millisecond
}

func (c *Config) DuplicateWindow() time.Duration {
	return time.Duration(c.DuplicateWindowMS) * time.Millisecond
}

func (c *Config) FragmentWindow() time.Duration {
	return time.Duration(c.FragmentWindowMS) * time.Millisecond
}

func (c *Config) HIDIdle() time.Duration {
	return time.Duration(c.HIDIdleMS) * time.Millisecond
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.bagvoyage.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for non-zero scalars.
func Merge(base, overlay *Config) *Config {
	result := *overlay

	pick := func(v, fallback int) int {
		if v == 0 {
			return fallback
		}
		return v
	}

	result.DecodeCooldownMS = pick(overlay.DecodeCooldownMS, base.DecodeCooldownMS)
	result.DuplicateWindowMS = pick(overlay.DuplicateWindowMS, base.DuplicateWindowMS)
	result.FragmentWindowMS = pick(overlay.FragmentWindowMS, base.FragmentWindowMS)
	result.HIDIdleMS = pick(overlay.HIDIdleMS, base.HIDIdleMS)
	result.HIDMinLength = pick(overlay.HIDMinLength, base.HIDMinLength)
	result.RecordCap = pick(overlay.RecordCap, base.RecordCap)
	result.SessionIndexCap = pick(overlay.SessionIndexCap, base.SessionIndexCap)
	result.WebPort = pick(overlay.WebPort, base.WebPort)
	result.DBMaxOpenConns = pick(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = pick(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	if result.WebBind == "" {
		result.WebBind = base.WebBind
	}
	if result.ScannerSignaturePattern == "" {
		result.ScannerSignaturePattern = base.ScannerSignaturePattern
	}
	if result.HardwareScanner == nil {
		result.HardwareScanner = base.HardwareScanner
	}

	return &result
}

// ApplyEnv overlays environment variables onto the config. Callers load a
// .env file first (godotenv) so both real env and dotenv entries apply.
func ApplyEnv(cfg *Config) {
	if bind := os.Getenv("BAGVOYAGE_BIND"); bind != "" {
		cfg.WebBind = bind
	}
	if port := os.Getenv("BAGVOYAGE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			cfg.WebPort = p
		}
	}
	if hw := os.Getenv("BAGVOYAGE_HARDWARE_SCANNER"); hw != "" {
		if b, err := strconv.ParseBool(hw); err == nil {
			cfg.HardwareScanner = &b
		}
	}
}
