package appconfig

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// Load reads configuration from the provided path. If path is empty, uses
// DefaultConfigPath. A missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("state_dir", cfg.StateDir)
	v.SetDefault("remote.provider", cfg.Remote.Provider)
	v.SetDefault("remote.model", cfg.Remote.Model)
	v.SetDefault("remote.api_key", cfg.Remote.APIKey)
	v.SetDefault("remote.timeout", cfg.Remote.Timeout)
	v.SetDefault("sandbox.isolation", cfg.Sandbox.Isolation)
	v.SetDefault("sandbox.timeout", cfg.Sandbox.Timeout)
	v.SetDefault("sandbox.max_messages", cfg.Sandbox.MaxMessages)
	v.SetDefault("sandbox.max_entry_chars", cfg.Sandbox.MaxEntryChars)
	v.SetDefault("output.max_entries", cfg.Output.MaxEntries)
	v.SetDefault("preview.listen", cfg.Preview.Listen)
	v.SetDefault("preview.react_version", cfg.Preview.ReactVersion)
	v.SetDefault("preview.babel_version", cfg.Preview.BabelVersion)
	v.SetDefault("logging.disable_audit_trails", cfg.Logging.DisableAuditTrails)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return Config{}, err
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.IsSet("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every value and names the offending key on failure.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.StateDir) == "" {
		return fmt.Errorf("state_dir is required")
	}
	if cfg.Remote.Provider != "gemini" {
		return fmt.Errorf("unsupported remote.provider %q", cfg.Remote.Provider)
	}
	if strings.TrimSpace(cfg.Remote.Model) == "" {
		return fmt.Errorf("remote.model is required")
	}
	if _, err := parsePositiveDuration("remote.timeout", cfg.Remote.Timeout); err != nil {
		return err
	}
	switch cfg.Sandbox.Isolation {
	case "goroutine", "process":
	default:
		return fmt.Errorf("unsupported sandbox.isolation %q; expected goroutine or process", cfg.Sandbox.Isolation)
	}
	if _, err := parsePositiveDuration("sandbox.timeout", cfg.Sandbox.Timeout); err != nil {
		return err
	}
	if cfg.Sandbox.MaxMessages <= 0 {
		return fmt.Errorf("sandbox.max_messages must be positive")
	}
	if cfg.Sandbox.MaxEntryChars <= 0 {
		return fmt.Errorf("sandbox.max_entry_chars must be positive")
	}
	if cfg.Output.MaxEntries <= 0 {
		return fmt.Errorf("output.max_entries must be positive")
	}
	if cfg.Preview.Listen != "" {
		if _, _, err := net.SplitHostPort(cfg.Preview.Listen); err != nil {
			return fmt.Errorf("preview.listen must be host:port: %w", err)
		}
	}
	if !versionPattern.MatchString(cfg.Preview.ReactVersion) {
		return fmt.Errorf("preview.react_version must be a x.y.z version, got %q", cfg.Preview.ReactVersion)
	}
	if !versionPattern.MatchString(cfg.Preview.BabelVersion) {
		return fmt.Errorf("preview.babel_version must be a x.y.z version, got %q", cfg.Preview.BabelVersion)
	}
	return nil
}

// RemoteTimeout returns the parsed remote.timeout.
func (c Config) RemoteTimeout() time.Duration {
	d, _ := parsePositiveDuration("remote.timeout", c.Remote.Timeout)
	return d
}

// SandboxTimeout returns the parsed sandbox.timeout.
func (c Config) SandboxTimeout() time.Duration {
	d, _ := parsePositiveDuration("sandbox.timeout", c.Sandbox.Timeout)
	return d
}

func parsePositiveDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.StateDir = expandPath(cfg.StateDir)
	cfg.Remote.APIKey = strings.TrimSpace(expandSecret(cfg.Remote.APIKey))
	cfg.Remote.Model = expandEnv(cfg.Remote.Model)
	cfg.Preview.Listen = expandEnv(cfg.Preview.Listen)
}

func expandPath(value string) string {
	value = expandEnv(value)
	if value == "~" || strings.HasPrefix(value, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(value, "~"))
		}
	}
	return value
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := lookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

// expandSecret is expandEnv with unset variables expanding to empty, so an
// absent key never becomes a literal credential.
func expandSecret(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		val, _ := lookupEnv(key)
		return val
	})
}

func lookupEnv(key string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	switch key {
	case "UID":
		return fmt.Sprintf("%d", os.Getuid()), true
	case "GID":
		return fmt.Sprintf("%d", os.Getgid()), true
	}
	return "", false
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
