package appconfig

import (
	"os"
	"path/filepath"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	StateDir      string        `mapstructure:"state_dir" yaml:"state_dir"`
	Remote        RemoteConfig  `mapstructure:"remote" yaml:"remote"`
	Sandbox       SandboxConfig `mapstructure:"sandbox" yaml:"sandbox"`
	Output        OutputConfig  `mapstructure:"output" yaml:"output"`
	Preview       PreviewConfig `mapstructure:"preview" yaml:"preview"`
	Logging       LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// RemoteConfig selects the text generation service used for simulation,
// chat and quizzes.
type RemoteConfig struct {
	Provider string `mapstructure:"provider" yaml:"provider"`
	Model    string `mapstructure:"model" yaml:"model"`
	// APIKey supports ${VAR} expansion; unset variables expand to empty.
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	Timeout string `mapstructure:"timeout" yaml:"timeout"`
}

// SandboxConfig controls the script worker.
type SandboxConfig struct {
	Isolation     string `mapstructure:"isolation" yaml:"isolation"`
	Timeout       string `mapstructure:"timeout" yaml:"timeout"`
	MaxMessages   int    `mapstructure:"max_messages" yaml:"max_messages"`
	MaxEntryChars int    `mapstructure:"max_entry_chars" yaml:"max_entry_chars"`
}

// OutputConfig controls the output channel.
type OutputConfig struct {
	MaxEntries int `mapstructure:"max_entries" yaml:"max_entries"`
}

// PreviewConfig configures the local preview server and document runtime.
type PreviewConfig struct {
	Listen       string `mapstructure:"listen" yaml:"listen"`
	ReactVersion string `mapstructure:"react_version" yaml:"react_version"`
	BabelVersion string `mapstructure:"babel_version" yaml:"babel_version"`
}

// LoggingConfig controls audit logging behavior.
type LoggingConfig struct {
	DisableAuditTrails bool `mapstructure:"disable_audit_trails" yaml:"disable_audit_trails"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDir:      filepath.Join(home, ".codelab", "state"),
		Remote: RemoteConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
			APIKey:   "${GEMINI_API_KEY}",
			Timeout:  "15s",
		},
		Sandbox: SandboxConfig{
			Isolation:     "goroutine",
			Timeout:       "10s",
			MaxMessages:   100,
			MaxEntryChars: 1048576,
		},
		Output: OutputConfig{
			MaxEntries: 1000,
		},
		Preview: PreviewConfig{
			Listen:       "127.0.0.1:3000",
			ReactVersion: "18.2.0",
			BabelVersion: "7.23.5",
		},
		Logging: LoggingConfig{
			DisableAuditTrails: false,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".codelab", "config.yaml"), nil
}
