package apicall

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KarpelesLab/pjson"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultTimeout is the per-call timeout, in seconds, used when nothing else
// is configured.
const DefaultTimeout = 20

// Config holds the connection settings of a Client.
type Config struct {
	Address           string `yaml:"address" json:"address"`
	ResolveIPv4       bool   `yaml:"resolve_ipv4" json:"resolve_ipv4"`
	VerifyPeer        bool   `yaml:"verify_peer" json:"verify_peer"`
	VerifyHost        bool   `yaml:"verify_host" json:"verify_host"`
	Timeout           int    `yaml:"timeout" json:"timeout"` // seconds, 0 disables
	UseProxy          bool   `yaml:"use_proxy" json:"use_proxy"`
	ProxyAddress      string `yaml:"proxy_address" json:"proxy_address"`
	ProxyPort         int    `yaml:"proxy_port" json:"proxy_port"`
	ProxyUserPassword string `yaml:"proxy_userpassword" json:"proxy_userpassword"`
	Underscore        bool   `yaml:"underscore" json:"underscore"`
}

// envDefaults lists the process-wide settings read from the environment.
type envDefaults struct {
	Timeout int    `envconfig:"API_REMOTE_TIMEOUT" default:"20"`
	Address string `envconfig:"API_ADDRESS"`
}

// DefaultConfig returns the default settings. TLS peer and host verification
// are both off.
func DefaultConfig() Config {
	return Config{
		ResolveIPv4: true,
		Timeout:     DefaultTimeout,
		Underscore:  true,
	}
}

// ConfigFromEnv returns DefaultConfig with API_REMOTE_TIMEOUT and API_ADDRESS
// applied from the environment.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	var env envDefaults
	if err := envconfig.Process("", &env); err != nil {
		return cfg, fmt.Errorf("failed to load environment: %w", err)
	}
	cfg.Timeout = env.Timeout
	cfg.Address = env.Address

	return cfg, cfg.validate()
}

// LoadConfig reads a YAML or JSON file on top of base. The format is picked
// from the file extension, anything other than .json being read as YAML.
func LoadConfig(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := base
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = pjson.Unmarshal(data, &cfg)
	default:
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return base, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return base, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	if cfg.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	if cfg.ProxyPort < 0 || cfg.ProxyPort > 65535 {
		return fmt.Errorf("proxy_port %d out of range", cfg.ProxyPort)
	}
	return nil
}
