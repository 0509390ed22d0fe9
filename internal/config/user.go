package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// DefaultEndpoint is where hardware reports are uploaded.
const DefaultEndpoint = "http://stats.supertuxkart.net/upload/v1/"

// Display is the persisted screen resolution.
type Display struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// Graphics selects how the rendering context is queried.
type Graphics struct {
	// Source is glxinfo, static or none.
	Source          string `mapstructure:"source"`
	Vendor          string `mapstructure:"vendor"`
	Renderer        string `mapstructure:"renderer"`
	Version         string `mapstructure:"version"`
	ShadingLanguage int    `mapstructure:"shading_language"`
}

// Logging configures log output.
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// UserConfig is the per-installation configuration of the reporter.
type UserConfig struct {
	Endpoint            string        `mapstructure:"endpoint"`
	Submit              bool          `mapstructure:"submit"`
	UserID              int           `mapstructure:"user_id"`
	Timeout             time.Duration `mapstructure:"timeout"`
	// ClientSecret is sent as X-Client-Secret with every upload.
	ClientSecret        string        `mapstructure:"client_secret"`
	CollectFirmware     bool          `mapstructure:"collect_firmware"`
	LastHWReportVersion int           `mapstructure:"last_hw_report_version"`
	Display             Display       `mapstructure:"display"`
	Graphics            Graphics      `mapstructure:"graphics"`
	Logging             Logging       `mapstructure:"logging"`
}

// DefaultUserConfigPath returns $XDG_CONFIG_HOME/hwreport/config.yaml.
func DefaultUserConfigPath() (string, error) {
	p, err := xdg.ConfigFile(filepath.Join("hwreport", "config.yaml"))
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return p, nil
}

// UserStore owns the loaded user configuration. The report version may be
// advanced from the upload callback while the caller reads other fields, so
// access goes through the store.
type UserStore struct {
	mu   sync.Mutex
	path string
	cfg  UserConfig
}

// LoadUser reads the user configuration at path. A missing file yields the
// defaults; it is created on the first Save.
func LoadUser(path string) (*UserStore, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("endpoint", DefaultEndpoint)
	v.SetDefault("submit", true)
	v.SetDefault("user_id", 3)
	v.SetDefault("timeout", "30s")
	v.SetDefault("client_secret", "")
	v.SetDefault("collect_firmware", false)
	v.SetDefault("last_hw_report_version", 0)
	v.SetDefault("display.width", 1024)
	v.SetDefault("display.height", 768)
	v.SetDefault("graphics.source", "glxinfo")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetEnvPrefix("HWREPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readIfExists(v, path); err != nil {
		return nil, err
	}

	var cfg UserConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &UserStore{path: path, cfg: cfg}, nil
}

// readIfExists reads path into v. A missing file is not an error.
func readIfExists(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat config %s: %w", path, err)
	}
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// Path returns the file the store reads from and saves to.
func (s *UserStore) Path() string { return s.path }

// Config returns a snapshot of the configuration.
func (s *UserStore) Config() UserConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// LastReportedVersion returns the last hardware report version that was
// uploaded successfully.
func (s *UserStore) LastReportedVersion() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.LastHWReportVersion
}

// SetLastReportedVersion records a successful upload. It is written to disk
// by the next Save.
func (s *UserStore) SetLastReportedVersion(v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.LastHWReportVersion = v
}

// Save records the last reported version in the config file. Everything
// else in the file is written back as read, so defaults and HWREPORT_*
// environment overrides never end up on disk.
func (s *UserStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("yaml")
	if err := readIfExists(v, s.path); err != nil {
		return err
	}
	v.Set("last_hw_report_version", s.cfg.LastHWReportVersion)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write config %s: %w", s.path, err)
	}
	return nil
}
