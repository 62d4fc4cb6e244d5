package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// DefaultPath is where the configuration document lives unless overridden.
const DefaultPath = "config.json"

// Store loads and persists the configuration document.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a Store for the given path ("" for DefaultPath).
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the configuration with defaults applied and environment
// overrides (AUTOMAIL_*) layered on top. A missing file yields the defaults.
func (s *Store) Load(ctx context.Context) (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("json")

	setDefaults(v)

	v.SetEnvPrefix("AUTOMAIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	// A missing file is fine: first run starts from defaults.
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config %s: %w", s.path, err)
		}
	}

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", s.path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save validates and atomically persists the document as indented JSON.
func (s *Store) Save(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	b = append(b, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// bindEnvKeys registers every document key for environment override.
// AutomaticEnv alone only surfaces keys viper already knows from a default or
// the file, which would leave exactly the credential-style keys with no
// default (ftp.password, mail.sender_password) uninjectable.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"ftp.backend", "ftp.host", "ftp.port", "ftp.user", "ftp.password",
		"ftp.target_dir", "ftp.bucket", "ftp.convention", "ftp.file_prefix",
		"mail.smtp_server", "mail.smtp_port", "mail.sender_email",
		"mail.sender_password", "mail.recipients", "mail.subject_prefix",
		"mail.body",
		"schedule.run_time",
		"pipeline.scratch_dir", "pipeline.render_dpi",
		"pipeline.connect_timeout", "pipeline.job_timeout",
		"server.host", "server.port",
		"logging.level", "logging.structured",
	} {
		_ = v.BindEnv(key)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ftp.backend", "ftp")
	v.SetDefault("ftp.port", 21)
	v.SetDefault("ftp.convention", "dated-folder")

	v.SetDefault("mail.smtp_port", 587)
	v.SetDefault("mail.subject_prefix", "[Automail] Daily report")
	v.SetDefault("mail.body", "This message was sent automatically by the report pipeline.")

	v.SetDefault("schedule.run_time", "09:00")

	v.SetDefault("pipeline.scratch_dir", os.TempDir())
	v.SetDefault("pipeline.render_dpi", 150.0)
	v.SetDefault("pipeline.connect_timeout", 15*time.Second)
	v.SetDefault("pipeline.job_timeout", 10*time.Minute)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5001)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.structured", true)
}
