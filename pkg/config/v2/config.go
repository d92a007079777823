package config

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	defaultExtension = "yaml"
	defaultTagName   = "yaml"
)

type Binder interface {
	Bind(v *viper.Viper) error
}

type Loader interface {
	Load(name, path, envPrefix string, binder Binder) (Config, error)
}

type Config struct {
	Tables   Tables   `yaml:"tables"`
	Server   Server   `yaml:"server"`
	Postgres Postgres `yaml:"postgres"`
	GCS      GCS      `yaml:"gcs"`
	Snapshot Snapshot `yaml:"snapshot"`

	ElectorPath string `yaml:"elector_path"`
	LogLevel    string `yaml:"log_level"`
	Debug       bool   `yaml:"debug"`
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Tables, validation.Required),
		validation.Field(&c.Server, validation.Required),
		validation.Field(&c.Postgres),
		validation.Field(&c.GCS, validation.When(c.Snapshot.Enabled(), validation.By(hasSnapshotBucket))),
		validation.Field(&c.Snapshot),
		validation.Field(&c.LogLevel, validation.Required, validation.In("trace", "debug", "info", "warn", "error")),
	)
}

type Tables struct {
	APIURL               string `yaml:"api_url"`
	DisplayURL           string `yaml:"display_url"`
	DisableAuth          bool   `yaml:"disable_auth"`
	CacheDurationSeconds int    `yaml:"cache_duration_seconds"`
}

func (t Tables) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.APIURL, validation.Required, is.URL),
		validation.Field(&t.DisplayURL, is.URL),
		validation.Field(&t.CacheDurationSeconds, validation.Min(0)),
	)
}

// Postgres is optional, without a host the descriptor cache is kept in memory.
type Postgres struct {
	UserName      string                `yaml:"user_name"`
	Password      string                `yaml:"password"`
	Host          string                `yaml:"host"`
	Port          string                `yaml:"port"`
	DatabaseName  string                `yaml:"database_name"`
	SSLMode       string                `yaml:"ssl_mode"`
	Configuration PostgresConfiguration `yaml:"configuration"`
}

func (p Postgres) Enabled() bool {
	return p.Host != ""
}

func (p Postgres) Validate() error {
	if !p.Enabled() {
		return nil
	}

	return validation.ValidateStruct(&p,
		validation.Field(&p.UserName, validation.Required),
		validation.Field(&p.Password, validation.Required),
		validation.Field(&p.Host, validation.Required, is.Host),
		validation.Field(&p.Port, validation.Required, is.Port),
		validation.Field(&p.DatabaseName, validation.Required),
		validation.Field(&p.SSLMode, validation.Required, validation.In("disable", "allow", "prefer", "require")),
	)
}

func (p Postgres) ConnectionString() string {
	return fmt.Sprintf("postgresql://%s:%s@%s/%s?sslmode=%s",
		p.UserName,
		p.Password,
		net.JoinHostPort(p.Host, p.Port),
		p.DatabaseName,
		p.SSLMode,
	)
}

type PostgresConfiguration struct {
	MaxIdleConnections int `yaml:"max_idle_connections"`
	MaxOpenConnections int `yaml:"max_open_connections"`
}

type Server struct {
	Hostname string `yaml:"hostname"`
	Address  string `yaml:"address"`
	Port     string `yaml:"port"`
}

func (s Server) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Address, validation.Required, is.Host),
		validation.Field(&s.Hostname, validation.Required, is.Host),
		validation.Field(&s.Port, validation.Required, is.Port),
	)
}

type GCS struct {
	Endpoint           string `yaml:"endpoint"`
	SnapshotBucketName string `yaml:"snapshot_bucket_name"`
}

func (g GCS) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.Endpoint, is.URL),
	)
}

func hasSnapshotBucket(value any) error {
	g, _ := value.(GCS)
	if g.SnapshotBucketName == "" {
		return errors.New("snapshot_bucket_name is required when snapshots are enabled")
	}

	return nil
}

// Snapshot configures the periodic snapshots, no tables means no snapshots.
type Snapshot struct {
	TableIDs            []string `yaml:"table_ids"`
	FrequencySeconds    int      `yaml:"frequency_seconds"`
	StartupDelaySeconds int      `yaml:"startup_delay_seconds"`
	DeadlineSeconds     int      `yaml:"deadline_seconds"`
}

func (s Snapshot) Enabled() bool {
	return len(s.TableIDs) > 0
}

func (s Snapshot) Frequency() time.Duration {
	return time.Duration(s.FrequencySeconds) * time.Second
}

func (s Snapshot) StartupDelay() time.Duration {
	return time.Duration(s.StartupDelaySeconds) * time.Second
}

func (s Snapshot) Deadline() time.Duration {
	return time.Duration(s.DeadlineSeconds) * time.Second
}

func (s Snapshot) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.FrequencySeconds, validation.When(s.Enabled(), validation.Required, validation.Min(1))),
		validation.Field(&s.DeadlineSeconds, validation.When(s.Enabled(), validation.Required, validation.Min(1))),
		validation.Field(&s.StartupDelaySeconds, validation.Min(0)),
	)
}

type FileParts struct {
	FileName string
	Path     string
}

func ProcessConfigPath(configFile string) (FileParts, error) {
	absolutePath, err := filepath.Abs(configFile)
	if err != nil {
		return FileParts{}, fmt.Errorf("convert to absolute path: %w", err)
	}

	// Extract file name and extension
	fileName := filepath.Base(absolutePath)
	path := filepath.Dir(absolutePath)
	extension := filepath.Ext(fileName)

	if strings.ReplaceAll(strings.ToLower(extension), ".", "") != defaultExtension {
		return FileParts{}, fmt.Errorf("config file must have extension %s, got: %s", defaultExtension, extension)
	}

	return FileParts{
		FileName: fileName[:len(fileName)-len(extension)],
		Path:     path,
	}, nil
}

func NewFileSystemLoader() *FileSystemLoader {
	return &FileSystemLoader{}
}

type FileSystemLoader struct{}

func (fs *FileSystemLoader) Load(name, path, envPrefix string, b Binder) (Config, error) {
	v := viper.New()

	v.AddConfigPath(path)
	v.SetConfigName(name)
	v.SetConfigType(defaultExtension)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // So that env vars are translated properly
	v.AutomaticEnv()

	if b != nil {
		err := b.Bind(v)
		if err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix(envPrefix)

	err := v.ReadInConfig()
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var config Config

	err = v.Unmarshal(&config, func(cfg *mapstructure.DecoderConfig) {
		cfg.TagName = defaultTagName // We use yaml tags in the config structs so we can marshal to yaml
	})
	if err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	return config, nil
}

type EnvBinder struct {
	binders map[string]string
}

func (e *EnvBinder) Bind(v *viper.Viper) error {
	for envVar, key := range e.binders {
		err := v.BindEnv(key, envVar)
		if err != nil {
			return fmt.Errorf("bind env var %s to key %s: %w", envVar, key, err)
		}
	}

	return nil
}

func NewEnvBinder(binders map[string]string) *EnvBinder {
	return &EnvBinder{
		binders: binders,
	}
}

func NewDefaultEnvBinder() *EnvBinder {
	return NewEnvBinder(map[string]string{
		"NAIS_DATABASE_TABLESYNC_TABLESYNC_PASSWORD": "postgres.password",
		"ELECTOR_PATH":                               "elector_path",
	})
}
