// Package config loads clipvault settings from defaults, an optional config
// file, CLIPVAULT_* environment variables and command line flags, in that
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix  = "CLIPVAULT"
	configName = "clipvault"

	MinWorkers = 1
	MaxWorkers = 10
)

type Config struct {
	Paths    Paths    `mapstructure:"paths"`
	Source   Source   `mapstructure:"source"`
	Download Download `mapstructure:"download"`
	Database Database `mapstructure:"database"`
	Log      Log      `mapstructure:"log"`
	Report   Report   `mapstructure:"report"`
	Notify   Notify   `mapstructure:"notify"`
}

type Paths struct {
	DataDir   string `mapstructure:"data_dir"`
	OutputDir string `mapstructure:"output_dir"`
	DB        string `mapstructure:"db"`
}

type Source struct {
	Domains     []string `mapstructure:"domains"`
	DefaultFile string   `mapstructure:"default_file"`
}

type Download struct {
	Workers        int           `mapstructure:"workers"`
	Format         string        `mapstructure:"format"`
	OutputTemplate string        `mapstructure:"output_template"`
	WriteThumbnail bool          `mapstructure:"write_thumbnail"`
	WriteInfoJSON  bool          `mapstructure:"write_info_json"`
	YtDlpPath      string        `mapstructure:"ytdlp_path"`
	YouTubeNative  bool          `mapstructure:"youtube_native"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type Database struct {
	OpTimeout    time.Duration `mapstructure:"op_timeout"`
	BusyTimeout  time.Duration `mapstructure:"busy_timeout"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type Report struct {
	Color    string `mapstructure:"color"`
	PageSize int    `mapstructure:"page_size"`
}

type Notify struct {
	TelegramToken  string `mapstructure:"telegram_token"`
	TelegramChatID int64  `mapstructure:"telegram_chat_id"`
}

// Dirs is the directory layout derived from Paths
type Dirs struct {
	Data     string
	Output   string
	Videos   string
	Logs     string
	Metadata string
}

// flag name -> config key
var flagKeys = map[string]string{
	"workers":   "download.workers",
	"db":        "paths.db",
	"log-level": "log.level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("paths.data_dir", "data")
	v.SetDefault("paths.output_dir", "outputs")
	v.SetDefault("paths.db", filepath.Join("outputs", "clipvault.db"))

	v.SetDefault("source.domains", []string{"tiktok.com"})
	v.SetDefault("source.default_file", "tiktok_urls.txt")

	v.SetDefault("download.workers", 1)
	v.SetDefault("download.format", "best[height<=720]/best")
	v.SetDefault("download.output_template", "%(uploader)s_%(title)s_%(id)s.%(ext)s")
	v.SetDefault("download.write_thumbnail", true)
	v.SetDefault("download.write_info_json", true)
	v.SetDefault("download.ytdlp_path", "yt-dlp")
	v.SetDefault("download.youtube_native", true)
	v.SetDefault("download.timeout", 10*time.Minute)

	v.SetDefault("database.op_timeout", 5*time.Second)
	v.SetDefault("database.busy_timeout", 10*time.Second)
	v.SetDefault("database.max_open_conns", 4)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")

	v.SetDefault("report.color", "auto")
	v.SetDefault("report.page_size", 20)

	v.SetDefault("notify.telegram_token", "")
	v.SetDefault("notify.telegram_chat_id", 0)
}

// Load builds the configuration. An empty path searches for clipvault.{yaml,json,toml}
// in the working directory and $HOME/.clipvault and tolerates its absence; an explicit
// path must exist. Flags that were set on fs override everything else.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, "."+configName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.normalize()

	return &cfg, nil
}

// RegisterFlags adds the flags Load understands to fs
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a config file")
	fs.Int("workers", 1, fmt.Sprintf("parallel downloads (%d-%d)", MinWorkers, MaxWorkers))
	fs.String("db", "", "path to the SQLite database")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
}

func (c *Config) normalize() {
	if c.Download.Workers < MinWorkers {
		c.Download.Workers = MinWorkers
	}
	if c.Download.Workers > MaxWorkers {
		c.Download.Workers = MaxWorkers
	}

	domains := c.Source.Domains[:0]
	for _, d := range c.Source.Domains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			domains = append(domains, d)
		}
	}
	c.Source.Domains = domains

	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
	c.Report.Color = strings.ToLower(c.Report.Color)
}

// Validate rejects settings the rest of the program cannot work with
func (c *Config) Validate() error {
	var errs []error

	if len(c.Source.Domains) == 0 {
		errs = append(errs, errors.New("source.domains must list at least one domain"))
	}
	if c.Paths.DB == "" {
		errs = append(errs, errors.New("paths.db must not be empty"))
	}
	if c.Download.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("download.timeout must be positive, got %s", c.Download.Timeout))
	}
	if c.Database.OpTimeout <= 0 {
		errs = append(errs, fmt.Errorf("database.op_timeout must be positive, got %s", c.Database.OpTimeout))
	}
	if c.Database.BusyTimeout < 0 {
		errs = append(errs, fmt.Errorf("database.busy_timeout must not be negative, got %s", c.Database.BusyTimeout))
	}
	switch c.Report.Color {
	case "auto", "always", "never":
	default:
		errs = append(errs, fmt.Errorf("report.color must be auto, always or never, got %q", c.Report.Color))
	}
	if c.Report.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("report.page_size must be positive, got %d", c.Report.PageSize))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

func (c *Config) Dirs() Dirs {
	return Dirs{
		Data:     c.Paths.DataDir,
		Output:   c.Paths.OutputDir,
		Videos:   filepath.Join(c.Paths.OutputDir, "videos"),
		Logs:     filepath.Join(c.Paths.OutputDir, "logs"),
		Metadata: filepath.Join(c.Paths.OutputDir, "metadata"),
	}
}

// EnsureDirs creates the data and output directories and the database's parent
func (c *Config) EnsureDirs() error {
	d := c.Dirs()
	for _, dir := range []string{d.Data, d.Output, d.Videos, d.Logs, d.Metadata, filepath.Dir(c.Paths.DB)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
