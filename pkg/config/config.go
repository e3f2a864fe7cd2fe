package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	defaultPath           = "~/.memos"
	defaultWidgetCap      = 3
	defaultWidgetInterval = 30 * time.Minute
	defaultDevServerAddr  = "127.0.0.1:5230"
)

// Config is the resolved client configuration.
type Config interface {
	BasePath() string
	SettingsPath() string
	InboxPath() string
	PIDFile() string

	WidgetSocket() string
	WidgetCap() int
	WidgetInterval() time.Duration

	ServerURL() string
	LogLevel() string
	LogFormat() string

	DevServerAddr() string
	DevServerDB() string
}

// Load reads .memos.yaml and MEMOS_* environment variables.
func Load() (Config, error) {
	v := viper.New()
	v.SetDefault("path", defaultPath)
	v.SetDefault("widget.cap", defaultWidgetCap)
	v.SetDefault("widget.interval", defaultWidgetInterval)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("devserver.addr", defaultDevServerAddr)
	v.SetConfigName(".memos") // .yaml is implicit
	v.SetEnvPrefix("MEMOS")
	v.AutomaticEnv()

	if override := os.Getenv("MEMOS_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return FromViper(v)
}

// FromViper resolves a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	base, err := homedir.Expand(v.GetString("path"))
	if err != nil {
		return nil, err
	}
	c := &fileConfig{
		Path:     base,
		Socket:   v.GetString("widget.socket"),
		Cap:      v.GetInt("widget.cap"),
		Interval: v.GetDuration("widget.interval"),
		Server:   v.GetString("server.url"),
		Level:    v.GetString("log.level"),
		Format:   v.GetString("log.format"),
		DevAddr:  v.GetString("devserver.addr"),
		DevDB:    v.GetString("devserver.db"),
	}
	if c.Socket == "" {
		c.Socket = filepath.Join(base, "widget.sock")
	} else if c.Socket, err = homedir.Expand(c.Socket); err != nil {
		return nil, err
	}
	if c.DevDB == "" {
		c.DevDB = filepath.Join(base, "devserver.db")
	}
	if c.Cap <= 0 {
		c.Cap = defaultWidgetCap
	}
	if c.Interval <= 0 {
		c.Interval = defaultWidgetInterval
	}
	return c, nil
}

type fileConfig struct {
	Path     string        `json:"path"`
	Socket   string        `json:"socket"`
	Cap      int           `json:"cap"`
	Interval time.Duration `json:"interval"`
	Server   string        `json:"server"`
	Level    string        `json:"level"`
	Format   string        `json:"format"`
	DevAddr  string        `json:"devAddr"`
	DevDB    string        `json:"devDB"`
}

func (f *fileConfig) BasePath() string              { return f.Path }
func (f *fileConfig) SettingsPath() string          { return filepath.Join(f.Path, "settings") }
func (f *fileConfig) InboxPath() string             { return filepath.Join(f.Path, "inbox") }
func (f *fileConfig) PIDFile() string               { return filepath.Join(f.Path, "ui.pid") }
func (f *fileConfig) WidgetSocket() string          { return f.Socket }
func (f *fileConfig) WidgetCap() int                { return f.Cap }
func (f *fileConfig) WidgetInterval() time.Duration { return f.Interval }
func (f *fileConfig) ServerURL() string             { return f.Server }
func (f *fileConfig) LogLevel() string              { return f.Level }
func (f *fileConfig) LogFormat() string             { return f.Format }
func (f *fileConfig) DevServerAddr() string         { return f.DevAddr }
func (f *fileConfig) DevServerDB() string           { return f.DevDB }
