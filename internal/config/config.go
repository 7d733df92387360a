package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	errConfigRead = errors.New("failed to read config file")
	errConfigBind = errors.New("failed to bind config flag")
	errLoggerInit = errors.New("failed to initialize logger")
)

const (
	ConfigDirName     = "q3rcon"
	DefaultConfigName = "q3rcon"
	EnvPrefix         = "q3rcon"
)

type Config struct {
	// Server is the host:port used when a command is not given servers explicitly.
	Server   string `mapstructure:"server"`
	Password string `mapstructure:"password"`
	// Servers is the default list for the multi server commands (status, info).
	Servers       []string      `mapstructure:"servers"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Retries       int           `mapstructure:"retries"`
	ReadExtension time.Duration `mapstructure:"read_extension"`
	// LegacySlots numbers every getstatus player 1, matching older tools.
	LegacySlots bool   `mapstructure:"legacy_slots"`
	LogLevel    string `mapstructure:"log_level"`
}

// Loader wraps viper with the q3rcon defaults, env prefix and search paths.
type Loader struct {
	*viper.Viper
}

// NewLoader creates a loader. When configFile is empty q3rcon.yaml is searched for in the
// XDG config home and the working directory.
func NewLoader(configFile string) *Loader {
	loader := Loader{Viper: viper.New()}
	loader.SetDefault("server", "127.0.0.1:27960")
	loader.SetDefault("password", "")
	loader.SetDefault("servers", []string{})
	loader.SetDefault("timeout", time.Second)
	loader.SetDefault("retries", 3)
	loader.SetDefault("read_extension", time.Duration(0))
	loader.SetDefault("legacy_slots", false)
	loader.SetDefault("log_level", "warn")
	loader.SetEnvPrefix(EnvPrefix)
	loader.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	loader.AutomaticEnv()

	if configFile != "" {
		loader.SetConfigFile(configFile)
	} else {
		loader.SetConfigName(DefaultConfigName)
		loader.SetConfigType("yaml")
		loader.AddConfigPath(Path())
		loader.AddConfigPath(".")
	}

	return &loader
}

// BindFlags lets explicitly set command line flags override the file and env values. Flag
// names use dashes where config keys use underscores.
func (cl *Loader) BindFlags(flags *pflag.FlagSet) error {
	for _, key := range []string{"server", "password", "timeout", "retries", "read_extension", "legacy_slots", "log_level"} {
		flag := flags.Lookup(strings.ReplaceAll(key, "_", "-"))
		if flag == nil {
			continue
		}
		if err := cl.BindPFlag(key, flag); err != nil {
			return errors.Join(err, fmt.Errorf("%w: %s", errConfigBind, key))
		}
	}

	return nil
}

// Read loads the config file, if any, and decodes the merged settings. A missing config file
// is not an error when searching the default locations.
func (cl *Loader) Read() (Config, error) {
	if err := cl.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return Config{}, errors.Join(err, errConfigRead)
		}
	}

	var config Config
	if err := cl.Unmarshal(&config); err != nil {
		return Config{}, errors.Join(err, errConfigRead)
	}

	return config, nil
}

// Path returns the directory searched for the config file under $XDG_CONFIG_HOME.
func Path() string {
	return path.Join(xdg.ConfigHome, ConfigDirName)
}

// LoggerInit sets up the slog global handler writing text records to w.
func LoggerInit(w io.Writer, level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return errors.Join(err, errLoggerInit)
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		AddSource: false,
		Level:     lvl,
	}))

	slog.SetDefault(logger)

	return nil
}
