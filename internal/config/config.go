// Package config resolves service settings from flags, the environment and
// an optional .env file, in that order of precedence.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Option names double as flag names; the environment variable is the
// upper-cased name with dashes replaced by underscores.
const (
	OptionNameAPIPort   = "api-port"
	OptionNameWSPort    = "ws-port"
	OptionNameRPCURL    = "rpc-url"
	OptionNameDigestTTL = "digest-ttl"
	OptionNameLogLevel  = "log-level"
	OptionNameDevMode   = "dev-mode"
)

const (
	DefaultAPIPort   = 8080
	DefaultWSPort    = 8081
	DefaultDigestTTL = 15 * time.Minute
	DefaultLogLevel  = "info"
)

type Config struct {
	APIPort   int           `mapstructure:"api-port"`
	WSPort    int           `mapstructure:"ws-port"`
	RPCURL    string        `mapstructure:"rpc-url"`
	DigestTTL time.Duration `mapstructure:"digest-ttl"`
	LogLevel  string        `mapstructure:"log-level"`
	DevMode   bool          `mapstructure:"dev-mode"`
}

// New returns a viper instance carrying the defaults and reading the
// environment. Callers bind their flags to it before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(OptionNameAPIPort, DefaultAPIPort)
	v.SetDefault(OptionNameWSPort, DefaultWSPort)
	v.SetDefault(OptionNameRPCURL, "")
	v.SetDefault(OptionNameDigestTTL, DefaultDigestTTL)
	v.SetDefault(OptionNameLogLevel, DefaultLogLevel)
	v.SetDefault(OptionNameDevMode, false)

	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// the websocket port has always been read from PORT
	_ = v.BindEnv(OptionNameWSPort, "PORT")
	return v
}

// Load reads the given env files (".env" when none are given) into the
// process environment and decodes v. Missing files are ignored. A nil v
// is replaced by New().
func Load(v *viper.Viper, files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "failed to load env file")
	}
	if v == nil {
		v = New()
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// NewLogger builds the process logger for the configured level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s %q", OptionNameLogLevel, c.LogLevel)
	}

	zc := zap.NewProductionConfig()
	if c.DevMode {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
