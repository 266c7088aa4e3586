package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type ICE struct {
	STUN       []string `mapstructure:"stun"`
	TURN       []string `mapstructure:"turn"`
	TURNUser   string   `mapstructure:"turn_user"`
	TURNPass   string   `mapstructure:"turn_pass"`
	ForceRelay bool     `mapstructure:"force_relay"`
}

type Media struct {
	AudioFile string `mapstructure:"audio_file"`
	VideoFile string `mapstructure:"video_file"`
}

type Config struct {
	Mode     string `mapstructure:"mode"`
	LogLevel string `mapstructure:"log_level"`

	APIURL         string        `mapstructure:"api_url"`
	Token          string        `mapstructure:"token"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	PollInterval      time.Duration `mapstructure:"poll_interval"`
	LeaveTimeout      time.Duration `mapstructure:"leave_timeout"`
	MaxParallelOffers int           `mapstructure:"max_parallel_offers"`
	ReconnectCooldown int           `mapstructure:"reconnect_cooldown"`

	ICE   ICE   `mapstructure:"ice"`
	Media Media `mapstructure:"media"`

	ControlAddr    string        `mapstructure:"control_addr"`
	ControlSecret  string        `mapstructure:"control_secret"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"api-url":        "api_url",
	"token":          "token",
	"poll-interval":  "poll_interval",
	"audio":          "media.audio_file",
	"video":          "media.video_file",
	"control":        "control_addr",
	"control-secret": "control_secret",
	"stun":           "ice.stun",
	"turn":           "ice.turn",
	"turn-user":      "ice.turn_user",
	"turn-pass":      "ice.turn_pass",
	"force-relay":    "ice.force_relay",
	"log-level":      "log_level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("log_level", "info")
	v.SetDefault("api_url", "http://localhost:8080")
	v.SetDefault("token", "")
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("poll_interval", "3s")
	v.SetDefault("leave_timeout", "5s")
	v.SetDefault("max_parallel_offers", 4)
	v.SetDefault("reconnect_cooldown", 0)
	v.SetDefault("ice.stun", []string{"stun:stun.l.google.com:19302", "stun:stun1.l.google.com:19302"})
	v.SetDefault("ice.turn", []string{})
	v.SetDefault("ice.turn_user", "")
	v.SetDefault("ice.turn_pass", "")
	v.SetDefault("ice.force_relay", false)
	v.SetDefault("media.audio_file", "")
	v.SetDefault("media.video_file", "")
	v.SetDefault("control_addr", "127.0.0.1:7070")
	v.SetDefault("control_secret", "")
	v.SetDefault("allowed_origins", []string{})
	v.SetDefault("ping_period", "54s")
}

// Load reads config/config.<CONFIG_ENV>.yaml (or CONFIG_FILE), then MESH_*
// environment variables, then any flags in fs that were set.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	fileName := os.Getenv("CONFIG_FILE")
	if fileName == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		fileName = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(fileName)

	v.SetEnvPrefix("MESH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if fs != nil {
		for flag, key := range flagKeys {
			if f := fs.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", flag, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", fileName, err)
		}
		log.Debug().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.APIURL == "":
		return errors.New("api_url is required")
	case c.PollInterval <= 0:
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	case c.LeaveTimeout <= 0:
		return fmt.Errorf("leave_timeout must be positive, got %s", c.LeaveTimeout)
	case c.RequestTimeout <= 0:
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	case c.MaxParallelOffers <= 0:
		return fmt.Errorf("max_parallel_offers must be positive, got %d", c.MaxParallelOffers)
	case c.ReconnectCooldown < 0:
		return fmt.Errorf("reconnect_cooldown must not be negative, got %d", c.ReconnectCooldown)
	}
	return nil
}
