// Package config loads the client's settings from the environment, an
// optional .env file and an optional cagate.yaml.
package config

import (
	"os"
	"strings"
	"time"

	"cagate/remote/internal/input"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "CAGATE"
	configName     = "cagate"
	minWHEPTimeout = time.Second
)

// Control configures the websocket control channel.
type Control struct {
	URL              string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	QueueSize        int
}

// WHEP configures video negotiation.
type WHEP struct {
	URL         string
	Token       string
	Timeout     time.Duration
	PreferCodec string
	ICEServers  []string
}

// Touch configures the input mapper.
type Touch struct {
	Scale       input.WireScale
	InvertY     bool
	MinInterval time.Duration
	MinDelta    int
}

// Button configures the start button click.
type Button struct {
	Hold time.Duration
}

// Config holds the application configuration.
type Config struct {
	Control Control
	WHEP    WHEP
	Touch   Touch
	Button  Button
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("control.url", "ws://ghost-wheel.ru:50141/j-rpc/play")
	v.SetDefault("control.handshake_timeout", 10*time.Second)
	v.SetDefault("control.write_timeout", 5*time.Second)
	v.SetDefault("control.queue_size", 64)

	v.SetDefault("whep.url", "http://ghost-wheel.ru:50157/wrtc-main/whep")
	v.SetDefault("whep.token", "")
	v.SetDefault("whep.timeout", 6*time.Second)
	v.SetDefault("whep.prefer_codec", "video/h264")
	v.SetDefault("whep.ice_servers", "")

	v.SetDefault("touch.scale", int(input.Scale10000))
	v.SetDefault("touch.invert_y", false)
	v.SetDefault("touch.min_interval", input.DefaultMinSendInterval)
	v.SetDefault("touch.min_delta", input.DefaultMinDelta)

	v.SetDefault("button.hold", 250*time.Millisecond)
}

// Load reads configuration from a .env file (if present), the process
// environment and a config file. Environment variables take precedence.
// An empty path searches for cagate.yaml in the working directory and
// $HOME/.cagate; a missing file is not an error unless path was given.
func Load(path string) (*Config, error) {
	// godotenv.Load does not overwrite existing env vars
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(os.ExpandEnv("$HOME/.cagate"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	cfg := &Config{
		Control: Control{
			URL:              strings.TrimSpace(v.GetString("control.url")),
			HandshakeTimeout: v.GetDuration("control.handshake_timeout"),
			WriteTimeout:     v.GetDuration("control.write_timeout"),
			QueueSize:        v.GetInt("control.queue_size"),
		},
		WHEP: WHEP{
			URL:         strings.TrimSpace(v.GetString("whep.url")),
			Token:       v.GetString("whep.token"),
			Timeout:     v.GetDuration("whep.timeout"),
			PreferCodec: v.GetString("whep.prefer_codec"),
			ICEServers:  splitList(v.GetStringSlice("whep.ice_servers")),
		},
		Touch: Touch{
			Scale:       input.WireScale(v.GetInt("touch.scale")),
			InvertY:     v.GetBool("touch.invert_y"),
			MinInterval: v.GetDuration("touch.min_interval"),
			MinDelta:    v.GetInt("touch.min_delta"),
		},
		Button: Button{
			Hold: v.GetDuration("button.hold"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that have no usable fallback.
func (c *Config) Validate() error {
	if c.Control.URL == "" {
		return errors.New("control.url is required")
	}
	if c.WHEP.URL == "" {
		return errors.New("whep.url is required")
	}
	if c.WHEP.Timeout < minWHEPTimeout {
		return errors.Errorf("whep.timeout must be at least %s, got %s", minWHEPTimeout, c.WHEP.Timeout)
	}
	if !c.Touch.Scale.Valid() {
		return errors.Errorf("touch.scale must be %d or %d, got %d", input.Scale10000, input.Scale0x7FFF, c.Touch.Scale)
	}
	if c.Touch.MinInterval < 0 {
		return errors.Errorf("touch.min_interval must not be negative, got %s", c.Touch.MinInterval)
	}
	if c.Touch.MinDelta < 0 {
		return errors.Errorf("touch.min_delta must not be negative, got %d", c.Touch.MinDelta)
	}
	if c.Button.Hold < 0 {
		return errors.Errorf("button.hold must not be negative, got %s", c.Button.Hold)
	}
	return nil
}

// splitList accepts both YAML lists and comma or space separated env values.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, s := range strings.FieldsFunc(item, func(r rune) bool { return r == ',' || r == ' ' }) {
			out = append(out, s)
		}
	}
	return out
}
