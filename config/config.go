package config

import "github.com/kelseyhightower/envconfig"

type Config struct {
	HttpPort        uint16 `envconfig:"TIDEPOOL_HTTP_SERVER_PORT" default:"8080" required:"true"`
	DefaultTimezone string `envconfig:"TIDEPOOL_DEFAULT_TIMEZONE" default:"Europe/Paris"`
	DefaultBGUnits  string `envconfig:"TIDEPOOL_DEFAULT_BG_UNITS" default:"mg/dL"`
}

func New() *Config {
	return &Config{}
}

func (c *Config) LoadFromEnv() error {
	return envconfig.Process("", c)
}

// DefaultOptions derives the per-session medical data options from the
// service configuration.
func (c *Config) DefaultOptions() Options {
	opts := DefaultOptions()
	opts.Timezone = c.DefaultTimezone
	opts.BGUnits = BGUnit(c.DefaultBGUnits)
	return opts.WithDerived()
}
