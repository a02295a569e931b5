package config

import (
	"encoding/json"

	"github.com/creasty/defaults"
)

// Config holds engine tunables. Webhook definitions are not configured
// here; they are supplied by the host through the registry.
type Config struct {
	Log        LogConfig        `yaml:"log" json:"log"`
	Dispatcher DispatcherConfig `yaml:"dispatcher" json:"dispatcher"`
}

func New() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		panic(err)
	}
	return cfg
}

func (cfg Config) String() string {
	bytes, err := json.Marshal(cfg)
	if err != nil {
		panic(err)
	}
	return string(bytes)
}

func (cfg Config) Validate() error {
	if err := cfg.Log.Validate(); err != nil {
		return err
	}
	if err := cfg.Dispatcher.Validate(); err != nil {
		return err
	}
	return nil
}
