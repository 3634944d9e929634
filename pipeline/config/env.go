package config

import (
	"github.com/gear6io/oraport/pkg/errors"
	"github.com/spf13/viper"
)

// Environment keys for the source connection. They match the keys of the
// .env files the exports were historically run with.
const (
	EnvHost        = "HOST"
	EnvPort        = "PORT"
	EnvServiceName = "SERVICE_NAME"
	EnvUsername    = "USERNAME"
	EnvPassword    = "PASSWORD"
	EnvOwner       = "OWNER"
)

// ApplyEnv overlays source connection settings from an optional dotenv file
// and the process environment. Process environment wins over the file, and
// both win over values already present in cfg.
func ApplyEnv(cfg *Config, envFile string) error {
	v := viper.New()
	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return errors.New(ErrEnvFileReadFailed, "failed to read env file", err).AddContext("path", envFile)
		}
	}
	v.AutomaticEnv()

	if s := v.GetString(EnvHost); s != "" {
		cfg.Source.Host = s
	}
	if p := v.GetInt(EnvPort); p > 0 {
		cfg.Source.Port = p
	}
	if s := v.GetString(EnvServiceName); s != "" {
		cfg.Source.ServiceName = s
	}
	if s := v.GetString(EnvUsername); s != "" {
		cfg.Source.Username = s
	}
	if s := v.GetString(EnvPassword); s != "" {
		cfg.Source.Password = s
	}
	if s := v.GetString(EnvOwner); s != "" {
		cfg.Source.Owner = s
	}
	return nil
}
