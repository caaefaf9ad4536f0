package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds process settings taken from the environment.
type Env struct {
	LogLevel string `env:"ROBODIAGRAM_LOG_LEVEL" envDefault:"warn"`
	DataDir  string `env:"ROBODIAGRAM_DATA" envDefault:".robodiagram/runs"`
	Dev      bool   `env:"ROBODIAGRAM_DEV"`
}

func ParseEnv() (Env, error) {
	cfg, err := env.ParseAs[Env]()
	if err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
