package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable name in the Config env tags.
const EnvPrefix = "STORYSHELF_"

// parseEnv overlays cfg with STORYSHELF_* variables. Unset variables leave
// the current value alone. Panics on malformed values, like parseJson.
func parseEnv(cfg *Config) {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		panic(fmt.Errorf("parse env: %w", err))
	}
}
