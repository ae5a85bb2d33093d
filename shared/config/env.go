package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Parse loads environment variables into the `env` tagged fields of target,
// applying `envDefault` values for unset keys.
func Parse(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
