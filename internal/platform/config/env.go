// Package config holds the environment-variable layer shared by the
// benchmark tools. Every tool's ParseConfig reads its ALGOBENCH_* variables
// through ParseEnv before overlaying command-line flags.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables into target, a
// pointer to a struct with env tags.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
