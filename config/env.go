package config

import (
	"os"
)

// Environment is the runtime environment the process was started in. It
// decides how strict configuration validation is.
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment resolves the current environment. CI=true wins over ENV;
// anything unrecognized counts as development.
func GetEnvironment() Environment {
	if os.Getenv("CI") == "true" {
		return CI
	}

	switch os.Getenv("ENV") {
	case "production":
		return Production
	case "test":
		return Test
	default:
		return Development
	}
}

// IsCI reports whether the process runs under CI.
func IsCI() bool {
	return GetEnvironment() == CI
}

// IsProduction reports whether the process runs in production.
func IsProduction() bool {
	return GetEnvironment() == Production
}
