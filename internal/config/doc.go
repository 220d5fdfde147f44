// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// Durations rely on the package defaults unless overridden programmatically.
package config
