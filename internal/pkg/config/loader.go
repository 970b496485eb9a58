// Package config provides environment-variable loading helpers with
// validation and warning-based fallback. Loading never fails: an invalid
// value degrades to the default and produces a warning for the caller to
// log, so a typo in one variable cannot take the whole tool down.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// LoadResult represents the result of loading a configuration value.
//
// Fields:
//   - Value: The loaded configuration value (may be the default if validation failed)
//   - Warnings: List of warning messages (one per fallback applied)
//   - FallbackApplied: True if the default value was used due to a parse or validation failure
type LoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

// LoadEnvString loads a string value from an environment variable.
// If the environment variable is not set, the default value is returned.
// No validation is performed.
//
// Example:
//
//	baseURL := LoadEnvString("FIGPULL_API_BASE_URL", "https://api.figma.com")
func LoadEnvString(envKey, defaultValue string) string {
	value := os.Getenv(envKey)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadEnvWithFallback loads a string value from an environment variable
// with validation and automatic fallback to the default on validation
// failure. An unset or empty variable uses the default without a warning.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) LoadResult {
	value := os.Getenv(envKey)
	if value == "" {
		return LoadResult{Value: defaultValue}
	}

	if validator != nil {
		if err := validator(value); err != nil {
			return fallbackResult(envKey, value, defaultValue, err)
		}
	}

	return LoadResult{Value: value}
}

// LoadEnvDuration loads a duration value from an environment variable with
// parsing, validation, and automatic fallback to the default on failure.
// The value must be parseable by time.ParseDuration ("30s", "5m", "1h30m").
//
// Example:
//
//	result := LoadEnvDuration("FIGPULL_FETCH_TIMEOUT", 30*time.Second, ValidatePositiveDuration)
//	timeout := result.Value.(time.Duration)
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) LoadResult {
	valueStr := os.Getenv(envKey)
	if valueStr == "" {
		return LoadResult{Value: defaultValue}
	}

	parsed, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallbackResult(envKey, valueStr, defaultValue, err)
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallbackResult(envKey, valueStr, defaultValue, err)
		}
	}

	return LoadResult{Value: parsed}
}

// LoadEnvInt loads an integer value from an environment variable with
// parsing, validation, and automatic fallback to the default on failure.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) LoadResult {
	valueStr := os.Getenv(envKey)
	if valueStr == "" {
		return LoadResult{Value: defaultValue}
	}

	parsed, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallbackResult(envKey, valueStr, defaultValue, fmt.Errorf("invalid integer format"))
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallbackResult(envKey, valueStr, defaultValue, err)
		}
	}

	return LoadResult{Value: parsed}
}

// LoadEnvInt64 loads an int64 value from an environment variable with
// parsing, validation, and automatic fallback to the default on failure.
// Used for byte-size limits.
func LoadEnvInt64(envKey string, defaultValue int64, validator func(int64) error) LoadResult {
	valueStr := os.Getenv(envKey)
	if valueStr == "" {
		return LoadResult{Value: defaultValue}
	}

	parsed, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return fallbackResult(envKey, valueStr, defaultValue, fmt.Errorf("invalid integer format"))
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallbackResult(envKey, valueStr, defaultValue, err)
		}
	}

	return LoadResult{Value: parsed}
}

// LoadEnvBool loads a boolean value from an environment variable with
// parsing and automatic fallback to the default on failure. Accepts the
// forms understood by strconv.ParseBool ("1", "t", "true", "0", "false").
func LoadEnvBool(envKey string, defaultValue bool) LoadResult {
	valueStr := os.Getenv(envKey)
	if valueStr == "" {
		return LoadResult{Value: defaultValue}
	}

	parsed, err := strconv.ParseBool(valueStr)
	if err != nil {
		return fallbackResult(envKey, valueStr, defaultValue,
			fmt.Errorf("invalid boolean format, expected 'true' or 'false'"))
	}

	return LoadResult{Value: parsed}
}

// fallbackResult builds the uniform warning shape used by all loaders.
func fallbackResult(envKey, raw string, defaultValue interface{}, err error) LoadResult {
	warning := fmt.Sprintf(
		"Invalid %s='%s': %v, falling back to default '%v'",
		envKey, raw, err, defaultValue,
	)
	return LoadResult{
		Value:           defaultValue,
		Warnings:        []string{warning},
		FallbackApplied: true,
	}
}
