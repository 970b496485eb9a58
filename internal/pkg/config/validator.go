package config

import (
	"fmt"
	"net/url"
	"time"
)

// ValidatePositiveDuration validates that a duration is strictly positive.
func ValidatePositiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %v", d)
	}
	return nil
}

// ValidateDurationRange validates that a duration falls within [min, max]
// inclusive.
func ValidateDurationRange(d, min, max time.Duration) error {
	if d < min || d > max {
		return fmt.Errorf("duration %v outside valid range [%v, %v]", d, min, max)
	}
	return nil
}

// ValidateIntRange validates that an integer falls within [min, max]
// inclusive.
func ValidateIntRange(v, min, max int) error {
	if v < min || v > max {
		return fmt.Errorf("value %d outside valid range [%d, %d]", v, min, max)
	}
	return nil
}

// ValidatePositiveInt64 validates that an int64 is strictly positive.
func ValidatePositiveInt64(v int64) error {
	if v <= 0 {
		return fmt.Errorf("value must be positive, got %d", v)
	}
	return nil
}

// ValidateAbsoluteURL validates that a string parses as an absolute http or
// https URL. Used for API base URL overrides.
func ValidateAbsoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL '%s': %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL '%s' must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("URL '%s' has no host", raw)
	}
	return nil
}
