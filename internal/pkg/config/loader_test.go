package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvString(t *testing.T) {
	t.Run("set variable wins", func(t *testing.T) {
		t.Setenv("TEST_STRING", "from-env")
		assert.Equal(t, "from-env", LoadEnvString("TEST_STRING", "default"))
	})

	t.Run("unset variable uses the default", func(t *testing.T) {
		assert.Equal(t, "default", LoadEnvString("TEST_STRING_UNSET", "default"))
	})

	t.Run("empty variable uses the default", func(t *testing.T) {
		t.Setenv("TEST_STRING_EMPTY", "")
		assert.Equal(t, "default", LoadEnvString("TEST_STRING_EMPTY", "default"))
	})
}

func TestLoadEnvWithFallback(t *testing.T) {
	rejectAll := func(string) error { return errors.New("rejected") }

	t.Run("valid value passes", func(t *testing.T) {
		t.Setenv("TEST_VALIDATED", "https://api.example.com")

		result := LoadEnvWithFallback("TEST_VALIDATED", "default", ValidateAbsoluteURL)

		assert.Equal(t, "https://api.example.com", result.Value)
		assert.False(t, result.FallbackApplied)
		assert.Empty(t, result.Warnings)
	})

	t.Run("invalid value falls back with a warning", func(t *testing.T) {
		t.Setenv("TEST_VALIDATED", "anything")

		result := LoadEnvWithFallback("TEST_VALIDATED", "default", rejectAll)

		assert.Equal(t, "default", result.Value)
		assert.True(t, result.FallbackApplied)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "TEST_VALIDATED")
		assert.Contains(t, result.Warnings[0], "falling back to default")
	})

	t.Run("unset variable uses the default without warnings", func(t *testing.T) {
		result := LoadEnvWithFallback("TEST_VALIDATED_UNSET", "default", rejectAll)

		assert.Equal(t, "default", result.Value)
		assert.False(t, result.FallbackApplied)
	})
}

func TestLoadEnvDuration(t *testing.T) {
	t.Run("parses a duration string", func(t *testing.T) {
		t.Setenv("TEST_DURATION", "45s")

		result := LoadEnvDuration("TEST_DURATION", 30*time.Second, ValidatePositiveDuration)

		assert.Equal(t, 45*time.Second, result.Value)
		assert.False(t, result.FallbackApplied)
	})

	t.Run("unparseable value falls back", func(t *testing.T) {
		t.Setenv("TEST_DURATION", "not-a-duration")

		result := LoadEnvDuration("TEST_DURATION", 30*time.Second, nil)

		assert.Equal(t, 30*time.Second, result.Value)
		assert.True(t, result.FallbackApplied)
	})

	t.Run("validation failure falls back", func(t *testing.T) {
		t.Setenv("TEST_DURATION", "-5s")

		result := LoadEnvDuration("TEST_DURATION", 30*time.Second, ValidatePositiveDuration)

		assert.Equal(t, 30*time.Second, result.Value)
		assert.True(t, result.FallbackApplied)
	})
}

func TestLoadEnvInt(t *testing.T) {
	t.Run("parses an integer", func(t *testing.T) {
		t.Setenv("TEST_INT", "8")

		result := LoadEnvInt("TEST_INT", 4, nil)

		assert.Equal(t, 8, result.Value)
	})

	t.Run("out-of-range value falls back", func(t *testing.T) {
		t.Setenv("TEST_INT", "1000")

		result := LoadEnvInt("TEST_INT", 4, func(v int) error {
			return ValidateIntRange(v, 1, 32)
		})

		assert.Equal(t, 4, result.Value)
		assert.True(t, result.FallbackApplied)
	})

	t.Run("non-numeric value falls back", func(t *testing.T) {
		t.Setenv("TEST_INT", "four")

		result := LoadEnvInt("TEST_INT", 4, nil)

		assert.Equal(t, 4, result.Value)
		assert.True(t, result.FallbackApplied)
	})
}

func TestLoadEnvInt64(t *testing.T) {
	t.Run("parses large byte sizes", func(t *testing.T) {
		t.Setenv("TEST_INT64", "67108864")

		result := LoadEnvInt64("TEST_INT64", 32<<20, ValidatePositiveInt64)

		assert.Equal(t, int64(64<<20), result.Value)
	})

	t.Run("negative value falls back", func(t *testing.T) {
		t.Setenv("TEST_INT64", "-1")

		result := LoadEnvInt64("TEST_INT64", 32<<20, ValidatePositiveInt64)

		assert.Equal(t, int64(32<<20), result.Value)
		assert.True(t, result.FallbackApplied)
	})
}

func TestLoadEnvBool(t *testing.T) {
	t.Run("parses true forms", func(t *testing.T) {
		for _, v := range []string{"1", "t", "true", "TRUE"} {
			t.Setenv("TEST_BOOL", v)
			result := LoadEnvBool("TEST_BOOL", false)
			assert.Equal(t, true, result.Value, "input %q", v)
		}
	})

	t.Run("invalid value falls back", func(t *testing.T) {
		t.Setenv("TEST_BOOL", "yes")

		result := LoadEnvBool("TEST_BOOL", false)

		assert.Equal(t, false, result.Value)
		assert.True(t, result.FallbackApplied)
	})
}
