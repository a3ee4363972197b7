package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsOnly(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	assert.Equal(t, "cascade-engine", c.Name)
	assert.Equal(t, 8080, c.Port)
	assert.False(t, c.Redis.Enabled)
}

func TestNew_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("CASCADE_NAME", "from-env")
	t.Setenv("CASCADE_PORT", "9090")
	t.Setenv("CASCADE_REDIS_URL", "redis://env-host:6379")

	c, err := New()
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.Name)
	assert.Equal(t, 9090, c.Port)
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, "redis://env-host:6379", c.Redis.URL)
}

func TestNew_OptionsOverrideEnv(t *testing.T) {
	t.Setenv("CASCADE_NAME", "from-env")

	c, err := New(WithName("from-option"), WithPort(1234))
	require.NoError(t, err)
	assert.Equal(t, "from-option", c.Name)
	assert.Equal(t, 1234, c.Port)
}

func TestNew_InvalidPortEnvReturnsError(t *testing.T) {
	t.Setenv("CASCADE_PORT", "not-a-number")
	_, err := New()
	require.Error(t, err)
}

func TestValidate_RejectsOutOfRangePort(t *testing.T) {
	c := DefaultConfig()
	c.Port = 0
	require.Error(t, c.Validate())
}

func TestWithHumanTaskTTL(t *testing.T) {
	c, err := New(WithHumanTaskTTL(2 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, c.HumanTask.DefaultTTL)
}
