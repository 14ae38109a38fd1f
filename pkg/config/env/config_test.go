package env

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/craffles/pkg/config"
)

func TestConfig(t *testing.T) {
	const env = "CRAFFLES_ENV_CONFIG_TEST_VAR"

	c := NewConfig(env)

	v, err := c.Get(context.Background())
	assert.Nil(t, v)
	assert.Equal(t, config.ErrNoValue, err)

	t.Setenv(env, "value")

	v, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), v)
}

func TestTypedConfigs(t *testing.T) {
	assert.EqualValues(t, 14, NewUint64Config("CRAFFLES_ENV_TEST_DEPTH", 14).Get(context.Background()))
	assert.Equal(t, time.Second, NewDurationConfig("CRAFFLES_ENV_TEST_TIMEOUT", time.Second).Get(context.Background()))

	t.Setenv("CRAFFLES_ENV_TEST_DEPTH", "20")
	t.Setenv("CRAFFLES_ENV_TEST_TIMEOUT", "3s")
	t.Setenv("CRAFFLES_ENV_TEST_PUBLIC", "true")
	t.Setenv("CRAFFLES_ENV_TEST_END", "-5")
	t.Setenv("CRAFFLES_ENV_TEST_NAME", "ticket")

	assert.EqualValues(t, 20, NewUint64Config("CRAFFLES_ENV_TEST_DEPTH", 14).Get(context.Background()))
	assert.Equal(t, 3*time.Second, NewDurationConfig("CRAFFLES_ENV_TEST_TIMEOUT", time.Second).Get(context.Background()))
	assert.True(t, NewBoolConfig("CRAFFLES_ENV_TEST_PUBLIC", false).Get(context.Background()))
	assert.EqualValues(t, -5, NewInt64Config("CRAFFLES_ENV_TEST_END", 0).Get(context.Background()))
	assert.Equal(t, "ticket", NewStringConfig("craffles_env_test_name", "").Get(context.Background()))
}
