package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/meterkit/pkg/config"
)

type testConfig struct {
	Host string `env:"METERKIT_TEST_HOST" envDefault:"localhost"`
	Port int    `env:"METERKIT_TEST_PORT" envDefault:"5432"`
}

type requiredConfig struct {
	Token string `env:"METERKIT_TEST_REQUIRED_TOKEN,required"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "localhost", cfg.Host)
		assert.Equal(t, 5432, cfg.Port)
	})

	t.Run("environment wins over defaults", func(t *testing.T) {
		t.Setenv("METERKIT_TEST_ENV_HOST", "db.internal")

		type envConfig struct {
			Host string `env:"METERKIT_TEST_ENV_HOST" envDefault:"localhost"`
		}
		var cfg envConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "db.internal", cfg.Host)
	})

	t.Run("cached after first load", func(t *testing.T) {
		var first testConfig
		require.NoError(t, config.Load(&first))

		// Changing the environment after the first load has no effect:
		// the cached copy is returned.
		t.Setenv("METERKIT_TEST_HOST", "changed")
		var second testConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, first, second)
	})

	t.Run("nil pointer", func(t *testing.T) {
		assert.ErrorIs(t, config.Load[testConfig](nil), config.ErrNilPointer)
	})

	t.Run("missing required variable", func(t *testing.T) {
		var cfg requiredConfig
		err := config.Load(&cfg)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})
}

func TestMustLoad(t *testing.T) {
	t.Run("panics on failure", func(t *testing.T) {
		type anotherRequired struct {
			Token string `env:"METERKIT_TEST_MUST_TOKEN,required"`
		}
		assert.Panics(t, func() {
			var cfg anotherRequired
			config.MustLoad(&cfg)
		})
	})
}
