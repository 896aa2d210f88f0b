package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productionConfig() *Config {
	return &Config{
		Env:        "production",
		Port:       "8460",
		JWTSecret:  "a-long-random-production-secret-0123456789",
		DBPassword: "definitely-not-the-default",
		DBSSLMode:  "require",
		RedisURL:   "redis://cache:6379",
	}
}

func TestValidate_RequiredFields(t *testing.T) {
	c := productionConfig()
	c.Port = ""
	assert.ErrorContains(t, c.Validate(), "PORT")

	c = productionConfig()
	c.JWTSecret = ""
	assert.ErrorContains(t, c.Validate(), "JWT_SECRET")
}

func TestValidate_ProductionStrictness(t *testing.T) {
	t.Run("valid production config", func(t *testing.T) {
		assert.NoError(t, productionConfig().Validate())
	})

	t.Run("default jwt secret refused", func(t *testing.T) {
		c := productionConfig()
		c.JWTSecret = "your-secret-key-change-in-production"
		assert.ErrorContains(t, c.Validate(), "JWT_SECRET")
	})

	t.Run("short jwt secret refused", func(t *testing.T) {
		c := productionConfig()
		c.JWTSecret = "short"
		assert.ErrorContains(t, c.Validate(), "32 characters")
	})

	t.Run("default db password refused", func(t *testing.T) {
		c := productionConfig()
		c.DBPassword = "password"
		assert.ErrorContains(t, c.Validate(), "DB_PASSWORD")
	})

	t.Run("prod alias is strict too", func(t *testing.T) {
		c := productionConfig()
		c.Env = "prod"
		c.DBPassword = ""
		assert.Error(t, c.Validate())
	})
}

func TestValidate_DevelopmentIsLenient(t *testing.T) {
	c := &Config{
		Env:       "development",
		Port:      "8460",
		JWTSecret: "short",
	}
	// Weak secrets only warn outside production.
	assert.NoError(t, c.Validate())
}

func TestLoadConfig_DevelopmentDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("APP_ENV", "development")

	c, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8460", c.Port)
	assert.Equal(t, "azox", c.DBUser)
	assert.Equal(t, "azox", c.DBName)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "localhost:6379", c.RedisURL)
	assert.Equal(t, "hybrid", c.DBSchemaMode)
	assert.False(t, c.TracingEnabled)
	assert.Equal(t, "stdout", c.TracingExporter)
	assert.Equal(t, "localhost:4318", c.TracingOTLPEndpoint)
	assert.InDelta(t, 1.0, c.TracingSamplerRatio, 0.001)
	assert.Equal(t, 25, c.DBMaxOpenConns)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("APP_ENV", "development")
	t.Setenv("PORT", "9000")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("TRACING_EXPORTER", "otlp")
	t.Setenv("TRACING_OTLP_ENDPOINT", "collector:4318")

	c, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", c.Port)
	assert.True(t, c.TracingEnabled)
	assert.Equal(t, "otlp", c.TracingExporter)
	assert.Equal(t, "collector:4318", c.TracingOTLPEndpoint)
}

func TestLoadConfig_MissingProfileFileFails(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("APP_ENV", "staging")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config.staging.yml")
}
