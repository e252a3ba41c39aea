package config

import (
	"os"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:            "development",
		Port:           "8080",
		DBSSLMode:      "disable",
		DBPassword:     "secure-password",
		IdentitySecret: strings.Repeat("s", 40),
		IdentityIssuer: "murmur-identity",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"development defaults are fine", func(*Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing identity secret", func(c *Config) { c.IdentitySecret = "" }, true},
		{"missing issuer", func(c *Config) { c.IdentityIssuer = "" }, true},
		{"negative queue size", func(c *Config) { c.InvalidationQueueSize = -1 }, true},
		{"sample ratio above one", func(c *Config) { c.TracingSampleRatio = 1.5 }, true},
		{"short secret outside production only warns", func(c *Config) { c.IdentitySecret = "short" }, false},
		{"production with default secret", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "require"
			c.IdentitySecret = defaultIdentitySecret
		}, true},
		{"production with short secret", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "require"
			c.IdentitySecret = "short"
		}, true},
		{"production with default db password", func(c *Config) {
			c.Env = "prod"
			c.DBSSLMode = "require"
			c.DBPassword = "password"
		}, true},
		{"production with ssl disabled", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "disable"
		}, true},
		{"production fully configured", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "verify-full"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvOverridesAndNormalization(t *testing.T) {
	defer viper.Reset()
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SSLMODE")
	defer os.Unsetenv("INVALIDATION_QUEUE_SIZE")

	os.Setenv("APP_ENV", "test")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")
	os.Setenv("INVALIDATION_QUEUE_SIZE", "16")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "test", c.Env)
	assert.Equal(t, 16, c.InvalidationQueueSize)
	assert.Equal(t, "__session", c.IdentityCookie)
	assert.False(t, c.IsProduction())
}
