package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 168*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 30*time.Second, cfg.RateLimitQuestion)
	assert.Equal(t, 10*time.Second, cfg.RateLimitAnswer)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Contains(t, cfg.DSN(), "dbname=")
	assert.Equal(t, "development", cfg.LogMode)
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_TTL", "seven days")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_TTL")
}

func TestDatabaseURLWins(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/hub")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/hub", cfg.DSN())
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
	assert.Nil(t, splitList(""))
}

func TestCloudinaryConfigured(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.CloudinaryConfigured())
	cfg.CloudinaryURL = "cloudinary://k:s@demo"
	assert.True(t, cfg.CloudinaryConfigured())
}
