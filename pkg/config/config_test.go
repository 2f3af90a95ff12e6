package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, time.UTC, cfg.Timezone)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.True(t, cfg.JWT.UsesDefaultSecret())
	assert.True(t, cfg.Uploads.UsesDefaultSecret())
	assert.Nil(t, cfg.CORS.AllowedOrigins)
	assert.Equal(t, int64(5*1024*1024), cfg.Uploads.MaxSizeBytes)
	assert.Equal(t, []string{".jpg", ".jpeg", ".png", ".gif"}, cfg.Uploads.AllowedExtensions)
	assert.Equal(t, 15*time.Minute, cfg.Uploads.SignedURLTTL)
	assert.Equal(t, 10, cfg.RateLimit.LoginPerMinute)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("DB_DRIVER", "SQLite3")
	v.Set("APP_TIMEZONE", "Asia/Jakarta")
	v.Set("JWT_SECRET", "prod-secret")
	v.Set("PHOTO_URL_SECRET", "prod-photo-secret")
	v.Set("JWT_EXPIRATION", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	v.Set("UPLOAD_ALLOWED_EXTENSIONS", "PNG, .Jpg")
	v.Set("UPLOAD_MAX_SIZE", 0)

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "Asia/Jakarta", cfg.Timezone.String())
	assert.False(t, cfg.JWT.UsesDefaultSecret())
	assert.False(t, cfg.Uploads.UsesDefaultSecret())
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, []string{".png", ".jpg"}, cfg.Uploads.AllowedExtensions)
	assert.Equal(t, int64(5*1024*1024), cfg.Uploads.MaxSizeBytes)
}

func TestFromViperRejectsUnknownDriver(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("DB_DRIVER", "mysql")

	_, err := fromViper(v)
	assert.Error(t, err)

	v.Set("DB_DRIVER", DriverPostgres)
	v.Set("APP_TIMEZONE", "Mars/Olympus")
	_, err = fromViper(v)
	assert.Error(t, err)
}
