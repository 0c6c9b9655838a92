package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"APP_ENV", "SERVER_PORT", "LOG_LEVEL", "CLIENT_ID", "CLIENT_SECRET", "REDIRECT_URI",
		"API_KEY", "CREDENTIAL_STORE", "DATABASE_URL", "MONGODB_URI", "MONGODB_DATABASE",
		"REDIS_URL", "AUTO_MIGRATE", "REMOTE_TIMEOUT", "REMOTE_SCHEME", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "http://localhost:3000/install", cfg.RedirectURI)
	assert.Equal(t, "bitrix-oauth-default-key", cfg.APIKey)
	assert.Equal(t, "bitrix-oauth", cfg.MongoDatabase)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 30*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, "https", cfg.RemoteScheme)
	assert.Equal(t, float64(100), cfg.RateLimitRPS)
	assert.Equal(t, 20, cfg.RateLimitBurst)
	assert.True(t, cfg.AutoMigrate)
	assert.False(t, cfg.Development())
}

func TestFromEnv_InfersStore(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, StoreMongo, cfg.Store)

	t.Setenv("DATABASE_URL", "postgres://localhost/crm")
	cfg, err = FromEnv()
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.Store)
}

func TestFromEnv_ExplicitStoreNeedsURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("CREDENTIAL_STORE", "postgres")

	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("CREDENTIAL_STORE", "redis")
	_, err = FromEnv()
	assert.Error(t, err)
}

func TestFromEnv_BadTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("REMOTE_TIMEOUT", "soon")

	_, err := FromEnv()
	assert.Error(t, err)
}

func TestWarnings(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	require.NoError(t, err)

	w := cfg.Warnings()
	require.Len(t, w, 3)
	assert.Contains(t, w[0], "CLIENT_ID, CLIENT_SECRET")

	cfg.ClientID, cfg.ClientSecret, cfg.APIKey, cfg.Store = "id", "secret", "k", StorePostgres
	assert.Empty(t, cfg.Warnings())
}
