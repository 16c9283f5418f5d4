package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/purse/internal/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("PURSE_TEST_DIR", "/srv/purse")

	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"~", home},
		{"~/data/purse.db", filepath.Join(home, "data/purse.db")},
		{"$PURSE_TEST_DIR/purse.db", "/srv/purse/purse.db"},
		{"/abs/purse.db", "/abs/purse.db"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.input))
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, ExpandPath(DefaultDatabasePath), cfg.Database.Path)
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, ":8080", cfg.API.Addr)
		assert.Equal(t, 24*time.Hour, cfg.API.TokenTTL)
		assert.False(t, cfg.API.TLS)
		assert.Equal(t, ExpandPath(DefaultCertDir), cfg.API.CertDir)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("PURSE_SESSION_LOGIN", "alice")
		t.Setenv("PURSE_API_TOKEN_TTL", "1h")
		t.Setenv("PURSE_API_TLS", "true")

		v := viper.New()
		SetDefaults(v)
		v.SetEnvPrefix("PURSE")
		v.SetEnvKeyReplacer(NewEnvReplacer())
		v.AutomaticEnv()

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, "alice", cfg.Session.Login)
		assert.Equal(t, time.Hour, cfg.API.TokenTTL)
		assert.True(t, cfg.API.TLS)
	})

	t.Run("invalid ttl", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("api.token_ttl", "-1h")

		_, err := Load(v)
		assert.ErrorIs(t, err, common.ErrInvalidConfig)
	})
}

func TestConfig_ValidateAPI(t *testing.T) {
	cfg := &Config{API: APIConfig{Addr: ":8080", JWTSecret: "short"}}
	assert.ErrorIs(t, cfg.ValidateAPI(), common.ErrInvalidConfig)

	cfg.API.JWTSecret = "a-long-enough-secret"
	assert.NoError(t, cfg.ValidateAPI())

	cfg.API.Addr = ""
	assert.ErrorIs(t, cfg.ValidateAPI(), common.ErrInvalidConfig)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PURSE_DOTENV_PROBE=loaded\n"), 0600))
	t.Setenv("PURSE_DOTENV_PROBE", "")
	require.NoError(t, os.Unsetenv("PURSE_DOTENV_PROBE"))

	require.NoError(t, LoadDotEnv(envFile, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "loaded", os.Getenv("PURSE_DOTENV_PROBE"))
}
