package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWithoutFiles(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingFilesAreIgnored(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "absent.yaml"), filepath.Join(dir, ".env"))
	assert.NoError(t, err)
}

func TestLoad_Precedence(t *testing.T) {
	file := writeFile(t, "config.yaml", "port: \"9000\"\ndb_name: fromfile\nsession_ttl: 2h\nsignin_burst: 3\n")
	env := writeFile(t, ".env", "DB_NAME=fromdotenv\n")
	t.Setenv("PORT", "9100")
	// registered for restore, then cleared so the .env file can set it
	t.Setenv("DB_NAME", "")
	require.NoError(t, os.Unsetenv("DB_NAME"))

	cfg, err := Load(file, env)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, "fromdotenv", cfg.DBName)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 3, cfg.SignInBurst)
}

func TestLoad_BadEnvValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"SESSION_TTL", "forever"},
		{"SECURE_COOKIES", "maybe"},
		{"SIGNIN_RATE", "fast"},
		{"SIGNIN_BURST", "lots"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load("", "")
			assert.ErrorContains(t, err, tt.key)
		})
	}
}

func TestValidate_BackendRequirements(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"firebase needs key data", func(c *Config) { c.IdentityBackend = BackendFirebase; c.FirebaseAPIKey = "k" }, "KEY_DATA"},
		{"firebase needs api key", func(c *Config) { c.IdentityBackend = BackendFirebase; c.KeyData = "{}" }, "FIREBASE_API_KEY"},
		{"mongo needs uri", func(c *Config) { c.DocstoreBackend = BackendMongo }, "MONGO_URI"},
		{"unknown session backend", func(c *Config) { c.SessionBackend = "etcd" }, "etcd"},
		{"non-positive ttl", func(c *Config) { c.SessionTTL = 0 }, "SESSION_TTL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestNeedsFirebase(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.NeedsFirebase())
	cfg.DocstoreBackend = BackendFirestore
	assert.True(t, cfg.NeedsFirebase())
}
