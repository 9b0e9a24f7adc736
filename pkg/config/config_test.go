package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "admin:\n  username: staff\n  password: secret\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 8080, cfg.Gateway.Port)
	assert.Equal(t, 24*time.Hour, cfg.Expiry.PickupWindow)
	assert.Equal(t, "staff", cfg.Admin.Username)
	assert.Equal(t, "0.0.0.0:50052", cfg.Server.Addr())
}

const adminBlock = "admin:\n  username: staff\n  password: secret\n"

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, adminBlock+"storage:\n  backend: memory\n")
	t.Setenv("PICKUPSHOP_STORAGE_BACKEND", "redis")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Storage.Backend)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, adminBlock+"storage:\n  backend: localstorage\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRequiresAdminCredentials(t *testing.T) {
	path := writeConfig(t, "storage:\n  backend: memory\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "admin")

	path = writeConfig(t, adminBlock)
	t.Setenv("PICKUPSHOP_ADMIN_USERNAME", " ")
	_, err = Load(path)
	assert.ErrorContains(t, err, "admin")
}

func TestLoadRejectsNonPositiveSweepInterval(t *testing.T) {
	path := writeConfig(t, adminBlock+"expiry:\n  enabled: false\n  sweep_interval: 0s\n")

	_, err := Load(path)
	assert.ErrorContains(t, err, "sweep_interval")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMySQLDSN(t *testing.T) {
	c := MySQLConfig{Host: "db", Port: 3306, Username: "u", Password: "p", Database: "shop"}
	assert.Equal(t, "u:p@tcp(db:3306)/shop?charset=utf8mb4&parseTime=True&loc=Local", c.DSN())
}

func TestNewLogger(t *testing.T) {
	logger, err := LogConfig{Level: "debug", Encoding: "console", OutputPaths: []string{"stderr"}}.NewLogger()
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = LogConfig{Level: "loud"}.NewLogger()
	assert.Error(t, err)
}
