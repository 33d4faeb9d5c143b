package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes into dir for the duration of the test; it stands in for
// t.Chdir, which requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir()) // no .env

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.AppEnv)
	assert.Equal(t, ":8030", cfg.HealthAddr)
	assert.Equal(t, 8, cfg.DownloadConcurrency)
	assert.True(t, cfg.RequireSignupComplete)
	assert.Equal(t, "printworks:queue:print", cfg.Queue.Key)
	assert.Equal(t, 20*time.Second, cfg.Queue.WaitTime)
	assert.Equal(t, 300*time.Second, cfg.Queue.VisibilityTimeout)
	assert.Equal(t, "user-images", cfg.S3.Folder)
	assert.True(t, cfg.Printer.Email.Enabled)
	assert.False(t, cfg.Printer.Email.Critical)
	assert.False(t, cfg.Printer.FTP.Enabled)
	assert.Equal(t, []string{"VALUE100", "PHOTOADDICT100", "UNLTD100SHIP"}, cfg.Billing.Plans)
	assert.Equal(t, "0.80", cfg.Billing.Rates.PAYGTier1Rate)
	assert.Equal(t, 1.25, cfg.Crop.SquareRatio)
	assert.Equal(t, []string{"square", "squ"}, cfg.Crop.SquareProducts)
}

func TestLoadDotEnvAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	env := "APP_ENV=production\n" +
		"# comment\n" +
		"QUEUE_KEY=\"orders:print\"\n" +
		"MONGO_DB=snapkeep\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o644))

	// Process environment wins over the .env file.
	t.Setenv("MONGO_DB", "snapkeep_test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.AppEnv)
	assert.Equal(t, "orders:print", cfg.Queue.Key)
	assert.Equal(t, "snapkeep_test", cfg.Mongo.Database)
}

func TestLoadParsesTypedValues(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DOWNLOAD_CONCURRENCY", "16")
	t.Setenv("PRINTER_EMAIL_CRITICAL", "true")
	t.Setenv("QUEUE_WAIT_TIME", "5")
	t.Setenv("CROP_SQUARE_RATIO", "1.5")
	t.Setenv("RATE_PAYG_TIER1", "0.90")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.DownloadConcurrency)
	assert.True(t, cfg.Printer.Email.Critical)
	assert.Equal(t, 5*time.Second, cfg.Queue.WaitTime)
	assert.Equal(t, 1.5, cfg.Crop.SquareRatio)
	assert.Equal(t, "0.90", cfg.Billing.Rates.PAYGTier1Rate)
}
