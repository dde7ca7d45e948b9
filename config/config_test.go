package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "featcache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: s3
  bucket: features-prod
  prefix: graphs/part3
  concurrency: 32
fields:
  - features
  - norm
device_total_bytes: 17179869184
headroom_bytes: 1073741824
fetch_rows_per_sec: 50000
fetch_burst: 10000
log:
  format: json
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "s3", cfg.Store.Backend)
	require.Equal(t, "features-prod", cfg.Store.Bucket)
	require.Equal(t, "graphs/part3", cfg.Store.Prefix)
	require.Equal(t, 32, cfg.Store.Concurrency)
	require.Equal(t, []string{"features", "norm"}, cfg.Fields)
	require.Equal(t, int64(17179869184), cfg.DeviceTotalBytes)
	require.Equal(t, int64(1073741824), cfg.HeadroomBytes)
	require.Equal(t, float64(50000), cfg.FetchRowsPerSec)
	require.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_DefaultsApply(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: file
  dir: /data/features
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	// Unset keys keep their defaults.
	require.Equal(t, []string{"features"}, cfg.Fields)
	require.Equal(t, int64(16<<30), cfg.DeviceTotalBytes)
	require.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Default()
	require.NoError(t, valid.Validate())

	t.Run("UnknownBackend", func(t *testing.T) {
		cfg := Default()
		cfg.Store.Backend = "ftp"
		require.Error(t, cfg.Validate())
	})

	t.Run("FileNeedsDir", func(t *testing.T) {
		cfg := Default()
		cfg.Store.Dir = ""
		require.Error(t, cfg.Validate())
	})

	t.Run("S3NeedsBucket", func(t *testing.T) {
		cfg := Default()
		cfg.Store.Backend = "s3"
		require.Error(t, cfg.Validate())
	})

	t.Run("MinioNeedsEndpoint", func(t *testing.T) {
		cfg := Default()
		cfg.Store.Backend = "minio"
		cfg.Store.Bucket = "b"
		require.Error(t, cfg.Validate())
	})

	t.Run("NoFields", func(t *testing.T) {
		cfg := Default()
		cfg.Fields = nil
		require.Error(t, cfg.Validate())
	})

	t.Run("ZeroDeviceBytes", func(t *testing.T) {
		cfg := Default()
		cfg.DeviceTotalBytes = 0
		require.Error(t, cfg.Validate())
	})
}
