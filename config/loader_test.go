package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goto/batchboard/config"
)

func TestLoadServerConfig(t *testing.T) {
	t.Run("should apply defaults when no file exists", func(t *testing.T) {
		wd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(t.TempDir()))
		t.Cleanup(func() { _ = os.Chdir(wd) })

		conf, err := config.LoadServerConfig(config.EmptyPath)

		require.NoError(t, err)
		assert.Equal(t, 9100, conf.Serve.Port)
		assert.Equal(t, 5, conf.Serve.DB.MinOpenConnection)
		assert.Equal(t, 20, conf.Serve.DB.MaxOpenConnection)
		assert.Equal(t, config.LogLevelInfo, conf.Log.Level)
		assert.True(t, conf.Reconciler.Enabled)
		assert.Equal(t, 30, conf.Reconciler.IntervalInMinutes)
		assert.Nil(t, conf.Publisher)
	})
	t.Run("should read yaml file and decode publisher", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "server.yaml")
		content := `
log:
  level: debug
serve:
  port: 8080
  db:
    dsn: postgres://localhost:5432/batchboard
reconciler:
  enabled: false
publisher:
  buffer: 8
  config:
    topic: batchboard-changes
    broker_urls: ["localhost:9092"]
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		conf, err := config.LoadServerConfig(path)

		require.NoError(t, err)
		assert.Equal(t, 8080, conf.Serve.Port)
		assert.Equal(t, "postgres://localhost:5432/batchboard", conf.Serve.DB.DSN)
		assert.Equal(t, "DEBUG", conf.Log.Level.String())
		assert.False(t, conf.Reconciler.Enabled)
		require.NotNil(t, conf.Publisher)
		assert.Equal(t, "kafka", conf.Publisher.Type)
		assert.Equal(t, 8, conf.Publisher.Buffer)
	})
	t.Run("should let environment override the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "server.yaml")
		require.NoError(t, os.WriteFile(path, []byte("serve:\n  port: 8080\n"), 0o600))
		t.Setenv("BATCHBOARD_SERVE_PORT", "7070")
		t.Setenv("BATCHBOARD_AUTH_TOKEN_SECRET", "s3cret")

		conf, err := config.LoadServerConfig(path)

		require.NoError(t, err)
		assert.Equal(t, 7070, conf.Serve.Port)
		assert.Equal(t, "s3cret", conf.Auth.TokenSecret)
	})
	t.Run("returns error when the given file does not exist", func(t *testing.T) {
		_, err := config.LoadServerConfig(filepath.Join(t.TempDir(), "missing.yaml"))

		assert.Error(t, err)
	})
}
