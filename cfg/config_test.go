package cfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreConfig(t *testing.T) {
	t.Helper()
	saved := *Config
	t.Cleanup(func() { *Config = saved })
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	restoreConfig(t)

	require.NoError(t, Load(filepath.Join(t.TempDir(), "absent.toml")))

	assert.Equal(t, "nats", Config.Face.Transport)
	assert.Equal(t, "ndn.push", Config.Face.TopicPrefix)
	assert.Equal(t, "console", Config.Logging.Format)
	assert.NotZero(t, Config.InstanceID)
}

func TestLoadOverridesDefaults(t *testing.T) {
	restoreConfig(t)

	path := filepath.Join(t.TempDir(), "namepush.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
instance_id = 42

[face]
transport = "kafka"
brokers = ["127.0.0.1:9092"]
topic_prefix = "push"

[logging]
verbose = true
format = "json"
`), 0644))

	require.NoError(t, Load(path))

	assert.Equal(t, uint64(42), Config.InstanceID)
	assert.Equal(t, "kafka", Config.Face.Transport)
	assert.Equal(t, []string{"127.0.0.1:9092"}, Config.Face.Brokers)
	assert.Equal(t, "push", Config.Face.TopicPrefix)
	assert.True(t, Config.Logging.Verbose)
	assert.Equal(t, "json", Config.Logging.Format)
}

func TestValidateTransports(t *testing.T) {
	restoreConfig(t)

	require.NoError(t, Validate())

	Config.Face.Transport = "mock"
	require.NoError(t, Validate())

	Config.Face.Transport = "kafka"
	Config.Face.Brokers = nil
	require.Error(t, Validate())
	Config.Face.Brokers = []string{"127.0.0.1:9092"}
	require.NoError(t, Validate())

	Config.Face.Transport = "nats"
	Config.Face.URL = ""
	require.Error(t, Validate())

	Config.Face.URL = "nats://127.0.0.1:4222"
	Config.Face.Transport = "smoke-signal"
	require.Error(t, Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	restoreConfig(t)

	Config.Face.TopicPrefix = ""
	require.Error(t, Validate())
	Config.Face.TopicPrefix = "ndn.push"

	Config.Logging.Format = "xml"
	require.Error(t, Validate())
	Config.Logging.Format = "console"

	Config.Prometheus.Enabled = true
	Config.Prometheus.Port = 0
	require.Error(t, Validate())
	Config.Prometheus.Port = 9090
	require.NoError(t, Validate())
}
