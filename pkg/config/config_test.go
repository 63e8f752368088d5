package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ExpandsEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
port: ${TEST_CHAT_PORT}
store_driver: memory
store_timeout: 2s
mongo:
  host: ${TEST_MONGO_HOST}
  port: 27017
kafka:
  brokers:
    - a:9092
    - b:9092
websocket:
  pong_wait: 30s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat_test.yaml"), []byte(yaml), 0o644))
	t.Setenv("TEST_CHAT_PORT", "9999")
	t.Setenv("TEST_MONGO_HOST", "mongo.local")

	cfg, err := LoadConfig[Chat]("chat_test", dir)
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, 2*time.Second, cfg.StoreTimeout)
	assert.Equal(t, "mongo.local", cfg.MongoSQL.Host)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Second, cfg.WS.PongWait)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig[Chat]("nope", t.TempDir())
	assert.Error(t, err)
}

func TestChat_WithDefaults(t *testing.T) {
	cfg := Chat{WS: WebsocketConfig{PongWait: 10 * time.Second, PingInterval: time.Minute}}.WithDefaults()

	assert.Equal(t, "8083", cfg.Port)
	assert.Equal(t, "mongo", cfg.StoreDriver)
	assert.Equal(t, "none", cfg.Notifier.Driver)
	assert.Equal(t, 20, cfg.History.DefaultPageSize)
	assert.Equal(t, 100, cfg.History.MaxPageSize)
	// ping must fire before the pong deadline
	assert.Equal(t, 9*time.Second, cfg.WS.PingInterval)
}

func TestGetRedisSetting(t *testing.T) {
	t.Setenv("REDIS_MASTER_NAME", "primary")
	t.Setenv("REDIS_SENTINEL1_IP", "10.0.0.1")
	t.Setenv("REDIS_SENTINEL1_PORT", "26379")

	master, addrs := GetRedisSetting()

	assert.Equal(t, "primary", master)
	assert.Contains(t, addrs, "10.0.0.1:26379")
}
