package dispatch

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/soltixdb/clusterview/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestNATS creates an embedded NATS server with JetStream for testing
func setupTestNATS(t *testing.T) string {
	t.Helper()

	ns, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      -1, // Random port
		JetStream: true,
		StoreDir:  t.TempDir(),
	})
	require.NoError(t, err, "failed to create NATS server")

	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})
	return ns.ClientURL()
}

func TestNATSPublisher_PublishesToStream(t *testing.T) {
	url := setupTestNATS(t)

	cfg := config.DefaultConfig().Queue
	cfg.URL = url

	pub, err := NewNATSPublisher(cfg)
	require.NoError(t, err)
	defer func() { _ = pub.Close() }()

	subject := IndexSubject(cfg.SubjectPrefix, "prod", "open")
	require.NoError(t, pub.Publish(context.Background(), subject, []byte(`{"index":"logs"}`)))

	info, err := pub.js.StreamInfo(cfg.StreamName)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.State.Msgs)

	msg, err := pub.js.GetLastMsg(cfg.StreamName, subject)
	require.NoError(t, err)
	assert.Equal(t, `{"index":"logs"}`, string(msg.Data))
}

func TestNATSPublisher_ReusesExistingStream(t *testing.T) {
	url := setupTestNATS(t)

	conn, err := nats.Connect(url)
	require.NoError(t, err)
	defer conn.Close()

	first, err := NewNATSPublisherWithConn(conn, "CMDS", "cv")
	require.NoError(t, err)
	require.NoError(t, first.Publish(context.Background(), "cv.a.shard.relocate", []byte("1")))

	second, err := NewNATSPublisherWithConn(conn, "CMDS", "cv")
	require.NoError(t, err)
	require.NoError(t, second.Publish(context.Background(), "cv.a.shard.relocate", []byte("2")))

	info, err := second.js.StreamInfo("CMDS")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), info.State.Msgs)
}

func TestNATSPublisher_SubjectOutsideStreamFails(t *testing.T) {
	url := setupTestNATS(t)

	conn, err := nats.Connect(url)
	require.NoError(t, err)
	defer conn.Close()

	pub, err := NewNATSPublisherWithConn(conn, "CMDS", "cv")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Error(t, pub.Publish(ctx, "other.subject", []byte("x")))
}

func TestNewPublisher(t *testing.T) {
	cfg := config.DefaultConfig().Queue

	cfg.Type = "memory"
	pub, err := NewPublisher(cfg)
	require.NoError(t, err)
	assert.IsType(t, &MemoryPublisher{}, pub)

	cfg.Type = "kafka"
	cfg.KafkaBrokers = nil
	_, err = NewPublisher(cfg)
	assert.Error(t, err)

	cfg.Type = "rabbitmq"
	_, err = NewPublisher(cfg)
	assert.Error(t, err)
}

func TestNewPublisher_DefaultsToNATS(t *testing.T) {
	url := setupTestNATS(t)

	cfg := config.DefaultConfig().Queue
	cfg.Type = ""
	cfg.URL = url

	pub, err := NewPublisher(cfg)
	require.NoError(t, err)
	defer func() { _ = pub.Close() }()
	assert.IsType(t, &NATSPublisher{}, pub)
}

func TestRedisPublisher(t *testing.T) {
	addr := os.Getenv("CLUSTERVIEW_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CLUSTERVIEW_TEST_REDIS_ADDR not set")
	}

	pub, err := NewRedisPublisher(config.QueueConfig{URL: addr, RedisStream: "cvtest"})
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	defer func() { _ = pub.Close() }()

	ctx := context.Background()
	subject := RelocateSubject("cv", "test")
	require.NoError(t, pub.Publish(ctx, subject, []byte("payload")))

	stream := pub.streamName(subject)
	defer pub.client.Del(ctx, stream)

	entries, err := pub.client.XRange(ctx, stream, "-", "+").Result()
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "payload", entries[len(entries)-1].Values["data"])
}

func TestKafkaPublisher(t *testing.T) {
	brokers := os.Getenv("CLUSTERVIEW_TEST_KAFKA_BROKERS")
	if brokers == "" {
		t.Skip("CLUSTERVIEW_TEST_KAFKA_BROKERS not set")
	}

	pub, err := NewKafkaPublisher(config.QueueConfig{KafkaBrokers: []string{brokers}})
	require.NoError(t, err)
	defer func() { _ = pub.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	topic := IndexSubject("cv", "test", "open")
	require.NoError(t, pub.Publish(ctx, topic, []byte("payload")))
	assert.GreaterOrEqual(t, pub.Stats(topic).Messages, int64(1))
}
