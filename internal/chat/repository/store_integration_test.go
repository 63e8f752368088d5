package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"owner_chat_service/pkg/database"
	"owner_chat_service/pkg/logger"
	testtool "owner_chat_service/pkg/test_tool"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startContainer(t *testing.T, req testcontainers.ContainerRequest) (string, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("container test skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, host, port, err := testtool.SetupContainer(ctx, req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })
	return host, port
}

func TestMongoMessageStore_Contract(t *testing.T) {
	logger.SetNewNop()
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	})

	ctx := context.Background()
	mongo, err := database.NewMongoDB(ctx, database.Connection{
		ConnectStr:    fmt.Sprintf("mongodb://%s:%s", host, port),
		RetryCount:    5,
		RetryInterval: time.Second,
	}, "chat_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = mongo.Close(ctx) })

	runStoreContract(t, func(t *testing.T) MessageStore {
		db := mongo.Client.Database("chat_" + uuid.NewString()[:8])
		require.NoError(t, EnsureIndexes(ctx, db))
		return NewMongoMessageStore(db)
	})
}

func TestPostgresMessageStore_Contract(t *testing.T) {
	logger.SetNewNop()
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "chat",
			"POSTGRES_PASSWORD": "chat",
			"POSTGRES_DB":       "chat",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	})

	db, err := database.NewPostgresDB(database.Connection{
		ConnectStr:    fmt.Sprintf("host=%s port=%s user=chat password=chat dbname=chat sslmode=disable TimeZone=UTC", host, port),
		RetryCount:    5,
		RetryInterval: time.Second,
	})
	require.NoError(t, err)

	runStoreContract(t, func(t *testing.T) MessageStore {
		require.NoError(t, db.Exec("DROP TABLE IF EXISTS chat_messages").Error)
		store, err := NewPostgresMessageStore(db)
		require.NoError(t, err)
		return store
	})
}

func TestRedisRelay_SkipsOwnEvents(t *testing.T) {
	logger.SetNewNop()
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	})

	client, err := database.NewRedisClient("", nil, host+":"+port, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	local := NewRedisRelay(client, "instance-a")
	remote := NewRedisRelay(client, "instance-b")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type delivery struct {
		userID  string
		payload string
	}
	got := make(chan delivery, 4)
	go local.Run(ctx, func(userID string, payload []byte) {
		got <- delivery{userID, string(payload)}
	})

	// PSubscribe is asynchronous, retry until the subscription is live
	require.Eventually(t, func() bool {
		if err := remote.Publish(ctx, "bob", []byte(`{"event":"new_message"}`)); err != nil {
			return false
		}
		select {
		case d := <-got:
			return d.userID == "bob" && d.payload == `{"event":"new_message"}`
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)

	// drain duplicates from the retry loop, then check own events are skipped
	time.Sleep(200 * time.Millisecond)
	for len(got) > 0 {
		<-got
	}
	require.NoError(t, local.Publish(ctx, "bob", []byte(`{"event":"mine"}`)))
	select {
	case d := <-got:
		assert.Failf(t, "own event delivered", "%+v", d)
	case <-time.After(300 * time.Millisecond):
	}
}
