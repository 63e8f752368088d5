package main

import (
	"context"
	"fmt"
	"time"

	"owner_chat_service/internal/chat/repository"
	"owner_chat_service/pkg/config"
	"owner_chat_service/pkg/database"
	"owner_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// newMessageStore connects the configured store driver, exits on failure
func newMessageStore(ctx context.Context, cfg config.Chat) (repository.MessageStore, func()) {
	switch cfg.StoreDriver {
	case "memory":
		logger.Log.Warn("using in-memory message store, history is lost on restart")
		return repository.NewMemoryMessageStore(), func() {}

	case "postgres":
		pg := cfg.PostgreSQL
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			pg.Host, pg.Port, pg.User, pg.Password, pg.Database)
		db, err := database.NewPostgresDB(database.Connection{
			ConnectStr:    dsn,
			RetryCount:    pg.RetryCount,
			RetryInterval: time.Duration(pg.RetryInterval) * time.Second,
		})
		if err != nil {
			logger.Log.Fatal("Unable to connect to postgres after retries", zap.String("host", pg.Host), zap.Error(err))
		}
		store, err := repository.NewPostgresMessageStore(db)
		if err != nil {
			logger.Log.Fatal("postgres message store", zap.Error(err))
		}
		return store, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}

	default:
		m := cfg.MongoSQL
		uri := fmt.Sprintf("mongodb://%s:%s@%s:%d", m.User, m.Password, m.Host, m.Port)
		mongo, err := database.NewMongoDB(ctx,
			database.Connection{
				ConnectStr:    uri,
				RetryCount:    m.RetryCount,
				RetryInterval: time.Duration(m.RetryInterval) * time.Second,
			},
			m.Database)
		if err != nil {
			logger.Log.Fatal("Unable to connect to mongoDB database after retries", zap.String("host", m.Host), zap.Error(err))
		}
		if err := repository.EnsureIndexes(ctx, mongo.Database); err != nil {
			logger.Log.Warn("ensure mongo indexes", zap.Error(err))
		}
		return repository.NewMongoMessageStore(mongo.Database), func() {
			_ = mongo.Close(context.Background())
		}
	}
}

// newNotifier returns nil when notifications are disabled or the broker is unreachable
func newNotifier(cfg config.Chat) repository.Notifier {
	var next repository.Notifier

	switch cfg.Notifier.Driver {
	case "kafka":
		w, err := database.NewKafkaWriterWithRetry(database.KafkaConnection{
			Brokers:       cfg.Kafka.Brokers,
			Topic:         cfg.Kafka.Topic,
			RetryCount:    cfg.Kafka.RetryCount,
			RetryInterval: time.Duration(cfg.Kafka.RetryInterval) * time.Second,
		})
		if err != nil {
			logger.Log.Error("kafka notifier disabled", zap.Error(err))
			return nil
		}
		next = repository.NewKafkaNotifier(w)

	case "rabbitmq":
		conn, err := database.ConnectRabbitMQWithRetry(database.Connection{
			ConnectStr:    cfg.RabbitMQ.URL,
			RetryCount:    cfg.RabbitMQ.RetryCount,
			RetryInterval: time.Duration(cfg.RabbitMQ.RetryInterval) * time.Second,
		})
		if err != nil {
			logger.Log.Error("rabbitmq notifier disabled", zap.Error(err))
			return nil
		}
		ch, err := database.OpenTopicExchange(conn, cfg.RabbitMQ.Exchange)
		if err != nil {
			_ = conn.Close()
			logger.Log.Error("rabbitmq notifier disabled", zap.Error(err))
			return nil
		}
		next = repository.NewRabbitNotifier(conn, ch, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey)

	default:
		logger.Log.Info("notifier disabled", zap.String("driver", cfg.Notifier.Driver))
		return nil
	}

	return repository.NewBreakerNotifier(next, cfg.Notifier.Driver, cfg.Notifier.BreakerTrips, cfg.Notifier.BreakerReset)
}
