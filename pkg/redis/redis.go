package redis

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type IRedis interface {
	Publish(ctx context.Context, channel string, payload interface{}) error
	Close() error
}

type Config struct {
	Address  string
	Password string
	DB       int
}

type redisClient struct {
	client *redis.Client
}

func New(cfg Config) IRedis {
	logrus.Info(fmt.Sprintf("Connecting to Redis at %s...", cfg.Address))

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		logrus.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client}
}

func NewFromClient(client *redis.Client) IRedis {
	return &redisClient{client: client}
}

// Publish JSON-encodes payload and publishes it on channel. Nothing is stored.
func (r *redisClient) Publish(ctx context.Context, channel string, payload interface{}) error {
	data, err := jsoniter.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	receivers, err := r.client.Publish(ctx, channel, data).Result()
	if err != nil {
		logrus.Error(fmt.Sprintf("Error publishing to channel %s: %v", channel, err))
		return err
	}

	logrus.Debug(fmt.Sprintf("Published to channel %s (%d receivers)", channel, receivers))
	return nil
}

func (r *redisClient) Close() error {
	return r.client.Close()
}
