// notify-worker tails the booking event stream and hands each event to the
// delivery side (here: structured log output; a mail or SMS gateway would
// hook in the same way). Booking itself never waits on this process.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/civisched/appointment-scheduling/internal/config"
	redisclient "github.com/civisched/appointment-scheduling/internal/redis"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "notify-worker").Logger()
	logger.Info().Msg("notify-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := redisclient.Connect(rootCtx, redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Str("stream", cfg.NotifyStream).Msg("connected to Redis, tailing stream")

	lastID := "$"
	for {
		streams, err := rdb.XRead(rootCtx, &redis.XReadArgs{
			Streams: []string{cfg.NotifyStream, lastID},
			Count:   32,
			Block:   5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || rootCtx.Err() != nil {
				logger.Info().Msg("shutting down notify-worker")
				return
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			logger.Error().Err(err).Msg("stream read error")
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				lastID = msg.ID
				deliver(logger, msg)
			}
		}
	}
}

func deliver(logger zerolog.Logger, msg redis.XMessage) {
	eventType, _ := msg.Values["type"].(string)
	payload, _ := msg.Values["payload"].(string)

	ev := logger.Info().
		Str("id", msg.ID).
		Str("type", eventType)
	if payload != "" {
		ev = ev.RawJSON("payload", []byte(payload))
	}
	ev.Msg("notification delivered")
}
