package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/sandbox"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/telemetry"
)

const retryInterval = 250 * time.Millisecond

var _ sandbox.Locker = (*Redis)(nil)

// Redis hands out per-key locks shared by every instance of the service.
type Redis struct {
	lockService *redislock.Client
	lockOption  *redislock.Options
	ttl         time.Duration
}

func NewRedis(redisClient redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{
		lockService: redislock.New(redisClient),
		lockOption: &redislock.Options{
			RetryStrategy: redislock.LinearBackoff(retryInterval),
		},
		ttl: ttl,
	}
}

// Lock waits up to the lock TTL for the key to become free.
func (r *Redis) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	waitCtx, cancel := context.WithTimeout(ctx, r.ttl)
	defer cancel()

	l, err := r.lockService.Obtain(waitCtx, key, r.ttl, r.lockOption)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) || (errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil) {
			return nil, fmt.Errorf("%w: %s", sandbox.ErrLockNotObtained, key)
		}

		return nil, fmt.Errorf("obtaining lock %s: %w", key, err)
	}

	return func(ctx context.Context) error {
		err := l.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			return nil
		}

		return err
	}, nil
}

// NewClient connects to the Redis instance at addr. Commands are traced and
// measured with the client's providers.
func NewClient(ctx context.Context, addr string, tel *telemetry.Client) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		MinIdleConns: 1,
	})

	if err := redisotel.InstrumentTracing(client, redisotel.WithTracerProvider(tel.TracerProvider)); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("instrumenting redis tracing: %w", err)
	}

	if err := redisotel.InstrumentMetrics(client, redisotel.WithMeterProvider(tel.MeterProvider)); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("instrumenting redis metrics: %w", err)
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}

	return client, nil
}
