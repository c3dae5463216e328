package latency

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/marcoimbee/thesis-archive/relocate"
)

// Redis reads samples stored under latency:<src>:<dst>.
type Redis struct {
	client        *redis.Client
	controllerKey string
}

// Ensure Redis implements relocate.LatencyStore
var _ relocate.LatencyStore = (*Redis)(nil)

// DialRedis connects to the Redis server at url and verifies it answers.
// controllerKey is the destination token used for node→controller samples.
func DialRedis(ctx context.Context, url, controllerKey string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid latency store url %q: %v", relocate.ErrConnection, url, err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: could not connect to Redis at %s: %v", relocate.ErrConnection, url, err)
	}
	return NewRedis(client, controllerKey), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, controllerKey string) *Redis {
	if controllerKey == "" {
		controllerKey = relocate.ControllerEndpoint
	}
	return &Redis{client: client, controllerKey: controllerKey}
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Controller implements relocate.LatencyStore.
func (r *Redis) Controller(ctx context.Context, node relocate.NodeID) (float64, error) {
	return r.get(ctx, Key(":", node, r.controllerKey))
}

// Between implements relocate.LatencyStore.
func (r *Redis) Between(ctx context.Context, src, dst relocate.NodeID) (float64, error) {
	return r.get(ctx, Key(":", src, string(dst)))
}

func (r *Redis) get(ctx context.Context, key string) (float64, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, notFound(key)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return parseSample(key, raw)
}
