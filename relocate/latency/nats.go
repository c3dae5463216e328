package latency

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/marcoimbee/thesis-archive/relocate"
)

// NATS reads samples from a JetStream key-value bucket under
// latency.<src>.<dst>; NATS keys may not contain ':'.
type NATS struct {
	nc            *nats.Conn
	kv            jetstream.KeyValue
	controllerKey string
}

// Ensure NATS implements relocate.LatencyStore
var _ relocate.LatencyStore = (*NATS)(nil)

// DialNATS connects to natsURL and opens bucket, creating it if the probes
// have not done so yet.
func DialNATS(ctx context.Context, natsURL, bucket, controllerKey string) (*NATS, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to NATS: %v", relocate.ErrConnection, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("%w: failed to create JetStream context: %v", relocate.ErrConnection, err)
	}

	kv, err := js.KeyValue(ctx, bucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{Bucket: bucket})
	}
	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("%w: failed to open KV bucket %s: %v", relocate.ErrConnection, bucket, err)
	}

	return NewNATS(nc, kv, controllerKey), nil
}

// NewNATS wraps an open bucket. nc may be nil when the caller owns the connection.
func NewNATS(nc *nats.Conn, kv jetstream.KeyValue, controllerKey string) *NATS {
	if controllerKey == "" {
		controllerKey = relocate.ControllerEndpoint
	}
	return &NATS{nc: nc, kv: kv, controllerKey: controllerKey}
}

// Close closes the underlying connection if this store owns it.
func (n *NATS) Close() error {
	if n.nc != nil {
		n.nc.Close()
	}
	return nil
}

// Controller implements relocate.LatencyStore.
func (n *NATS) Controller(ctx context.Context, node relocate.NodeID) (float64, error) {
	return n.get(ctx, Key(".", node, n.controllerKey))
}

// Between implements relocate.LatencyStore.
func (n *NATS) Between(ctx context.Context, src, dst relocate.NodeID) (float64, error) {
	return n.get(ctx, Key(".", src, string(dst)))
}

func (n *NATS) get(ctx context.Context, key string) (float64, error) {
	entry, err := n.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return 0, notFound(key)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return parseSample(key, entry.Value())
}
