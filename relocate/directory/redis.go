package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/marcoimbee/thesis-archive/relocate"
)

// Key prefixes of the Redis directory layout.
const (
	capabilitiesPrefix = "node:capabilities:"
	instancePrefix     = "instance:"
	providerPrefix     = "provider:"
	intentPrefix       = "intent:migrate:"
	intentsList        = "intents"

	scanCount = 100
)

// instanceEntry is the JSON value stored under instance:<id>.
type instanceEntry struct {
	NodeID      string            `json:"node_id"`
	ClassType   string            `json:"class_type"`
	Annotations map[string]string `json:"annotations"`
}

// providerEntry is the JSON value stored under provider:<id>.
type providerEntry struct {
	NodeID    string `json:"node_id"`
	ClassType string `json:"class_type"`
}

// Redis is a Directory backed by a Redis server.
type Redis struct {
	client *redis.Client
	log    logrus.FieldLogger
}

// Ensure Redis implements relocate.Directory
var _ relocate.Directory = (*Redis)(nil)

// Dial connects to the Redis server at url and verifies it answers.
func Dial(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid directory url %q: %v", relocate.ErrConnection, url, err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: could not connect to Redis at %s: %v", relocate.ErrConnection, url, err)
	}
	return NewRedis(client), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, log: logrus.WithField("component", "directory")}
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

// ListInstanceRequests implements relocate.Directory.
func (r *Redis) ListInstanceRequests(ctx context.Context) ([]relocate.InstanceRequest, error) {
	entries, err := r.instances(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]relocate.InstanceRequest, 0, len(entries))
	for _, e := range entries {
		out = append(out, relocate.InstanceRequest{
			ID:          e.id,
			ClassType:   e.ClassType,
			Annotations: e.Annotations,
		})
	}
	return out, nil
}

// ListNodeCapabilities implements relocate.Directory.
func (r *Redis) ListNodeCapabilities(ctx context.Context) ([]relocate.NodeCapability, error) {
	values, err := r.scanValues(ctx, capabilitiesPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]relocate.NodeCapability, 0, len(values))
	for _, kv := range values {
		var caps relocate.Capabilities
		if err := json.Unmarshal([]byte(kv.value), &caps); err != nil {
			r.skip(kv.key, err)
			continue
		}
		out = append(out, relocate.NodeCapability{ID: relocate.NodeID(kv.id), Capabilities: caps})
	}
	return out, nil
}

// ListNodeToInstances implements relocate.Directory. Instances without a
// node_id are not yet placed and are left out.
func (r *Redis) ListNodeToInstances(ctx context.Context) ([]relocate.NodeAssignment, error) {
	entries, err := r.instances(ctx)
	if err != nil {
		return nil, err
	}
	byNode := make(map[relocate.NodeID][]relocate.InstanceID)
	for _, e := range entries {
		if e.NodeID == "" {
			continue
		}
		node := relocate.NodeID(e.NodeID)
		byNode[node] = append(byNode[node], e.id)
	}
	out := make([]relocate.NodeAssignment, 0, len(byNode))
	for node, ids := range byNode {
		out = append(out, relocate.NodeAssignment{Node: node, Instances: ids})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Node < out[j].Node })
	return out, nil
}

// ListResourceProviders implements relocate.Directory.
func (r *Redis) ListResourceProviders(ctx context.Context) ([]relocate.ResourceProvider, error) {
	values, err := r.scanValues(ctx, providerPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]relocate.ResourceProvider, 0, len(values))
	for _, kv := range values {
		var p providerEntry
		if err := json.Unmarshal([]byte(kv.value), &p); err != nil {
			r.skip(kv.key, err)
			continue
		}
		out = append(out, relocate.ResourceProvider{ID: relocate.ProviderID(kv.id), Node: relocate.NodeID(p.NodeID)})
	}
	return out, nil
}

// SubmitMigrationIntents implements relocate.Directory. All directives are
// written in one MULTI/EXEC transaction.
func (r *Redis) SubmitMigrationIntents(ctx context.Context, directives []relocate.MigrationDirective) error {
	if len(directives) == 0 {
		return nil
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, d := range directives {
			key := intentPrefix + string(d.Instance)
			pipe.Set(ctx, key, string(d.Destination), 0)
			pipe.RPush(ctx, intentsList, key)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing migration intents: %w", err)
	}
	return nil
}

type keyValue struct {
	key   string
	id    string // key without prefix
	value string
}

type instanceRow struct {
	id relocate.InstanceID
	instanceEntry
}

func (r *Redis) instances(ctx context.Context) ([]instanceRow, error) {
	values, err := r.scanValues(ctx, instancePrefix)
	if err != nil {
		return nil, err
	}
	out := make([]instanceRow, 0, len(values))
	for _, kv := range values {
		var e instanceEntry
		if err := json.Unmarshal([]byte(kv.value), &e); err != nil {
			r.skip(kv.key, err)
			continue
		}
		out = append(out, instanceRow{id: relocate.InstanceID(kv.id), instanceEntry: e})
	}
	return out, nil
}

// scanValues returns every string value under prefix, sorted by key.
// Keys that vanish between SCAN and MGET are dropped.
func (r *Redis) scanValues(ctx context.Context, prefix string) ([]keyValue, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, prefix+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s*: %w", prefix, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("reading %s*: %w", prefix, err)
	}
	out := make([]keyValue, 0, len(keys))
	for i, key := range keys {
		s, ok := values[i].(string)
		if !ok {
			continue
		}
		out = append(out, keyValue{key: key, id: strings.TrimPrefix(key, prefix), value: s})
	}
	return out, nil
}

func (r *Redis) skip(key string, err error) {
	r.log.WithField("key", key).WithError(fmt.Errorf("%w: %v", relocate.ErrSerialization, err)).Warn("skipping undecodable directory entry")
}
