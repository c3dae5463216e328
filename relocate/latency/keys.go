// Package latency implements the latency store port over the backends the
// probes publish to. Samples are plain decimal strings in milliseconds.
package latency

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/marcoimbee/thesis-archive/relocate"
)

const keyPrefix = "latency"

// Key builds the sample key for a source and destination using sep, e.g.
// latency:<src>:<dst> for Redis or latency.<src>.<dst> for NATS KV.
func Key(sep string, src relocate.NodeID, dst string) string {
	return strings.Join([]string{keyPrefix, string(src), dst}, sep)
}

// parseSample decodes a stored sample value.
func parseSample(key string, raw []byte) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: latency sample %s=%q: %v", relocate.ErrSerialization, key, raw, err)
	}
	return v, nil
}

func notFound(key string) error {
	return fmt.Errorf("%w: %s", relocate.ErrKeyNotFound, key)
}
