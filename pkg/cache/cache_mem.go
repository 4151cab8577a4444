package cache

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/segmentio/encoding/json"
)

// InMem is process-local cache backed by fastcache.
// fastcache has no expiry support, so the deadline is packed
// in front of the payload and checked on read.
type InMem struct {
	store *fastcache.Cache
}

var _ Cache = (*InMem)(nil)

// NewInMem creates in-memory cache with maxBytes capacity (minimum 32MB, see fastcache doc).
func NewInMem(maxBytes int) *InMem {
	return &InMem{
		store: fastcache.New(maxBytes),
	}
}

func (c *InMem) GetAs(ctx context.Context, key string, out interface{}) error {
	entry, exist := c.store.HasGet(nil, []byte(key))
	if !exist || len(entry) < 8 {
		return ErrKeyNotExist
	}

	expUnixNano := int64(binary.BigEndian.Uint64(entry[:8]))
	if time.Now().UnixNano() > expUnixNano {
		c.store.Del([]byte(key))
		return ErrKeyNotExist
	}

	err := json.Unmarshal(entry[8:], out)
	if err != nil {
		return fmt.Errorf("in-mem cache key '%s' decode error: %w", key, err)
	}

	return nil
}

func (c *InMem) SetExp(ctx context.Context, key string, inValue interface{}, expireDur time.Duration) error {
	payload, err := json.Marshal(inValue)
	if err != nil {
		return fmt.Errorf("in-mem cache key '%s' encode error: %w", key, err)
	}

	entry := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint64(entry[:8], uint64(time.Now().Add(expireDur).UnixNano()))
	copy(entry[8:], payload)

	c.store.Set([]byte(key), entry)
	return nil
}

func (c *InMem) Delete(ctx context.Context, key string) error {
	c.store.Del([]byte(key))
	return nil
}
