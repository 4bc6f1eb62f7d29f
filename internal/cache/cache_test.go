package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRingOptions(t *testing.T) {
	opts := ringOptions(Config{
		Host:         "redis.internal",
		Pass:         "secret",
		Port:         6379,
		Node:         "10.0.0.5",
		LocalEntries: 1000,
		TTL:          time.Hour,
	})

	assert.Equal(t, map[string]string{"10.0.0.5": "redis.internal:6379"}, opts.Addrs)
	assert.Equal(t, "secret", opts.Password)
}
