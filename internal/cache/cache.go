// Package cache fronts balance reads with redis so repeated balance
// queries for a hot account skip the database.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/cache/v8"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Host string
	Pass string
	Port int

	// Node names this bank's ring member, typically the bank code.
	Node string

	// LocalEntries sizes the in-process TinyLFU layer in cached balances.
	LocalEntries int

	// TTL bounds how long a cached balance may outlive the row it came
	// from.
	TTL time.Duration
}

type Redis struct {
	Client   *redis.Ring
	Balances *cache.Cache
	TTL      time.Duration
}

func NewConnection(cfg Config) (*Redis, error) {
	log.Infof("connecting to redis as ring member %q", cfg.Node)

	r := redis.NewRing(ringOptions(cfg))

	if err := r.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrap(err, "ping redis")
	}

	log.Info("verified redis connection")

	b := cache.New(&cache.Options{
		Redis:      r,
		LocalCache: cache.NewTinyLFU(cfg.LocalEntries, cfg.TTL),
	})

	log.Info("created balances cache")

	return &Redis{
		Client:   r,
		Balances: b,
		TTL:      cfg.TTL,
	}, nil
}

func ringOptions(cfg Config) *redis.RingOptions {
	return &redis.RingOptions{
		Addrs: map[string]string{
			cfg.Node: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		},
		HeartbeatFrequency: 10 * time.Second,
		Password:           cfg.Pass,
		MaxRetries:         3,
		MaxRetryBackoff:    3 * time.Second,
		ReadTimeout:        1 * time.Second,
		WriteTimeout:       1 * time.Second,
		PoolSize:           10,
		MinIdleConns:       1,
	}
}
