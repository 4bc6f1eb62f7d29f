package env

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Cfg struct {
	ListenAddr       string        `envconfig:"LISTEN_ADDR" default:"0.0.0.0"`
	ListenPort       int           `envconfig:"LISTEN_PORT" default:"65525"`
	ResponseTimeout  time.Duration `envconfig:"RESPONSE_TIMEOUT" default:"5s"`
	IdleTimeout      time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
	NetCheckInterval time.Duration `envconfig:"NET_CHECK_INTERVAL" default:"10s"`

	DBUser string `envconfig:"DB_USER"`
	DBPass string `envconfig:"DB_PASSWORD"`
	DBName string `envconfig:"DB_NAME"`
	DBHost string `envconfig:"DB_HOST" default:"localhost"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`

	MQUser string `envconfig:"MQ_USER"`
	MQPass string `envconfig:"MQ_PASSWORD"`
	MQHost string `envconfig:"MQ_HOST"`
	MQPort int    `envconfig:"MQ_PORT" default:"5672"`

	CacheHost         string        `envconfig:"CACHE_HOST"`
	CachePass         string        `envconfig:"CACHE_PASSWORD"`
	CachePort         int           `envconfig:"CACHE_PORT" default:"6379"`
	CacheLocalEntries int           `envconfig:"CACHE_LOCAL_ENTRIES" default:"1000"`
	CacheTTL          time.Duration `envconfig:"CACHE_TTL" default:"1h"`

	OpsPort         int           `envconfig:"OPS_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"5s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
}

func GetEnvCfg() (Cfg, error) {
	var cfg Cfg

	if err := envconfig.Process("BANK", &cfg); err != nil {
		return Cfg{}, err
	}

	return cfg, nil
}
