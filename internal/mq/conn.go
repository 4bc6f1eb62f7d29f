package mq

import (
	"fmt"
	"time"

	"github.com/avast/retry-go"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

type Config struct {
	User string
	Pass string
	Host string
	Port int
}

type Conn struct {
	Channel *amqp.Channel
}

func NewConnection(cfg Config) (Conn, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%d", cfg.User, cfg.Pass, cfg.Host, cfg.Port)

	var conn *amqp.Connection

	log.Info("connecting to mq...")
	err := retry.Do(
		func() error {
			var err error
			conn, err = amqp.Dial(url)
			return err
		},
		retry.Attempts(5),
		retry.Delay(time.Second),
	)
	if err != nil {
		return Conn{}, err
	}

	ch, err := conn.Channel()
	if err != nil {
		return Conn{}, err
	}

	log.Info("verified mq connection")
	return Conn{Channel: ch}, nil
}
