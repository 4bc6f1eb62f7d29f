package db

import (
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var PSQLErrUniqueConstraint = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    number      INTEGER PRIMARY KEY,
    owner       TEXT NOT NULL,
    balance     NUMERIC NOT NULL DEFAULT 0 CHECK (balance >= 0),
    created_at  TIMESTAMP NOT NULL,
    modified_at TIMESTAMP NOT NULL
);`

type Config struct {
	User string
	Pass string
	Name string
	Host string
	Port int
}

func NewConnection(cfg Config) (*sqlx.DB, error) {
	var db *sqlx.DB

	conn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		cfg.Host, cfg.User, cfg.Pass, cfg.Name, cfg.Port)

	log.Info("connecting to database...")
	err := retry.Do(
		func() error {
			var err error
			db, err = sqlx.Connect("postgres", conn)
			return err
		},
		retry.Attempts(5),
		retry.Delay(2*time.Second),
	)
	if err != nil {
		return nil, err
	}

	log.Info("verified postgres connection")
	return db, nil
}

func Migrate(dbc *sqlx.DB) error {
	if _, err := dbc.Exec(schema); err != nil {
		return errors.Wrap(err, "create accounts table")
	}
	return nil
}
