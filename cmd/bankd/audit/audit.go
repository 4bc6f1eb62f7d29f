package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"github.com/Stevekk11/tcp-bank/internal/mq"
)

const (
	exchangeName = "bank-events"
	routeKey     = "tx"
	kind         = "topic"
)

// Event describes one successful mutating command.
type Event struct {
	ID        string    `json:"id"`
	Verb      string    `json:"verb"`
	Account   int       `json:"account,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Publisher struct {
	conn mq.Conn
}

func NewPublisher(conn mq.Conn) (*Publisher, error) {
	err := conn.Channel.ExchangeDeclare(exchangeName, kind, true, false, false, false, nil)
	if err != nil {
		return nil, errors.Wrap(err, "declare bank-events exchange")
	}

	return &Publisher{conn: conn}, nil
}

// Publish is fire and forget: a broker hiccup must never fail the client
// command that triggered the event.
func (p *Publisher) Publish(verb string, number int, amount string) {
	e := Event{
		ID:        uuid.New().String(),
		Verb:      verb,
		Account:   number,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}

	body, err := json.Marshal(e)
	if err != nil {
		log.Warnf("failed to marshal bank event: %v", err)
		return
	}

	err = p.conn.Channel.Publish(exchangeName, routeKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    e.ID,
		Body:         body,
		DeliveryMode: amqp.Transient,
	})
	if err != nil {
		log.Errorf("error sending event to bank-events topic: %v", err)
	}
}
