package broker

import (
	"log"

	"taskdeck/config"

	"github.com/nats-io/nats.go"
)

// Consumer wraps queue subscriptions on a set of subjects and exposes the
// received messages over a channel.
type Consumer struct {
	conn        *nats.Conn
	subs        []*nats.Subscription
	messageChan chan *nats.Msg
}

func InitConsumer(cfg config.Config, subjects []string, queueGroup string) (*Consumer, error) {
	conn, err := nats.Connect(cfg.NatsURL,
		nats.Name("taskdeck-consumer-"+queueGroup),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}

	c := &Consumer{
		conn:        conn,
		messageChan: make(chan *nats.Msg, 256),
	}

	for _, subject := range subjects {
		sub, err := conn.QueueSubscribe(subject, queueGroup, func(msg *nats.Msg) {
			select {
			case c.messageChan <- msg:
			default:
				log.Printf("Warning: consumer channel full, discarding message on %s", msg.Subject)
			}
		})
		if err != nil {
			c.Close()
			return nil, err
		}
		c.subs = append(c.subs, sub)
	}

	log.Printf("NATS consumer started, listening on subjects: %v", subjects)
	return c, nil
}

func (c *Consumer) GetMessageChannel() chan *nats.Msg {
	return c.messageChan
}

func (c *Consumer) Close() {
	for _, sub := range c.subs {
		if err := sub.Unsubscribe(); err != nil {
			log.Printf("Failed to unsubscribe from %s: %v", sub.Subject, err)
		}
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
