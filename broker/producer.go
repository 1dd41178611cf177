package broker

import (
	"errors"
	"log"

	"taskdeck/config"

	"github.com/nats-io/nats.go"
)

var ErrProducerNotInitialized = errors.New("nats producer is not initialized")

var producerConn *nats.Conn

func InitProducer(cfg config.Config) error {
	conn, err := nats.Connect(cfg.NatsURL,
		nats.Name("taskdeck-producer"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return err
	}

	producerConn = conn
	log.Println("NATS producer initialized")
	return nil
}

// PublishMessage publishes a payload on the given subject. Callers decide
// what a failed publish means; nothing is retried here.
func PublishMessage(subject string, payload []byte) error {
	if producerConn == nil {
		return ErrProducerNotInitialized
	}
	if err := producerConn.Publish(subject, payload); err != nil {
		log.Printf("Failed to publish message to %s: %v", subject, err)
		return err
	}
	return nil
}

func CloseProducer() {
	if producerConn != nil {
		producerConn.Drain()
		producerConn = nil
	}
}
