package kafka

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"ms-booking/internal/logger"

	"github.com/segmentio/kafka-go"
)

// Topics names every stream the service writes to.
type Topics struct {
	EventCreated     string
	EventUpdated     string
	EventDeleted     string
	TicketPurchased  string
	TicketDeleted    string
	PaymentSucceeded string
	PaymentFailed    string
}

func NewTopics(prefix string) Topics {
	name := func(s string) string {
		if prefix == "" {
			return s
		}
		return prefix + "." + s
	}
	return Topics{
		EventCreated:     name("event.created"),
		EventUpdated:     name("event.updated"),
		EventDeleted:     name("event.deleted"),
		TicketPurchased:  name("ticket.purchased"),
		TicketDeleted:    name("ticket.deleted"),
		PaymentSucceeded: name("payment.succeeded"),
		PaymentFailed:    name("payment.failed"),
	}
}

func (t Topics) All() []string {
	return []string{
		t.EventCreated,
		t.EventUpdated,
		t.EventDeleted,
		t.TicketPurchased,
		t.TicketDeleted,
		t.PaymentSucceeded,
		t.PaymentFailed,
	}
}

// EnsureTopicsExist creates Kafka topics if they don't already exist
func EnsureTopicsExist(ctx context.Context, brokers []string, topics []string, log *logger.Logger) error {
	if len(brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("failed to dial kafka broker: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("failed to find kafka controller: %w", err)
	}
	controllerConn, err := kafka.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		return fmt.Errorf("failed to dial kafka controller: %w", err)
	}
	defer controllerConn.Close()

	for _, topic := range topics {
		err = controllerConn.CreateTopics(kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
		switch {
		case errors.Is(err, kafka.TopicAlreadyExists):
			log.LogKafka("TOPIC", topic, "already exists")
		case err != nil:
			// keep going; the remaining topics may still succeed
			log.Error("KAFKA", fmt.Sprintf("Error creating topic %s: %v", topic, err))
		default:
			log.LogKafka("TOPIC", topic, "created")
		}
	}

	// Give the controller a moment to propagate metadata.
	time.Sleep(500 * time.Millisecond)
	return nil
}

// ListTopics returns a list of all existing topics
func ListTopics(ctx context.Context, brokers []string) ([]string, error) {
	if len(brokers) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var topics []string
	for _, p := range partitions {
		if !seen[p.Topic] {
			seen[p.Topic] = true
			topics = append(topics, p.Topic)
		}
	}
	sort.Strings(topics)
	return topics, nil
}
