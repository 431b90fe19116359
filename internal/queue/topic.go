package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// topicAdmin is the subset of *kafka.Client used to provision topics
type topicAdmin interface {
	CreateTopics(ctx context.Context, req *kafka.CreateTopicsRequest) (*kafka.CreateTopicsResponse, error)
}

// EnsureTopic creates the alert topic unless it already exists
func EnsureTopic(ctx context.Context, brokers []string, topic string, partitions, replicas int) error {
	if len(brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	admin := &kafka.Client{Addr: kafka.TCP(brokers...), Timeout: 10 * time.Second}
	return ensureTopic(ctx, admin, topic, partitions, replicas)
}

func ensureTopic(ctx context.Context, admin topicAdmin, topic string, partitions, replicas int) error {
	resp, err := admin.CreateTopics(ctx, &kafka.CreateTopicsRequest{
		Topics: []kafka.TopicConfig{{
			Topic:             topic,
			NumPartitions:     partitions,
			ReplicationFactor: replicas,
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to create topic %s: %w", topic, err)
	}

	if err := resp.Errors[topic]; err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("broker rejected topic %s: %w", topic, err)
	}
	return nil
}
