package kafka_client

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type KafkaConfig struct {
	Broker          string
	Topic           string
	TransactionalID string

	RequestTopic string
	GroupID      string
}

func NewKafkaConfig(broker, topic string) KafkaConfig {
	if topic == "" {
		topic = KAFKA_TOPIC_REPORTS
	}
	return KafkaConfig{
		Broker:          broker,
		Topic:           topic,
		TransactionalID: DefaultTransactionalID(),
		RequestTopic:    KAFKA_TOPIC_REQUESTS,
		GroupID:         KAFKA_GROUP_ID,
	}
}

// WithRequestTopic sets where the worker reads requests from and its consumer group.
func (c KafkaConfig) WithRequestTopic(topic, groupID string) KafkaConfig {
	if topic != "" {
		c.RequestTopic = topic
	}
	if groupID != "" {
		c.GroupID = groupID
	}
	return c
}

// WithTransactionalID overrides the derived transactional id. Every running
// producer needs its own id or the broker fences the older one.
func (c KafkaConfig) WithTransactionalID(id string) KafkaConfig {
	if id = strings.TrimSpace(id); id != "" {
		c.TransactionalID = id
	}
	return c
}

// DefaultTransactionalID is stable across restarts of the same binary on the
// same host, so a restarted process fences its own predecessor only.
func DefaultTransactionalID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = uuid.NewString()
	}
	return transactionalID(filepath.Base(os.Args[0]), host)
}

func transactionalID(binary, host string) string {
	return "reviewsentiment-" + binary + "-" + host
}
