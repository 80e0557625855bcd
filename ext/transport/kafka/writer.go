package kafka

import (
	"context"
	"time"

	"github.com/goto/salt/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

const (
	DefaultBatchIntervalSecond = 5

	writeTimeout = 30 * time.Second
)

var publishMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "kafka_publish_queue",
	Help: "Change events published to kafka topic",
}, []string{"status"})

// Writer publishes change event batches to a single topic.
type Writer struct {
	writer *kafka.Writer
	logger log.Logger
}

func NewWriter(kafkaBrokerUrls []string, topic string, logger log.Logger) *Writer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(kafkaBrokerUrls...),
		Topic:                  topic,
		AllowAutoTopicCreation: true,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireOne,
		Logger:                 kafka.LoggerFunc(logger.Debug),
		ErrorLogger:            kafka.LoggerFunc(logger.Error),
	}

	return &Writer{writer: writer, logger: logger}
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func (w *Writer) Write(messages [][]byte) error {
	kafkaMessages := make([]kafka.Message, len(messages))
	for i, m := range messages {
		kafkaMessages[i] = kafka.Message{
			Value: m,
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := w.writer.WriteMessages(ctx, kafkaMessages...); err != nil {
		publishMetric.WithLabelValues("failed").Add(float64(len(messages)))
		return err
	}
	publishMetric.WithLabelValues("published").Add(float64(len(messages)))
	w.logger.Debug("change events published", "count", len(messages), "topic", w.writer.Topic)
	return nil
}
