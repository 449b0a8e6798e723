package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Заголовки сообщения с метаданными события
const (
	HeaderEventID   = "event_id"
	HeaderEventType = "event_type"
)

// KafkaNotifier публикует события бронирований в топик Kafka.
// Ключ сообщения - ID бронирования, поэтому события одного бронирования попадают в одну партицию.
type KafkaNotifier struct {
	writer MessageWriter
	topic  string
	log    Logger
}

// NewKafkaNotifier создает notifier поверх готового writer
func NewKafkaNotifier(writer MessageWriter, topic string, log Logger) *KafkaNotifier {
	return &KafkaNotifier{
		writer: writer,
		topic:  topic,
		log:    log,
	}
}

// batchTimeout Emit пишет синхронно на пути запроса, пачка не должна ждать добора
const batchTimeout = 5 * time.Millisecond

// NewKafkaWriter создает writer для списка брокеров через запятую
func NewKafkaWriter(brokers string, writeTimeout time.Duration) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(SplitBrokers(brokers)...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    1,
		BatchTimeout: batchTimeout,
		WriteTimeout: writeTimeout,
	}
}

// Emit сериализует событие в JSON и отправляет его
func (n *KafkaNotifier) Emit(ctx context.Context, event domain.BookingEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: Emit - event id=%s: %v", ErrEncode, event.ID, err)
	}

	msg := kafka.Message{
		Topic: n.topic,
		Key:   []byte(strconv.FormatInt(event.BookingID, 10)),
		Value: payload,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: HeaderEventID, Value: []byte(event.ID)},
			{Key: HeaderEventType, Value: []byte(event.Type)},
		},
	}
	msg.Headers = injectTraceHeaders(ctx, msg.Headers)

	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: Emit - event id=%s type=%s: %v", ErrPublish, event.ID, event.Type, err)
	}

	n.log.Info("Notifier: published event id=%s type=%s booking=%d", event.ID, event.Type, event.BookingID)
	return nil
}

// Close закрывает writer
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

// SplitBrokers разбирает список брокеров через запятую
func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// HeaderValue значение заголовка сообщения или пустая строка
func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// injectTraceHeaders добавляет W3C trace context в заголовки сообщения
func injectTraceHeaders(ctx context.Context, headers []kafka.Header) []kafka.Header {
	carrier := &headerCarrier{headers: headers}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier.headers
}

type headerCarrier struct {
	headers []kafka.Header
}

func (c *headerCarrier) Get(key string) string {
	return HeaderValue(c.headers, key)
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for _, h := range c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

func (c *headerCarrier) Set(key, value string) {
	for i := range c.headers {
		if c.headers[i].Key == key {
			c.headers[i].Value = []byte(value)
			return
		}
	}
	c.headers = append(c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

var _ propagation.TextMapCarrier = (*headerCarrier)(nil)
