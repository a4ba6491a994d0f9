package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/genxais/pipelined/internal/domain"
)

// EventType — тип события; совпадает с routing key.
type EventType string

// Типы событий.
const (
	EventPipelineCreated   EventType = "pipeline.created"
	EventPipelineStarted   EventType = "pipeline.started"
	EventPipelineCompleted EventType = "pipeline.completed"
	EventPipelineFailed    EventType = "pipeline.failed"
	EventPipelinePaused    EventType = "pipeline.paused"
	EventPipelineResumed   EventType = "pipeline.resumed"
	EventErrorRecorded     EventType = "error.recorded"
)

// Event — конверт публикуемого события.
type Event struct {
	// ID — уникальный идентификатор события.
	ID string `json:"id"`

	// Type — тип события.
	Type EventType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// PipelinePayload — payload событий жизненного цикла конвейера.
type PipelinePayload struct {
	Pipeline string        `json:"pipeline"`
	Status   domain.Status `json:"status"`
	Steps    int           `json:"steps,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// ErrorRecordedPayload — payload события error.recorded.
type ErrorRecordedPayload struct {
	RecordID           uuid.UUID           `json:"record_id"`
	Kind               domain.RecoveryKind `json:"kind"`
	Context            string              `json:"context,omitempty"`
	RecoveryAttempted  bool                `json:"recovery_attempted"`
	RecoverySuccessful bool                `json:"recovery_successful"`
}

// Publisher публикует события в RabbitMQ.
//
// nil-Publisher безопасен: все методы становятся no-op. Это позволяет
// запускать оркестратор без брокера.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Publish публикует одно событие. Routing key равен типу события.
func (p *Publisher) Publish(ctx context.Context, typ EventType, payload any) error {
	if p == nil {
		return nil
	}

	evt := &Event{
		ID:        uuid.New().String(),
		Type:      typ,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(ExchangeEvents), // exchange
			string(typ),            // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // событие переживёт рестарт RabbitMQ
				MessageId:    evt.ID,
				Timestamp:    evt.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish %s: %w", typ, err)
		}

		p.logger.Debug("published event",
			"type", typ,
			"event_id", evt.ID,
		)

		return nil
	})
}

// PublishPipeline публикует событие жизненного цикла конвейера.
// Ошибка публикации логируется и не распространяется: событие —
// побочный эффект, не часть исхода операции.
func (p *Publisher) PublishPipeline(ctx context.Context, typ EventType, payload PipelinePayload) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, typ, payload); err != nil {
		p.logger.Warn("failed to publish pipeline event",
			"type", typ,
			"pipeline", payload.Pipeline,
			"error", err,
		)
	}
}

// PublishErrorRecorded публикует событие о сохранённой записи об ошибке.
func (p *Publisher) PublishErrorRecorded(ctx context.Context, rec *domain.ErrorRecord) {
	if p == nil || rec == nil {
		return
	}
	payload := ErrorRecordedPayload{
		RecordID:           rec.ID,
		Kind:               rec.Kind,
		Context:            rec.Context,
		RecoveryAttempted:  rec.RecoveryAttempted,
		RecoverySuccessful: rec.RecoverySuccessful,
	}
	if err := p.Publish(ctx, EventErrorRecorded, payload); err != nil {
		p.logger.Warn("failed to publish error.recorded",
			"record_id", rec.ID,
			"error", err,
		)
	}
}
