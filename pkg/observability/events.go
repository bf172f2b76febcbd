// Package observability provides metrics, tracing, and run events for
// brandlens evaluations.
package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/otherjamesbrown/brandlens/pkg/visibility"
)

// Event channels for Redis pub/sub
const (
	ChannelRunCompleted = "events.brandlens.run_completed"
	ChannelUnitFailed   = "events.brandlens.unit_failed"
)

// RunCompletedEvent is published once a run has been summarized.
type RunCompletedEvent struct {
	EventID        string                    `json:"event_id"`
	RunID          string                    `json:"run_id"`
	Target         string                    `json:"target"`
	TraceID        string                    `json:"trace_id,omitempty"`
	TotalUnits     int                       `json:"total_units"`
	MentionedCount int                       `json:"mentioned_count"`
	MentionRate    float64                   `json:"mention_rate"`
	AverageScore   float64                   `json:"average_score"`
	Recommendation visibility.Recommendation `json:"recommendation"`
	DurationMs     int64                     `json:"duration_ms"`
	Timestamp      time.Time                 `json:"timestamp"`
}

// NewRunCompletedEvent builds the event for a finished run.
func NewRunCompletedEvent(runID, target string, s visibility.RunSummary, duration time.Duration) *RunCompletedEvent {
	return &RunCompletedEvent{
		EventID:        uuid.NewString(),
		RunID:          runID,
		Target:         target,
		TotalUnits:     s.TotalUnits,
		MentionedCount: s.MentionedCount,
		MentionRate:    s.MentionRate,
		AverageScore:   s.AverageScore,
		Recommendation: s.Recommendation,
		DurationMs:     duration.Milliseconds(),
		Timestamp:      time.Now().UTC(),
	}
}

// UnitFailedEvent is published for each unit that produced an error result.
type UnitFailedEvent struct {
	EventID     string    `json:"event_id"`
	RunID       string    `json:"run_id"`
	Position    int       `json:"position"`
	SourceLabel string    `json:"source_label,omitempty"`
	ErrorCode   string    `json:"error_code"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewUnitFailedEvent builds the event for a failed unit.
func NewUnitFailedEvent(runID string, position int, r visibility.MentionResult) *UnitFailedEvent {
	return &UnitFailedEvent{
		EventID:     uuid.NewString(),
		RunID:       runID,
		Position:    position,
		SourceLabel: r.SourceLabel,
		ErrorCode:   r.ErrorCode,
		Message:     r.Error,
		Timestamp:   time.Now().UTC(),
	}
}

// Publisher delivers events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, channel string, event any) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, string, any) error { return nil }

// RedisPublisher publishes JSON-encoded events on Redis pub/sub channels.
type RedisPublisher struct {
	client redis.UniversalClient
}

// NewRedisPublisher creates a publisher on client.
func NewRedisPublisher(client redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, channel string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	return nil
}
