package redisclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	EventAppointmentBooked    = "appointment.booked"
	EventAppointmentCancelled = "appointment.cancelled"
)

// Event is the payload handed to downstream notifiers (mail, SMS) after a
// booking state change has already committed.
type Event struct {
	Type          string `json:"type"`
	AppointmentID string `json:"appointment_id"`
	CitizenID     string `json:"citizen_id"`
	OfficerID     string `json:"officer_id"`
	ServiceID     string `json:"service_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
}

// Notifier is used by the booking service to emit best-effort events.
type Notifier interface {
	Publish(ctx context.Context, ev Event) error
}

type streamNotifier struct {
	client *redis.Client
	stream string
}

// NewStreamNotifier publishes events to a Redis stream.
func NewStreamNotifier(client *redis.Client, stream string) Notifier {
	return &streamNotifier{
		client: client,
		stream: stream,
	}
}

func (n *streamNotifier) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = n.client.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		Values: map[string]any{
			"type":    ev.Type,
			"payload": payload,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}
