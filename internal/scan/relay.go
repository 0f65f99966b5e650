// Package scan relays barcode scans from companion devices (hand scanners,
// phones) to the register they are paired with. Delivery is at-least-once
// over a Redis channel per register; consumers deduplicate with MarkProcessed.
package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/openkassa/backend-kassa/internal/obs"
)

// ErrNoEvent is returned when a poll times out without a scan arriving.
var ErrNoEvent = errors.New("no scan event")

// Event is one relayed scan.
type Event struct {
	EventID  string    `json:"eventId"`
	Register string    `json:"register"`
	Barcode  string    `json:"barcode"`
	QtyMilli int64     `json:"qtyMilli"`
	Source   string    `json:"source,omitempty"`
	At       time.Time `json:"at"`
}

// Relay publishes and consumes scan events.
type Relay struct {
	R             *redis.Client
	ChannelPrefix string
	ProcessedTTL  time.Duration
}

func (r *Relay) prefix() string {
	if r.ChannelPrefix == "" {
		return "kassa:scan"
	}
	return r.ChannelPrefix
}

func (r *Relay) channel(register string) string {
	return r.prefix() + ":" + register
}

func (r *Relay) processedKey(eventID string) string {
	return r.prefix() + ":done:" + eventID
}

// Publish relays a scan to the register's channel. The event id is assigned
// here so republishing after a network error keeps the same identity.
func (r *Relay) Publish(ctx context.Context, ev Event) (Event, error) {
	if r == nil || r.R == nil {
		return Event{}, errors.New("scan relay not configured")
	}
	if ev.Register == "" || ev.Barcode == "" {
		return Event{}, errors.New("register and barcode are required")
	}
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if ev.QtyMilli <= 0 {
		ev.QtyMilli = 1000
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return Event{}, err
	}
	if err := r.R.Publish(ctx, r.channel(ev.Register), raw).Err(); err != nil {
		if obs.ScanEventsTotal != nil {
			obs.ScanEventsTotal.WithLabelValues("publish_error").Inc()
		}
		return Event{}, fmt.Errorf("publish scan: %w", err)
	}
	if obs.ScanEventsTotal != nil {
		obs.ScanEventsTotal.WithLabelValues("published").Inc()
	}
	return ev, nil
}

// Next blocks until a scan arrives for the register or the wait elapses.
func (r *Relay) Next(ctx context.Context, register string, wait time.Duration) (Event, error) {
	if r == nil || r.R == nil {
		return Event{}, errors.New("scan relay not configured")
	}
	sub := r.R.Subscribe(ctx, r.channel(register))
	defer func() { _ = sub.Close() }()
	if _, err := sub.Receive(ctx); err != nil {
		return Event{}, err
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case <-timer.C:
			return Event{}, ErrNoEvent
		case msg, ok := <-ch:
			if !ok {
				return Event{}, ErrNoEvent
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				if obs.ScanEventsTotal != nil {
					obs.ScanEventsTotal.WithLabelValues("decode_error").Inc()
				}
				continue
			}
			return ev, nil
		}
	}
}

// MarkProcessed records that the register consumed the event. The first call
// wins; replays of the same event report false and should be ignored.
func (r *Relay) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	if r == nil || r.R == nil {
		return false, errors.New("scan relay not configured")
	}
	ttl := r.ProcessedTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	first, err := r.R.SetNX(ctx, r.processedKey(eventID), "1", ttl).Result()
	if err != nil {
		return false, err
	}
	if obs.ScanEventsTotal != nil {
		if first {
			obs.ScanEventsTotal.WithLabelValues("processed").Inc()
		} else {
			obs.ScanEventsTotal.WithLabelValues("duplicate").Inc()
		}
	}
	return first, nil
}
