package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type Handler func(ctx context.Context, event Event) error

const (
	newEntries     = ">"
	pendingEntries = "0"
)

// Subscriber consumes one stream as a member of a consumer group. An entry is
// acknowledged once its handler succeeds. Entries whose handler failed stay
// pending for this consumer and are replayed before new entries are read.
type Subscriber struct {
	client        *redis.Client
	group         string
	consumer      string
	stream        string
	handler       Handler
	batchSize     int64
	blockDuration time.Duration
	retryDelay    time.Duration
}

type SubscriberConfig struct {
	Group         string
	Consumer      string
	Stream        string
	Handler       Handler
	BatchSize     int64
	BlockDuration time.Duration
	RetryDelay    time.Duration
}

func NewSubscriber(client *redis.Client, config SubscriberConfig) *Subscriber {
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}
	if config.BlockDuration == 0 {
		config.BlockDuration = 5 * time.Second
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}

	return &Subscriber{
		client:        client,
		group:         config.Group,
		consumer:      config.Consumer,
		stream:        config.Stream,
		handler:       config.Handler,
		batchSize:     config.BatchSize,
		blockDuration: config.BlockDuration,
		retryDelay:    config.RetryDelay,
	}
}

// Start blocks until ctx is cancelled.
func (s *Subscriber) Start(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	log.Printf("Subscriber started: stream=%s, group=%s, consumer=%s", s.stream, s.group, s.consumer)

	// Entries left pending by a previous run of this consumer come first.
	from := pendingEntries
	for {
		if ctx.Err() != nil {
			log.Printf("Subscriber stopping: %s", s.stream)
			return ctx.Err()
		}

		read, failed, err := s.consume(ctx, from)
		if err != nil && ctx.Err() == nil {
			log.Printf("Error reading %s: %v", s.stream, err)
		}
		switch {
		case err != nil || failed > 0:
			from = pendingEntries
			s.pause(ctx)
		case from == pendingEntries && read == 0:
			from = newEntries
		}
	}
}

// consume handles one batch read from the given position and reports how many
// entries it saw and how many were left pending.
func (s *Subscriber) consume(ctx context.Context, from string) (read, failed int, err error) {
	args := &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  []string{s.stream, from},
		Count:    s.batchSize,
		Block:    s.blockDuration,
	}
	if from == pendingEntries {
		// Pending history never blocks; a negative Block omits the option.
		args.Block = -1
	}
	streams, err := s.client.XReadGroup(ctx, args).Result()
	if errors.Is(err, redis.Nil) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, stream := range streams {
		for _, message := range stream.Messages {
			read++
			if !s.handle(ctx, message) {
				failed++
			}
		}
	}
	return read, failed, nil
}

// handle runs the handler for one entry and acknowledges it unless the handler
// failed on a well-formed event.
func (s *Subscriber) handle(ctx context.Context, message redis.XMessage) bool {
	event, err := ParseMessage(message.Values)
	if err == nil {
		err = s.handler(ctx, event)
	}
	switch {
	case err == nil:
	case errors.Is(err, ErrMalformedEvent):
		log.Printf("Dropping %s entry %s: %v", s.stream, message.ID, err)
	default:
		log.Printf("Handling %s entry %s (%s) failed, will retry: %v", s.stream, message.ID, event.Type, err)
		return false
	}

	if err := s.client.XAck(ctx, s.stream, s.group, message.ID).Err(); err != nil {
		log.Printf("Failed to ACK %s entry %s: %v", s.stream, message.ID, err)
	}
	return true
}

func (s *Subscriber) pause(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(s.retryDelay):
	}
}

// ParseMessage decodes the "event" field of a stream entry.
func ParseMessage(values map[string]any) (Event, error) {
	var event Event
	raw, ok := values["event"].(string)
	if !ok {
		return event, fmt.Errorf("%w: missing event field", ErrMalformedEvent)
	}
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return event, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return event, nil
}
