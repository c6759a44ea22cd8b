package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessageAndDecode(t *testing.T) {
	payload, err := json.Marshal(BalanceUpdatedEvent{
		AccountID:  3,
		NewBalance: decimal.RequireFromString("800.00"),
		Change:     decimal.RequireFromString("-200.00"),
	})
	require.NoError(t, err)
	raw, err := json.Marshal(Event{Type: BalanceUpdated, Timestamp: time.Now().UTC(), Data: payload})
	require.NoError(t, err)

	event, err := ParseMessage(map[string]any{"event": string(raw)})
	require.NoError(t, err)
	assert.Equal(t, BalanceUpdated, event.Type)

	data, err := Decode[BalanceUpdatedEvent](event)
	require.NoError(t, err)
	assert.Equal(t, int64(3), data.AccountID)
	assert.True(t, data.NewBalance.Equal(decimal.NewFromInt(800)))
	assert.True(t, data.Change.Equal(decimal.NewFromInt(-200)))
}

func TestParseMessageRejectsBadFormat(t *testing.T) {
	_, err := ParseMessage(map[string]any{"event": 42})
	assert.Error(t, err)

	_, err = ParseMessage(map[string]any{"event": "{not json"})
	assert.Error(t, err)
}

func TestNilPublisherDiscards(t *testing.T) {
	p := NewPublisher(nil)

	assert.Nil(t, p)
	assert.NoError(t, p.Publish(context.Background(), AccountEventsStream, AccountCreated, AccountCreatedEvent{}))
}

func TestDecodeFailureIsMalformed(t *testing.T) {
	_, err := Decode[BalanceUpdatedEvent](Event{Type: BalanceUpdated, Data: json.RawMessage(`"nope"`)})
	assert.ErrorIs(t, err, ErrMalformedEvent)

	_, err = ParseMessage(map[string]any{})
	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func newStreamClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func runSubscriber(t *testing.T, client *redis.Client, handler Handler) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	sub := NewSubscriber(client, SubscriberConfig{
		Group:         "test-group",
		Consumer:      "test-consumer",
		Stream:        AccountEventsStream,
		Handler:       handler,
		BlockDuration: 20 * time.Millisecond,
		RetryDelay:    10 * time.Millisecond,
	})
	go func() {
		defer close(done)
		_ = sub.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func pendingCount(t *testing.T, client *redis.Client) int64 {
	t.Helper()
	pending, err := client.XPending(context.Background(), AccountEventsStream, "test-group").Result()
	require.NoError(t, err)
	return pending.Count
}

func TestSubscriberRetriesFailedBalanceEvent(t *testing.T) {
	client, _ := newStreamClient(t)
	publisher := NewPublisher(client)

	var mu sync.Mutex
	attempts := map[int64]int{}
	runSubscriber(t, client, func(ctx context.Context, event Event) error {
		data, err := Decode[BalanceUpdatedEvent](event)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		attempts[data.AccountID]++
		if data.AccountID == 3 && attempts[3] == 1 {
			return errors.New("cache unavailable")
		}
		return nil
	})

	ctx := context.Background()
	require.NoError(t, publisher.Publish(ctx, AccountEventsStream, BalanceUpdated, BalanceUpdatedEvent{AccountID: 3, NewBalance: decimal.NewFromInt(800)}))
	require.NoError(t, publisher.Publish(ctx, AccountEventsStream, BalanceUpdated, BalanceUpdatedEvent{AccountID: 4, NewBalance: decimal.NewFromInt(10)}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return attempts[3] == 2 && attempts[4] == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return pendingCount(t, client) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestSubscriberDropsMalformedEntries(t *testing.T) {
	client, _ := newStreamClient(t)
	ctx := context.Background()

	var mu sync.Mutex
	handled := 0
	runSubscriber(t, client, func(ctx context.Context, event Event) error {
		_, err := Decode[BalanceUpdatedEvent](event)
		if err != nil {
			return err
		}
		mu.Lock()
		handled++
		mu.Unlock()
		return nil
	})

	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{Stream: AccountEventsStream, Values: map[string]any{"other": "x"}}).Err())
	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{Stream: AccountEventsStream, Values: map[string]any{"event": `{"type":"balance.updated","data":"nope"}`}}).Err())
	require.NoError(t, NewPublisher(client).Publish(ctx, AccountEventsStream, BalanceUpdated, BalanceUpdatedEvent{AccountID: 3}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return handled == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return pendingCount(t, client) == 0 }, 2*time.Second, 10*time.Millisecond)
}
