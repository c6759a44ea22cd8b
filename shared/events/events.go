package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	UserCreated        = "user.created"
	AccountCreated     = "account.created"
	TransactionCreated = "transaction.created"
	BalanceUpdated     = "balance.updated"
)

// Stream names
const (
	UserEventsStream        = "user.events"
	AccountEventsStream     = "account.events"
	TransactionEventsStream = "transaction.events"
)

// ErrMalformedEvent marks a stream entry that can never be handled. Such
// entries are acknowledged and dropped rather than redelivered.
var ErrMalformedEvent = errors.New("malformed event")

// Event is the envelope written to a stream.
type Event struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Decode unmarshals the payload of e into T.
func Decode[T any](e Event) (T, error) {
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return v, fmt.Errorf("%w: decode %s event: %v", ErrMalformedEvent, e.Type, err)
	}
	return v, nil
}

type UserCreatedEvent struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type AccountCreatedEvent struct {
	AccountID     int64  `json:"accountId"`
	AccountNumber string `json:"accountNumber"`
	SortCode      string `json:"sortCode"`
	UserID        int64  `json:"userId"`
	Name          string `json:"name"`
	AccountType   string `json:"accountType"`
}

type TransactionCreatedEvent struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transactionId"`
	AccountID     int64           `json:"accountId"`
	UserID        int64           `json:"userId"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
	Currency      string          `json:"currency"`
}

type BalanceUpdatedEvent struct {
	AccountID  int64           `json:"accountId"`
	NewBalance decimal.Decimal `json:"newBalance"`
	Change     decimal.Decimal `json:"change"`
}
