// Package projection consumes ledger events to keep cached read models
// coherent across api-service replicas.
package projection

import (
	"context"
	"log"

	"github.com/eaglebank/ledger/shared/events"
)

// AccountEvicter drops a cached account view.
type AccountEvicter interface {
	Evict(ctx context.Context, accountID int64)
}

type AccountProjection struct {
	cache AccountEvicter
}

func NewAccountProjection(cache AccountEvicter) *AccountProjection {
	return &AccountProjection{cache: cache}
}

// HandleAccountEvent evicts the cached view of an account whose balance
// changed. Other event types are acknowledged without action.
func (p *AccountProjection) HandleAccountEvent(ctx context.Context, event events.Event) error {
	if event.Type != events.BalanceUpdated {
		return nil
	}
	data, err := events.Decode[events.BalanceUpdatedEvent](event)
	if err != nil {
		return err
	}
	p.cache.Evict(ctx, data.AccountID)
	log.Printf("Evicted cached view for account %d (balance %s)", data.AccountID, data.NewBalance.StringFixed(2))
	return nil
}
