package service

import (
	"context"

	"github.com/eaglebank/ledger/shared/models"
	"github.com/shopspring/decimal"
)

// UserRepository persists users. FindByEmail returns (nil, nil) when no user
// has the email; FindByID returns an apperr.ErrNotFound error.
type UserRepository interface {
	Save(ctx context.Context, user *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// AccountRepository persists accounts.
//
// WithinAccountLock loads the account with id under an exclusive lock held
// until fn returns and runs fn with a context that the other repository calls
// join. Writes made through that context are kept only when fn returns nil.
type AccountRepository interface {
	Save(ctx context.Context, account *models.Account) (*models.Account, error)
	FindByID(ctx context.Context, id int64) (*models.Account, error)
	FindByOwnerEmail(ctx context.Context, email string) ([]models.Account, error)
	UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) error
	WithinAccountLock(ctx context.Context, id int64, fn func(ctx context.Context, account *models.Account) error) error
}

// TransactionRepository persists immutable transaction records. Listing is in
// ascending creation order.
type TransactionRepository interface {
	Save(ctx context.Context, txn *models.Transaction) (*models.Transaction, error)
	FindByAccountID(ctx context.Context, accountID int64) ([]models.Transaction, error)
	FindByTransactionID(ctx context.Context, accountID int64, transactionID string) (*models.Transaction, error)
}
