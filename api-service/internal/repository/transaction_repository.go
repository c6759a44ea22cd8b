package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/eaglebank/ledger/shared/apperr"
	"github.com/eaglebank/ledger/shared/models"
	sharedredis "github.com/eaglebank/ledger/shared/redis"
	goredis "github.com/redis/go-redis/v9"
)

const transactionViewKeyPrefix = "transaction:view:"

// TransactionRepository stores transaction records. Records are immutable, so
// single lookups are cached without expiry.
type TransactionRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[models.TransactionView]
}

func NewTransactionRepository(db *sql.DB, redisClient *goredis.Client) *TransactionRepository {
	return &TransactionRepository{
		db:    db,
		cache: sharedredis.NewViewCache[models.TransactionView](redisClient, transactionViewKeyPrefix, 0),
	}
}

const selectTransaction = `
	SELECT id, transaction_id, amount, currency, type, user_id, account_id, created_at
	FROM transactions
`

func (r *TransactionRepository) Save(ctx context.Context, txn *models.Transaction) (*models.Transaction, error) {
	query := `
		INSERT INTO transactions (id, transaction_id, amount, currency, type, user_id, account_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	saved := *txn
	saved.Amount = models.RoundMoney(txn.Amount)
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		saved.ID, saved.TransactionID, saved.Amount, saved.Currency, saved.Type,
		saved.UserID, saved.AccountID,
	).Scan(&saved.CreatedAt)
	if err != nil {
		return nil, apperr.Persistence("save transaction", err)
	}
	return &saved, nil
}

func (r *TransactionRepository) FindByAccountID(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, selectTransaction+" WHERE account_id = $1 ORDER BY created_at ASC", accountID)
	if err != nil {
		return nil, apperr.Persistence("list transactions", err)
	}
	defer rows.Close()

	txns := []models.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, apperr.Persistence("scan transaction", err)
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("list transactions", err)
	}
	return txns, nil
}

func (r *TransactionRepository) FindByTransactionID(ctx context.Context, accountID int64, transactionID string) (*models.Transaction, error) {
	cacheKey := cacheID(accountID) + ":" + transactionID
	if view, ok := r.cache.Get(ctx, cacheKey); ok {
		return view.Transaction(), nil
	}

	txn, err := scanTransaction(conn(ctx, r.db).QueryRowContext(ctx,
		selectTransaction+" WHERE account_id = $1 AND transaction_id = $2", accountID, transactionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Transaction %s not found", transactionID)
	}
	if err != nil {
		return nil, apperr.Persistence("find transaction", err)
	}

	r.cache.Set(ctx, cacheKey, models.NewTransactionView(txn))
	return txn, nil
}

func scanTransaction(row scanner) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.TransactionID, &t.Amount, &t.Currency, &t.Type, &t.UserID, &t.AccountID, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
