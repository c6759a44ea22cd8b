package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/eaglebank/ledger/shared/apperr"
	"github.com/eaglebank/ledger/shared/models"
	sharedredis "github.com/eaglebank/ledger/shared/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// AccountKeyPrefix namespaces cached accounts in Redis.
const AccountKeyPrefix = "account:view:"

// AccountViewTTL caps how long a cached balance can outlive a missed eviction.
const AccountViewTTL = time.Minute

// cachedAccount is the Redis form of an account. The view hides ownership, so
// it travels alongside.
type cachedAccount struct {
	View       models.AccountView `json:"view"`
	UserID     int64              `json:"userId"`
	OwnerEmail string             `json:"ownerEmail"`
}

// AccountRepository stores accounts in Postgres. Reads outside a lock are
// served from Redis when a cache is configured; every committed balance change
// evicts the cached entry.
type AccountRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[cachedAccount]
}

func NewAccountRepository(db *sql.DB, redisClient *goredis.Client) *AccountRepository {
	return &AccountRepository{
		db:    db,
		cache: sharedredis.NewViewCache[cachedAccount](redisClient, AccountKeyPrefix, AccountViewTTL),
	}
}

const accountColumns = `
	a.id, a.account_number, a.sort_code, a.name, a.account_type, a.balance, a.currency,
	a.user_id, u.email, a.created_at, a.updated_at
`

const selectAccount = `SELECT ` + accountColumns + ` FROM accounts a JOIN users u ON u.id = a.user_id`

func (r *AccountRepository) Save(ctx context.Context, account *models.Account) (*models.Account, error) {
	query := `
		WITH a AS (
			INSERT INTO accounts (account_number, sort_code, name, account_type, balance, currency, user_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING *
		)
		SELECT ` + accountColumns + ` FROM a JOIN users u ON u.id = a.user_id
	`
	saved, err := scanAccount(conn(ctx, r.db).QueryRowContext(ctx, query,
		account.AccountNumber, account.SortCode, account.Name, account.AccountType,
		models.RoundMoney(account.Balance), account.Currency, account.UserID,
	))
	if err != nil {
		return nil, apperr.Persistence("save account", err)
	}
	r.cacheAccount(ctx, saved)
	return saved, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	cached := !inTx(ctx)
	var gen int64
	if cached {
		if entry, ok := r.cache.Get(ctx, cacheID(id)); ok {
			return entry.account(), nil
		}
		gen = r.cache.Generation(ctx, cacheID(id))
	}

	account, err := scanAccount(conn(ctx, r.db).QueryRowContext(ctx, selectAccount+" WHERE a.id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Account %d not found", id)
	}
	if err != nil {
		return nil, apperr.Persistence("find account", err)
	}
	if cached {
		r.cache.SetIfGeneration(ctx, cacheID(id), gen, toCachedAccount(account))
	}
	return account, nil
}

func (r *AccountRepository) FindByOwnerEmail(ctx context.Context, email string) ([]models.Account, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, selectAccount+" WHERE u.email = $1 ORDER BY a.id", email)
	if err != nil {
		return nil, apperr.Persistence("list accounts", err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, apperr.Persistence("scan account", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("list accounts", err)
	}
	return accounts, nil
}

func (r *AccountRepository) UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = $2, updated_at = NOW()
		WHERE id = $1
	`
	result, err := conn(ctx, r.db).ExecContext(ctx, query, id, models.RoundMoney(balance))
	if err != nil {
		return apperr.Persistence("update balance", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperr.Persistence("update balance", err)
	}
	if rows == 0 {
		return apperr.NotFound("Account %d not found", id)
	}
	if !inTx(ctx) {
		r.Evict(ctx, id)
	}
	return nil
}

// WithinAccountLock runs fn inside a database transaction that holds a row
// lock on the account. The transaction commits only when fn returns nil.
func (r *AccountRepository) WithinAccountLock(ctx context.Context, id int64, fn func(ctx context.Context, account *models.Account) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Persistence("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	account, err := scanAccount(tx.QueryRowContext(ctx, selectAccount+" WHERE a.id = $1 FOR UPDATE OF a", id))
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("Account %d not found", id)
	}
	if err != nil {
		return apperr.Persistence("lock account", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx), account); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperr.Persistence("commit transaction", err)
	}
	r.Evict(ctx, id)
	return nil
}

// Evict drops the cached account so the next read goes to Postgres. Reads
// that loaded the row before the eviction do not repopulate the cache.
func (r *AccountRepository) Evict(ctx context.Context, id int64) {
	r.cache.Evict(ctx, cacheID(id))
}

func (r *AccountRepository) cacheAccount(ctx context.Context, a *models.Account) {
	r.cache.Set(ctx, cacheID(a.ID), toCachedAccount(a))
}

func toCachedAccount(a *models.Account) *cachedAccount {
	return &cachedAccount{
		View:       *models.NewAccountView(a),
		UserID:     a.UserID,
		OwnerEmail: a.OwnerEmail,
	}
}

func (c *cachedAccount) account() *models.Account {
	return &models.Account{
		ID:            c.View.ID,
		AccountNumber: c.View.AccountNumber,
		SortCode:      c.View.SortCode,
		Name:          c.View.Name,
		AccountType:   c.View.AccountType,
		Balance:       models.BalanceOf(&c.View),
		Currency:      c.View.Currency,
		UserID:        c.UserID,
		OwnerEmail:    c.OwnerEmail,
		CreatedAt:     c.View.CreatedAt,
		UpdatedAt:     c.View.UpdatedAt,
	}
}

func cacheID(id int64) string {
	return strconv.FormatInt(id, 10)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*models.Account, error) {
	var a models.Account
	err := row.Scan(
		&a.ID, &a.AccountNumber, &a.SortCode, &a.Name, &a.AccountType, &a.Balance, &a.Currency,
		&a.UserID, &a.OwnerEmail, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
