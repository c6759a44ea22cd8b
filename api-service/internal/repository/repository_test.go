package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/eaglebank/ledger/shared/apperr"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountCols = []string{
	"id", "account_number", "sort_code", "name", "account_type", "balance", "currency",
	"user_id", "email", "created_at", "updated_at",
}

func accountRow(mock sqlmock.Sqlmock, id int64, balance string) *sqlmock.Rows {
	now := time.Now()
	return mock.NewRows(accountCols).AddRow(id, "01234567", "10-20-30", "Main", "personal", balance, "GBP", int64(1), "alice@x.com", now, now)
}

func TestUserRepositorySaveMapsUniqueViolationToConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(&pq.Error{Code: "23505"})

	_, err = NewUserRepository(db).Save(context.Background(), &models.User{Email: "alice@x.com"})

	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByEmailAbsent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM users WHERE email = \$1`).
		WithArgs("nobody@x.com").
		WillReturnRows(mock.NewRows([]string{"id"}))

	user, err := NewUserRepository(db).FindByEmail(context.Background(), "nobody@x.com")

	assert.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryFindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewAccountRepository(db, nil)

	mock.ExpectQuery(`SELECT .* FROM accounts a JOIN users u ON u.id = a.user_id WHERE a.id = \$1`).
		WithArgs(int64(3)).
		WillReturnRows(accountRow(mock, 3, "1000.00"))
	mock.ExpectQuery(`WHERE a.id = \$1`).
		WithArgs(int64(4)).
		WillReturnRows(mock.NewRows(accountCols))

	account, err := repo.FindByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", account.OwnerEmail)
	assert.Equal(t, models.AccountTypePersonal, account.AccountType)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(1000)))

	_, err = repo.FindByID(context.Background(), 4)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryUpdateBalanceMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE accounts SET balance = \$2`).
		WithArgs(int64(9), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewAccountRepository(db, nil).UpdateBalance(context.Background(), 9, decimal.NewFromInt(5))

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinAccountLockCommits(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	accounts := NewAccountRepository(db, nil)
	txns := NewTransactionRepository(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* WHERE a.id = \$1 FOR UPDATE OF a`).
		WithArgs(int64(3)).
		WillReturnRows(accountRow(mock, 3, "1000.00"))
	mock.ExpectQuery(`INSERT INTO transactions`).
		WithArgs("b7c1", "tan-A", sqlmock.AnyArg(), models.CurrencyGBP, models.TransactionTypeWithdrawal, int64(1), int64(3)).
		WillReturnRows(mock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec(`UPDATE accounts`).
		WithArgs(int64(3), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = accounts.WithinAccountLock(context.Background(), 3, func(ctx context.Context, a *models.Account) error {
		_, err := txns.Save(ctx, &models.Transaction{
			ID: "b7c1", TransactionID: "tan-A", Amount: decimal.NewFromInt(200),
			Currency: models.CurrencyGBP, Type: models.TransactionTypeWithdrawal, UserID: 1, AccountID: a.ID,
		})
		if err != nil {
			return err
		}
		return accounts.UpdateBalance(ctx, a.ID, a.Balance.Sub(decimal.NewFromInt(200)))
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinAccountLockRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	accounts := NewAccountRepository(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE OF a`).
		WithArgs(int64(3)).
		WillReturnRows(accountRow(mock, 3, "100.00"))
	mock.ExpectRollback()

	err = accounts.WithinAccountLock(context.Background(), 3, func(ctx context.Context, a *models.Account) error {
		return apperr.InsufficientFunds("Insufficient funds to process transaction")
	})

	assert.ErrorIs(t, err, apperr.ErrInsufficientFunds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinAccountLockMissingAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE OF a`).WithArgs(int64(8)).WillReturnRows(mock.NewRows(accountCols))
	mock.ExpectRollback()

	called := false
	err = NewAccountRepository(db, nil).WithinAccountLock(context.Background(), 8, func(ctx context.Context, a *models.Account) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepositorySaveFailureIsPersistenceError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	cause := &pq.Error{Code: "23505"}

	mock.ExpectQuery(`INSERT INTO transactions`).WillReturnError(cause)

	_, err = NewTransactionRepository(db, nil).Save(context.Background(), &models.Transaction{TransactionID: "tan-A"})

	assert.ErrorIs(t, err, apperr.ErrPersistence)
	var pqErr *pq.Error
	assert.True(t, errors.As(err, &pqErr))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepositoryListAscending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	t0 := time.Now()
	cols := []string{"id", "transaction_id", "amount", "currency", "type", "user_id", "account_id", "created_at"}

	mock.ExpectQuery(`FROM transactions WHERE account_id = \$1 ORDER BY created_at ASC`).
		WithArgs(int64(3)).
		WillReturnRows(mock.NewRows(cols).
			AddRow("u1", "tan-a", "200.00", "GBP", "withdrawal", int64(1), int64(3), t0).
			AddRow("u2", "tan-b", "100.00", "GBP", "deposit", int64(1), int64(3), t0.Add(time.Second)))

	txns, err := NewTransactionRepository(db, nil).FindByAccountID(context.Background(), 3)

	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "tan-a", txns[0].TransactionID)
	assert.Equal(t, models.TransactionTypeDeposit, txns[1].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountReadRacingCommitDoesNotCacheStaleBalance(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()
	repo := NewAccountRepository(db, client)
	ctx := context.Background()

	// The read loads 1000.00 but only returns after the balance commit evicted the entry.
	mock.ExpectQuery(`WHERE a.id = \$1`).
		WithArgs(int64(3)).
		WillDelayFor(300 * time.Millisecond).
		WillReturnRows(accountRow(mock, 3, "1000.00"))
	mock.ExpectQuery(`WHERE a.id = \$1`).
		WithArgs(int64(3)).
		WillReturnRows(accountRow(mock, 3, "400.00"))

	evicted := make(chan struct{})
	go func() {
		time.Sleep(100 * time.Millisecond)
		repo.Evict(ctx, 3)
		close(evicted)
	}()

	stale, err := repo.FindByID(ctx, 3)
	require.NoError(t, err)
	<-evicted
	assert.True(t, stale.Balance.Equal(decimal.NewFromInt(1000)))
	assert.False(t, mr.Exists(AccountKeyPrefix+"3"))

	fresh, err := repo.FindByID(ctx, 3)
	require.NoError(t, err)
	assert.True(t, fresh.Balance.Equal(decimal.NewFromInt(400)))
	assert.True(t, mr.Exists(AccountKeyPrefix+"3"))
	assert.Equal(t, AccountViewTTL, mr.TTL(AccountKeyPrefix+"3"))

	// served from the cache, no third query
	cached, err := repo.FindByID(ctx, 3)
	require.NoError(t, err)
	assert.True(t, cached.Balance.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, "alice@x.com", cached.OwnerEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountLockCommitEvictsCachedView(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()
	repo := NewAccountRepository(db, client)
	ctx := context.Background()

	mock.ExpectQuery(`WHERE a.id = \$1`).WithArgs(int64(3)).WillReturnRows(accountRow(mock, 3, "1000.00"))
	_, err = repo.FindByID(ctx, 3)
	require.NoError(t, err)
	require.True(t, mr.Exists(AccountKeyPrefix+"3"))

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE OF a`).WithArgs(int64(3)).WillReturnRows(accountRow(mock, 3, "1000.00"))
	mock.ExpectExec(`UPDATE accounts`).WithArgs(int64(3), sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = repo.WithinAccountLock(ctx, 3, func(ctx context.Context, account *models.Account) error {
		return repo.UpdateBalance(ctx, account.ID, decimal.RequireFromString("400.00"))
	})
	require.NoError(t, err)

	assert.False(t, mr.Exists(AccountKeyPrefix+"3"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
