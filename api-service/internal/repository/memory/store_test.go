package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/eaglebank/ledger/shared/apperr"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAccount(t *testing.T, s *Store, email string) *models.Account {
	t.Helper()
	ctx := context.Background()
	user, err := s.Users().Save(ctx, &models.User{Name: "Test", Email: email})
	require.NoError(t, err)
	account, err := s.Accounts().Save(ctx, &models.Account{
		AccountNumber: "0000000" + email[:1], SortCode: "10-10-10", Name: "Main",
		AccountType: models.AccountTypePersonal, Currency: models.CurrencyGBP,
		Balance: decimal.NewFromInt(1000), UserID: user.ID,
	})
	require.NoError(t, err)
	return account
}

func TestUserSaveRejectsDuplicateEmail(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, err := s.Users().Save(ctx, &models.User{Email: "alice@x.com"})
	require.NoError(t, err)

	_, err = s.Users().Save(ctx, &models.User{Email: "alice@x.com"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	missing, err := s.Users().FindByEmail(ctx, "nobody@x.com")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAccountSaveFillsOwnerEmail(t *testing.T) {
	s := NewStore()
	account := seedAccount(t, s, "alice@x.com")

	assert.Equal(t, "alice@x.com", account.OwnerEmail)
	owned, err := s.Accounts().FindByOwnerEmail(context.Background(), "alice@x.com")
	require.NoError(t, err)
	assert.Len(t, owned, 1)

	none, err := s.Accounts().FindByOwnerEmail(context.Background(), "bob@x.com")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestWithinAccountLockCommitsOnSuccess(t *testing.T) {
	s := NewStore()
	account := seedAccount(t, s, "alice@x.com")
	ctx := context.Background()

	err := s.Accounts().WithinAccountLock(ctx, account.ID, func(ctx context.Context, a *models.Account) error {
		if _, err := s.Transactions().Save(ctx, &models.Transaction{TransactionID: "tan-A", AccountID: a.ID, Amount: decimal.NewFromInt(200)}); err != nil {
			return err
		}
		return s.Accounts().UpdateBalance(ctx, a.ID, decimal.NewFromInt(800))
	})
	require.NoError(t, err)

	reloaded, err := s.Accounts().FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "800.00", reloaded.Balance.StringFixed(2))
	txns, err := s.Transactions().FindByAccountID(ctx, account.ID)
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestWithinAccountLockDiscardsOnError(t *testing.T) {
	s := NewStore()
	account := seedAccount(t, s, "alice@x.com")
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Accounts().WithinAccountLock(ctx, account.ID, func(ctx context.Context, a *models.Account) error {
		if _, err := s.Transactions().Save(ctx, &models.Transaction{TransactionID: "tan-A", AccountID: a.ID}); err != nil {
			return err
		}
		if err := s.Accounts().UpdateBalance(ctx, a.ID, decimal.Zero); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	reloaded, err := s.Accounts().FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Balance.Equal(decimal.NewFromInt(1000)))
	txns, err := s.Transactions().FindByAccountID(ctx, account.ID)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestWithinAccountLockUnknownAccount(t *testing.T) {
	s := NewStore()
	called := false
	err := s.Accounts().WithinAccountLock(context.Background(), 42, func(ctx context.Context, a *models.Account) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.False(t, called)
}

func TestTransactionIDCollisionIsPersistenceError(t *testing.T) {
	s := NewStore()
	account := seedAccount(t, s, "alice@x.com")
	ctx := context.Background()

	_, err := s.Transactions().Save(ctx, &models.Transaction{TransactionID: "tan-Z", AccountID: account.ID})
	require.NoError(t, err)
	_, err = s.Transactions().Save(ctx, &models.Transaction{TransactionID: "tan-Z", AccountID: account.ID})
	assert.ErrorIs(t, err, apperr.ErrPersistence)

	_, err = s.Transactions().FindByTransactionID(ctx, account.ID, "tan-Q")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
