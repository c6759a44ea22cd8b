package service

import (
	"context"

	"github.com/eaglebank/ledger/shared/apperr"
	"github.com/eaglebank/ledger/shared/models"
)

// TransactionService applies deposits and withdrawals to an account balance.
type TransactionService struct {
	repo TransactionRepository
}

func NewTransactionService(repo TransactionRepository) *TransactionService {
	return &TransactionService{repo: repo}
}

// Apply validates txn, updates account.Balance in memory and saves txn. The
// balance itself is not persisted here. On error neither the account nor the
// store has changed, except when the save fails after the balance moved; the
// caller's atomic unit discards that state.
func (s *TransactionService) Apply(ctx context.Context, account *models.Account, txn *models.Transaction) (*models.Transaction, error) {
	if !txn.Type.Valid() {
		return nil, apperr.InvalidArgument("unsupported transaction type %q", txn.Type)
	}
	if !models.ValidTransactionAmount(txn.Amount) {
		return nil, apperr.InvalidArgument("amount %s must be between %s and %s with at most %d decimal places",
			txn.Amount, models.MinTransactionAmount.StringFixed(models.MoneyScale),
			models.MaxTransactionAmount.StringFixed(models.MoneyScale), models.MoneyScale)
	}

	balance := account.Balance
	switch txn.Type {
	case models.TransactionTypeDeposit:
		balance = balance.Add(txn.Amount)
	case models.TransactionTypeWithdrawal:
		if txn.Amount.GreaterThan(balance) {
			return nil, apperr.InsufficientFunds("Insufficient funds to process transaction")
		}
		balance = balance.Sub(txn.Amount)
	}

	account.Balance = models.RoundMoney(balance)
	txn.Amount = models.RoundMoney(txn.Amount)
	return s.repo.Save(ctx, txn)
}

func (s *TransactionService) ListForAccount(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	txns, err := s.repo.FindByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if txns == nil {
		txns = []models.Transaction{}
	}
	return txns, nil
}

func (s *TransactionService) GetForAccount(ctx context.Context, accountID int64, transactionID string) (*models.Transaction, error) {
	return s.repo.FindByTransactionID(ctx, accountID, transactionID)
}
