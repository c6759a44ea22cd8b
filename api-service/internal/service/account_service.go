package service

import (
	"context"

	"github.com/eaglebank/ledger/shared/apperr"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/eaglebank/ledger/shared/utils"
	"github.com/shopspring/decimal"
)

// AccountService owns account identifiers and persistence. It performs no
// authorization; callers check ownership.
type AccountService struct {
	repo AccountRepository
	ids  *utils.Generator
}

func NewAccountService(repo AccountRepository, ids *utils.Generator) *AccountService {
	return &AccountService{repo: repo, ids: ids}
}

// IssueSortCode returns "NN-NN-NN". Values are not checked for uniqueness.
func (s *AccountService) IssueSortCode() string {
	return s.ids.SortCode()
}

// IssueAccountNumber returns eight digits, zero padded.
func (s *AccountService) IssueAccountNumber() string {
	return s.ids.AccountNumber()
}

func (s *AccountService) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	return s.repo.Save(ctx, account)
}

func (s *AccountService) ListForOwner(ctx context.Context, email string) ([]models.Account, error) {
	accounts, err := s.repo.FindByOwnerEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	return accounts, nil
}

func (s *AccountService) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	return s.repo.FindByID(ctx, id)
}

// PersistBalance writes only the balance column of the account.
func (s *AccountService) PersistBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	if !models.HasMoneyScale(balance) {
		return apperr.InvalidArgument("balance %s has more than %d fraction digits", balance, models.MoneyScale)
	}
	return s.repo.UpdateBalance(ctx, id, balance)
}

// WithLockedAccount runs fn as one atomic unit against the locked account.
func (s *AccountService) WithLockedAccount(ctx context.Context, id int64, fn func(ctx context.Context, account *models.Account) error) error {
	return s.repo.WithinAccountLock(ctx, id, fn)
}
