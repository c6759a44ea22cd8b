package query

import (
	"context"
	"strings"

	"github.com/eaglebank/ledger/api-service/internal/service"
	"github.com/eaglebank/ledger/shared/apperr"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/models"
)

// AccountQueryService is the read side of the ledger. Every lookup is scoped
// to the principal's own accounts.
type AccountQueryService struct {
	accounts     *service.AccountService
	transactions *service.TransactionService
}

func NewAccountQueryService(accounts *service.AccountService, transactions *service.TransactionService) *AccountQueryService {
	return &AccountQueryService{accounts: accounts, transactions: transactions}
}

func (s *AccountQueryService) ListAccounts(ctx context.Context, q cqrs.ListAccountsQuery) ([]models.AccountView, error) {
	if strings.TrimSpace(q.PrincipalEmail) == "" {
		return nil, apperr.InvalidArgument("principal email must not be blank")
	}
	accounts, err := s.accounts.ListForOwner(ctx, q.PrincipalEmail)
	if err != nil {
		return nil, err
	}
	views := make([]models.AccountView, 0, len(accounts))
	for i := range accounts {
		views = append(views, *models.NewAccountView(&accounts[i]))
	}
	return views, nil
}

func (s *AccountQueryService) GetAccount(ctx context.Context, q cqrs.GetAccountQuery) (*models.AccountView, error) {
	if strings.TrimSpace(q.PrincipalEmail) == "" {
		return nil, apperr.InvalidArgument("principal email must not be blank")
	}
	account, err := s.ownedAccount(ctx, q.AccountID, q.PrincipalEmail)
	if err != nil {
		return nil, err
	}
	return models.NewAccountView(account), nil
}

func (s *AccountQueryService) ListTransactions(ctx context.Context, q cqrs.ListTransactionsQuery) ([]models.TransactionView, error) {
	if _, err := s.ownedAccount(ctx, q.AccountID, q.PrincipalEmail); err != nil {
		return nil, err
	}
	txns, err := s.transactions.ListForAccount(ctx, q.AccountID)
	if err != nil {
		return nil, err
	}
	views := make([]models.TransactionView, 0, len(txns))
	for i := range txns {
		views = append(views, *models.NewTransactionView(&txns[i]))
	}
	return views, nil
}

func (s *AccountQueryService) GetTransaction(ctx context.Context, q cqrs.GetTransactionQuery) (*models.TransactionView, error) {
	if _, err := s.ownedAccount(ctx, q.AccountID, q.PrincipalEmail); err != nil {
		return nil, err
	}
	txn, err := s.transactions.GetForAccount(ctx, q.AccountID, q.TransactionID)
	if err != nil {
		return nil, err
	}
	return models.NewTransactionView(txn), nil
}

func (s *AccountQueryService) ownedAccount(ctx context.Context, id int64, principal string) (*models.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.OwnerEmail != principal {
		return nil, apperr.Forbidden("Authenticated user does not have access to this account.")
	}
	return account, nil
}
