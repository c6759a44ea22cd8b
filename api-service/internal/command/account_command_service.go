package command

import (
	"context"
	"log"
	"strings"

	"github.com/eaglebank/ledger/api-service/internal/service"
	"github.com/eaglebank/ledger/shared/apperr"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/events"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const noAccountAccess = "Authenticated user does not have access to this account."

// AccountCommandService is the write side of the ledger: opening accounts and
// posting transactions on behalf of an authenticated principal.
type AccountCommandService struct {
	accounts     *service.AccountService
	transactions *service.TransactionService
	users        *service.UserService
	ids          IDGenerator
	publisher    EventPublisher
}

func NewAccountCommandService(
	accounts *service.AccountService,
	transactions *service.TransactionService,
	users *service.UserService,
	ids IDGenerator,
	publisher EventPublisher,
) *AccountCommandService {
	return &AccountCommandService{
		accounts:     accounts,
		transactions: transactions,
		users:        users,
		ids:          ids,
		publisher:    publisher,
	}
}

func (s *AccountCommandService) CreateAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) (*models.Account, error) {
	if strings.TrimSpace(cmd.PrincipalEmail) == "" {
		return nil, apperr.InvalidArgument("principal email must not be blank")
	}
	if strings.TrimSpace(cmd.Name) == "" {
		return nil, apperr.InvalidArgument("account name must not be blank")
	}
	if !cmd.AccountType.Valid() {
		return nil, apperr.InvalidArgument("unsupported account type %q", cmd.AccountType)
	}

	owner, err := s.users.FindByEmail(ctx, cmd.PrincipalEmail)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, apperr.NotFound("User not found")
	}

	account, err := s.accounts.Create(ctx, &models.Account{
		AccountNumber: s.accounts.IssueAccountNumber(),
		SortCode:      s.accounts.IssueSortCode(),
		Name:          cmd.Name,
		AccountType:   cmd.AccountType,
		Balance:       models.RoundMoney(models.MinTransactionAmount),
		Currency:      models.CurrencyGBP,
		UserID:        owner.ID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, events.AccountEventsStream, events.AccountCreated, events.AccountCreatedEvent{
		AccountID:     account.ID,
		AccountNumber: account.AccountNumber,
		SortCode:      account.SortCode,
		UserID:        account.UserID,
		Name:          account.Name,
		AccountType:   string(account.AccountType),
	}); err != nil {
		log.Printf("Failed to publish account.created event: %v", err)
	}
	return account, nil
}

// CreateTransaction posts a deposit or withdrawal. The ownership checks, the
// balance arithmetic, the record insert and the balance write all happen while
// the account is locked, and either all take effect or none do.
func (s *AccountCommandService) CreateTransaction(ctx context.Context, cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) {
	user, err := s.users.FindByEmail(ctx, cmd.PrincipalEmail)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Email != cmd.PrincipalEmail {
		return nil, apperr.Forbidden(noAccountAccess)
	}

	currency := cmd.Currency
	if currency == "" {
		currency = models.CurrencyGBP
	}
	if !currency.Valid() {
		return nil, apperr.InvalidArgument("unsupported currency %q", cmd.Currency)
	}

	var created *models.Transaction
	var newBalance decimal.Decimal
	err = s.accounts.WithLockedAccount(ctx, cmd.AccountID, func(ctx context.Context, account *models.Account) error {
		if account.OwnerEmail != cmd.PrincipalEmail {
			return apperr.Forbidden(noAccountAccess)
		}

		txn, err := s.transactions.Apply(ctx, account, &models.Transaction{
			ID:            uuid.NewString(),
			TransactionID: s.ids.GenerateID("tan"),
			Amount:        cmd.Amount,
			Currency:      currency,
			Type:          cmd.Type,
			UserID:        user.ID,
			AccountID:     account.ID,
		})
		if err != nil {
			return err
		}
		if err := s.accounts.PersistBalance(ctx, account.ID, account.Balance); err != nil {
			return err
		}
		created = txn
		newBalance = account.Balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishTransaction(ctx, created, newBalance)
	return created, nil
}

func (s *AccountCommandService) publishTransaction(ctx context.Context, txn *models.Transaction, newBalance decimal.Decimal) {
	if err := s.publisher.Publish(ctx, events.TransactionEventsStream, events.TransactionCreated, events.TransactionCreatedEvent{
		ID:            txn.ID,
		TransactionID: txn.TransactionID,
		AccountID:     txn.AccountID,
		UserID:        txn.UserID,
		Amount:        txn.Amount,
		Type:          string(txn.Type),
		Currency:      string(txn.Currency),
	}); err != nil {
		log.Printf("Failed to publish transaction.created event: %v", err)
	}

	change := txn.Amount
	if txn.Type == models.TransactionTypeWithdrawal {
		change = change.Neg()
	}
	if err := s.publisher.Publish(ctx, events.AccountEventsStream, events.BalanceUpdated, events.BalanceUpdatedEvent{
		AccountID:  txn.AccountID,
		NewBalance: newBalance,
		Change:     change,
	}); err != nil {
		log.Printf("Failed to publish balance.updated event: %v", err)
	}
	log.Printf("Transaction %s applied to account %d: %s %s, balance now %s",
		txn.TransactionID, txn.AccountID, txn.Type, txn.Amount.StringFixed(models.MoneyScale), newBalance.StringFixed(models.MoneyScale))
}
