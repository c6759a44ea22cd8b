package cqrs

import (
	"github.com/eaglebank/ledger/shared/models"
	"github.com/shopspring/decimal"
)

type CreateUserCommand struct {
	Name        string
	Email       string
	Password    string
	PhoneNumber string
	Address     models.Address
}

// CreateAccountCommand opens an account for the authenticated principal.
type CreateAccountCommand struct {
	PrincipalEmail string
	Name           string
	AccountType    models.AccountType
}

// CreateTransactionCommand posts a deposit or withdrawal against AccountID.
type CreateTransactionCommand struct {
	AccountID      int64
	PrincipalEmail string
	Amount         decimal.Decimal
	Currency       models.Currency
	Type           models.TransactionType
}

type LoginCommand struct {
	Email    string
	Password string
}

type RefreshTokenCommand struct {
	Token string
}
