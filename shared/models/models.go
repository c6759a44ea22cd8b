package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const AccountTypePersonal AccountType = "personal"

func (t AccountType) Valid() bool {
	return t == AccountTypePersonal
}

type Currency string

const CurrencyGBP Currency = "GBP"

func (c Currency) Valid() bool {
	return c == CurrencyGBP
}

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

func (t TransactionType) Valid() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeWithdrawal
}

type Address struct {
	Line1    string `json:"line1" validate:"required"`
	Line2    string `json:"line2,omitempty"`
	Line3    string `json:"line3,omitempty"`
	Town     string `json:"town" validate:"required"`
	County   string `json:"county" validate:"required"`
	Postcode string `json:"postcode" validate:"required"`
}

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	PhoneNumber  string    `json:"phoneNumber"`
	Address      Address   `json:"address"`
	CreatedAt    time.Time `json:"createdTimestamp"`
	UpdatedAt    time.Time `json:"updatedTimestamp"`
}

// Account is the write model. OwnerEmail is denormalised from the owning user
// so ownership checks need no extra lookup.
type Account struct {
	ID            int64           `json:"id"`
	AccountNumber string          `json:"accountNumber"`
	SortCode      string          `json:"sortCode"`
	Name          string          `json:"name"`
	AccountType   AccountType     `json:"accountType"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      Currency        `json:"currency"`
	UserID        int64           `json:"-"`
	OwnerEmail    string          `json:"-"`
	CreatedAt     time.Time       `json:"createdTimestamp"`
	UpdatedAt     time.Time       `json:"updatedTimestamp"`
}

type Transaction struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      Currency        `json:"currency"`
	Type          TransactionType `json:"type"`
	UserID        int64           `json:"userId"`
	AccountID     int64           `json:"accountId"`
	CreatedAt     time.Time       `json:"createdTimestamp"`
}
