package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserView is the read projection of a user. It never exposes PasswordHash.
type UserView struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber"`
	Address     Address   `json:"address"`
	CreatedAt   time.Time `json:"createdTimestamp"`
	UpdatedAt   time.Time `json:"updatedTimestamp"`
}

// AccountView is the read projection of an account. The balance is rendered
// with two fraction digits.
type AccountView struct {
	ID            int64       `json:"id"`
	AccountNumber string      `json:"accountNumber"`
	SortCode      string      `json:"sortCode"`
	Name          string      `json:"name"`
	AccountType   AccountType `json:"accountType"`
	Balance       string      `json:"balance"`
	Currency      Currency    `json:"currency"`
	CreatedAt     time.Time   `json:"createdTimestamp"`
	UpdatedAt     time.Time   `json:"updatedTimestamp"`
}

type TransactionView struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transactionId"`
	AccountID     int64           `json:"accountId"`
	UserID        int64           `json:"userId"`
	Amount        string          `json:"amount"`
	Currency      Currency        `json:"currency"`
	Type          TransactionType `json:"type"`
	CreatedAt     time.Time       `json:"createdTimestamp"`
}

func NewUserView(u *User) *UserView {
	return &UserView{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Address:     u.Address,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func NewAccountView(a *Account) *AccountView {
	return &AccountView{
		ID:            a.ID,
		AccountNumber: a.AccountNumber,
		SortCode:      a.SortCode,
		Name:          a.Name,
		AccountType:   a.AccountType,
		Balance:       a.Balance.StringFixed(MoneyScale),
		Currency:      a.Currency,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func NewTransactionView(t *Transaction) *TransactionView {
	return &TransactionView{
		ID:            t.ID,
		TransactionID: t.TransactionID,
		AccountID:     t.AccountID,
		UserID:        t.UserID,
		Amount:        t.Amount.StringFixed(MoneyScale),
		Currency:      t.Currency,
		Type:          t.Type,
		CreatedAt:     t.CreatedAt,
	}
}

// BalanceOf parses the balance carried by a view back into a decimal.
func BalanceOf(v *AccountView) decimal.Decimal {
	d, err := decimal.NewFromString(v.Balance)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Transaction rebuilds the record a view was rendered from.
func (v *TransactionView) Transaction() *Transaction {
	amount, err := decimal.NewFromString(v.Amount)
	if err != nil {
		amount = decimal.Zero
	}
	return &Transaction{
		ID:            v.ID,
		TransactionID: v.TransactionID,
		Amount:        amount,
		Currency:      v.Currency,
		Type:          v.Type,
		UserID:        v.UserID,
		AccountID:     v.AccountID,
		CreatedAt:     v.CreatedAt,
	}
}
