package models

import (
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fraction digits carried by every amount and balance.
const MoneyScale = 2

var (
	MinTransactionAmount = decimal.Zero
	MaxTransactionAmount = decimal.NewFromInt(10000)
)

// HasMoneyScale reports whether d has at most two fraction digits.
func HasMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}

// ValidTransactionAmount reports whether d is within [0.00, 10000.00] with at most
// two fraction digits.
func ValidTransactionAmount(d decimal.Decimal) bool {
	return HasMoneyScale(d) &&
		d.GreaterThanOrEqual(MinTransactionAmount) &&
		d.LessThanOrEqual(MaxTransactionAmount)
}

// RoundMoney pins d to two fraction digits for storage and display.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}
