package cqrs

// ---------- User queries ----------

// GetUserQuery fetches a single user by ID, subject to ownership check.
type GetUserQuery struct {
	UserID         int64
	PrincipalEmail string
}

// ---------- Account queries ----------

// GetAccountQuery fetches a single account by ID.
type GetAccountQuery struct {
	AccountID      int64
	PrincipalEmail string
}

// ListAccountsQuery fetches all accounts owned by the principal.
type ListAccountsQuery struct {
	PrincipalEmail string
}

// ---------- Transaction queries ----------

// GetTransactionQuery fetches a single transaction by its tan identifier.
type GetTransactionQuery struct {
	AccountID      int64
	TransactionID  string
	PrincipalEmail string
}

// ListTransactionsQuery fetches all transactions for an account.
type ListTransactionsQuery struct {
	AccountID      int64
	PrincipalEmail string
}
