// Package memory holds in-process repositories used when STORAGE_DRIVER=memory
// and by tests. Mutations of one account are serialised by a per-account mutex;
// writes made inside WithinAccountLock are staged and applied only when the
// unit succeeds.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/eaglebank/ledger/shared/apperr"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/shopspring/decimal"
)

type Store struct {
	mu           sync.RWMutex
	users        map[int64]*models.User
	accounts     map[int64]*models.Account
	transactions map[int64][]models.Transaction
	tans         map[string]struct{}
	lastUserID   int64
	lastAcctID   int64

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:        make(map[int64]*models.User),
		accounts:     make(map[int64]*models.Account),
		transactions: make(map[int64][]models.Transaction),
		tans:         make(map[string]struct{}),
		locks:        make(map[int64]*sync.Mutex),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// unit collects the writes of one WithinAccountLock call.
type unit struct {
	accountID    int64
	transactions []models.Transaction
	balance      *decimal.Decimal
}

type unitKey struct{}

func unitFrom(ctx context.Context) *unit {
	u, _ := ctx.Value(unitKey{}).(*unit)
	return u
}

func (s *Store) accountLock(id int64) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// Users returns the UserRepository view of the store.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Accounts returns the AccountRepository view of the store.
func (s *Store) Accounts() *AccountRepository { return &AccountRepository{s: s} }

// Transactions returns the TransactionRepository view of the store.
func (s *Store) Transactions() *TransactionRepository { return &TransactionRepository{s: s} }

type UserRepository struct{ s *Store }

func (r *UserRepository) Save(ctx context.Context, user *models.User) (*models.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return nil, apperr.Conflict("User with email %s already exists", user.Email)
		}
	}
	s.lastUserID++
	saved := *user
	saved.ID = s.lastUserID
	now := s.now()
	saved.CreatedAt, saved.UpdatedAt = now, now
	s.users[saved.ID] = &saved

	out := saved
	return &out, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("User %d not found", id)
	}
	out := *u
	return &out, nil
}

type AccountRepository struct{ s *Store }

func (r *AccountRepository) Save(ctx context.Context, account *models.Account) (*models.Account, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.users[account.UserID]
	if !ok {
		return nil, apperr.Persistence("save account", apperr.NotFound("owner %d does not exist", account.UserID))
	}
	for _, a := range s.accounts {
		if a.AccountNumber == account.AccountNumber {
			return nil, apperr.Persistence("save account", apperr.Conflict("account number %s already issued", account.AccountNumber))
		}
	}
	s.lastAcctID++
	saved := *account
	saved.ID = s.lastAcctID
	saved.OwnerEmail = owner.Email
	saved.Balance = models.RoundMoney(saved.Balance)
	now := s.now()
	saved.CreatedAt, saved.UpdatedAt = now, now
	s.accounts[saved.ID] = &saved

	out := saved
	return &out, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, apperr.NotFound("Account %d not found", id)
	}
	out := *a
	if u := unitFrom(ctx); u != nil && u.accountID == id && u.balance != nil {
		out.Balance = *u.balance
	}
	return &out, nil
}

func (r *AccountRepository) FindByOwnerEmail(ctx context.Context, email string) ([]models.Account, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	accounts := []models.Account{}
	for _, a := range s.accounts {
		if a.OwnerEmail == email {
			accounts = append(accounts, *a)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (r *AccountRepository) UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	if u := unitFrom(ctx); u != nil && u.accountID == id {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		b := models.RoundMoney(balance)
		u.balance = &b
		return nil
	}

	l := r.s.accountLock(id)
	l.Lock()
	defer l.Unlock()
	return r.s.applyBalance(id, balance)
}

func (s *Store) applyBalance(id int64, balance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return apperr.NotFound("Account %d not found", id)
	}
	a.Balance = models.RoundMoney(balance)
	a.UpdatedAt = s.now()
	return nil
}

func (r *AccountRepository) WithinAccountLock(ctx context.Context, id int64, fn func(ctx context.Context, account *models.Account) error) error {
	s := r.s
	l := s.accountLock(id)
	l.Lock()
	defer l.Unlock()

	account, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}

	u := &unit{accountID: id}
	if err := fn(context.WithValue(ctx, unitKey{}, u), account); err != nil {
		return err
	}
	return s.commit(u)
}

func (s *Store) commit(u *unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[u.accountID]
	if !ok {
		return apperr.NotFound("Account %d not found", u.accountID)
	}
	for _, t := range u.transactions {
		if _, dup := s.tans[t.TransactionID]; dup {
			return apperr.Persistence("save transaction", apperr.Conflict("transaction id %s already used", t.TransactionID))
		}
	}
	for _, t := range u.transactions {
		s.tans[t.TransactionID] = struct{}{}
		s.transactions[t.AccountID] = append(s.transactions[t.AccountID], t)
	}
	if u.balance != nil {
		a.Balance = *u.balance
		a.UpdatedAt = s.now()
	}
	return nil
}

type TransactionRepository struct{ s *Store }

func (r *TransactionRepository) Save(ctx context.Context, txn *models.Transaction) (*models.Transaction, error) {
	s := r.s
	saved := *txn
	saved.CreatedAt = s.now()

	if u := unitFrom(ctx); u != nil && u.accountID == txn.AccountID {
		s.mu.RLock()
		_, dup := s.tans[saved.TransactionID]
		s.mu.RUnlock()
		for _, t := range u.transactions {
			dup = dup || t.TransactionID == saved.TransactionID
		}
		if dup {
			return nil, apperr.Persistence("save transaction", apperr.Conflict("transaction id %s already used", saved.TransactionID))
		}
		u.transactions = append(u.transactions, saved)
		out := saved
		return &out, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[saved.AccountID]; !ok {
		return nil, apperr.Persistence("save transaction", apperr.NotFound("account %d does not exist", saved.AccountID))
	}
	if _, dup := s.tans[saved.TransactionID]; dup {
		return nil, apperr.Persistence("save transaction", apperr.Conflict("transaction id %s already used", saved.TransactionID))
	}
	s.tans[saved.TransactionID] = struct{}{}
	s.transactions[saved.AccountID] = append(s.transactions[saved.AccountID], saved)
	out := saved
	return &out, nil
}

func (r *TransactionRepository) FindByAccountID(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	txns := make([]models.Transaction, len(s.transactions[accountID]))
	copy(txns, s.transactions[accountID])
	return txns, nil
}

func (r *TransactionRepository) FindByTransactionID(ctx context.Context, accountID int64, transactionID string) (*models.Transaction, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.transactions[accountID] {
		if t.TransactionID == transactionID {
			out := t
			return &out, nil
		}
	}
	return nil, apperr.NotFound("Transaction %s not found", transactionID)
}
