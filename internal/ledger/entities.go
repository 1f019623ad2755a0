package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
)

// TransactionType classifies the direction of a money movement.
type TransactionType string

const (
	// TypeIncome increases a wallet balance and its cumulative income total.
	TypeIncome TransactionType = "income"
	// TypeExpense decreases a wallet balance and grows its cumulative expense total.
	TypeExpense TransactionType = "expense"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Category identifies the spending bucket of an expense transaction.
// Income transactions carry no category.
type Category string

const (
	CategoryGroceries     Category = "groceries"
	CategoryEatingOut     Category = "eating_out"
	CategoryTransport     Category = "transport"
	CategoryShopping      Category = "shopping"
	CategoryEntertainment Category = "entertainment"
	CategoryBills         Category = "bills"
	CategoryRent          Category = "rent"
	CategoryHealth        Category = "health"
	CategoryTravel        Category = "travel"
	CategoryPersonalCare  Category = "personal_care"
	CategorySavings       Category = "savings"
	CategoryClothing      Category = "clothing"
	CategoryOther         Category = "other"
)

var categories = map[Category]struct{}{
	CategoryGroceries:     {},
	CategoryEatingOut:     {},
	CategoryTransport:     {},
	CategoryShopping:      {},
	CategoryEntertainment: {},
	CategoryBills:         {},
	CategoryRent:          {},
	CategoryHealth:        {},
	CategoryTravel:        {},
	CategoryPersonalCare:  {},
	CategorySavings:       {},
	CategoryClothing:      {},
	CategoryOther:         {},
}

// Valid reports whether c is part of the closed category set.
func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

// Wallet is a named money container owned by one user. Amount, TotalIncome
// and TotalExpenses are maintained exclusively through the wallet service;
// at rest Amount == TotalIncome - TotalExpenses.
type Wallet struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
	Name    string
	// Icon is an already-hosted image URL, display metadata only.
	Icon          string
	Amount        decimal.Decimal
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	// Version is the optimistic-concurrency token. Every aggregate write must
	// carry the version it read; the store rejects stale writes.
	Version   int64
	CreatedAt time.Time
}

// Transaction is a single dated money movement attributed to exactly one
// wallet at a time. WalletID is mutable: an edit may move the transaction to
// a different wallet, in which case both wallets' aggregates are adjusted.
type Transaction struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
	// WalletOwnerID is the owner of the wallet the transaction currently
	// belongs to, denormalized at write time.
	WalletOwnerID uuid.UUID
	WalletID      uuid.UUID
	Type          TransactionType
	Amount        decimal.Decimal
	Category      Category
	Description   string
	Date          time.Time
	// ReceiptURL is an already-hosted receipt image URL, resolved by the
	// upload collaborator before the record is persisted.
	ReceiptURL string
}

// ApplyEffect returns the wallet with a transaction's contribution added:
// income raises Amount and TotalIncome, expense lowers Amount and raises
// TotalExpenses. Pure computation; the caller persists the result.
func (w Wallet) ApplyEffect(amount decimal.Decimal, typ TransactionType) (Wallet, error) {
	var err error
	switch typ {
	case TypeIncome:
		if w.Amount, err = w.Amount.Add(amount); err != nil {
			return w, err
		}
		w.TotalIncome, err = w.TotalIncome.Add(amount)
	case TypeExpense:
		if w.Amount, err = w.Amount.Sub(amount); err != nil {
			return w, err
		}
		w.TotalExpenses, err = w.TotalExpenses.Add(amount)
	}
	return w, err
}

// RevertEffect returns the wallet as if the transaction's contribution had
// never been applied: the exact inverse of ApplyEffect. Pure computation.
func (w Wallet) RevertEffect(amount decimal.Decimal, typ TransactionType) (Wallet, error) {
	var err error
	switch typ {
	case TypeIncome:
		if w.Amount, err = w.Amount.Sub(amount); err != nil {
			return w, err
		}
		w.TotalIncome, err = w.TotalIncome.Sub(amount)
	case TypeExpense:
		if w.Amount, err = w.Amount.Add(amount); err != nil {
			return w, err
		}
		w.TotalExpenses, err = w.TotalExpenses.Sub(amount)
	}
	return w, err
}
