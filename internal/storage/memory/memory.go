package memory

// Package memory provides a simple in-memory implementation used for
// development and tests. It keeps code paths easy to follow while allowing us
// to plug in a real document store later.
import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mfadel/spendwell/internal/errs"
	"github.com/mfadel/spendwell/internal/ledger"
)

// txKey tracks ordering for transactions per owner: sorted asc by (Date, ID).
type txKey struct {
	Date time.Time
	ID   uuid.UUID
}

// Store is an in-memory implementation of the repository and writer
// interfaces used across the service layer. It is guarded by an RWMutex for
// concurrent reads/writes; wallet updates are conditional on the version the
// caller read, mirroring the compare-and-swap the real stores perform.
type Store struct {
	mu           sync.RWMutex
	wallets      map[uuid.UUID]ledger.Wallet
	transactions map[uuid.UUID]*ledger.Transaction
	// Per-owner sorted index of transactions for ordered range scans.
	txKeysByOwner map[uuid.UUID][]txKey
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		wallets:       make(map[uuid.UUID]ledger.Wallet),
		transactions:  make(map[uuid.UUID]*ledger.Transaction),
		txKeysByOwner: make(map[uuid.UUID][]txKey),
	}
}

// Seed helpers for local dev/tests.
func (s *Store) SeedWallet(w ledger.Wallet) { s.mu.Lock(); s.wallets[w.ID] = w; s.mu.Unlock() }

func (s *Store) Reset() {
	s.mu.Lock()
	s.wallets = map[uuid.UUID]ledger.Wallet{}
	s.transactions = map[uuid.UUID]*ledger.Transaction{}
	s.txKeysByOwner = map[uuid.UUID][]txKey{}
	s.mu.Unlock()
}

// --- Wallets ---

// GetWallet implements wallet.Repo and transaction.WalletReader.
func (s *Store) GetWallet(_ context.Context, id uuid.UUID) (ledger.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[id]
	if !ok {
		return ledger.Wallet{}, errs.ErrNotFound
	}
	return w, nil
}

// ListWallets returns a user's wallets ordered by creation time descending.
func (s *Store) ListWallets(_ context.Context, ownerID uuid.UUID) ([]ledger.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Wallet, 0)
	for _, w := range s.wallets {
		if w.OwnerID == ownerID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// CreateWallet persists a new wallet at version zero.
func (s *Store) CreateWallet(_ context.Context, w ledger.Wallet) (ledger.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w.Version = 0
	s.wallets[w.ID] = w
	return w, nil
}

// UpdateWallet writes the wallet only if the stored version matches the one
// the caller read, then bumps it. A mismatch returns errs.ErrConflict so the
// caller can re-read and retry.
func (s *Store) UpdateWallet(_ context.Context, w ledger.Wallet) (ledger.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.wallets[w.ID]
	if !ok {
		return ledger.Wallet{}, errs.ErrNotFound
	}
	if cur.Version != w.Version {
		return ledger.Wallet{}, errs.ErrConflict
	}
	w.Version++
	s.wallets[w.ID] = w
	return w, nil
}

// DeleteWallet removes the wallet document. Transactions referencing it are
// purged separately by the wallet service's cascade loop.
func (s *Store) DeleteWallet(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.wallets[id]; !ok {
		return errs.ErrNotFound
	}
	delete(s.wallets, id)
	return nil
}

// --- Transactions ---

// GetTransaction implements transaction.Repo.
func (s *Store) GetTransaction(_ context.Context, id uuid.UUID) (ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok {
		return ledger.Transaction{}, errs.ErrNotFound
	}
	return *t, nil
}

// PutTransaction inserts or replaces a transaction and keeps the per-owner
// date index in step.
func (s *Store) PutTransaction(_ context.Context, t ledger.Transaction) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.transactions[t.ID]; ok {
		s.removeTxIndexLocked(old.OwnerID, txKey{Date: old.Date, ID: old.ID})
	}
	cp := t
	s.transactions[t.ID] = &cp
	s.insertTxIndexLocked(t.OwnerID, txKey{Date: t.Date, ID: t.ID})
	return t, nil
}

// DeleteTransaction removes a single transaction.
func (s *Store) DeleteTransaction(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return errs.ErrNotFound
	}
	s.removeTxIndexLocked(t.OwnerID, txKey{Date: t.Date, ID: t.ID})
	delete(s.transactions, id)
	return nil
}

// TransactionsByOwner returns a user's transactions with date in [from, to],
// ordered by date descending. Nil bounds are unbounded.
func (s *Store) TransactionsByOwner(_ context.Context, ownerID uuid.UUID, from, to *time.Time) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.txKeysByOwner[ownerID]
	out := make([]ledger.Transaction, 0)
	// The index is ascending; walk backwards for descending order.
	for i := len(keys) - 1; i >= 0; i-- {
		k := keys[i]
		if to != nil && k.Date.After(*to) {
			continue
		}
		if from != nil && k.Date.Before(*from) {
			break
		}
		if t, ok := s.transactions[k.ID]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

// TransactionIDsByWallet returns up to limit transaction ids referencing the
// wallet, for the cascading delete loop.
func (s *Store) TransactionIDsByWallet(_ context.Context, walletID uuid.UUID, limit int) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]uuid.UUID, 0, limit)
	for id, t := range s.transactions {
		if t.WalletID != walletID {
			continue
		}
		out = append(out, id)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// DeleteTransactions removes a batch of transactions as one unit. Missing ids
// are ignored; pages can race with concurrent writers.
func (s *Store) DeleteTransactions(_ context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if t, ok := s.transactions[id]; ok {
			s.removeTxIndexLocked(t.OwnerID, txKey{Date: t.Date, ID: t.ID})
			delete(s.transactions, id)
		}
	}
	return nil
}

// insertTxIndexLocked inserts k into the per-owner sorted index, keeping
// order asc by (Date, ID). Caller must hold s.mu (write lock).
func (s *Store) insertTxIndexLocked(ownerID uuid.UUID, k txKey) {
	keys := s.txKeysByOwner[ownerID]
	i := sort.Search(len(keys), func(i int) bool {
		if keys[i].Date.After(k.Date) {
			return true
		}
		if keys[i].Date.Equal(k.Date) {
			return keys[i].ID.String() > k.ID.String()
		}
		return false
	})
	if i == len(keys) {
		s.txKeysByOwner[ownerID] = append(keys, k)
		return
	}
	keys = append(keys, txKey{})
	copy(keys[i+1:], keys[i:])
	keys[i] = k
	s.txKeysByOwner[ownerID] = keys
}

// removeTxIndexLocked drops k from the per-owner index if present. Caller
// must hold s.mu (write lock).
func (s *Store) removeTxIndexLocked(ownerID uuid.UUID, k txKey) {
	keys := s.txKeysByOwner[ownerID]
	for i := range keys {
		if keys[i].ID == k.ID {
			s.txKeysByOwner[ownerID] = append(keys[:i], keys[i+1:]...)
			return
		}
	}
}
