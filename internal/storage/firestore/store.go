package firestore

// Package firestore backs the repository and writer interfaces with Cloud
// Firestore. Wallet aggregate writes run inside a Firestore transaction that
// re-reads the document and checks the version field, so concurrent mutations
// from multiple devices cannot lose updates. Cascade deletes use atomic write
// batches, one page at a time.

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mfadel/spendwell/internal/errs"
	"github.com/mfadel/spendwell/internal/ledger"
)

const (
	walletsCollection      = "wallets"
	transactionsCollection = "transactions"
)

// Store wraps a Firestore client. All methods are safe for concurrent use.
type Store struct {
	client *firestore.Client
}

// Open connects to Firestore for the given project.
func Open(ctx context.Context, projectID string) (*Store, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &Store{client: client}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error { return s.client.Close() }

// Ready verifies connectivity with a single-document read. An empty
// collection is still ready; only transport or permission failures count.
func (s *Store) Ready(ctx context.Context) error {
	it := s.wallets().Limit(1).Documents(ctx)
	defer it.Stop()
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return err
	}
	return nil
}

func (s *Store) wallets() *firestore.CollectionRef {
	return s.client.Collection(walletsCollection)
}

func (s *Store) transactions() *firestore.CollectionRef {
	return s.client.Collection(transactionsCollection)
}

// --- document mapping ---
//
// Amounts are stored as decimal strings: Firestore numbers are float64 and
// would reintroduce the rounding drift the decimal type exists to prevent.

type walletDoc struct {
	OwnerID       string    `firestore:"ownerId"`
	Name          string    `firestore:"name"`
	Icon          string    `firestore:"icon"`
	Amount        string    `firestore:"amount"`
	TotalIncome   string    `firestore:"totalIncome"`
	TotalExpenses string    `firestore:"totalExpenses"`
	Version       int64     `firestore:"version"`
	CreatedAt     time.Time `firestore:"createdAt"`
}

type transactionDoc struct {
	OwnerID       string    `firestore:"ownerId"`
	WalletOwnerID string    `firestore:"walletOwnerId"`
	WalletID      string    `firestore:"walletId"`
	Type          string    `firestore:"type"`
	Amount        string    `firestore:"amount"`
	Category      string    `firestore:"category"`
	Description   string    `firestore:"description"`
	Date          time.Time `firestore:"date"`
	ReceiptURL    string    `firestore:"receiptUrl"`
}

func walletToDoc(w ledger.Wallet) walletDoc {
	return walletDoc{
		OwnerID:       w.OwnerID.String(),
		Name:          w.Name,
		Icon:          w.Icon,
		Amount:        w.Amount.String(),
		TotalIncome:   w.TotalIncome.String(),
		TotalExpenses: w.TotalExpenses.String(),
		Version:       w.Version,
		CreatedAt:     w.CreatedAt,
	}
}

func walletFromDoc(id string, d walletDoc) (ledger.Wallet, error) {
	wid, err := uuid.Parse(id)
	if err != nil {
		return ledger.Wallet{}, err
	}
	owner, err := uuid.Parse(d.OwnerID)
	if err != nil {
		return ledger.Wallet{}, err
	}
	amount, err := decimal.Parse(d.Amount)
	if err != nil {
		return ledger.Wallet{}, err
	}
	totalIn, err := decimal.Parse(d.TotalIncome)
	if err != nil {
		return ledger.Wallet{}, err
	}
	totalOut, err := decimal.Parse(d.TotalExpenses)
	if err != nil {
		return ledger.Wallet{}, err
	}
	return ledger.Wallet{
		ID:            wid,
		OwnerID:       owner,
		Name:          d.Name,
		Icon:          d.Icon,
		Amount:        amount,
		TotalIncome:   totalIn,
		TotalExpenses: totalOut,
		Version:       d.Version,
		CreatedAt:     d.CreatedAt,
	}, nil
}

func transactionToDoc(t ledger.Transaction) transactionDoc {
	return transactionDoc{
		OwnerID:       t.OwnerID.String(),
		WalletOwnerID: t.WalletOwnerID.String(),
		WalletID:      t.WalletID.String(),
		Type:          string(t.Type),
		Amount:        t.Amount.String(),
		Category:      string(t.Category),
		Description:   t.Description,
		Date:          t.Date,
		ReceiptURL:    t.ReceiptURL,
	}
}

func transactionFromDoc(id string, d transactionDoc) (ledger.Transaction, error) {
	tid, err := uuid.Parse(id)
	if err != nil {
		return ledger.Transaction{}, err
	}
	owner, err := uuid.Parse(d.OwnerID)
	if err != nil {
		return ledger.Transaction{}, err
	}
	walletOwner, err := uuid.Parse(d.WalletOwnerID)
	if err != nil {
		return ledger.Transaction{}, err
	}
	wid, err := uuid.Parse(d.WalletID)
	if err != nil {
		return ledger.Transaction{}, err
	}
	amount, err := decimal.Parse(d.Amount)
	if err != nil {
		return ledger.Transaction{}, err
	}
	return ledger.Transaction{
		ID:            tid,
		OwnerID:       owner,
		WalletOwnerID: walletOwner,
		WalletID:      wid,
		Type:          ledger.TransactionType(d.Type),
		Amount:        amount,
		Category:      ledger.Category(d.Category),
		Description:   d.Description,
		Date:          d.Date,
		ReceiptURL:    d.ReceiptURL,
	}, nil
}

// --- Wallets ---

// GetWallet returns a wallet by id.
func (s *Store) GetWallet(ctx context.Context, id uuid.UUID) (ledger.Wallet, error) {
	snap, err := s.wallets().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ledger.Wallet{}, errs.ErrNotFound
		}
		return ledger.Wallet{}, err
	}
	var d walletDoc
	if err := snap.DataTo(&d); err != nil {
		return ledger.Wallet{}, err
	}
	return walletFromDoc(snap.Ref.ID, d)
}

// ListWallets returns a user's wallets ordered by creation time descending.
func (s *Store) ListWallets(ctx context.Context, ownerID uuid.UUID) ([]ledger.Wallet, error) {
	it := s.wallets().
		Where("ownerId", "==", ownerID.String()).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer it.Stop()
	out := make([]ledger.Wallet, 0)
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		var d walletDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, err
		}
		w, err := walletFromDoc(snap.Ref.ID, d)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
}

// CreateWallet persists a new wallet at version zero.
func (s *Store) CreateWallet(ctx context.Context, w ledger.Wallet) (ledger.Wallet, error) {
	w.Version = 0
	if _, err := s.wallets().Doc(w.ID.String()).Create(ctx, walletToDoc(w)); err != nil {
		return ledger.Wallet{}, err
	}
	return w, nil
}

// UpdateWallet re-reads the document inside a Firestore transaction and
// rejects the write with errs.ErrConflict when the stored version differs
// from the one the caller read.
func (s *Store) UpdateWallet(ctx context.Context, w ledger.Wallet) (ledger.Wallet, error) {
	ref := s.wallets().Doc(w.ID.String())
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errs.ErrNotFound
			}
			return err
		}
		var cur walletDoc
		if err := snap.DataTo(&cur); err != nil {
			return err
		}
		if cur.Version != w.Version {
			return errs.ErrConflict
		}
		next := w
		next.Version++
		return tx.Set(ref, walletToDoc(next))
	})
	if err != nil {
		return ledger.Wallet{}, err
	}
	w.Version++
	return w, nil
}

// DeleteWallet removes the wallet document.
func (s *Store) DeleteWallet(ctx context.Context, id uuid.UUID) error {
	_, err := s.wallets().Doc(id.String()).Delete(ctx, firestore.Exists)
	if status.Code(err) == codes.NotFound || status.Code(err) == codes.FailedPrecondition {
		return errs.ErrNotFound
	}
	return err
}

// --- Transactions ---

// GetTransaction returns a transaction by id.
func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (ledger.Transaction, error) {
	snap, err := s.transactions().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ledger.Transaction{}, errs.ErrNotFound
		}
		return ledger.Transaction{}, err
	}
	var d transactionDoc
	if err := snap.DataTo(&d); err != nil {
		return ledger.Transaction{}, err
	}
	return transactionFromDoc(snap.Ref.ID, d)
}

// PutTransaction inserts or replaces a transaction document.
func (s *Store) PutTransaction(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error) {
	if _, err := s.transactions().Doc(t.ID.String()).Set(ctx, transactionToDoc(t)); err != nil {
		return ledger.Transaction{}, err
	}
	return t, nil
}

// DeleteTransaction removes a single transaction document.
func (s *Store) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	_, err := s.transactions().Doc(id.String()).Delete(ctx, firestore.Exists)
	if status.Code(err) == codes.NotFound || status.Code(err) == codes.FailedPrecondition {
		return errs.ErrNotFound
	}
	return err
}

// TransactionsByOwner returns a user's transactions with date in [from, to],
// ordered by date descending. Nil bounds are unbounded.
func (s *Store) TransactionsByOwner(ctx context.Context, ownerID uuid.UUID, from, to *time.Time) ([]ledger.Transaction, error) {
	q := s.transactions().Where("ownerId", "==", ownerID.String())
	if from != nil {
		q = q.Where("date", ">=", *from)
	}
	if to != nil {
		q = q.Where("date", "<=", *to)
	}
	it := q.OrderBy("date", firestore.Desc).Documents(ctx)
	defer it.Stop()
	out := make([]ledger.Transaction, 0)
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		var d transactionDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, err
		}
		t, err := transactionFromDoc(snap.Ref.ID, d)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
}

// TransactionIDsByWallet returns up to limit transaction ids referencing the
// wallet, for the cascading delete loop.
func (s *Store) TransactionIDsByWallet(ctx context.Context, walletID uuid.UUID, limit int) ([]uuid.UUID, error) {
	it := s.transactions().
		Where("walletId", "==", walletID.String()).
		Limit(limit).
		Documents(ctx)
	defer it.Stop()
	out := make([]uuid.UUID, 0, limit)
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		id, err := uuid.Parse(snap.Ref.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
}

// DeleteTransactions removes a batch of transactions as one atomic write.
func (s *Store) DeleteTransactions(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	batch := s.client.Batch()
	for _, id := range ids {
		batch.Delete(s.transactions().Doc(id.String()))
	}
	_, err := batch.Commit(ctx)
	return err
}
