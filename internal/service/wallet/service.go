// Package wallet implements the wallet ledger rules: aggregate balance and
// income/expense totals maintained under optimistic concurrency, the
// non-negative-balance invariant, and wallet lifecycle including the cascading
// purge of transactions on delete.
package wallet

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/mfadel/spendwell/internal/errs"
	"github.com/mfadel/spendwell/internal/ledger"
)

// Repo defines read operations needed by the service.
type Repo interface {
	GetWallet(ctx context.Context, id uuid.UUID) (ledger.Wallet, error)
	ListWallets(ctx context.Context, ownerID uuid.UUID) ([]ledger.Wallet, error)
}

// Writer defines write operations needed by the service. UpdateWallet is
// conditional: it must reject the write with errs.ErrConflict when the stored
// version differs from the one carried by the wallet.
type Writer interface {
	CreateWallet(ctx context.Context, w ledger.Wallet) (ledger.Wallet, error)
	UpdateWallet(ctx context.Context, w ledger.Wallet) (ledger.Wallet, error)
	DeleteWallet(ctx context.Context, id uuid.UUID) error
}

// TransactionPurger pages and batch-deletes the transactions of a wallet.
type TransactionPurger interface {
	TransactionIDsByWallet(ctx context.Context, walletID uuid.UUID, limit int) ([]uuid.UUID, error)
	DeleteTransactions(ctx context.Context, ids []uuid.UUID) error
}

// Uploader resolves a local image reference into a hosted URL. Already-hosted
// URLs pass through unchanged.
type Uploader interface {
	Upload(ctx context.Context, ref, folder string) (string, error)
}

// Service exposes wallet lifecycle operations and the aggregate mutations
// used by the transaction mutator.
type Service interface {
	Create(ctx context.Context, w ledger.Wallet) (ledger.Wallet, error)
	Update(ctx context.Context, ownerID, walletID uuid.UUID, name, icon *string) (ledger.Wallet, error)
	Get(ctx context.Context, ownerID, walletID uuid.UUID) (ledger.Wallet, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]ledger.Wallet, error)
	Delete(ctx context.Context, ownerID, walletID uuid.UUID) error

	ApplyNewTransaction(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal, typ ledger.TransactionType) (ledger.Wallet, error)
	RevertTransactionEffect(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal, typ ledger.TransactionType) (ledger.Wallet, error)
	DeleteTransactionEffect(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal, typ ledger.TransactionType) error
}

type service struct {
	repo     Repo
	writer   Writer
	purger   TransactionPurger
	uploader Uploader
}

// New constructs the wallet service. The uploader may be nil when icon upload
// is not configured; local icon references are then rejected.
func New(repo Repo, writer Writer, purger TransactionPurger, uploader Uploader) Service {
	return &service{repo: repo, writer: writer, purger: purger, uploader: uploader}
}

// casAttempts bounds the retry loop on version conflicts. Contention on a
// single wallet is rare (one user, a handful of devices), so a small bound
// suffices; exhausting it surfaces errs.ErrConflict to the caller.
const casAttempts = 3

// purgePageSize caps each page of the cascading transaction delete.
const purgePageSize = 100

func (s *service) Create(ctx context.Context, w ledger.Wallet) (ledger.Wallet, error) {
	if w.OwnerID == uuid.Nil || strings.TrimSpace(w.Name) == "" {
		return ledger.Wallet{}, errs.ErrInvalid
	}
	icon, err := s.resolveIcon(ctx, w.Icon)
	if err != nil {
		return ledger.Wallet{}, err
	}
	zero := decimal.MustNew(0, 0)
	wNew := ledger.Wallet{
		ID:            uuid.New(),
		OwnerID:       w.OwnerID,
		Name:          strings.TrimSpace(w.Name),
		Icon:          icon,
		Amount:        zero,
		TotalIncome:   zero,
		TotalExpenses: zero,
		CreatedAt:     time.Now().UTC(),
	}
	return s.writer.CreateWallet(ctx, wNew)
}

// Update edits display metadata only. Owner, aggregates and CreatedAt are
// immutable through this path; aggregate fields change only via the
// apply/revert operations below.
func (s *service) Update(ctx context.Context, ownerID, walletID uuid.UUID, name, icon *string) (ledger.Wallet, error) {
	if ownerID == uuid.Nil || walletID == uuid.Nil {
		return ledger.Wallet{}, errs.ErrInvalid
	}
	if name != nil && strings.TrimSpace(*name) == "" {
		return ledger.Wallet{}, errs.ErrInvalid
	}
	// Resolve the icon once, before the CAS loop: a version-conflict retry
	// must not re-upload the same file.
	var resolvedIcon *string
	if icon != nil {
		cur, err := s.repo.GetWallet(ctx, walletID)
		if err != nil {
			return ledger.Wallet{}, err
		}
		if cur.OwnerID != ownerID {
			return ledger.Wallet{}, errs.ErrUnauthorized
		}
		resolved, err := s.resolveIcon(ctx, *icon)
		if err != nil {
			return ledger.Wallet{}, err
		}
		resolvedIcon = &resolved
	}
	return s.mutate(ctx, walletID, func(w ledger.Wallet) (ledger.Wallet, error) {
		if w.OwnerID != ownerID {
			return ledger.Wallet{}, errs.ErrUnauthorized
		}
		if name != nil {
			w.Name = strings.TrimSpace(*name)
		}
		if resolvedIcon != nil {
			w.Icon = *resolvedIcon
		}
		return w, nil
	})
}

func (s *service) Get(ctx context.Context, ownerID, walletID uuid.UUID) (ledger.Wallet, error) {
	if ownerID == uuid.Nil || walletID == uuid.Nil {
		return ledger.Wallet{}, errs.ErrInvalid
	}
	w, err := s.repo.GetWallet(ctx, walletID)
	if err != nil {
		return ledger.Wallet{}, err
	}
	if w.OwnerID != ownerID {
		return ledger.Wallet{}, errs.ErrNotFound
	}
	return w, nil
}

func (s *service) List(ctx context.Context, ownerID uuid.UUID) ([]ledger.Wallet, error) {
	if ownerID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	return s.repo.ListWallets(ctx, ownerID)
}

// Delete removes the wallet and then purges its transactions page by page.
// The loop terminates on the first empty page, so a wallet with no
// transactions costs exactly one query.
func (s *service) Delete(ctx context.Context, ownerID, walletID uuid.UUID) error {
	if ownerID == uuid.Nil || walletID == uuid.Nil {
		return errs.ErrInvalid
	}
	w, err := s.repo.GetWallet(ctx, walletID)
	if err != nil {
		return err
	}
	if w.OwnerID != ownerID {
		return errs.ErrUnauthorized
	}
	if err := s.writer.DeleteWallet(ctx, walletID); err != nil {
		return err
	}
	for {
		ids, err := s.purger.TransactionIDsByWallet(ctx, walletID, purgePageSize)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := s.purger.DeleteTransactions(ctx, ids); err != nil {
			return err
		}
	}
}

// ApplyNewTransaction adds a transaction's contribution to the wallet. An
// expense larger than the current balance fails with ErrInsufficientBalance
// and leaves the wallet untouched.
func (s *service) ApplyNewTransaction(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal, typ ledger.TransactionType) (ledger.Wallet, error) {
	if walletID == uuid.Nil || !typ.Valid() || amount.Sign() <= 0 {
		return ledger.Wallet{}, errs.ErrInvalid
	}
	return s.mutate(ctx, walletID, func(w ledger.Wallet) (ledger.Wallet, error) {
		if typ == ledger.TypeExpense && w.Amount.Cmp(amount) < 0 {
			return ledger.Wallet{}, errs.ErrInsufficientBalance
		}
		return w.ApplyEffect(amount, typ)
	})
}

// RevertTransactionEffect undoes a transaction's contribution without balance
// guards. It is used mid-edit, where the follow-up apply restores a
// consistent balance; standalone removal goes through DeleteTransactionEffect.
func (s *service) RevertTransactionEffect(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal, typ ledger.TransactionType) (ledger.Wallet, error) {
	if walletID == uuid.Nil || !typ.Valid() || amount.Sign() <= 0 {
		return ledger.Wallet{}, errs.ErrInvalid
	}
	return s.mutate(ctx, walletID, func(w ledger.Wallet) (ledger.Wallet, error) {
		return w.RevertEffect(amount, typ)
	})
}

// DeleteTransactionEffect removes a transaction's contribution for good.
// Removing an income effect must not drive the balance negative; the expense
// side carries the same check defensively, reachable only from prior
// inconsistency.
func (s *service) DeleteTransactionEffect(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal, typ ledger.TransactionType) error {
	if walletID == uuid.Nil || !typ.Valid() || amount.Sign() <= 0 {
		return errs.ErrInvalid
	}
	_, err := s.mutate(ctx, walletID, func(w ledger.Wallet) (ledger.Wallet, error) {
		next, err := w.RevertEffect(amount, typ)
		if err != nil {
			return ledger.Wallet{}, err
		}
		if next.Amount.IsNeg() {
			return ledger.Wallet{}, errs.ErrInsufficientBalance
		}
		return next, nil
	})
	return err
}

// mutate runs a read-modify-write cycle under the store's conditional update,
// retrying a bounded number of times when another writer won the race.
func (s *service) mutate(ctx context.Context, walletID uuid.UUID, fn func(ledger.Wallet) (ledger.Wallet, error)) (ledger.Wallet, error) {
	var lastErr error
	for attempt := 0; attempt < casAttempts; attempt++ {
		w, err := s.repo.GetWallet(ctx, walletID)
		if err != nil {
			return ledger.Wallet{}, err
		}
		next, err := fn(w)
		if err != nil {
			return ledger.Wallet{}, err
		}
		updated, err := s.writer.UpdateWallet(ctx, next)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, errs.ErrConflict) {
			return ledger.Wallet{}, err
		}
		lastErr = err
	}
	return ledger.Wallet{}, lastErr
}

func (s *service) resolveIcon(ctx context.Context, ref string) (string, error) {
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, nil
	}
	if s.uploader == nil {
		return "", errs.ErrImageUpload
	}
	url, err := s.uploader.Upload(ctx, ref, "wallets")
	if err != nil {
		return "", errs.ErrImageUpload
	}
	return url, nil
}
