// Package transaction orchestrates transaction writes: it computes the wallet
// deltas a create/edit/delete implies (including the revert-old, apply-new
// sequence when a transaction is edited or moved between wallets) and
// delegates the aggregate math to the wallet ledger.
package transaction

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/mfadel/spendwell/internal/errs"
	"github.com/mfadel/spendwell/internal/ledger"
)

// Repo defines read operations needed by the service.
type Repo interface {
	GetTransaction(ctx context.Context, id uuid.UUID) (ledger.Transaction, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	PutTransaction(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
}

// WalletReader resolves wallets for existence and ownership checks.
type WalletReader interface {
	GetWallet(ctx context.Context, id uuid.UUID) (ledger.Wallet, error)
}

// Ledger is the wallet-side mutation contract, implemented by the wallet
// service. Every call persists atomically relative to its own read.
type Ledger interface {
	ApplyNewTransaction(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal, typ ledger.TransactionType) (ledger.Wallet, error)
	RevertTransactionEffect(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal, typ ledger.TransactionType) (ledger.Wallet, error)
	DeleteTransactionEffect(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal, typ ledger.TransactionType) error
}

// Uploader resolves a local receipt reference into a hosted URL.
type Uploader interface {
	Upload(ctx context.Context, ref, folder string) (string, error)
}

// Input carries a create-or-update request. A nil ID means create. OwnerID is
// the authenticated caller, trusted as already verified.
type Input struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	WalletID    uuid.UUID
	Type        ledger.TransactionType
	Amount      decimal.Decimal
	Category    ledger.Category
	Description string
	Date        time.Time
	Receipt     string
}

// Service exposes transaction mutations.
type Service interface {
	Save(ctx context.Context, in Input) (ledger.Transaction, error)
	Delete(ctx context.Context, callerID, txID uuid.UUID) error
	Get(ctx context.Context, callerID, txID uuid.UUID) (ledger.Transaction, error)
}

type service struct {
	repo     Repo
	writer   Writer
	wallets  WalletReader
	ledger   Ledger
	uploader Uploader
}

// New constructs the transaction service. The uploader may be nil when
// receipt upload is not configured; local receipt references are then
// rejected.
func New(repo Repo, writer Writer, wallets WalletReader, l Ledger, uploader Uploader) Service {
	return &service{repo: repo, writer: writer, wallets: wallets, ledger: l, uploader: uploader}
}

func validate(in Input) error {
	if in.OwnerID == uuid.Nil || in.WalletID == uuid.Nil {
		return errs.ErrInvalid
	}
	if !in.Type.Valid() {
		return errs.ErrInvalid
	}
	if in.Amount.Sign() <= 0 {
		return errs.ErrInvalid
	}
	if in.Type == ledger.TypeExpense && !in.Category.Valid() {
		return errs.ErrInvalid
	}
	return nil
}

// Save creates or updates a transaction. Wallet math runs before the receipt
// upload on purpose: financial correctness never depends on the optional
// external call. If the upload (or the final persist) fails after wallet math
// committed, the wallet effect is compensated away so no wallet retains a
// contribution from a record that was never written.
func (s *service) Save(ctx context.Context, in Input) (ledger.Transaction, error) {
	if err := validate(in); err != nil {
		return ledger.Transaction{}, err
	}

	target, err := s.wallets.GetWallet(ctx, in.WalletID)
	if err != nil {
		return ledger.Transaction{}, err
	}

	var (
		old  ledger.Transaction
		undo func() error
	)
	if in.ID == uuid.Nil {
		if in.Date.IsZero() {
			in.Date = time.Now().UTC()
		}
		if _, err := s.ledger.ApplyNewTransaction(ctx, in.WalletID, in.Amount, in.Type); err != nil {
			return ledger.Transaction{}, err
		}
		undo = func() error {
			_, err := s.ledger.RevertTransactionEffect(ctx, in.WalletID, in.Amount, in.Type)
			return err
		}
	} else {
		old, err = s.repo.GetTransaction(ctx, in.ID)
		if err != nil {
			return ledger.Transaction{}, err
		}
		if old.OwnerID != in.OwnerID {
			return ledger.Transaction{}, errs.ErrUnauthorized
		}
		// An omitted date on an edit keeps the stored one, like ReceiptURL;
		// only creates default to now.
		if in.Date.IsZero() {
			in.Date = old.Date
		}
		changed := old.Type != in.Type || old.Amount.Cmp(in.Amount) != 0 || old.WalletID != in.WalletID
		if changed {
			undo, err = s.moveEffect(ctx, old, in, target)
			if err != nil {
				return ledger.Transaction{}, err
			}
		}
		// Unchanged (type, amount, wallet) is a pure metadata edit: no wallet
		// mutation at all, so resubmitting the same update is idempotent on
		// every wallet's aggregates.
	}

	receiptURL, err := s.resolveReceipt(ctx, in.Receipt)
	if err != nil {
		return ledger.Transaction{}, s.compensate(undo, errs.ErrImageUpload)
	}

	t := ledger.Transaction{
		ID:            in.ID,
		OwnerID:       in.OwnerID,
		WalletOwnerID: target.OwnerID,
		WalletID:      in.WalletID,
		Type:          in.Type,
		Amount:        in.Amount,
		Category:      in.Category,
		Description:   in.Description,
		Date:          in.Date,
		ReceiptURL:    receiptURL,
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	} else {
		t.OwnerID = old.OwnerID // immutable once set
		if receiptURL == "" {
			t.ReceiptURL = old.ReceiptURL
		}
	}
	if t.Type == ledger.TypeIncome {
		t.Category = ""
	}

	saved, err := s.writer.PutTransaction(ctx, t)
	if err != nil {
		return ledger.Transaction{}, s.compensate(undo, err)
	}
	return saved, nil
}

// moveEffect reverts the old transaction's contribution from its wallet and
// applies the new contribution to the (possibly different) target wallet as
// two conditional writes with a compensating re-apply on phase-2 failure.
// Feasibility is pre-checked against the post-revert balance before anything
// is written, so ErrInsufficientBalance has zero side effects.
func (s *service) moveEffect(ctx context.Context, old ledger.Transaction, in Input, target ledger.Wallet) (func() error, error) {
	src, err := s.wallets.GetWallet(ctx, old.WalletID)
	if err != nil {
		return nil, err
	}
	reverted, err := src.RevertEffect(old.Amount, old.Type)
	if err != nil {
		return nil, err
	}
	if in.Type == ledger.TypeExpense {
		if old.WalletID == in.WalletID {
			if reverted.Amount.Cmp(in.Amount) < 0 {
				return nil, errs.ErrInsufficientBalance
			}
		} else if target.Amount.Cmp(in.Amount) < 0 {
			return nil, errs.ErrInsufficientBalance
		}
	}

	// Phase 1: revert and commit the source wallet.
	if _, err := s.ledger.RevertTransactionEffect(ctx, old.WalletID, old.Amount, old.Type); err != nil {
		return nil, err
	}
	// Phase 2: apply and commit the target wallet. ApplyNewTransaction
	// re-checks the balance atomically, closing the race the pre-check
	// cannot cover.
	if _, err := s.ledger.ApplyNewTransaction(ctx, in.WalletID, in.Amount, in.Type); err != nil {
		if _, cerr := s.ledger.ApplyNewTransaction(ctx, old.WalletID, old.Amount, old.Type); cerr != nil {
			return nil, errs.ErrInconsistentState
		}
		return nil, err
	}
	undo := func() error {
		if _, err := s.ledger.RevertTransactionEffect(ctx, in.WalletID, in.Amount, in.Type); err != nil {
			return err
		}
		_, err := s.ledger.ApplyNewTransaction(ctx, old.WalletID, old.Amount, old.Type)
		return err
	}
	return undo, nil
}

// compensate rolls back committed wallet math after a late failure. A failed
// rollback outranks the original error: the books are wrong and need
// operator attention.
func (s *service) compensate(undo func() error, cause error) error {
	if undo == nil {
		return cause
	}
	if err := undo(); err != nil {
		return errs.ErrInconsistentState
	}
	return cause
}

// Delete removes a transaction after undoing its wallet contribution. The
// wallet write commits first; the record is deleted only once the aggregates
// are consistent with its absence.
func (s *service) Delete(ctx context.Context, callerID, txID uuid.UUID) error {
	if callerID == uuid.Nil || txID == uuid.Nil {
		return errs.ErrInvalid
	}
	t, err := s.repo.GetTransaction(ctx, txID)
	if err != nil {
		return err
	}
	if t.OwnerID != callerID {
		return errs.ErrUnauthorized
	}
	if err := s.ledger.DeleteTransactionEffect(ctx, t.WalletID, t.Amount, t.Type); err != nil {
		return err
	}
	return s.writer.DeleteTransaction(ctx, txID)
}

func (s *service) Get(ctx context.Context, callerID, txID uuid.UUID) (ledger.Transaction, error) {
	if callerID == uuid.Nil || txID == uuid.Nil {
		return ledger.Transaction{}, errs.ErrInvalid
	}
	t, err := s.repo.GetTransaction(ctx, txID)
	if err != nil {
		return ledger.Transaction{}, err
	}
	if t.OwnerID != callerID {
		return ledger.Transaction{}, errs.ErrNotFound
	}
	return t, nil
}

func (s *service) resolveReceipt(ctx context.Context, ref string) (string, error) {
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, nil
	}
	if s.uploader == nil {
		return "", errs.ErrImageUpload
	}
	url, err := s.uploader.Upload(ctx, ref, "transactions")
	if err != nil {
		return "", errs.ErrImageUpload
	}
	return url, nil
}
