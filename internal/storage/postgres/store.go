package postgres

// Package postgres provides a pgx-backed storage implementation that satisfies
// the repository and writer interfaces used by the services.
//
// It is intentionally small and explicit. Migrations live under migrations/
// and are applied by Migrate. This package focuses on mapping between the
// domain entities and SQL rows; wallet aggregate writes are conditional on
// the version column so concurrent mutations cannot lose updates.

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mfadel/spendwell/internal/errs"
	"github.com/mfadel/spendwell/internal/ledger"
)

// Store holds a pgx connection pool and implements the read/write interfaces
// used across the service layer. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// --- Wallets ---

const walletColumns = `id, owner_id, name, icon, amount::text, total_income::text, total_expenses::text, version, created_at`

// GetWallet returns a wallet by id.
func (s *Store) GetWallet(ctx context.Context, id uuid.UUID) (ledger.Wallet, error) {
	row := s.pool.QueryRow(ctx, `select `+walletColumns+` from wallets where id = $1`, id)
	w, err := scanWallet(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Wallet{}, errs.ErrNotFound
	}
	return w, err
}

// ListWallets returns a user's wallets ordered by creation time descending.
func (s *Store) ListWallets(ctx context.Context, ownerID uuid.UUID) ([]ledger.Wallet, error) {
	rows, err := s.pool.Query(ctx, `select `+walletColumns+` from wallets where owner_id = $1 order by created_at desc, id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Wallet, 0)
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// CreateWallet inserts a new wallet at version zero.
func (s *Store) CreateWallet(ctx context.Context, w ledger.Wallet) (ledger.Wallet, error) {
	_, err := s.pool.Exec(ctx, `
        insert into wallets (id, owner_id, name, icon, amount, total_income, total_expenses, version, created_at)
        values ($1,$2,$3,$4,$5::numeric,$6::numeric,$7::numeric,0,$8)
    `, w.ID, w.OwnerID, w.Name, w.Icon, w.Amount.String(), w.TotalIncome.String(), w.TotalExpenses.String(), w.CreatedAt)
	if err != nil {
		return ledger.Wallet{}, err
	}
	w.Version = 0
	return w, nil
}

// UpdateWallet performs a compare-and-swap on the version column. A stale
// version returns errs.ErrConflict; a missing row returns errs.ErrNotFound.
func (s *Store) UpdateWallet(ctx context.Context, w ledger.Wallet) (ledger.Wallet, error) {
	tag, err := s.pool.Exec(ctx, `
        update wallets
           set name = $2, icon = $3,
               amount = $4::numeric, total_income = $5::numeric, total_expenses = $6::numeric,
               version = version + 1
         where id = $1 and version = $7
    `, w.ID, w.Name, w.Icon, w.Amount.String(), w.TotalIncome.String(), w.TotalExpenses.String(), w.Version)
	if err != nil {
		return ledger.Wallet{}, err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx, `select exists(select 1 from wallets where id = $1)`, w.ID).Scan(&exists); err != nil {
			return ledger.Wallet{}, err
		}
		if !exists {
			return ledger.Wallet{}, errs.ErrNotFound
		}
		return ledger.Wallet{}, errs.ErrConflict
	}
	w.Version++
	return w, nil
}

// DeleteWallet removes the wallet row. Transactions referencing it are purged
// separately by the wallet service's cascade loop.
func (s *Store) DeleteWallet(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `delete from wallets where id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- Transactions ---

const txColumns = `id, owner_id, wallet_owner_id, wallet_id, type, amount::text, category, description, date, receipt_url`

// GetTransaction returns a transaction by id.
func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (ledger.Transaction, error) {
	row := s.pool.QueryRow(ctx, `select `+txColumns+` from transactions where id = $1`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Transaction{}, errs.ErrNotFound
	}
	return t, err
}

// PutTransaction inserts or replaces a transaction.
func (s *Store) PutTransaction(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error) {
	_, err := s.pool.Exec(ctx, `
        insert into transactions (id, owner_id, wallet_owner_id, wallet_id, type, amount, category, description, date, receipt_url)
        values ($1,$2,$3,$4,$5,$6::numeric,$7,$8,$9,$10)
        on conflict (id) do update
           set wallet_owner_id = excluded.wallet_owner_id,
               wallet_id = excluded.wallet_id,
               type = excluded.type,
               amount = excluded.amount,
               category = excluded.category,
               description = excluded.description,
               date = excluded.date,
               receipt_url = excluded.receipt_url
    `, t.ID, t.OwnerID, t.WalletOwnerID, t.WalletID, string(t.Type), t.Amount.String(), string(t.Category), t.Description, t.Date, t.ReceiptURL)
	if err != nil {
		return ledger.Transaction{}, err
	}
	return t, nil
}

// DeleteTransaction removes a single transaction row.
func (s *Store) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `delete from transactions where id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// TransactionsByOwner returns a user's transactions with date in [from, to],
// ordered by date descending. Nil bounds are unbounded.
func (s *Store) TransactionsByOwner(ctx context.Context, ownerID uuid.UUID, from, to *time.Time) ([]ledger.Transaction, error) {
	q := `select ` + txColumns + ` from transactions where owner_id = $1`
	args := []any{ownerID}
	if from != nil {
		args = append(args, *from)
		q += ` and date >= $2`
	}
	if to != nil {
		args = append(args, *to)
		if from != nil {
			q += ` and date <= $3`
		} else {
			q += ` and date <= $2`
		}
	}
	q += ` order by date desc, id`
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TransactionIDsByWallet returns up to limit transaction ids referencing the
// wallet, for the cascading delete loop.
func (s *Store) TransactionIDsByWallet(ctx context.Context, walletID uuid.UUID, limit int) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `select id from transactions where wallet_id = $1 limit $2`, walletID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]uuid.UUID, 0, limit)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// DeleteTransactions removes a batch of transactions in one statement.
func (s *Store) DeleteTransactions(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `delete from transactions where id = any($1)`, ids)
	return err
}

// --- row mapping ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWallet(row rowScanner) (ledger.Wallet, error) {
	var (
		w                         ledger.Wallet
		amount, totalIn, totalOut string
	)
	if err := row.Scan(&w.ID, &w.OwnerID, &w.Name, &w.Icon, &amount, &totalIn, &totalOut, &w.Version, &w.CreatedAt); err != nil {
		return ledger.Wallet{}, err
	}
	var err error
	if w.Amount, err = decimal.Parse(amount); err != nil {
		return ledger.Wallet{}, err
	}
	if w.TotalIncome, err = decimal.Parse(totalIn); err != nil {
		return ledger.Wallet{}, err
	}
	if w.TotalExpenses, err = decimal.Parse(totalOut); err != nil {
		return ledger.Wallet{}, err
	}
	return w, nil
}

func scanTransaction(row rowScanner) (ledger.Transaction, error) {
	var (
		t                ledger.Transaction
		typ, cat, amount string
	)
	if err := row.Scan(&t.ID, &t.OwnerID, &t.WalletOwnerID, &t.WalletID, &typ, &amount, &cat, &t.Description, &t.Date, &t.ReceiptURL); err != nil {
		return ledger.Transaction{}, err
	}
	t.Type = ledger.TransactionType(typ)
	t.Category = ledger.Category(cat)
	var err error
	if t.Amount, err = decimal.Parse(amount); err != nil {
		return ledger.Transaction{}, err
	}
	return t, nil
}
