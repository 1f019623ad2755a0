package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mfadel/spendwell/internal/errs"
	"github.com/mfadel/spendwell/internal/ledger"
	"github.com/mfadel/spendwell/internal/storage/postgres"
)

// openTestStore connects to the database named by TEST_DATABASE_URL and runs
// migrations. Tests are skipped when the variable is unset so the suite stays
// runnable without a database.
func openTestStore(t *testing.T) *postgres.Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	require.NoError(t, postgres.Migrate(dsn))
	store, err := postgres.Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.Parse(s)
	require.NoError(t, err)
	return d
}

func TestWalletRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	w := ledger.Wallet{
		ID:            uuid.New(),
		OwnerID:       uuid.New(),
		Name:          "Cash",
		Amount:        dec(t, "12.34"),
		TotalIncome:   dec(t, "20"),
		TotalExpenses: dec(t, "7.66"),
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
	_, err := store.CreateWallet(ctx, w)
	require.NoError(t, err)

	got, err := store.GetWallet(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, w.ID, got.ID)
	require.Zero(t, got.Amount.Cmp(w.Amount))
	require.Zero(t, got.TotalIncome.Cmp(w.TotalIncome))
	require.EqualValues(t, 0, got.Version)
}

func TestWalletVersionedUpdate(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	w := ledger.Wallet{
		ID:            uuid.New(),
		OwnerID:       uuid.New(),
		Name:          "Cash",
		Amount:        dec(t, "0"),
		TotalIncome:   dec(t, "0"),
		TotalExpenses: dec(t, "0"),
		CreatedAt:     time.Now().UTC(),
	}
	created, err := store.CreateWallet(ctx, w)
	require.NoError(t, err)

	created.Amount = dec(t, "10")
	created.TotalIncome = dec(t, "10")
	updated, err := store.UpdateWallet(ctx, created)
	require.NoError(t, err)
	require.EqualValues(t, 1, updated.Version)

	// Stale version loses.
	_, err = store.UpdateWallet(ctx, created)
	require.ErrorIs(t, err, errs.ErrConflict)

	// Missing wallet is not a conflict.
	missing := created
	missing.ID = uuid.New()
	_, err = store.UpdateWallet(ctx, missing)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestTransactionQueries(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	owner := uuid.New()
	walletID := uuid.New()
	base := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := store.PutTransaction(ctx, ledger.Transaction{
			ID:            uuid.New(),
			OwnerID:       owner,
			WalletOwnerID: owner,
			WalletID:      walletID,
			Type:          ledger.TypeIncome,
			Amount:        dec(t, "1.50"),
			Date:          base.AddDate(0, 0, i),
		})
		require.NoError(t, err)
	}

	all, err := store.TransactionsByOwner(ctx, owner, nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.True(t, all[0].Date.After(all[2].Date))

	from := base.AddDate(0, 0, 1)
	ranged, err := store.TransactionsByOwner(ctx, owner, &from, nil)
	require.NoError(t, err)
	require.Len(t, ranged, 2)

	ids, err := store.TransactionIDsByWallet(ctx, walletID, 2)
	require.NoError(t, err)
	require.Len(t, ids, 2)

	require.NoError(t, store.DeleteTransactions(ctx, ids))
	rest, err := store.TransactionIDsByWallet(ctx, walletID, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
}

func TestPutTransactionUpsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	owner := uuid.New()

	tx := ledger.Transaction{
		ID:            uuid.New(),
		OwnerID:       owner,
		WalletOwnerID: owner,
		WalletID:      uuid.New(),
		Type:          ledger.TypeExpense,
		Amount:        dec(t, "9.99"),
		Category:      ledger.CategoryGroceries,
		Date:          time.Now().UTC(),
	}
	_, err := store.PutTransaction(ctx, tx)
	require.NoError(t, err)

	tx.Amount = dec(t, "19.99")
	tx.Description = "weekly shop"
	_, err = store.PutTransaction(ctx, tx)
	require.NoError(t, err)

	got, err := store.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	require.Equal(t, "19.99", got.Amount.String())
	require.Equal(t, "weekly shop", got.Description)
}
