package stats_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mfadel/spendwell/internal/errs"
	"github.com/mfadel/spendwell/internal/ledger"
	"github.com/mfadel/spendwell/internal/service/stats"
	"github.com/mfadel/spendwell/internal/storage/memory"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.Parse(s)
	require.NoError(t, err)
	return d
}

// now is fixed to a Wednesday for stable weekday labels.
var testNow = time.Date(2024, time.June, 12, 15, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func seedTx(t *testing.T, store *memory.Store, owner uuid.UUID, typ ledger.TransactionType, amount string, date time.Time) {
	t.Helper()
	tx := ledger.Transaction{
		ID:       uuid.New(),
		OwnerID:  owner,
		WalletID: uuid.New(),
		Type:     typ,
		Amount:   dec(t, amount),
		Date:     date,
	}
	if typ == ledger.TypeExpense {
		tx.Category = ledger.CategoryOther
	}
	_, err := store.PutTransaction(context.Background(), tx)
	require.NoError(t, err)
}

func TestWeeklySeriesShape(t *testing.T) {
	store := memory.New()
	svc := stats.NewWithClock(store, fixedClock)
	owner := uuid.New()

	res, err := svc.Aggregate(context.Background(), owner, stats.WindowWeek)
	require.NoError(t, err)
	require.Len(t, res.Series, 7)
	// Chronological, ending today (Wednesday).
	require.Equal(t, "Thu", res.Series[0].Label)
	require.Equal(t, "Wed", res.Series[6].Label)
	for _, b := range res.Series {
		require.Equal(t, "0", b.Income.String())
		require.Equal(t, "0", b.Expense.String())
	}
}

func TestWeeklyBucketsSums(t *testing.T) {
	store := memory.New()
	svc := stats.NewWithClock(store, fixedClock)
	owner := uuid.New()

	today := testNow
	seedTx(t, store, owner, ledger.TypeIncome, "100", today)
	seedTx(t, store, owner, ledger.TypeIncome, "50", today)
	seedTx(t, store, owner, ledger.TypeExpense, "20", today.AddDate(0, 0, -2))
	// Outside the 7-day series.
	seedTx(t, store, owner, ledger.TypeIncome, "999", today.AddDate(0, 0, -10))

	res, err := svc.Aggregate(context.Background(), owner, stats.WindowWeek)
	require.NoError(t, err)
	require.Equal(t, "150", res.Series[6].Income.String())
	require.Equal(t, "20", res.Series[4].Expense.String())
	require.Equal(t, "0", res.Series[0].Income.String())
}

func TestWeeklyIgnoresOtherOwners(t *testing.T) {
	store := memory.New()
	svc := stats.NewWithClock(store, fixedClock)
	owner := uuid.New()

	seedTx(t, store, uuid.New(), ledger.TypeIncome, "100", testNow)

	res, err := svc.Aggregate(context.Background(), owner, stats.WindowWeek)
	require.NoError(t, err)
	require.Empty(t, res.Transactions)
	require.Equal(t, "0", res.Series[6].Income.String())
}

func TestMonthlySeriesCoversTwelveMonths(t *testing.T) {
	store := memory.New()
	svc := stats.NewWithClock(store, fixedClock)
	owner := uuid.New()

	seedTx(t, store, owner, ledger.TypeIncome, "10", testNow)
	seedTx(t, store, owner, ledger.TypeExpense, "3", testNow.AddDate(0, -11, 0))
	// A year ago falls outside the window.
	seedTx(t, store, owner, ledger.TypeIncome, "999", testNow.AddDate(0, -12, 0))

	res, err := svc.Aggregate(context.Background(), owner, stats.WindowMonth)
	require.NoError(t, err)
	require.Len(t, res.Series, 12)
	require.Equal(t, "Jul 23", res.Series[0].Label)
	require.Equal(t, "Jun 24", res.Series[11].Label)
	require.Equal(t, "3", res.Series[0].Expense.String())
	require.Equal(t, "10", res.Series[11].Income.String())
}

func TestYearlySeriesSpansEarliestTransaction(t *testing.T) {
	store := memory.New()
	svc := stats.NewWithClock(store, fixedClock)
	owner := uuid.New()

	seedTx(t, store, owner, ledger.TypeIncome, "10", time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC))
	seedTx(t, store, owner, ledger.TypeExpense, "4", testNow)

	res, err := svc.Aggregate(context.Background(), owner, stats.WindowYear)
	require.NoError(t, err)
	require.Len(t, res.Series, 4) // 2021..2024
	require.Equal(t, "2021", res.Series[0].Label)
	require.Equal(t, "2024", res.Series[3].Label)
	require.Equal(t, "10", res.Series[0].Income.String())
	require.Equal(t, "4", res.Series[3].Expense.String())
}

func TestYearlyEmptyHistoryIsSingleBucket(t *testing.T) {
	store := memory.New()
	svc := stats.NewWithClock(store, fixedClock)

	res, err := svc.Aggregate(context.Background(), uuid.New(), stats.WindowYear)
	require.NoError(t, err)
	require.Len(t, res.Series, 1)
	require.Equal(t, "2024", res.Series[0].Label)
}

func TestAggregateRejectsBadInput(t *testing.T) {
	svc := stats.New(memory.New())

	_, err := svc.Aggregate(context.Background(), uuid.Nil, stats.WindowWeek)
	require.ErrorIs(t, err, errs.ErrInvalid)

	_, err = svc.Aggregate(context.Background(), uuid.New(), stats.Window("decade"))
	require.ErrorIs(t, err, errs.ErrInvalid)
}

type brokenRepo struct{}

func (brokenRepo) TransactionsByOwner(_ context.Context, _ uuid.UUID, _, _ *time.Time) ([]ledger.Transaction, error) {
	return nil, errors.New("connection reset")
}

func TestAggregateWrapsQueryFailures(t *testing.T) {
	svc := stats.NewWithClock(brokenRepo{}, fixedClock)

	for _, w := range []stats.Window{stats.WindowWeek, stats.WindowMonth, stats.WindowYear} {
		_, err := svc.Aggregate(context.Background(), uuid.New(), w)
		require.ErrorIs(t, err, errs.ErrQueryFailed)
	}
}
