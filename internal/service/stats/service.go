// Package stats buckets a user's transactions into calendar periods and sums
// income and expense per bucket for charting.
package stats

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/mfadel/spendwell/internal/errs"
	"github.com/mfadel/spendwell/internal/ledger"
)

// Repo defines the read operation needed by the service. Results are ordered
// by date descending. Nil bounds mean unbounded.
type Repo interface {
	TransactionsByOwner(ctx context.Context, ownerID uuid.UUID, from, to *time.Time) ([]ledger.Transaction, error)
}

// Window selects the reporting period shape.
type Window string

const (
	// WindowWeek covers the 7 calendar days ending today, one bucket per day.
	WindowWeek Window = "week"
	// WindowMonth covers the 12 calendar months ending this month.
	WindowMonth Window = "month"
	// WindowYear covers every year from the user's earliest transaction
	// through the current year.
	WindowYear Window = "year"
)

// Valid reports whether w is a known window.
func (w Window) Valid() bool {
	return w == WindowWeek || w == WindowMonth || w == WindowYear
}

// Bucket is one calendar period with its income and expense sums.
type Bucket struct {
	Label   string
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Result holds the zero-filled chronological series plus the raw transaction
// list fetched for the window, for display alongside the chart.
type Result struct {
	Series       []Bucket
	Transactions []ledger.Transaction
}

// Service aggregates transactions into per-period histograms.
type Service interface {
	Aggregate(ctx context.Context, ownerID uuid.UUID, window Window) (Result, error)
}

type service struct {
	repo Repo
	now  func() time.Time
}

// New constructs the stats service using the wall clock.
func New(repo Repo) Service { return &service{repo: repo, now: time.Now} }

// NewWithClock constructs the stats service with an injected clock.
func NewWithClock(repo Repo, now func() time.Time) Service {
	return &service{repo: repo, now: now}
}

func (s *service) Aggregate(ctx context.Context, ownerID uuid.UUID, window Window) (Result, error) {
	if ownerID == uuid.Nil || !window.Valid() {
		return Result{}, errs.ErrInvalid
	}
	now := s.now().UTC()
	switch window {
	case WindowWeek:
		return s.weekly(ctx, ownerID, now)
	case WindowMonth:
		return s.monthly(ctx, ownerID, now)
	default:
		return s.yearly(ctx, ownerID, now)
	}
}

func (s *service) weekly(ctx context.Context, ownerID uuid.UUID, now time.Time) (Result, error) {
	from := now.AddDate(0, 0, -7)
	txs, err := s.repo.TransactionsByOwner(ctx, ownerID, &from, &now)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", errs.ErrQueryFailed, err)
	}
	start := now.AddDate(0, 0, -6)
	series := make([]Bucket, 7)
	index := make(map[string]int, 7)
	for i := range series {
		day := start.AddDate(0, 0, i)
		index[day.Format("2006-01-02")] = i
		series[i] = zeroBucket(day.Format("Mon"))
	}
	for _, t := range txs {
		i, ok := index[t.Date.UTC().Format("2006-01-02")]
		if !ok {
			continue
		}
		if err := accumulate(&series[i], t); err != nil {
			return Result{}, err
		}
	}
	return Result{Series: series, Transactions: txs}, nil
}

func (s *service) monthly(ctx context.Context, ownerID uuid.UUID, now time.Time) (Result, error) {
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	from := thisMonth.AddDate(0, -11, 0)
	txs, err := s.repo.TransactionsByOwner(ctx, ownerID, &from, &now)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", errs.ErrQueryFailed, err)
	}
	series := make([]Bucket, 12)
	index := make(map[string]int, 12)
	for i := range series {
		month := from.AddDate(0, i, 0)
		label := month.Format("Jan 06")
		index[label] = i
		series[i] = zeroBucket(label)
	}
	for _, t := range txs {
		i, ok := index[t.Date.UTC().Format("Jan 06")]
		if !ok {
			continue
		}
		if err := accumulate(&series[i], t); err != nil {
			return Result{}, err
		}
	}
	return Result{Series: series, Transactions: txs}, nil
}

func (s *service) yearly(ctx context.Context, ownerID uuid.UUID, now time.Time) (Result, error) {
	txs, err := s.repo.TransactionsByOwner(ctx, ownerID, nil, nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", errs.ErrQueryFailed, err)
	}
	firstYear := now.Year()
	for _, t := range txs {
		if y := t.Date.UTC().Year(); y < firstYear {
			firstYear = y
		}
	}
	series := make([]Bucket, 0, now.Year()-firstYear+1)
	index := make(map[string]int)
	for y := firstYear; y <= now.Year(); y++ {
		label := strconv.Itoa(y)
		index[label] = len(series)
		series = append(series, zeroBucket(label))
	}
	for _, t := range txs {
		i, ok := index[strconv.Itoa(t.Date.UTC().Year())]
		if !ok {
			continue
		}
		if err := accumulate(&series[i], t); err != nil {
			return Result{}, err
		}
	}
	return Result{Series: series, Transactions: txs}, nil
}

func zeroBucket(label string) Bucket {
	zero := decimal.MustNew(0, 0)
	return Bucket{Label: label, Income: zero, Expense: zero}
}

func accumulate(b *Bucket, t ledger.Transaction) error {
	var err error
	switch t.Type {
	case ledger.TypeIncome:
		b.Income, err = b.Income.Add(t.Amount)
	case ledger.TypeExpense:
		b.Expense, err = b.Expense.Add(t.Amount)
	}
	return err
}
