package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/mfadel/spendwell/internal/ledger"
	"github.com/mfadel/spendwell/internal/service/stats"
)

// Amounts travel as decimal strings to keep client-side math exact.

type postWalletRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Icon   string    `json:"icon,omitempty"`
}

type patchWalletRequest struct {
	Name *string `json:"name"`
	Icon *string `json:"icon"`
}

type walletResponse struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Name          string    `json:"name"`
	Icon          string    `json:"icon,omitempty"`
	Amount        string    `json:"amount"`
	TotalIncome   string    `json:"total_income"`
	TotalExpenses string    `json:"total_expenses"`
	CreatedAt     time.Time `json:"created_at"`
}

func toWalletResponse(w ledger.Wallet) walletResponse {
	return walletResponse{
		ID:            w.ID,
		UserID:        w.OwnerID,
		Name:          w.Name,
		Icon:          w.Icon,
		Amount:        w.Amount.String(),
		TotalIncome:   w.TotalIncome.String(),
		TotalExpenses: w.TotalExpenses.String(),
		CreatedAt:     w.CreatedAt,
	}
}

type postTransactionRequest struct {
	// ID present means update-in-place; absent means create.
	ID          *uuid.UUID `json:"id,omitempty"`
	UserID      uuid.UUID  `json:"user_id"`
	WalletID    uuid.UUID  `json:"wallet_id"`
	Type        string     `json:"type"`
	Amount      string     `json:"amount"`
	Category    string     `json:"category,omitempty"`
	Description string     `json:"description,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	Receipt     string     `json:"receipt,omitempty"`
}

type transactionResponse struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	WalletID      uuid.UUID `json:"wallet_id"`
	WalletOwnerID uuid.UUID `json:"wallet_owner_id"`
	Type          string    `json:"type"`
	Amount        string    `json:"amount"`
	Category      string    `json:"category,omitempty"`
	Description   string    `json:"description,omitempty"`
	Date          time.Time `json:"date"`
	ReceiptURL    string    `json:"receipt_url,omitempty"`
}

func toTransactionResponse(t ledger.Transaction) transactionResponse {
	return transactionResponse{
		ID:            t.ID,
		UserID:        t.OwnerID,
		WalletID:      t.WalletID,
		WalletOwnerID: t.WalletOwnerID,
		Type:          string(t.Type),
		Amount:        t.Amount.String(),
		Category:      string(t.Category),
		Description:   t.Description,
		Date:          t.Date,
		ReceiptURL:    t.ReceiptURL,
	}
}

type statsBucket struct {
	Label   string `json:"label"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
}

type statsResponse struct {
	Series       []statsBucket         `json:"series"`
	Transactions []transactionResponse `json:"transactions"`
}

func toStatsResponse(r stats.Result) statsResponse {
	out := statsResponse{
		Series:       make([]statsBucket, 0, len(r.Series)),
		Transactions: make([]transactionResponse, 0, len(r.Transactions)),
	}
	for _, b := range r.Series {
		out.Series = append(out.Series, statsBucket{Label: b.Label, Income: b.Income.String(), Expense: b.Expense.String()})
	}
	for _, t := range r.Transactions {
		out.Transactions = append(out.Transactions, toTransactionResponse(t))
	}
	return out
}
