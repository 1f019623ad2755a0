package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/govalues/decimal"

	"github.com/mfadel/spendwell/internal/ledger"
	"github.com/mfadel/spendwell/internal/service/transaction"
)

func (s *Server) postTransaction(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req postTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	amount, err := decimal.Parse(req.Amount)
	if err != nil {
		badRequest(w, "invalid amount")
		return
	}
	in := transaction.Input{
		OwnerID:     req.UserID,
		WalletID:    req.WalletID,
		Type:        ledger.TransactionType(req.Type),
		Amount:      amount,
		Category:    ledger.Category(req.Category),
		Description: req.Description,
		Receipt:     req.Receipt,
	}
	if req.ID != nil {
		in.ID = *req.ID
	}
	if req.Date != nil {
		in.Date = *req.Date
	}
	saved, err := s.transactions.Save(r.Context(), in)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	status := http.StatusCreated
	if req.ID != nil {
		status = http.StatusOK
	}
	toJSON(w, status, toTransactionResponse(saved))
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r)
	if !ok {
		badRequest(w, "missing or invalid user_id")
		return
	}
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "invalid transaction id")
		return
	}
	t, err := s.transactions.Get(r.Context(), caller, id)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r)
	if !ok {
		badRequest(w, "missing or invalid user_id")
		return
	}
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "invalid transaction id")
		return
	}
	if err := s.transactions.Delete(r.Context(), caller, id); err != nil {
		writeServiceErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
