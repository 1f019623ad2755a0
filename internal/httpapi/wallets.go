package httpapi

import (
	"encoding/json"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mfadel/spendwell/internal/ledger"
)

// callerID reads the authenticated user id from the user_id query parameter.
// Authentication itself is out of scope here; an upstream gateway fills it in.
func callerID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) postWallet(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req postWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	created, err := s.wallets.Create(r.Context(), ledger.Wallet{
		OwnerID: req.UserID,
		Name:    req.Name,
		Icon:    req.Icon,
	})
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toWalletResponse(created))
}

func (s *Server) listWallets(w http.ResponseWriter, r *http.Request) {
	owner, ok := callerID(r)
	if !ok {
		badRequest(w, "missing or invalid user_id")
		return
	}
	wallets, err := s.wallets.List(r.Context(), owner)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	out := make([]walletResponse, 0, len(wallets))
	for _, wl := range wallets {
		out = append(out, toWalletResponse(wl))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	owner, ok := callerID(r)
	if !ok {
		badRequest(w, "missing or invalid user_id")
		return
	}
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "invalid wallet id")
		return
	}
	wl, err := s.wallets.Get(r.Context(), owner, id)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toWalletResponse(wl))
}

func (s *Server) updateWallet(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	owner, ok := callerID(r)
	if !ok {
		badRequest(w, "missing or invalid user_id")
		return
	}
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "invalid wallet id")
		return
	}
	var req patchWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	wl, err := s.wallets.Update(r.Context(), owner, id, req.Name, req.Icon)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toWalletResponse(wl))
}

func (s *Server) deleteWallet(w http.ResponseWriter, r *http.Request) {
	owner, ok := callerID(r)
	if !ok {
		badRequest(w, "missing or invalid user_id")
		return
	}
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "invalid wallet id")
		return
	}
	if err := s.wallets.Delete(r.Context(), owner, id); err != nil {
		writeServiceErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
