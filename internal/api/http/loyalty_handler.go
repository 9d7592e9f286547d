package http

import (
	"encoding/json"
	"net/http"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/service"

	"github.com/gorilla/mux"
)

type LoyaltyHandler struct {
	svc service.LoyaltyService
}

func NewLoyaltyHandler(svc service.LoyaltyService) *LoyaltyHandler {
	return &LoyaltyHandler{svc: svc}
}

func (h *LoyaltyHandler) Register(r *mux.Router) {
	r.HandleFunc("/loyalty/balance", h.Balance).Methods(http.MethodGet)
	r.HandleFunc("/loyalty/history", h.History).Methods(http.MethodGet)
	r.HandleFunc("/loyalty/daily-login", h.DailyLogin).Methods(http.MethodPost)
	r.HandleFunc("/loyalty/convert", h.Convert).Methods(http.MethodPost)
	r.HandleFunc("/loyalty/adjust", h.Adjust).Methods(http.MethodPost)
}

func (h *LoyaltyHandler) Balance(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, domain.Unauthorizedf("login required"))
		return
	}
	balance, err := h.svc.GetBalance(r.Context(), identity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

func (h *LoyaltyHandler) History(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, domain.Unauthorizedf("login required"))
		return
	}
	transactions, total, err := h.svc.ListHistory(r.Context(), identity, queryInt32(r, "page", 1), queryInt32(r, "page_size", 20))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: transactions, Total: total})
}

func (h *LoyaltyHandler) DailyLogin(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, domain.Unauthorizedf("login required"))
		return
	}
	tx, err := h.svc.AddDailyLoginPoints(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if tx == nil {
		writeJSON(w, http.StatusOK, map[string]any{"awarded": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"awarded": true, "transaction": tx})
}

func (h *LoyaltyHandler) Convert(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, domain.Unauthorizedf("login required"))
		return
	}
	var payload struct {
		Points int64 `json:"points"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, domain.Validationf("INVALID_INPUT", "malformed request body"))
		return
	}
	discount, err := h.svc.ConvertPointsToDiscount(r.Context(), identity, payload.Points)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, discount)
}

func (h *LoyaltyHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, domain.Unauthorizedf("login required"))
		return
	}
	var payload struct {
		UserID      int64  `json:"user_id"`
		Points      int64  `json:"points"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, domain.Validationf("INVALID_INPUT", "malformed request body"))
		return
	}
	tx, err := h.svc.AdjustPoints(r.Context(), identity, payload.UserID, payload.Points, payload.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}
