package http

import (
	"encoding/json"
	"net/http"
	"time"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/service"

	"github.com/gorilla/mux"
)

type DiscountHandler struct {
	svc service.DiscountService
}

func NewDiscountHandler(svc service.DiscountService) *DiscountHandler {
	return &DiscountHandler{svc: svc}
}

func (h *DiscountHandler) Register(r *mux.Router) {
	r.HandleFunc("/discounts", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/discounts/validate", h.Validate).Methods(http.MethodPost)
	r.HandleFunc("/discounts/assignments", h.Assign).Methods(http.MethodPost)
}

func (h *DiscountHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, domain.Unauthorizedf("login required"))
		return
	}
	var payload struct {
		Code              string              `json:"code"`
		Name              string              `json:"name"`
		Type              domain.DiscountType `json:"type"`
		Value             int64               `json:"value"`
		MaxDiscountAmount int64               `json:"max_discount_amount"`
		MinOrderAmount    int64               `json:"min_order_amount"`
		StartsAt          time.Time           `json:"starts_at"`
		ExpiresAt         time.Time           `json:"expires_at"`
		UsageLimit        int32               `json:"usage_limit"`
		IsPublic          bool                `json:"is_public"`
		OwnerID           int64               `json:"owner_id"`
		ItemID            int64               `json:"item_id"`
		AllowedUserIDs    []int64             `json:"allowed_user_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, domain.Validationf("INVALID_INPUT", "malformed request body"))
		return
	}
	discount, err := h.svc.CreateDiscount(r.Context(), identity, service.CreateDiscountRequest{
		Code:              payload.Code,
		Name:              payload.Name,
		Type:              payload.Type,
		Value:             payload.Value,
		MaxDiscountAmount: payload.MaxDiscountAmount,
		MinOrderAmount:    payload.MinOrderAmount,
		StartsAt:          payload.StartsAt,
		ExpiresAt:         payload.ExpiresAt,
		UsageLimit:        payload.UsageLimit,
		IsPublic:          payload.IsPublic,
		OwnerID:           payload.OwnerID,
		ItemID:            payload.ItemID,
		AllowedUserIDs:    payload.AllowedUserIDs,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, discount)
}

func (h *DiscountHandler) Validate(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, domain.Unauthorizedf("login required"))
		return
	}
	var payload struct {
		Code         string `json:"code"`
		ItemID       int64  `json:"item_id"`
		RentalAmount int64  `json:"rental_amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, domain.Validationf("INVALID_INPUT", "malformed request body"))
		return
	}
	discount, amount, err := h.svc.ValidateDiscount(r.Context(), identity, payload.Code, payload.ItemID, payload.RentalAmount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"discount":        discount,
		"discount_amount": amount,
	})
}

func (h *DiscountHandler) Assign(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, domain.Unauthorizedf("login required"))
		return
	}
	var payload struct {
		DiscountID   int64      `json:"discount_id"`
		UserID       int64      `json:"user_id"`
		PerUserLimit int32      `json:"per_user_limit"`
		EffectiveAt  *time.Time `json:"effective_at"`
		ExpiresAt    *time.Time `json:"expires_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, domain.Validationf("INVALID_INPUT", "malformed request body"))
		return
	}
	assignment, err := h.svc.AssignDiscount(r.Context(), identity, service.AssignDiscountRequest{
		DiscountID:   payload.DiscountID,
		UserID:       payload.UserID,
		PerUserLimit: payload.PerUserLimit,
		EffectiveAt:  payload.EffectiveAt,
		ExpiresAt:    payload.ExpiresAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, assignment)
}
