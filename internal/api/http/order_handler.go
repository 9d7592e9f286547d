package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/service"

	"github.com/gorilla/mux"
)

type OrderHandler struct {
	svc service.OrderService
}

func NewOrderHandler(svc service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

func (h *OrderHandler) Register(r *mux.Router) {
	r.HandleFunc("/orders/quote", h.Quote).Methods(http.MethodPost)
	r.HandleFunc("/orders", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/orders/rentals", h.ListRentals).Methods(http.MethodGet)
	r.HandleFunc("/orders/lendings", h.ListLendings).Methods(http.MethodGet)
	r.HandleFunc("/orders/{id:[0-9]+}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/orders/{id:[0-9]+}/confirm", h.Confirm).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id:[0-9]+}/start", h.Start).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id:[0-9]+}/return", h.Return).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id:[0-9]+}/complete", h.Complete).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id:[0-9]+}/cancel", h.Cancel).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id:[0-9]+}/dispute", h.Dispute).Methods(http.MethodPost)
}

type createOrderPayload struct {
	ItemID                int64     `json:"item_id"`
	Quantity              int32     `json:"quantity"`
	StartAt               time.Time `json:"start_at"`
	EndAt                 time.Time `json:"end_at"`
	DiscountCode          string    `json:"discount_code"`
	SecondaryDiscountCode string    `json:"secondary_discount_code"`
}

func (p createOrderPayload) toRequest() service.CreateOrderRequest {
	return service.CreateOrderRequest{
		ItemID:                p.ItemID,
		Quantity:              p.Quantity,
		StartAt:               p.StartAt,
		EndAt:                 p.EndAt,
		DiscountCode:          p.DiscountCode,
		SecondaryDiscountCode: p.SecondaryDiscountCode,
	}
}

func (h *OrderHandler) Quote(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, domain.Unauthorizedf("login required"))
		return
	}
	var payload createOrderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, domain.Validationf("INVALID_INPUT", "malformed request body"))
		return
	}
	quote, discount, err := h.svc.QuoteOrder(r.Context(), identity, payload.toRequest())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"quote":           quote,
		"discount_amount": discount,
		"final_amount":    quote.TotalAmount - discount,
	})
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, domain.Unauthorizedf("login required"))
		return
	}
	var payload createOrderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, domain.Validationf("INVALID_INPUT", "malformed request body"))
		return
	}
	order, err := h.svc.CreateOrder(r.Context(), identity, payload.toRequest())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, domain.Unauthorizedf("login required"))
		return
	}
	orderID, err := pathID(r, "id")
	if err != nil {
		writeError(w, domain.Validationf("INVALID_INPUT", "invalid order id"))
		return
	}
	order, err := h.svc.GetOrder(r.Context(), identity, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// transition handles the argument-free state changes (confirm, start).
func (h *OrderHandler) transition(w http.ResponseWriter, r *http.Request,
	fn func(identity domain.Identity, orderID int64) (*domain.Order, error)) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, domain.Unauthorizedf("login required"))
		return
	}
	orderID, err := pathID(r, "id")
	if err != nil {
		writeError(w, domain.Validationf("INVALID_INPUT", "invalid order id"))
		return
	}
	order, err := fn(identity, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(identity domain.Identity, orderID int64) (*domain.Order, error) {
		return h.svc.ConfirmOrder(r.Context(), identity, orderID)
	})
}

func (h *OrderHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(identity domain.Identity, orderID int64) (*domain.Order, error) {
		return h.svc.StartOrder(r.Context(), identity, orderID)
	})
}

func (h *OrderHandler) Return(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Note string `json:"note"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}
	h.transition(w, r, func(identity domain.Identity, orderID int64) (*domain.Order, error) {
		return h.svc.ReturnOrder(r.Context(), identity, orderID, payload.Note)
	})
}

func (h *OrderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, domain.Unauthorizedf("login required"))
		return
	}
	orderID, err := pathID(r, "id")
	if err != nil {
		writeError(w, domain.Validationf("INVALID_INPUT", "invalid order id"))
		return
	}
	var payload struct {
		Condition domain.ReturnCondition `json:"condition"`
		DamageFee int64                  `json:"damage_fee"`
		Note      string                 `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, domain.Validationf("INVALID_INPUT", "malformed request body"))
		return
	}
	order, err := h.svc.CompleteOrder(r.Context(), identity, service.CompleteOrderRequest{
		OrderID:   orderID,
		Condition: payload.Condition,
		DamageFee: payload.DamageFee,
		Note:      payload.Note,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}
	h.transition(w, r, func(identity domain.Identity, orderID int64) (*domain.Order, error) {
		return h.svc.CancelOrder(r.Context(), identity, orderID, payload.Reason)
	})
}

func (h *OrderHandler) Dispute(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}
	h.transition(w, r, func(identity domain.Identity, orderID int64) (*domain.Order, error) {
		return h.svc.DisputeOrder(r.Context(), identity, orderID, payload.Reason)
	})
}

func (h *OrderHandler) ListRentals(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.svc.ListRentals)
}

func (h *OrderHandler) ListLendings(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.svc.ListLendings)
}

func (h *OrderHandler) list(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, identity domain.Identity, status domain.OrderStatus, page, pageSize int32) ([]domain.Order, int32, error)) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, domain.Unauthorizedf("login required"))
		return
	}
	status := domain.OrderStatus(r.URL.Query().Get("status"))
	orders, total, err := fn(r.Context(), identity, status, queryInt32(r, "page", 1), queryInt32(r, "page_size", 20))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: orders, Total: total})
}
