package http

import (
	"encoding/json"
	"net/http"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/service"

	"github.com/gorilla/mux"
)

type ExtensionHandler struct {
	svc service.ExtensionService
}

func NewExtensionHandler(svc service.ExtensionService) *ExtensionHandler {
	return &ExtensionHandler{svc: svc}
}

func (h *ExtensionHandler) Register(r *mux.Router) {
	r.HandleFunc("/orders/{id:[0-9]+}/extensions", h.Request).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id:[0-9]+}/extensions", h.List).Methods(http.MethodGet)
	r.HandleFunc("/extensions/{id:[0-9]+}/approve", h.Approve).Methods(http.MethodPost)
	r.HandleFunc("/extensions/{id:[0-9]+}/reject", h.Reject).Methods(http.MethodPost)
}

func (h *ExtensionHandler) Request(w http.ResponseWriter, r *http.Request) {
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
		Duration int32  `json:"duration"`
		Note     string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, domain.Validationf("INVALID_INPUT", "malformed request body"))
		return
	}
	req, err := h.svc.RequestExtension(r.Context(), identity, orderID, payload.Duration, payload.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *ExtensionHandler) List(w http.ResponseWriter, r *http.Request) {
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
	requests, err := h.svc.ListExtensions(r.Context(), identity, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: requests, Total: int32(len(requests))})
}

func (h *ExtensionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, domain.Unauthorizedf("login required"))
		return
	}
	requestID, err := pathID(r, "id")
	if err != nil {
		writeError(w, domain.Validationf("INVALID_INPUT", "invalid request id"))
		return
	}
	req, err := h.svc.ApproveExtension(r.Context(), identity, requestID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *ExtensionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, domain.Unauthorizedf("login required"))
		return
	}
	requestID, err := pathID(r, "id")
	if err != nil {
		writeError(w, domain.Validationf("INVALID_INPUT", "invalid request id"))
		return
	}
	var payload struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}
	req, err := h.svc.RejectExtension(r.Context(), identity, requestID, payload.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
