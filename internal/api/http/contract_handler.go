package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/service"

	"github.com/gorilla/mux"
)

type ContractHandler struct {
	svc service.ContractService
}

func NewContractHandler(svc service.ContractService) *ContractHandler {
	return &ContractHandler{svc: svc}
}

func (h *ContractHandler) Register(r *mux.Router) {
	r.HandleFunc("/orders/{id:[0-9]+}/contract", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id:[0-9]+}/contract", h.GetForOrder).Methods(http.MethodGet)
	r.HandleFunc("/contracts/{id:[0-9]+}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/contracts/{id:[0-9]+}/clauses", h.AppendClause).Methods(http.MethodPost)
	r.HandleFunc("/contracts/{id:[0-9]+}/sign", h.Sign).Methods(http.MethodPost)
	r.HandleFunc("/signatures", h.UploadSignature).Methods(http.MethodPost)
}

func (h *ContractHandler) Create(w http.ResponseWriter, r *http.Request) {
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
		TemplateID int64 `json:"template_id"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}
	contract, err := h.svc.CreateContract(r.Context(), identity, orderID, payload.TemplateID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contract)
}

func (h *ContractHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, domain.Unauthorizedf("login required"))
		return
	}
	contractID, err := pathID(r, "id")
	if err != nil {
		writeError(w, domain.Validationf("INVALID_INPUT", "invalid contract id"))
		return
	}
	view, err := h.svc.GetContract(r.Context(), identity, contractID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *ContractHandler) GetForOrder(w http.ResponseWriter, r *http.Request) {
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
	view, err := h.svc.GetContractForOrder(r.Context(), identity, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *ContractHandler) AppendClause(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, domain.Unauthorizedf("login required"))
		return
	}
	contractID, err := pathID(r, "id")
	if err != nil {
		writeError(w, domain.Validationf("INVALID_INPUT", "invalid contract id"))
		return
	}
	var payload struct {
		Clause string `json:"clause"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, domain.Validationf("INVALID_INPUT", "malformed request body"))
		return
	}
	contract, err := h.svc.AppendClause(r.Context(), identity, contractID, payload.Clause)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contract)
}

// UploadSignature accepts the signature image as base64 JSON so the endpoint
// stays uniform with the rest of the API.
func (h *ContractHandler) UploadSignature(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, domain.Unauthorizedf("login required"))
		return
	}
	var payload struct {
		ImageBase64 string `json:"image_base64"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, domain.Validationf("INVALID_INPUT", "malformed request body"))
		return
	}
	image, err := base64.StdEncoding.DecodeString(payload.ImageBase64)
	if err != nil {
		writeError(w, domain.Validationf("INVALID_INPUT", "signature image must be base64 encoded"))
		return
	}
	signature, err := h.svc.UploadSignature(r.Context(), identity, image)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, signature)
}

func (h *ContractHandler) Sign(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, domain.Unauthorizedf("login required"))
		return
	}
	contractID, err := pathID(r, "id")
	if err != nil {
		writeError(w, domain.Validationf("INVALID_INPUT", "invalid contract id"))
		return
	}
	var payload struct {
		PositionX float64 `json:"position_x"`
		PositionY float64 `json:"position_y"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}
	contract, err := h.svc.SignContract(r.Context(), identity, contractID, payload.PositionX, payload.PositionY)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contract)
}
