package http

import (
	"net/http"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/service"

	"github.com/gorilla/mux"
)

type NotificationHandler struct {
	svc service.NotificationService
}

func NewNotificationHandler(svc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) Register(r *mux.Router) {
	r.HandleFunc("/notifications", h.List).Methods(http.MethodGet)
	r.HandleFunc("/notifications/{id:[0-9]+}/read", h.MarkRead).Methods(http.MethodPost)
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, domain.Unauthorizedf("login required"))
		return
	}
	notes, total, err := h.svc.GetNotifications(r.Context(), identity.UserID, queryInt32(r, "page", 1), queryInt32(r, "page_size", 20))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: notes, Total: total})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, domain.Unauthorizedf("login required"))
		return
	}
	noteID, err := pathID(r, "id")
	if err != nil {
		writeError(w, domain.Validationf("INVALID_INPUT", "invalid notification id"))
		return
	}
	if err := h.svc.MarkAsRead(r.Context(), identity.UserID, noteID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
}
