package http

import (
	"net/http"
	"strconv"

	"renthub-backend/internal/security"
	"renthub-backend/internal/service"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles everything the router exposes.
type Services struct {
	Orders        service.OrderService
	Discounts     service.DiscountService
	Extensions    service.ExtensionService
	Contracts     service.ContractService
	Loyalty       service.LoyaltyService
	Notifications service.NotificationService
}

// NewRouter wires all HTTP endpoints. Everything under /api/v1 requires a
// valid bearer token; /healthz and /metrics stay open.
func NewRouter(svcs Services, tokens security.TokenManager, assetDir string) *mux.Router {
	r := mux.NewRouter()
	r.Use(MetricsMiddleware)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	if assetDir != "" {
		r.PathPrefix("/assets/").Handler(http.StripPrefix("/assets/", http.FileServer(http.Dir(assetDir))))
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(AuthMiddleware(tokens))

	NewOrderHandler(svcs.Orders).Register(api)
	NewDiscountHandler(svcs.Discounts).Register(api)
	NewExtensionHandler(svcs.Extensions).Register(api)
	NewContractHandler(svcs.Contracts).Register(api)
	NewLoyaltyHandler(svcs.Loyalty).Register(api)
	NewNotificationHandler(svcs.Notifications).Register(api)

	return r
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}

func queryInt32(r *http.Request, name string, fallback int32) int32 {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return fallback
	}
	return int32(n)
}
