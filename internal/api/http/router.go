package http

import (
	"context"
	"net/http"
	"time"

	"equipment-rental-backend/internal/cache"
	"equipment-rental-backend/internal/security"
	"equipment-rental-backend/internal/service"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports database health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterDeps struct {
	Bookings       service.BookingService
	Returns        service.ReturnService
	Stock          service.StockService
	Tokens         security.TokenManager
	Idempotency    cache.IdempotencyStore
	IdempotencyTTL time.Duration
	DB             Pinger
	CorsOrigins    []string
}

// NewRouter wires every route. Router-level middleware runs after route
// matching so it can see route templates.
func NewRouter(d RouterDeps) http.Handler {
	bookings := NewBookingHandler(d.Bookings, d.Returns)
	equipment := NewEquipmentHandler(d.Stock)
	idem := Idempotency(d.Idempotency, d.IdempotencyTTL)

	router := mux.NewRouter()
	router.Use(Metrics, Auth(d.Tokens))

	router.HandleFunc("/healthz", healthz(d.DB)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	router.HandleFunc("/bookings", bookings.ListBookings).Methods(http.MethodGet)
	router.Handle("/bookings", idem(http.HandlerFunc(bookings.CreateBooking))).Methods(http.MethodPost)
	router.HandleFunc("/bookings/{id}", bookings.GetBooking).Methods(http.MethodGet)
	router.HandleFunc("/bookings/{id}", bookings.UpdateBooking).Methods(http.MethodPut)
	router.HandleFunc("/bookings/{id}", bookings.CancelBooking).Methods(http.MethodDelete)
	router.Handle("/bookings/{id}/return", idem(http.HandlerFunc(bookings.ProcessReturn))).Methods(http.MethodPost)
	router.HandleFunc("/bookings/{id}/return", bookings.GetReturnStatus).Methods(http.MethodGet)

	router.HandleFunc("/equipment/{id}/availability", equipment.CheckAvailability).Methods(http.MethodGet)
	router.HandleFunc("/equipment/{id}/movements", equipment.ListMovements).Methods(http.MethodGet)
	router.HandleFunc("/equipment/{id}/stock-adjustments", equipment.AdjustStock).Methods(http.MethodPost)

	return CORS(d.CorsOrigins)(RequestID(Recovery(router)))
}

func healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
