package mockpos

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gapjyk-pos/waiter/internal/api"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server exposes the store over the REST contract the client speaks.
type Server struct {
	store *Store
	feed  *Feed
}

// NewServer wires a store and an optional feed. A nil feed disables change
// notifications.
func NewServer(store *Store, feed *Feed) *Server {
	return &Server{store: store, feed: feed}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	if s.feed != nil {
		r.Get("/ws", s.feed.ServeWS)
	}

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", s.createOrder)
		r.Get("/{id}", s.getOrder)
		r.Patch("/{id}", s.updateOrder)
		r.Patch("/{id}/items/status", s.batchItemStatus)
		r.Get("/{id}/calculate", s.calculateBill)
	})
	r.Route("/bills", func(r chi.Router) {
		r.Post("/", s.createBill)
		r.Get("/{id}", s.getBill)
		r.Put("/{id}/discounts", s.updateDiscounts)
		r.Post("/{id}/payments", s.createPayment)
		r.Get("/{id}/payments", s.listPayments)
	})
	return r
}

func (s *Server) broadcast(eventType string, payload any) {
	if s.feed != nil {
		s.feed.Broadcast(eventType, payload)
	}
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req api.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	ord, err := s.store.CreateOrder(req)
	if err != nil {
		writeError(w, err)
		return
	}
	s.broadcast("order.updated", map[string]string{"order_id": ord.ID})
	writeJSON(w, http.StatusCreated, ord)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	ord, err := s.store.GetOrder(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ord)
}

func (s *Server) updateOrder(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	ord, err := s.store.UpdateOrder(chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	s.broadcast("order.updated", map[string]string{"order_id": ord.ID})
	writeJSON(w, http.StatusOK, ord)
}

func (s *Server) batchItemStatus(w http.ResponseWriter, r *http.Request) {
	var req api.BatchItemStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	ord, err := s.store.BatchUpdateItemStatus(chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	s.broadcast("order.items_updated", map[string]string{"order_id": ord.ID})
	writeJSON(w, http.StatusOK, ord)
}

func (s *Server) calculateBill(w http.ResponseWriter, r *http.Request) {
	calc, err := s.store.CalculateBill(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, calc)
}

func (s *Server) createBill(w http.ResponseWriter, r *http.Request) {
	var req api.CreateBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	bill, err := s.store.CreateBill(req)
	if err != nil {
		writeError(w, err)
		return
	}
	s.broadcast("bill.updated", map[string]string{"bill_id": bill.ID, "order_id": bill.OrderID})
	writeJSON(w, http.StatusCreated, bill)
}

func (s *Server) getBill(w http.ResponseWriter, r *http.Request) {
	bill, err := s.store.GetBill(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

func (s *Server) updateDiscounts(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateBillDiscountsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	bill, err := s.store.UpdateBillDiscounts(chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	s.broadcast("bill.updated", map[string]string{"bill_id": bill.ID, "order_id": bill.OrderID})
	writeJSON(w, http.StatusOK, bill)
}

func (s *Server) createPayment(w http.ResponseWriter, r *http.Request) {
	var req api.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	payment, err := s.store.CreatePayment(chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	s.broadcast("payment.created", map[string]string{"bill_id": payment.BillID})
	writeJSON(w, http.StatusCreated, payment)
}

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.store.ListPayments(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

// writeError maps store errors onto the {"error": ...} envelope.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errValidation):
		status = http.StatusBadRequest
	case errors.Is(err, errConflict):
		status = http.StatusConflict
	case errors.Is(err, errUnprocessable):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: encode response: %v", err)
	}
}
