package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fashionbreeze/lifecycle/internal/audit"
	"github.com/fashionbreeze/lifecycle/internal/lifecycle"
	"github.com/fashionbreeze/lifecycle/internal/repository"
	"github.com/fashionbreeze/lifecycle/internal/storage"
)

// Service contracts the HTTP boundary depends on, implemented by the
// lifecycle managers.

type OrderService interface {
	CreateOrder(ctx context.Context, in storage.CreateOrderInput) (*repository.Order, error)
	GetOrder(ctx context.Context, id string) (*repository.Order, error)
	ListCustomerOrders(ctx context.Context, customerID string, limit int, activeOnly bool) ([]*repository.Order, error)
	UploadPaymentSlip(ctx context.Context, orderID, imageData string) (*repository.Order, error)
	SetSlipStatus(ctx context.Context, orderID, status string) (*repository.Order, error)
	UpdateStatus(ctx context.Context, orderID, newStatus, actor string) (*repository.Order, error)
}

type TailoringService interface {
	CreateOrder(ctx context.Context, in storage.CreateTailoringOrderInput) (*repository.TailoringOrder, error)
	GetOrder(ctx context.Context, id string) (*repository.TailoringOrder, error)
	UpdateStatus(ctx context.Context, orderID, newStatus, comment string) (*repository.TailoringOrder, error)
}

type ReturnService interface {
	CreateRequest(ctx context.Context, in storage.CreateReturnInput) (*repository.ReturnRequest, error)
	GetRequest(ctx context.Context, returnID string) (*repository.ReturnRequest, error)
	ListRequests(ctx context.Context, page, limit int) ([]*repository.ReturnRequest, error)
	UpdateStatus(ctx context.Context, returnID, newStatus string, adminNotes *string) (*repository.ReturnRequest, error)
}

type TailorService interface {
	Register(ctx context.Context, in storage.RegisterTailorInput) (*repository.Tailor, error)
	GetTailor(ctx context.Context, id string) (*repository.Tailor, error)
	ReviewApplication(ctx context.Context, tailorID, decision, reviewer string) (*repository.Tailor, error)
}

type NotificationInbox interface {
	List(ctx context.Context, userID string, limit int) ([]*repository.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
}

type Server struct {
	orders        OrderService
	tailoring     TailoringService
	returns       ReturnService
	tailors       TailorService
	notifications NotificationInbox
	realtime      http.Handler
	recorder      *audit.Recorder
	logger        *zap.Logger
	server        *http.Server
}

func New(orders OrderService, tailoring TailoringService, returns ReturnService, tailors TailorService,
	notifications NotificationInbox, realtime http.Handler, recorder *audit.Recorder, logger *zap.Logger) *Server {
	return &Server{
		orders:        orders,
		tailoring:     tailoring,
		returns:       returns,
		tailors:       tailors,
		notifications: notifications,
		realtime:      realtime,
		recorder:      recorder,
		logger:        logger,
	}
}

func (s *Server) Run(ctx context.Context, port string) error {
	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.logger.Info("http server starting", zap.String("port", port))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/orders", s.handleCreateOrder).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id}", s.handleGetOrder).Methods(http.MethodGet)
	r.HandleFunc("/orders/{id}/status", s.handleUpdateOrderStatus).Methods(http.MethodPut)
	r.HandleFunc("/orders/{id}/slip", s.handleUploadSlip).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id}/slip", s.handleSetSlipStatus).Methods(http.MethodPut)
	r.HandleFunc("/customers/{customerID}/orders", s.handleListCustomerOrders).Methods(http.MethodGet)

	r.HandleFunc("/tailoring-orders", s.handleCreateTailoringOrder).Methods(http.MethodPost)
	r.HandleFunc("/tailoring-orders/{id}", s.handleGetTailoringOrder).Methods(http.MethodGet)
	r.HandleFunc("/tailoring-orders/{id}/status", s.handleUpdateTailoringStatus).Methods(http.MethodPut)

	r.HandleFunc("/returns", s.handleCreateReturn).Methods(http.MethodPost)
	r.HandleFunc("/returns", s.handleListReturns).Methods(http.MethodGet)
	r.HandleFunc("/returns/{returnID}", s.handleGetReturn).Methods(http.MethodGet)
	r.HandleFunc("/returns/{returnID}/status", s.handleUpdateReturnStatus).Methods(http.MethodPut)

	r.HandleFunc("/tailors", s.handleRegisterTailor).Methods(http.MethodPost)
	r.HandleFunc("/tailors/{id}", s.handleGetTailor).Methods(http.MethodGet)
	r.HandleFunc("/tailors/{id}/review", s.handleReviewTailor).Methods(http.MethodPut)

	r.HandleFunc("/users/{userID}/notifications", s.handleListNotifications).Methods(http.MethodGet)
	r.HandleFunc("/notifications/{id}/read", s.handleMarkNotificationRead).Methods(http.MethodPut)

	if s.realtime != nil {
		r.Handle("/ws", s.realtime)
	}
	r.Handle("/metrics", promhttp.Handler())

	return s.auditMiddleware(r)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps the error taxonomy onto client-facing statuses so
// a caller can tell "fix your input" from "re-fetch and retry" from "does
// not exist". Anything else is a server-side failure with no detail leaked.
func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, lifecycle.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, lifecycle.ErrConflict):
		respondError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID    string          `json:"customer_id"`
		CustomerName  string          `json:"customer_name"`
		CustomerEmail string          `json:"customer_email"`
		Items         json.RawMessage `json:"items"`
		TotalAmount   int64           `json:"total_amount"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := s.orders.CreateOrder(r.Context(), storage.CreateOrderInput{
		CustomerID:    req.CustomerID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Items:         req.Items,
		TotalAmount:   req.TotalAmount,
	})
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.orders.GetOrder(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
		Actor  string `json:"actor"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := s.orders.UpdateStatus(r.Context(), mux.Vars(r)["id"], req.Status, req.Actor)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func (s *Server) handleUploadSlip(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ImageData string `json:"image_data"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := s.orders.UploadPaymentSlip(r.Context(), mux.Vars(r)["id"], req.ImageData)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"order":   order,
	})
}

func (s *Server) handleSetSlipStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := s.orders.SetSlipStatus(r.Context(), mux.Vars(r)["id"], req.Status)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func (s *Server) handleListCustomerOrders(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if lastStr := r.URL.Query().Get("last"); lastStr != "" {
		var err error
		limit, err = strconv.Atoi(lastStr)
		if err != nil || limit <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid value for 'last' parameter")
			return
		}
	}
	activeOnly := r.URL.Query().Get("active") == "true"

	orders, err := s.orders.ListCustomerOrders(r.Context(), mux.Vars(r)["customerID"], limit, activeOnly)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, orders)
}

func (s *Server) handleCreateTailoringOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerName  string          `json:"customer_name"`
		CustomerPhone string          `json:"customer_phone"`
		CustomerEmail string          `json:"customer_email"`
		Specification json.RawMessage `json:"specification"`
		TailorID      *string         `json:"tailor_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := s.tailoring.CreateOrder(r.Context(), storage.CreateTailoringOrderInput{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Specification: req.Specification,
		TailorID:      req.TailorID,
	})
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

func (s *Server) handleGetTailoringOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.tailoring.GetOrder(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) handleUpdateTailoringStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status  string `json:"status"`
		Comment string `json:"comment"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := s.tailoring.UpdateStatus(r.Context(), mux.Vars(r)["id"], req.Status, req.Comment)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func (s *Server) handleCreateReturn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID       string `json:"order_id"`
		ProductID     string `json:"product_id"`
		Type          string `json:"type"`
		Reason        string `json:"reason"`
		Description   string `json:"description"`
		CustomerName  string `json:"customer_name"`
		CustomerEmail string `json:"customer_email"`
		CustomerPhone string `json:"customer_phone"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	request, err := s.returns.CreateRequest(r.Context(), storage.CreateReturnInput{
		OrderID:       req.OrderID,
		ProductID:     req.ProductID,
		Type:          req.Type,
		Reason:        req.Reason,
		Description:   req.Description,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
	})
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, request)
}

func (s *Server) handleGetReturn(w http.ResponseWriter, r *http.Request) {
	request, err := s.returns.GetRequest(r.Context(), mux.Vars(r)["returnID"])
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, request)
}

func (s *Server) handleListReturns(w http.ResponseWriter, r *http.Request) {
	page := 1
	limit := 10

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		var err error
		page, err = strconv.Atoi(pageStr)
		if err != nil || page <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid value for 'page' parameter")
			return
		}
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid value for 'limit' parameter")
			return
		}
	}

	requests, err := s.returns.ListRequests(r.Context(), page, limit)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, requests)
}

func (s *Server) handleUpdateReturnStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status     string  `json:"status"`
		AdminNotes *string `json:"admin_notes"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	request, err := s.returns.UpdateStatus(r.Context(), mux.Vars(r)["returnID"], req.Status, req.AdminNotes)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, request)
}

func (s *Server) handleRegisterTailor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Email       string `json:"email"`
		Phone       string `json:"phone"`
		ShopName    string `json:"shop_name"`
		ShopAddress string `json:"shop_address"`
		Password    string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tailor, err := s.tailors.Register(r.Context(), storage.RegisterTailorInput{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		ShopName:    req.ShopName,
		ShopAddress: req.ShopAddress,
		Password:    req.Password,
	})
	if err != nil {
		// A duplicate contact identity surfaces as 400 at this endpoint.
		if errors.Is(err, lifecycle.ErrConflict) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.respondServiceError(w, err)
		return
	}

	tailor.PasswordHash = ""
	respondJSON(w, http.StatusCreated, tailor)
}

func (s *Server) handleGetTailor(w http.ResponseWriter, r *http.Request) {
	tailor, err := s.tailors.GetTailor(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	tailor.PasswordHash = ""
	respondJSON(w, http.StatusOK, tailor)
}

func (s *Server) handleReviewTailor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Decision string `json:"decision"`
		Reviewer string `json:"reviewer"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tailor, err := s.tailors.ReviewApplication(r.Context(), mux.Vars(r)["id"], req.Decision, req.Reviewer)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	tailor.PasswordHash = ""
	respondJSON(w, http.StatusOK, tailor)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid value for 'limit' parameter")
			return
		}
	}

	items, err := s.notifications.List(r.Context(), mux.Vars(r)["userID"], limit)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid notification id")
		return
	}

	if err := s.notifications.MarkRead(r.Context(), id); err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}
