package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fashionbreeze/lifecycle/internal/lifecycle"
	"github.com/fashionbreeze/lifecycle/internal/repository"
)

// In-memory repositories with the same conditional-write semantics as the
// postgresql package: every UpdateStatus variant matches only when the stored
// status equals the caller's expected one, atomically under the mutex.

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*repository.Order
	seq    int64
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*repository.Order)}
}

func (r *fakeOrderRepo) Create(_ context.Context, order *repository.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.orders {
		if existing.OrderNumber == order.OrderNumber {
			return fmt.Errorf("%w: order number %s already exists", lifecycle.ErrConflict, order.OrderNumber)
		}
	}
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id string) (*repository.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", lifecycle.ErrNotFound, id)
	}
	cp := *order
	return &cp, nil
}

func (r *fakeOrderRepo) GetByCustomerID(_ context.Context, customerID string, limit int, activeOnly bool) ([]*repository.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*repository.Order
	for _, order := range r.orders {
		if order.CustomerID != customerID {
			continue
		}
		if activeOnly && (order.Status == "delivered" || order.Status == "cancelled") {
			continue
		}
		cp := *order
		result = append(result, &cp)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func (r *fakeOrderRepo) GetAllActiveOrders(_ context.Context) ([]*repository.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*repository.Order
	for _, order := range r.orders {
		if order.Status == "delivered" || order.Status == "cancelled" {
			continue
		}
		cp := *order
		result = append(result, &cp)
	}
	return result, nil
}

func (r *fakeOrderRepo) NextOrderNumber(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id, from, to string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok || order.Status != from {
		return false, nil
	}
	order.Status = to
	order.UpdatedAt = now
	return true, nil
}

func (r *fakeOrderRepo) AttachSlip(_ context.Context, id, image string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok || order.Status == "delivered" || order.Status == "cancelled" {
		return false, nil
	}
	pending := "pending"
	order.SlipImage = &image
	order.SlipStatus = &pending
	order.SlipUploadedAt = &now
	order.SlipVerifiedAt = nil
	order.UpdatedAt = now
	return true, nil
}

func (r *fakeOrderRepo) SetSlipStatus(_ context.Context, id, from, to string, verifiedAt *time.Time, orderStatus *string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok || order.SlipStatus == nil || *order.SlipStatus != from {
		return false, nil
	}
	order.SlipStatus = &to
	if verifiedAt != nil {
		order.SlipVerifiedAt = verifiedAt
	}
	if orderStatus != nil {
		order.Status = *orderStatus
	}
	order.UpdatedAt = now
	return true, nil
}

type fakeTailoringRepo struct {
	mu     sync.Mutex
	orders map[string]*repository.TailoringOrder
}

func newFakeTailoringRepo() *fakeTailoringRepo {
	return &fakeTailoringRepo{orders: make(map[string]*repository.TailoringOrder)}
}

func (r *fakeTailoringRepo) Create(_ context.Context, order *repository.TailoringOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.orders {
		if existing.OrderNumber == order.OrderNumber {
			return fmt.Errorf("%w: order number %s already exists", lifecycle.ErrConflict, order.OrderNumber)
		}
	}
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeTailoringRepo) GetByID(_ context.Context, id string) (*repository.TailoringOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: tailoring order %s", lifecycle.ErrNotFound, id)
	}
	cp := *order
	return &cp, nil
}

func (r *fakeTailoringRepo) UpdateStatus(_ context.Context, id, from, to, comment string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok || order.Status != from {
		return false, nil
	}
	order.Status = to
	order.Comments = appendComment(order.Comments, comment)
	order.UpdatedAt = now
	return true, nil
}

type fakeReturnRepo struct {
	mu       sync.Mutex
	requests map[string]*repository.ReturnRequest
}

func newFakeReturnRepo() *fakeReturnRepo {
	return &fakeReturnRepo{requests: make(map[string]*repository.ReturnRequest)}
}

func (r *fakeReturnRepo) Create(_ context.Context, req *repository.ReturnRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[req.ReturnID]; ok {
		return fmt.Errorf("%w: return id %s already exists", lifecycle.ErrConflict, req.ReturnID)
	}
	cp := *req
	r.requests[req.ReturnID] = &cp
	return nil
}

func (r *fakeReturnRepo) GetByReturnID(_ context.Context, returnID string) (*repository.ReturnRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[returnID]
	if !ok {
		return nil, fmt.Errorf("%w: return request %s", lifecycle.ErrNotFound, returnID)
	}
	cp := *req
	return &cp, nil
}

func (r *fakeReturnRepo) GetPaginated(_ context.Context, page, limit int) ([]*repository.ReturnRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*repository.ReturnRequest
	for _, req := range r.requests {
		cp := *req
		result = append(result, &cp)
	}
	return result, nil
}

func (r *fakeReturnRepo) UpdateStatus(_ context.Context, returnID, from, to string, adminNotes *string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[returnID]
	if !ok || req.Status != from {
		return false, nil
	}
	req.Status = to
	if adminNotes != nil {
		req.AdminNotes = adminNotes
	}
	req.UpdatedAt = now
	return true, nil
}

type fakeTailorRepo struct {
	mu      sync.Mutex
	tailors map[string]*repository.Tailor
}

func newFakeTailorRepo() *fakeTailorRepo {
	return &fakeTailorRepo{tailors: make(map[string]*repository.Tailor)}
}

func (r *fakeTailorRepo) Create(_ context.Context, tailor *repository.Tailor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tailors {
		if existing.Email == tailor.Email {
			return fmt.Errorf("%w: email %s already registered", lifecycle.ErrConflict, tailor.Email)
		}
	}
	cp := *tailor
	r.tailors[tailor.ID] = &cp
	return nil
}

func (r *fakeTailorRepo) GetByID(_ context.Context, id string) (*repository.Tailor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tailor, ok := r.tailors[id]
	if !ok {
		return nil, fmt.Errorf("%w: tailor %s", lifecycle.ErrNotFound, id)
	}
	cp := *tailor
	return &cp, nil
}

func (r *fakeTailorRepo) Review(_ context.Context, id, decision string, approvedAt *time.Time, approvedBy *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tailor, ok := r.tailors[id]
	if !ok || tailor.Status != "pending" {
		return false, nil
	}
	tailor.Status = decision
	tailor.ApprovedAt = approvedAt
	tailor.ApprovedBy = approvedBy
	return true, nil
}

// eventRecorder collects every event the bus fans out, for asserting on
// publish order and payloads.
type eventRecorder struct {
	mu     sync.Mutex
	events []lifecycle.StatusChangeEvent
}

func (r *eventRecorder) handle(_ context.Context, ev lifecycle.StatusChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *eventRecorder) all() []lifecycle.StatusChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]lifecycle.StatusChangeEvent, len(r.events))
	copy(out, r.events)
	return out
}
