package repository

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Order is a customer order row. The payment slip is embedded as nullable
// columns so the verified-slip / shipped-status cascade is one atomic row
// update. A slip exists iff SlipStatus is non-nil.
type Order struct {
	ID             string          `db:"id" json:"id"`
	OrderNumber    string          `db:"order_number" json:"order_number"`
	CustomerID     string          `db:"customer_id" json:"customer_id"`
	CustomerName   string          `db:"customer_name" json:"customer_name"`
	CustomerEmail  string          `db:"customer_email" json:"customer_email"`
	Items          json.RawMessage `db:"items" json:"items"`
	TotalAmount    int64           `db:"total_amount" json:"total_amount"`
	Status         string          `db:"status" json:"status"`
	SlipImage      *string         `db:"slip_image" json:"slip_image,omitempty"`
	SlipStatus     *string         `db:"slip_status" json:"slip_status,omitempty"`
	SlipUploadedAt *time.Time      `db:"slip_uploaded_at" json:"slip_uploaded_at,omitempty"`
	SlipVerifiedAt *time.Time      `db:"slip_verified_at" json:"slip_verified_at,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

type TailoringOrder struct {
	ID            string          `db:"id" json:"id"`
	OrderNumber   string          `db:"order_number" json:"order_number"`
	CustomerName  string          `db:"customer_name" json:"customer_name"`
	CustomerPhone string          `db:"customer_phone" json:"customer_phone"`
	CustomerEmail string          `db:"customer_email" json:"customer_email"`
	Specification json.RawMessage `db:"specification" json:"specification"`
	TailorID      *string         `db:"tailor_id" json:"tailor_id,omitempty"`
	Status        string          `db:"status" json:"status"`
	Comments      json.RawMessage `db:"comments" json:"comments"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

type ReturnRequest struct {
	ID            string    `db:"id" json:"id"`
	ReturnID      string    `db:"return_id" json:"return_id"`
	OrderID       string    `db:"order_id" json:"order_id"`
	ProductID     string    `db:"product_id" json:"product_id"`
	Type          string    `db:"type" json:"type"`
	Reason        string    `db:"reason" json:"reason"`
	Description   string    `db:"description" json:"description"`
	CustomerName  string    `db:"customer_name" json:"customer_name"`
	CustomerEmail string    `db:"customer_email" json:"customer_email"`
	CustomerPhone string    `db:"customer_phone" json:"customer_phone"`
	Status        string    `db:"status" json:"status"`
	AdminNotes    *string   `db:"admin_notes" json:"admin_notes,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

type Tailor struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	Phone        string     `db:"phone" json:"phone"`
	ShopName     string     `db:"shop_name" json:"shop_name"`
	ShopAddress  string     `db:"shop_address" json:"shop_address"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Status       string     `db:"status" json:"status"`
	ApprovedAt   *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	ApprovedBy   *string    `db:"approved_by" json:"approved_by,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Notification is an append-only record written exclusively by the
// notification store; lifecycle managers never touch this table.
type Notification struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Type      string    `db:"type" json:"type"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	OrderRef  *string   `db:"order_ref" json:"order_ref,omitempty"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type TaskStatus string

const (
	TaskStatusCreated    TaskStatus = "CREATED"
	TaskStatusProcessing TaskStatus = "PROCESSING"
	TaskStatusFailed     TaskStatus = "FAILED"
	TaskStatusDone       TaskStatus = "DONE"
)

type OutboxTask struct {
	ID          uuid.UUID       `db:"id"`
	Status      TaskStatus      `db:"status"`
	Payload     json.RawMessage `db:"payload"`
	Topic       string          `db:"topic"`
	Attempts    int             `db:"attempts"`
	LastError   *string         `db:"last_error"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
	CompletedAt *time.Time      `db:"completed_at"`
}

// AuditLogPayload is the exported shape of one audited boundary mutation.
type AuditLogPayload struct {
	Timestamp  time.Time `json:"timestamp"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	StatusCode int       `json:"status_code"`
	EntityType string    `json:"entity_type,omitempty"`
	EntityID   string    `json:"entity_id,omitempty"`
	Request    string    `json:"request,omitempty"`
	Response   string    `json:"response,omitempty"`
}
