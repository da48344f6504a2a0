package lifecycle

import "time"

type EntityKind string

const (
	KindOrder     EntityKind = "order"
	KindTailoring EntityKind = "tailoring_order"
	KindReturn    EntityKind = "return_request"
	KindTailor    EntityKind = "tailor"
)

// Event names carried to the notification store and the realtime channel.
const (
	EventStatusChanged          = "status-changed"
	EventSlipUploaded           = "slip-uploaded"
	EventSlipStatusChanged      = "slip-status-changed"
	EventTailoringStatusChanged = "tailoring-status-changed"
	EventReturnStatusChanged    = "return-status-changed"
	EventTailorStatusChanged    = "tailor-status-changed"
)

// StatusChangeEvent is a transient value object describing one committed
// state transition. It is never persisted as its own collection; the
// notification store derives a durable record from it.
type StatusChangeEvent struct {
	Name        string     `json:"event"`
	Kind        EntityKind `json:"entity_kind"`
	EntityID    string     `json:"entity_id"`
	Display     string     `json:"display_id"`
	RecipientID string     `json:"recipient_id"`
	Previous    Status     `json:"previous_status"`
	Next        Status     `json:"new_status"`
	Actor       string     `json:"actor,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
}
