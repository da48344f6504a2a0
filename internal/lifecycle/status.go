package lifecycle

import "fmt"

type Status string

// Order statuses.
const (
	OrderPending   Status = "pending"
	OrderConfirmed Status = "confirmed"
	OrderShipped   Status = "shipped"
	OrderDelivered Status = "delivered"
	OrderCancelled Status = "cancelled"
)

// Payment slip statuses.
const (
	SlipPending  Status = "pending"
	SlipVerified Status = "verified"
	SlipRejected Status = "rejected"
)

// Tailoring order statuses.
const (
	TailoringPending    Status = "pending"
	TailoringApproved   Status = "approved"
	TailoringInProgress Status = "in_progress"
	TailoringCompleted  Status = "completed"
	TailoringDelivered  Status = "delivered"
	TailoringCancelled  Status = "cancelled"
)

// Return request statuses.
const (
	ReturnPending  Status = "pending"
	ReturnApproved Status = "approved"
	ReturnRejected Status = "rejected"
	ReturnResolved Status = "resolved"
)

// Tailor onboarding statuses.
const (
	TailorPending  Status = "pending"
	TailorApproved Status = "approved"
	TailorRejected Status = "rejected"
)

// Graph is the directed set of permitted one-step transitions for one
// entity's status field. A status with no outgoing edges is terminal.
type Graph struct {
	edges map[Status][]Status
}

func NewGraph(edges map[Status][]Status) Graph {
	return Graph{edges: edges}
}

// Known reports whether s is a member of this graph's closed enumeration.
func (g Graph) Known(s Status) bool {
	if _, ok := g.edges[s]; ok {
		return true
	}
	for _, targets := range g.edges {
		for _, t := range targets {
			if t == s {
				return true
			}
		}
	}
	return false
}

// CanStep reports whether to is directly reachable from from.
func (g Graph) CanStep(from, to Status) bool {
	for _, t := range g.edges[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s permits no further transition.
func (g Graph) Terminal(s Status) bool {
	return len(g.edges[s]) == 0
}

// Validate checks a raw status string against the graph's enumeration before
// any persistence call is attempted.
func (g Graph) Validate(raw string) (Status, error) {
	s := Status(raw)
	if !g.Known(s) {
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, raw)
	}
	return s, nil
}

var (
	// OrderGraph: pending → confirmed → shipped → delivered, cancelled
	// reachable from any non-terminal state.
	OrderGraph = NewGraph(map[Status][]Status{
		OrderPending:   {OrderConfirmed, OrderCancelled},
		OrderConfirmed: {OrderShipped, OrderCancelled},
		OrderShipped:   {OrderDelivered, OrderCancelled},
		OrderDelivered: {},
		OrderCancelled: {},
	})

	// SlipGraph: pending → verified | rejected.
	SlipGraph = NewGraph(map[Status][]Status{
		SlipPending:  {SlipVerified, SlipRejected},
		SlipVerified: {},
		SlipRejected: {},
	})

	// TailoringGraph: pending → approved → in_progress → completed →
	// delivered, cancelled reachable until work is completed.
	TailoringGraph = NewGraph(map[Status][]Status{
		TailoringPending:    {TailoringApproved, TailoringCancelled},
		TailoringApproved:   {TailoringInProgress, TailoringCancelled},
		TailoringInProgress: {TailoringCompleted, TailoringCancelled},
		TailoringCompleted:  {TailoringDelivered},
		TailoringDelivered:  {},
		TailoringCancelled:  {},
	})

	// ReturnGraph: pending → approved → resolved, or pending → rejected.
	ReturnGraph = NewGraph(map[Status][]Status{
		ReturnPending:  {ReturnApproved, ReturnRejected},
		ReturnApproved: {ReturnResolved},
		ReturnRejected: {},
		ReturnResolved: {},
	})

	// TailorGraph: a binary gate, terminal either way.
	TailorGraph = NewGraph(map[Status][]Status{
		TailorPending:  {TailorApproved, TailorRejected},
		TailorApproved: {},
		TailorRejected: {},
	})
)
