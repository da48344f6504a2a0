package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fashionbreeze/lifecycle/internal/lifecycle"
	"github.com/fashionbreeze/lifecycle/internal/metrics"
)

// conditionalWrite persists one transition attempt keyed on the expected
// current status and reports whether the filter matched any row.
type conditionalWrite func(ctx context.Context, from, to lifecycle.Status, now time.Time) (bool, error)

// transition describes one requested status change against one entity.
type transition struct {
	kind      lifecycle.EntityKind
	event     string
	graph     lifecycle.Graph
	entityID  string
	display   string
	recipient string
	actor     string
	current   lifecycle.Status
	requested string
	write     conditionalWrite
}

// transitioner is the single transition executor shared by all four
// lifecycle managers: validate the requested status against the entity's
// graph, perform the conditional write, then publish the change. The event
// publish happens strictly after the write has committed; its outcome never
// affects the caller's result.
type transitioner struct {
	bus    *lifecycle.Bus
	logger *zap.Logger
}

func newTransitioner(bus *lifecycle.Bus, logger *zap.Logger) *transitioner {
	return &transitioner{bus: bus, logger: logger}
}

func (t *transitioner) execute(ctx context.Context, tr transition) (lifecycle.Status, error) {
	next, err := tr.graph.Validate(tr.requested)
	if err != nil {
		return "", err
	}

	if !tr.graph.CanStep(tr.current, next) {
		metrics.TransitionConflictsTotal.WithLabelValues(string(tr.kind)).Inc()
		return "", fmt.Errorf("%w: %s %s cannot move from %s to %s",
			lifecycle.ErrConflict, tr.kind, tr.display, tr.current, next)
	}

	now := time.Now().UTC()
	matched, err := tr.write(ctx, tr.current, next, now)
	if err != nil {
		return "", fmt.Errorf("transition write for %s %s: %w", tr.kind, tr.entityID, err)
	}
	if !matched {
		metrics.TransitionConflictsTotal.WithLabelValues(string(tr.kind)).Inc()
		return "", fmt.Errorf("%w: %s %s is no longer in status %s",
			lifecycle.ErrConflict, tr.kind, tr.display, tr.current)
	}

	metrics.StatusTransitionsTotal.WithLabelValues(string(tr.kind)).Inc()
	t.logger.Info("status transition committed",
		zap.String("entity", string(tr.kind)),
		zap.String("id", tr.entityID),
		zap.String("display", tr.display),
		zap.String("from", string(tr.current)),
		zap.String("to", string(next)))

	t.bus.Publish(ctx, lifecycle.StatusChangeEvent{
		Name:        tr.event,
		Kind:        tr.kind,
		EntityID:    tr.entityID,
		Display:     tr.display,
		RecipientID: tr.recipient,
		Previous:    tr.current,
		Next:        next,
		Actor:       tr.actor,
		OccurredAt:  now,
	})

	return next, nil
}
