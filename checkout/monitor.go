package checkout

import (
	"context"

	"github.com/rs/zerolog"
)

// Monitor receives a record for every reconciliation that was absorbed after
// signature verification succeeded. The webhook still acknowledges those
// deliveries, so this is the only place the failure is visible.
type Monitor interface {
	ReconcileFailed(ctx context.Context, sessionID, reason string)
}

type logMonitor struct {
	log zerolog.Logger
}

// NewLogMonitor emits failure records as structured log events; an external
// alerting pipeline is expected to watch for them.
func NewLogMonitor(log zerolog.Logger) Monitor {
	return &logMonitor{log: log}
}

func (m *logMonitor) ReconcileFailed(_ context.Context, sessionID, reason string) {
	m.log.Error().
		Str("event", "reconcile_failed").
		Str("session_id", sessionID).
		Str("reason", reason).
		Msg("checkout session could not be reconciled into an order")
}
