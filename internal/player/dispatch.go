package player

import (
	"context"
	"log/slog"
)

// DispatchOutputs sends an action to every output. Failures are logged and
// never propagate; output transports must not be able to corrupt zone state.
func DispatchOutputs(ctx context.Context, outputs []Output, action string, payload any) {
	for _, out := range outputs {
		if out == nil {
			continue
		}
		if err := out.Dispatch(ctx, action, payload); err != nil {
			slog.Warn("output dispatch failed", "type", out.Type(), "action", action, "err", err)
		}
	}
}
