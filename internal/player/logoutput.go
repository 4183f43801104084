package player

import (
	"context"
	"log/slog"
)

// LogOutput is an output transport that only logs dispatched actions. The
// daemon uses it for configured output types that have no real transport
// wired.
type LogOutput struct {
	typ string
}

// NewLogOutput creates a logging output of the given type.
func NewLogOutput(typ string) *LogOutput {
	return &LogOutput{typ: typ}
}

func (o *LogOutput) Type() string { return o.typ }

func (o *LogOutput) Dispatch(ctx context.Context, action string, payload any) error {
	slog.Debug("output", "type", o.typ, "action", action, "payload", payload)
	return nil
}

var _ Output = (*LogOutput)(nil)
