package observers

import (
	"context"

	"github.com/frameiq/agent-server/internal/agent/model"
)

// ProgressEmitter receives one StageEvent per pipeline stage transition, in
// execution order.
type ProgressEmitter func(model.StageEvent)

type progressKey struct{}

// WithProgress attaches an emitter to the context for the duration of a turn.
func WithProgress(ctx context.Context, emit ProgressEmitter) context.Context {
	return context.WithValue(ctx, progressKey{}, emit)
}

// EmitStage delivers a stage event to the turn's emitter, if any. Non-streaming
// turns carry no emitter and this is a no-op.
func EmitStage(ctx context.Context, ev model.StageEvent) {
	emit, ok := ctx.Value(progressKey{}).(ProgressEmitter)
	if !ok || emit == nil {
		return
	}
	emit(ev)
}
