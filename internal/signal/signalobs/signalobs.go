package signalobs

import (
	"context"
	"time"

	"fx-bridge-bot/internal/interfaces"
	"fx-bridge-bot/internal/logger"
	"fx-bridge-bot/internal/trace"
	"fx-bridge-bot/internal/types"
)

type observableEvaluator struct {
	evaluator interfaces.Evaluator
}

var _ interfaces.Evaluator = (*observableEvaluator)(nil)

func Wrap(ev interfaces.Evaluator) interfaces.Evaluator {
	return &observableEvaluator{
		evaluator: ev,
	}
}

func (oe *observableEvaluator) Step(ctx context.Context) (*types.Signal, error) {
	ctx, span := trace.StartSpan(ctx, "signal.Step")
	defer span.End()

	start := time.Now()

	sig, err := oe.evaluator.Step(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Signal cycle failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}
	if sig == nil {
		return nil, nil
	}

	logger.InfoSkip(ctx, 1, "Signal cycle completed",
		"timestamp", sig.Timestamp,
		"action", sig.Action,
		"reasons", sig.Reasons,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return sig, nil
}
