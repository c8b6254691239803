package routerobs

import (
	"context"
	"time"

	"fx-bridge-bot/internal/interfaces"
	"fx-bridge-bot/internal/logger"
	"fx-bridge-bot/internal/trace"
	"fx-bridge-bot/internal/types"
)

type observableRouter struct {
	router interfaces.Router
	stage  string
}

var _ interfaces.Router = (*observableRouter)(nil)

// Wrap instruments a ticket-emitting stage. The stage name appears in span
// names and log lines, so the router and the executor stay distinguishable.
func Wrap(r interfaces.Router, stage string) interfaces.Router {
	return &observableRouter{
		router: r,
		stage:  stage,
	}
}

func (or *observableRouter) Step(ctx context.Context) (*types.RouteResult, error) {
	ctx, span := trace.StartSpan(ctx, or.stage+".Step")
	defer span.End()

	start := time.Now()

	res, err := or.router.Step(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Routing cycle failed", err,
			"stage", or.stage,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	if res.Outcome != types.OutcomeIdle {
		args := []any{
			"stage", or.stage,
			"outcome", res.Outcome,
			"signal_ts", res.SignalTS,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if res.Reason != "" {
			args = append(args, "reason", res.Reason)
		}
		if res.Ticket != nil {
			args = append(args, "ticket_id", res.Ticket.ID)
		}
		logger.InfoSkip(ctx, 1, "Routing cycle completed", args...)
	}
	return res, nil
}
