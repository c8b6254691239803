package interfaces

import (
	"context"

	"fx-bridge-bot/internal/types"
)

// Router is one polling step of a ticket-emitting stage. Both the signal
// router and the decision executor satisfy it.
type Router interface {
	Step(ctx context.Context) (*types.RouteResult, error)
}
