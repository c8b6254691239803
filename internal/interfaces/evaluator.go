package interfaces

import (
	"context"

	"fx-bridge-bot/internal/types"
)

// Evaluator is one polling step of the signal generation stage. A nil signal
// with a nil error means the cycle was idle.
type Evaluator interface {
	Step(ctx context.Context) (*types.Signal, error)
}
