// Package sagaworker implements the pricing component's side of the
// publication saga: locking every referenced price before the rest of
// the saga proceeds, and releasing the lock on compensation.
package sagaworker

import (
	"context"

	"github.com/productcatalog/platform/components/pricing/internal/services"
	"github.com/productcatalog/platform/pkg/saga/publication"
	"github.com/productcatalog/platform/pkg/sagaworker"
)

const errCodePriceLocked = "PRICE_LOCKED"

func pricingIDs(variables map[string]any) []string {
	raw, _ := variables["pricingIds"].([]any)

	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}

	return ids
}

// LockPrices builds the lock-prices topic handler. It returns a BpmnError
// routing to revert-offering-to-draft when any price is already held by a
// different saga instance.
func LockPrices(useCase *services.UseCase) sagaworker.Handler {
	return func(ctx context.Context, variables map[string]any, task sagaworker.Task) (map[string]any, error) {
		if err := useCase.Lock(ctx, pricingIDs(variables), task.ProcessInstanceID); err != nil {
			return nil, sagaworker.BpmnError{Code: errCodePriceLocked, Message: err.Error()}
		}

		return map[string]any{}, nil
	}
}

// UnlockPrices builds the unlock-prices compensation topic handler.
// Unlock is best-effort by construction (services.UseCase.Unlock never
// fails), so this handler always completes the task successfully.
func UnlockPrices(useCase *services.UseCase) sagaworker.Handler {
	return func(ctx context.Context, variables map[string]any, task sagaworker.Task) (map[string]any, error) {
		_ = useCase.Unlock(ctx, pricingIDs(variables), task.ProcessInstanceID)

		return map[string]any{}, nil
	}
}

// TopicLock and TopicUnlock are the external task topics these handlers
// subscribe to.
const (
	TopicLock   = publication.TopicLockPrices
	TopicUnlock = publication.TopicUnlockPrices
)
