// Package sagaworker implements the store component's own saga topic
// handler: composing and upserting the read model as the
// create-store-entry forward step, grounded on the original system's
// handle_create_store_entry.
package sagaworker

import (
	"context"
	"fmt"

	"github.com/productcatalog/platform/pkg/saga/publication"
	"github.com/productcatalog/platform/pkg/sagaworker"

	"github.com/productcatalog/platform/components/store/internal/services"
)

// Topic is the external task topic this handler subscribes to.
const Topic = publication.TopicCreateStoreEntry

func offeringID(variables map[string]any) (string, error) {
	id, ok := variables["offeringId"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("sagaworker: missing offeringId variable")
	}

	return id, nil
}

// CreateStoreEntry composes offeringID's denormalized document and
// upserts it into the read model. A composition failure (an upstream
// that never returned the entity, or every breaker open) is reported as
// CREATE_STORE_FAILED so the saga compensates by unlocking prices and
// reverting the offering to DRAFT rather than retrying indefinitely.
func CreateStoreEntry(useCase *services.UseCase) sagaworker.Handler {
	return func(ctx context.Context, variables map[string]any, task sagaworker.Task) (map[string]any, error) {
		id, err := offeringID(variables)
		if err != nil {
			return nil, err
		}

		if err := useCase.Sync(ctx, id); err != nil {
			return nil, sagaworker.BpmnError{
				Code:    "CREATE_STORE_FAILED",
				Message: fmt.Sprintf("failed to create store entry for offering %s: %v", id, err),
			}
		}

		return map[string]any{}, nil
	}
}
