// Package sagaworker implements the offering component's own saga topic
// handlers: completing the saga by confirming publication, and the
// compensation path that reverts an offering back to DRAFT.
package sagaworker

import (
	"context"
	"fmt"

	"github.com/productcatalog/platform/components/offering/internal/services"
	"github.com/productcatalog/platform/pkg/saga/publication"
	"github.com/productcatalog/platform/pkg/sagaworker"
)

func offeringID(variables map[string]any) (string, error) {
	id, ok := variables["offeringId"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("sagaworker: missing offeringId variable")
	}

	return id, nil
}

// ConfirmPublication builds the confirm-publication topic handler, the
// saga's final forward step.
func ConfirmPublication(useCase *services.UseCase) sagaworker.Handler {
	return func(ctx context.Context, variables map[string]any, task sagaworker.Task) (map[string]any, error) {
		id, err := offeringID(variables)
		if err != nil {
			return nil, err
		}

		if err := useCase.ConfirmPublication(ctx, id); err != nil {
			return nil, err
		}

		return map[string]any{}, nil
	}
}

// RevertToDraft builds the revert-offering-to-draft compensation topic
// handler.
func RevertToDraft(useCase *services.UseCase) sagaworker.Handler {
	return func(ctx context.Context, variables map[string]any, task sagaworker.Task) (map[string]any, error) {
		id, err := offeringID(variables)
		if err != nil {
			return nil, err
		}

		if err := useCase.RevertToDraft(ctx, id); err != nil {
			return nil, err
		}

		return map[string]any{}, nil
	}
}

// TopicConfirm and TopicRevert are the external task topics these
// handlers subscribe to.
const (
	TopicConfirm = publication.TopicConfirmPublication
	TopicRevert  = publication.TopicRevertOfferingToDraft
)
