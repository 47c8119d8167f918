// Package sagaworker implements the specification component's side of
// the publication saga: confirming every specification referenced by an
// offering still exists before the saga proceeds to store-entry creation.
package sagaworker

import (
	"context"
	"fmt"

	"github.com/productcatalog/platform/components/specification/internal/services"
	"github.com/productcatalog/platform/pkg/saga/publication"
	"github.com/productcatalog/platform/pkg/sagaworker"
)

const errCodeSpecificationsInvalid = "SPECIFICATIONS_INVALID"

// ValidateSpecifications builds the validate-specifications topic
// handler. It rejects the saga with a BpmnError (routing to the
// unlock-prices compensation) when any specificationId no longer exists,
// rather than failing the task technically.
func ValidateSpecifications(useCase *services.UseCase) sagaworker.Handler {
	return func(ctx context.Context, variables map[string]any, task sagaworker.Task) (map[string]any, error) {
		raw, _ := variables["specificationIds"].([]any)

		ids := make([]string, 0, len(raw))
		for _, v := range raw {
			if s, ok := v.(string); ok {
				ids = append(ids, s)
			}
		}

		var missing []string

		for _, id := range ids {
			if _, err := useCase.Get(ctx, id); err != nil {
				missing = append(missing, id)
			}
		}

		if len(missing) > 0 {
			return nil, sagaworker.BpmnError{
				Code:    errCodeSpecificationsInvalid,
				Message: fmt.Sprintf("specifications no longer exist: %v", missing),
			}
		}

		return map[string]any{}, nil
	}
}

// Topic is the external task topic this handler subscribes to.
const Topic = publication.TopicValidateSpecifications
