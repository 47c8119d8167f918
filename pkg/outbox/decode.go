package outbox

import (
	"encoding/json"

	"github.com/productcatalog/platform/pkg/mmodel"
)

func unmarshalEvent(payload []byte, event *mmodel.DomainEvent) error {
	return json.Unmarshal(payload, event)
}
