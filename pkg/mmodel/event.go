package mmodel

import (
	"encoding/json"
	"time"
)

// Event type constants consumed by the projector and the validation cache.
const (
	EventCharacteristicCreated = "CharacteristicCreated"
	EventCharacteristicUpdated = "CharacteristicUpdated"
	EventCharacteristicDeleted = "CharacteristicDeleted"
	EventSpecificationCreated  = "SpecificationCreated"
	EventSpecificationUpdated  = "SpecificationUpdated"
	EventSpecificationDeleted  = "SpecificationDeleted"
	EventPriceCreated          = "PriceCreated"
	EventPriceUpdated          = "PriceUpdated"
	EventPriceDeleted          = "PriceDeleted"
	EventOfferingPublished     = "OfferingPublished"
	EventOfferingRetired       = "OfferingRetired"

	// EventOfferingPublishing and EventOfferingRevertedToDraft mark the
	// publication saga's intermediate lifecycle transitions. The
	// projector has no use for them, but they keep the outbox invariant
	// (exactly one record per mutation) intact for every lifecycle step,
	// not just the two that moved from spec.md.
	EventOfferingPublishing       = "OfferingPublishing"
	EventOfferingRevertedToDraft = "OfferingRevertedToDraft"
)

// DomainEvent is the message body every writer publishes through the
// outbox. event_id is the idempotency key consumers key their
// ProcessedEventLedger on; entity_version is monotonic per entity and lets
// a consumer discard a stale redelivery.
type DomainEvent struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	SchemaVersion int             `json:"schema_version"`
	EntityID      string          `json:"entity_id"`
	EntityVersion int64           `json:"entity_version"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// IsStale reports whether storedVersion has already observed or surpassed
// this event's entity_version, making it safe to discard.
func (e DomainEvent) IsStale(storedVersion int64) bool {
	return e.EntityVersion <= storedVersion
}
