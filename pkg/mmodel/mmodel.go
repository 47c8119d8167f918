// Package mmodel defines the domain types shared across writers, the
// projector, and the gateway: the catalog entities, the outbox wire
// format, and the event envelope every writer emits.
package mmodel

import (
	"time"

	"github.com/shopspring/decimal"
)

// LifecycleStatus is the publication state machine of an Offering.
type LifecycleStatus string

const (
	LifecycleDraft      LifecycleStatus = "DRAFT"
	LifecyclePublishing LifecycleStatus = "PUBLISHING"
	LifecyclePublished  LifecycleStatus = "PUBLISHED"
	LifecycleRetired    LifecycleStatus = "RETIRED"
)

// Characteristic is an atomic product attribute (e.g. "color", "voltage").
type Characteristic struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	Unit      string    `json:"unit,omitempty"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Specification is an ordered set of characteristic references.
type Specification struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	CharacteristicRefs  []string  `json:"characteristic_refs"`
	Version            int64     `json:"version"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Price carries a monetary value and an exclusive-lock flag used by the
// publication saga to prevent concurrent publications racing over it.
type Price struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Value      decimal.Decimal `json:"value"`
	Unit       string          `json:"unit"`
	Currency   string          `json:"currency"`
	Locked     bool            `json:"locked"`
	LockedBy   string          `json:"locked_by_saga,omitempty"`
	Version    int64           `json:"version"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Offering is the sellable aggregate referencing specifications and
// prices; it is the only entity with a lifecycle.
type Offering struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description,omitempty"`
	SpecificationRefs []string        `json:"specification_refs"`
	PriceRefs         []string        `json:"price_refs"`
	SalesChannels     []string        `json:"sales_channels"`
	LifecycleStatus   LifecycleStatus `json:"lifecycle_status"`
	Version           int64           `json:"version"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// CanUpdate reports whether the offering accepts field mutations or
// deletion; only DRAFT permits either.
func (o Offering) CanUpdate() bool { return o.LifecycleStatus == LifecycleDraft }

// CanPublish reports whether the publication preconditions are met:
// at least one specification, one price, and one sales channel.
func (o Offering) CanPublish() bool {
	return o.LifecycleStatus == LifecycleDraft &&
		len(o.SpecificationRefs) > 0 &&
		len(o.PriceRefs) > 0 &&
		len(o.SalesChannels) > 0
}

// DenormalizedCharacteristic is the read-model projection of a Characteristic
// embedded inside a DenormalizedSpecification.
type DenormalizedCharacteristic struct {
	ID    string `bson:"id" json:"id"`
	Name  string `bson:"name" json:"name"`
	Value string `bson:"value" json:"value"`
	Unit  string `bson:"unit,omitempty" json:"unit,omitempty"`
}

// DenormalizedSpecification is the read-model projection of a Specification.
type DenormalizedSpecification struct {
	ID              string                       `bson:"id" json:"id"`
	Name            string                       `bson:"name" json:"name"`
	Characteristics []DenormalizedCharacteristic `bson:"characteristics" json:"characteristics"`
}

// DenormalizedPrice is the read-model projection of a Price. Value is kept
// as a string to preserve the authoritative decimal scale; the search
// index converts it to a native double at index time only.
type DenormalizedPrice struct {
	ID       string `bson:"id" json:"id"`
	Name     string `bson:"name" json:"name"`
	Value    string `bson:"value" json:"value"`
	Currency string `bson:"currency" json:"currency"`
	Unit     string `bson:"unit" json:"unit"`
}

// DenormalizedOffering is the composed document the projector writes to
// the read-model store; it is never produced transactionally with any
// writer and is always rebuilt by recomposition.
type DenormalizedOffering struct {
	ID              string                       `bson:"_id" json:"id"`
	Name            string                       `bson:"name" json:"name"`
	Description     string                       `bson:"description,omitempty" json:"description,omitempty"`
	LifecycleStatus LifecycleStatus              `bson:"lifecycle_status" json:"lifecycle_status"`
	Channels        []string                     `bson:"channels" json:"channels"`
	Specifications  []DenormalizedSpecification  `bson:"specs" json:"specs"`
	Pricing         []DenormalizedPrice          `bson:"pricing" json:"pricing"`
	ComposedAt      time.Time                    `bson:"composed_at" json:"composed_at"`
}
