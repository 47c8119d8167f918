// Package eventbus consumes the characteristic writer's event stream to
// keep the specification component's local validation cache current.
package eventbus

import (
	"context"
	"encoding/json"

	"github.com/productcatalog/platform/pkg/eventbus"
	"github.com/productcatalog/platform/pkg/mlog"
	"github.com/productcatalog/platform/pkg/mmodel"
)

const (
	queueName  = "specification.characteristic-cache"
	routingKey = "characteristic.events"
)

// CacheWriter is the subset of the validation cache repository the
// consumer needs.
type CacheWriter interface {
	Upsert(ctx context.Context, id string, entityVersion int64) error
	Remove(ctx context.Context, id string) error
}

// Consumer keeps CacheWriter in sync with CharacteristicCreated/Updated/
// Deleted events.
type Consumer struct {
	Bus    *eventbus.Connection
	Cache  CacheWriter
	Logger mlog.Logger
}

// Run subscribes to the characteristic event stream and applies every
// delivery until ctx is cancelled. Handler errors nack the delivery for
// redelivery rather than dropping the update silently.
func (c *Consumer) Run(ctx context.Context) error {
	deliveries, err := c.Bus.Consume(ctx, queueName, routingKey)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}

			c.handle(d)
		}
	}
}

func (c *Consumer) handle(d eventbus.Delivery) {
	var payload struct {
		ID string `json:"id"`
	}

	if err := json.Unmarshal(d.Event.Payload, &payload); err != nil {
		c.Logger.Errorf("specification: failed to decode characteristic event payload: %v", err)
		_ = d.Nack()

		return
	}

	var err error

	switch d.Event.EventType {
	case mmodel.EventCharacteristicCreated, mmodel.EventCharacteristicUpdated:
		err = c.Cache.Upsert(d.Ctx, payload.ID, d.Event.EntityVersion)
	case mmodel.EventCharacteristicDeleted:
		err = c.Cache.Remove(d.Ctx, payload.ID)
	}

	if err != nil {
		c.Logger.Errorf("specification: failed to apply characteristic event %s: %v", d.Event.EventID, err)
		_ = d.Nack()

		return
	}

	_ = d.Ack()
}
