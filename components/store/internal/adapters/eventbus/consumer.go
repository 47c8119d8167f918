// Package eventbus subscribes the projector to every writer's event
// stream, mirroring the original system's EventConsumerService topic
// table: one queue per upstream entity type, all feeding the same
// idempotent apply path.
package eventbus

import (
	"context"
	"sync"

	"github.com/productcatalog/platform/pkg/eventbus"
	"github.com/productcatalog/platform/pkg/mlog"

	"github.com/productcatalog/platform/components/store/internal/services"
)

// Topic is a single routing key the projector subscribes to, paired with
// the durable queue name it binds.
type Topic struct {
	Queue      string
	RoutingKey string
}

// DefaultTopics mirrors the original consumers.py subscription list.
var DefaultTopics = []Topic{
	{Queue: "store.characteristic.events", RoutingKey: "characteristic.events"},
	{Queue: "store.specification.events", RoutingKey: "specification.events"},
	{Queue: "store.pricing.events", RoutingKey: "pricing.events"},
	{Queue: "store.offering.events", RoutingKey: "offering.events"},
}

// Consumer fans a set of topics into the projector's use case.
type Consumer struct {
	Bus     *eventbus.Connection
	UseCase *services.UseCase
	Logger  mlog.Logger
	Topics  []Topic
}

// Run subscribes to every topic and blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	topics := c.Topics
	if topics == nil {
		topics = DefaultTopics
	}

	var wg sync.WaitGroup

	for _, topic := range topics {
		deliveries, err := c.Bus.Consume(ctx, topic.Queue, topic.RoutingKey)
		if err != nil {
			return err
		}

		wg.Add(1)

		go func(topic Topic, deliveries <-chan eventbus.Delivery) {
			defer wg.Done()

			for d := range deliveries {
				c.handle(topic, d)
			}
		}(topic, deliveries)
	}

	wg.Wait()

	return nil
}

func (c *Consumer) handle(topic Topic, d eventbus.Delivery) {
	if err := c.UseCase.HandleEvent(d.Ctx, d.Event); err != nil {
		c.Logger.Errorf("store: failed to apply event %s from %s: %v", d.Event.EventID, topic.RoutingKey, err)

		if nackErr := d.Nack(); nackErr != nil {
			c.Logger.Errorf("store: failed to nack delivery on %s: %v", topic.RoutingKey, nackErr)
		}

		return
	}

	if err := d.Ack(); err != nil {
		c.Logger.Errorf("store: failed to ack delivery on %s: %v", topic.RoutingKey, err)
	}
}
