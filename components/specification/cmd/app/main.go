// Command app runs the specification component.
package main

import (
	"context"
	"log"

	"github.com/productcatalog/platform/components/specification/internal/bootstrap"
)

func main() {
	ctx := context.Background()

	svc, err := bootstrap.Init(ctx)
	if err != nil {
		log.Fatalf("specification: failed to initialize: %v", err)
	}

	go svc.Dispatcher.Run(ctx)

	go func() {
		if err := svc.CacheConsumer.Run(ctx); err != nil {
			svc.Logger.Errorf("specification: characteristic cache consumer exited: %v", err)
		}
	}()

	go svc.SagaWorker.Run(ctx)

	if err := svc.Server.Run(); err != nil {
		log.Fatalf("specification: server exited with error: %v", err)
	}
}
