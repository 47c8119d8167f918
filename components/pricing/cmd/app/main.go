// Command app runs the pricing component.
package main

import (
	"context"
	"log"

	"github.com/productcatalog/platform/components/pricing/internal/bootstrap"
)

func main() {
	ctx := context.Background()

	svc, err := bootstrap.Init(ctx)
	if err != nil {
		log.Fatalf("pricing: failed to initialize: %v", err)
	}

	go svc.Dispatcher.Run(ctx)
	go svc.SagaWorker.Run(ctx)

	if err := svc.Server.Run(); err != nil {
		log.Fatalf("pricing: server exited with error: %v", err)
	}
}
