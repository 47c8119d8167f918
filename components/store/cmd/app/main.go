// Command app runs the store component.
package main

import (
	"context"
	"log"

	"github.com/productcatalog/platform/components/store/internal/bootstrap"
)

func main() {
	ctx := context.Background()

	svc, err := bootstrap.Init(ctx)
	if err != nil {
		log.Fatalf("store: failed to initialize: %v", err)
	}

	go func() {
		if err := svc.Consumer.Run(ctx); err != nil {
			svc.Logger.Errorf("store: event consumer exited with error: %v", err)
		}
	}()

	go svc.SagaWorker.Run(ctx)

	if err := svc.Server.Run(); err != nil {
		log.Fatalf("store: server exited with error: %v", err)
	}
}
