// Command app runs the offering component.
package main

import (
	"context"
	"log"

	"github.com/productcatalog/platform/components/offering/internal/bootstrap"
)

func main() {
	ctx := context.Background()

	svc, err := bootstrap.Init(ctx)
	if err != nil {
		log.Fatalf("offering: failed to initialize: %v", err)
	}

	go svc.Dispatcher.Run(ctx)
	go svc.SagaWorker.Run(ctx)

	if err := svc.Server.Run(); err != nil {
		log.Fatalf("offering: server exited with error: %v", err)
	}
}
