// Command app runs the characteristic component.
package main

import (
	"context"
	"log"

	"github.com/productcatalog/platform/components/characteristic/internal/bootstrap"
)

func main() {
	ctx := context.Background()

	svc, err := bootstrap.Init(ctx)
	if err != nil {
		log.Fatalf("characteristic: failed to initialize: %v", err)
	}

	go svc.Dispatcher.Run(ctx)

	if err := svc.Server.Run(); err != nil {
		log.Fatalf("characteristic: server exited with error: %v", err)
	}
}
