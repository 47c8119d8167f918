// Command app runs the edge gateway component.
package main

import (
	"context"
	"log"

	"github.com/productcatalog/platform/components/gateway/internal/bootstrap"
)

func main() {
	ctx := context.Background()

	svc, err := bootstrap.Init(ctx)
	if err != nil {
		log.Fatalf("gateway: failed to initialize: %v", err)
	}

	if err := svc.Server.Run(); err != nil {
		log.Fatalf("gateway: server exited with error: %v", err)
	}
}
