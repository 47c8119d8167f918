// Command app runs the identity component.
package main

import (
	"context"
	"log"

	"github.com/productcatalog/platform/components/identity/internal/bootstrap"
)

func main() {
	ctx := context.Background()

	svc, err := bootstrap.Init(ctx)
	if err != nil {
		log.Fatalf("identity: failed to initialize: %v", err)
	}

	if err := svc.Server.Run(); err != nil {
		log.Fatalf("identity: server exited with error: %v", err)
	}
}
