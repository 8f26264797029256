package main

import (
	"context"

	"wagerbank/cmd"
	"wagerbank/config"

	"github.com/aws/aws-lambda-go/lambda"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cmd.SetupLogging(cfg)

	// Built once per execution environment and reused across invocations
	app, err := cmd.NewApp(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	h := &handler{bank: app.Bank}
	lambda.Start(func(ctx context.Context, req Request) (Response, error) {
		resp, err := h.Handle(ctx, req)
		// The environment may freeze between invocations; let audit handlers finish first
		app.EventBus.Wait()
		return resp, err
	})
}
