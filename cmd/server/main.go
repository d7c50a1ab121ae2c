package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/docutrack/internal/server"
	"github.com/dmitrijs2005/docutrack/internal/server/config"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

}
