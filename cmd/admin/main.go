package main

import (
	"bufio"
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/docutrack/internal/admincli"
	"github.com/dmitrijs2005/docutrack/internal/logging"
	"github.com/dmitrijs2005/docutrack/internal/server/config"
	"github.com/dmitrijs2005/docutrack/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/docutrack/internal/server/services"
)

func main() {

	ctx := context.Background()

	opts, err := admincli.ParseFlags(os.Args[1:], os.Getenv("DATABASE_URL"), os.Stderr)
	if err != nil {
		log.Fatalf("%v", err)
	}

	db, err := repomanager.Open(ctx, opts.DSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migrations error: %v", err)
	}

	cfg := &config.Config{}
	cfg.LoadDefaults()
	svc := services.NewUserService(db, rm, cfg, nil, logging.New(cfg.Env))

	err = admincli.Run(ctx, svc, opts, admincli.Prompter{
		In:      bufio.NewReader(os.Stdin),
		Out:     os.Stdout,
		StdinFd: int(os.Stdin.Fd()),
	})
	if err != nil {
		log.Fatalf("%v", err)
	}
}
