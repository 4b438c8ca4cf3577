package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/samirrijal/eatnear/internal/adapters/postgres"
	"github.com/samirrijal/eatnear/internal/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("eatnear-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	var applied []string
	switch os.Args[1] {
	case "up":
		applied, err = db.Migrate(ctx)
	case "down":
		applied, err = db.Rollback(ctx)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
	for _, f := range applied {
		fmt.Printf("OK  %s\n", f)
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
	log.Printf("%d migration(s) applied", len(applied))
}
