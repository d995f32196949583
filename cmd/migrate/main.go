// Command migrate runs schema operations for the backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"chatapp/internal/config"
	"chatapp/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|down|status>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	migrator, err := database.NewMigrator(db, nil)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	ctx := context.Background()
	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		n, err := migrator.Up(ctx)
		if err != nil {
			return fmt.Errorf("sql migrations failed after %d applied: %w", n, err)
		}
		log.Printf("sql migrations applied: %d", n)
	case "down":
		rolled, err := migrator.Down(ctx)
		if err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		if !rolled {
			log.Println("nothing to roll back")
			return nil
		}
		log.Println("rolled back latest migration")
	case "status":
		status, err := migrator.Status(ctx)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		pending := 0
		for _, s := range status {
			state := "applied"
			if !s.Applied {
				state = "pending"
				pending++
			}
			log.Printf("%s: %s", state, s.Migration)
		}
		log.Printf("env=%s known=%d pending=%d", cfg.Env, len(status), pending)
	default:
		return usage()
	}

	return nil
}
