// Command seed populates a development database with demo data.
package main

import (
	"context"
	"flag"
	"log"

	"chatapp/internal/config"
	"chatapp/internal/database"
	"chatapp/internal/middleware"
	"chatapp/internal/seed"
)

func main() {
	preset := flag.String("preset", "demo", "Seeder preset to apply")
	shouldClean := flag.Bool("clean", true, "Clean user data before seeding")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = time based)")
	list := flag.Bool("list", false, "List available presets and exit")
	flag.Parse()

	if *list {
		presets, err := seed.Presets()
		if err != nil {
			log.Fatalf("Failed to load presets: %v", err)
		}
		for _, p := range presets {
			log.Printf("%-10s %s (%d users, %d groups)", p.Name, p.Description, p.Users, p.Groups)
		}
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}
	middleware.InitLogger(middleware.LogOptions{Env: cfg.Env, Level: cfg.LogLevel})

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s, err := seed.NewSeeder(db, seed.Options{Seed: *randSeed})
	if err != nil {
		log.Fatalf("Failed to create seeder: %v", err)
	}

	ctx := context.Background()
	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	sum, err := s.ApplyPreset(ctx, *preset)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d friendships, %d pending requests, %d groups, %d messages, %d group messages",
		sum.Users, sum.Friendships, sum.PendingRequests, sum.Groups, sum.Messages, sum.GroupMessages)
	log.Printf("All seeded users have the password: %s", seed.Password)
}
