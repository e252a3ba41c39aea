// Command seed fills the database with demo data.
package main

import (
	"context"
	"flag"
	"log"

	"murmur/internal/config"
	"murmur/internal/database"
	"murmur/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.NumUsers, "Number of users to create")
	numPosts := flag.Int("posts", defaults.NumPosts, "Number of posts to create")
	follows := flag.Int("follows", defaults.FollowsPerUser, "Average number of accounts each user follows")
	maxDays := flag.Int("days", defaults.MaxDays, "Spread timestamps over this many days")
	shouldClean := flag.Bool("clean", defaults.ShouldClean, "Clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing it")
	randomSeed := flag.Int64("seed", 0, "Random seed for a reproducible run (0 uses the clock)")
	scenario := flag.String("scenario", "", "Apply a YAML scenario file instead of random data")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close() }()

	s := seed.NewSeeder(db, seed.Options{
		NumUsers:       *numUsers,
		NumPosts:       *numPosts,
		ShouldClean:    *shouldClean,
		FollowsPerUser: *follows,
		MaxDays:        *maxDays,
		BatchSize:      defaults.BatchSize,
		DryRun:         *dryRun,
		RandomSeed:     *randomSeed,
	})

	if *scenario != "" {
		log.Printf("Applying scenario: %s (ignoring size flags)", *scenario)
		sc, err := seed.LoadScenario(*scenario)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		if *shouldClean {
			if err := s.ClearAll(); err != nil {
				log.Fatalf("❌ Cleanup failed: %v", err)
			}
		}
		users, err := s.ApplyScenario(sc)
		if err != nil {
			log.Fatalf("❌ Scenario seeding failed: %v", err)
		}
		log.Printf("✨ Scenario applied: %d users", len(users))
		return
	}

	log.Printf("Target: %d users, %d posts, clean=%v", *numUsers, *numPosts, *shouldClean)
	stats, err := s.Seed()
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
	log.Printf("✨ All done! %s", stats)
	log.Println("🔑 Seed users sign in through the identity provider; use a scenario with external_id to pick known accounts.")
}
