package main

import (
	"context"
	"fmt"
	"log"

	"github.com/oggyb/presence-gateway/internal/auth"
	"github.com/oggyb/presence-gateway/internal/config"
	"github.com/oggyb/presence-gateway/internal/db"
)

func main() {
	// Load configuration
	cfg := config.New()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}

	users, err := db.SeedTestData(database)
	if err != nil {
		log.Fatalf("failed to seed: %v", err)
	}

	// print one access token per user for gateway / grpc testing
	verifier := auth.NewVerifier(database)
	for _, u := range users {
		token, err := verifier.Issue(context.Background(), u.ID, auth.DefaultTokenTTL)
		if err != nil {
			log.Fatalf("failed to issue token for %s: %v", u.Username, err)
		}
		fmt.Printf("%s\t%s\t%s\n", u.ID, u.Username, token)
	}

	log.Println("Seeding completed.")
}
