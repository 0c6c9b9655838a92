// Seed script that stores a test credential for test.bitrix24.com in the
// configured credential store.
// Run with: go run ./scripts/seed.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Harshitk-cp/crmgate/internal/config"
	"github.com/Harshitk-cp/crmgate/internal/domain"
	"github.com/Harshitk-cp/crmgate/internal/store"
	"github.com/Harshitk-cp/crmgate/internal/store/mongodb"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	testDomain       = "test.bitrix24.com"
	testAccessToken  = "test_access_token_12345"
	testRefreshToken = "test_refresh_token_67890"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var creds domain.CredentialStore
	switch cfg.Store {
	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()
		if err := store.Migrate(pool); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		creds = store.NewCredentialStore(pool)
	case config.StoreMongo:
		s, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Fatalf("Failed to connect to mongodb: %v", err)
		}
		defer func() { _ = s.Close(context.Background()) }()
		creds = s
	default:
		fmt.Println("No DATABASE_URL or MONGODB_URI set; nothing to seed")
		os.Exit(1)
	}

	if err := creds.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping %s store: %v", cfg.Store, err)
	}
	fmt.Printf("Connected to %s store\n", cfg.Store)

	c, err := creds.UpsertActive(ctx, testDomain, testAccessToken, testRefreshToken, 3600)
	if err != nil {
		log.Fatalf("Failed to save test credential: %v", err)
	}

	fmt.Println("\n=== Test credential created ===")
	fmt.Printf("Domain:     %s\n", c.Domain)
	fmt.Printf("ID:         %s\n", c.ID)
	fmt.Printf("Status:     %s\n", c.Status)
	fmt.Printf("Expires at: %s\n", c.ExpiresAt.Format(time.RFC3339))
	fmt.Println("\nTry it:")
	fmt.Printf("  curl 'http://localhost%s/test/user?domain=%s'\n", cfg.Addr, testDomain)
}
