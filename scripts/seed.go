package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"tangle/internal/graph"
	"tangle/internal/services"
	"tangle/internal/store"
	"tangle/internal/urn"
	"tangle/pkg/config"
	"tangle/pkg/logger"
)

func main() {
	userID := flag.String("user-id", "demo", "Account id to seed data for")
	flag.Parse()

	// Initialize logger
	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting database seeding...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	// Verify connection
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	log.Info("Creating constraints...")
	if err := createConstraints(ctx, driver); err != nil {
		log.Warn("Failed to create some constraints (may already exist)", zap.Error(err))
	}

	repo := graph.NewRepository(store.New(driver))
	captureService := services.NewCaptureService(repo)

	owner := urn.NewUser(*userID)
	if _, err := repo.UpsertUser(ctx, owner, "Demo User", "demo@example.com"); err != nil {
		log.Fatal("Failed to seed user", zap.Error(err))
	}

	session, err := repo.CreateSession(ctx, owner, "Getting started")
	if err != nil {
		log.Fatal("Failed to seed session", zap.Error(err))
	}
	sessionURN, _ := urn.Parse(session.ID)

	seeds := []struct {
		text   string
		parent urn.URN
	}{
		{"Welcome to your knowledge graph #start", sessionURN},
		{"Capture anything and tag it like #ideas or #reading", sessionURN},
		{"Linked thoughts surface together https://neo4j.com #graphs", urn.URN{}},
	}
	for _, s := range seeds {
		if _, err := captureService.Create(ctx, owner, s.text, "<p>"+s.text+"</p>", s.parent); err != nil {
			log.Fatal("Failed to seed capture", zap.Error(err))
		}
	}

	log.Info("Seeding complete",
		zap.String("user", owner.Raw()),
		zap.String("session", session.ID),
		zap.Int("captures", len(seeds)),
	)
}

// createConstraints installs the store-level uniqueness guards: node ids
// are globally unique, and at most one Tag node exists per (owner, name).
func createConstraints(ctx context.Context, driver neo4j.DriverWithContext) error {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT user_id IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE",
		"CREATE CONSTRAINT capture_id IF NOT EXISTS FOR (c:Capture) REQUIRE c.id IS UNIQUE",
		"CREATE CONSTRAINT session_id IF NOT EXISTS FOR (s:Session) REQUIRE s.id IS UNIQUE",
		"CREATE CONSTRAINT tag_id IF NOT EXISTS FOR (t:Tag) REQUIRE t.id IS UNIQUE",
		"CREATE CONSTRAINT note_id IF NOT EXISTS FOR (n:EvernoteNote) REQUIRE n.id IS UNIQUE",
		"CREATE CONSTRAINT tag_owner_name IF NOT EXISTS FOR (t:Tag) REQUIRE (t.owner, t.name) IS UNIQUE",
	}
	for _, constraint := range constraints {
		if _, err := session.Run(ctx, constraint, nil); err != nil {
			return err
		}
	}
	return nil
}
