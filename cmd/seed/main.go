package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/leadgridhq/leadgrid/config"
	"github.com/leadgridhq/leadgrid/pkg/database"
	"github.com/leadgridhq/leadgrid/pkg/domain"
	"github.com/leadgridhq/leadgrid/pkg/models"
	"github.com/leadgridhq/leadgrid/pkg/testdata"
	"github.com/leadgridhq/leadgrid/pkg/users"
)

func main() {
	email := flag.String("email", "demo@leadgrid.dev", "Email of the account that will own the seeded leads (created if missing)")
	password := flag.String("password", "demo-password", "Password for the demo account when it has to be created")
	count := flag.Int("count", 500, "Number of leads to generate")
	seed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = time-based)")
	reset := flag.Bool("reset", false, "Delete the owner's existing leads before seeding")
	batchSize := flag.Int("batch-size", 100, "Number of leads to insert per batch")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.Load()

	db, err := database.NewClient(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	ctx := context.Background()
	defer db.Close(ctx)

	if err := db.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to ensure indexes: %v", err)
	}

	owner, err := demoAccount(ctx, db, *email, *password)
	if err != nil {
		log.Fatalf("Failed to prepare demo account: %v", err)
	}
	fmt.Printf("👤 Seeding as %s (%s)\n", owner.Email, owner.ID.Hex())

	if *reset {
		fmt.Println("⚠️  Deleting existing leads for this account...")
		res, err := db.Leads().DeleteMany(ctx, bson.M{"createdBy": owner.ID})
		if err != nil {
			log.Fatalf("Failed to reset leads: %v", err)
		}
		fmt.Printf("✅ Deleted %d existing leads\n", res.DeletedCount)
	}

	genCfg := testdata.DefaultConfig(*count)
	if *seed != 0 {
		genCfg.Seed = *seed
	}
	leads := testdata.GenerateLeads(owner.ID, genCfg)

	fmt.Printf("🌱 Seeding %d leads...\n", len(leads))
	start := time.Now()
	inserted := 0
	for begin := 0; begin < len(leads); begin += *batchSize {
		end := begin + *batchSize
		if end > len(leads) {
			end = len(leads)
		}
		batch := make([]any, 0, end-begin)
		for i := begin; i < end; i++ {
			batch = append(batch, leads[i])
		}
		res, err := db.Leads().InsertMany(ctx, batch, options.InsertMany().SetOrdered(false))
		if err != nil {
			// Duplicate emails from a previous run are skipped, not fatal.
			if !isDuplicateBatch(err) {
				log.Fatalf("Failed to insert batch: %v", err)
			}
		}
		if res != nil {
			inserted += len(res.InsertedIDs)
		}
	}

	duration := time.Since(start)
	fmt.Printf("✅ Inserted %d leads in %s (%.0f leads/sec)\n",
		inserted, duration.Round(time.Millisecond),
		float64(inserted)/duration.Seconds())

	total, err := db.Leads().CountDocuments(ctx, bson.M{"createdBy": owner.ID})
	if err == nil {
		fmt.Printf("📈 Account now holds %d leads\n", total)
	}
}

// demoAccount registers the seed owner, or reuses it when a previous run
// already created the account.
func demoAccount(ctx context.Context, db *database.Client, email, password string) (*models.User, error) {
	store := users.NewMongoStore(db)
	svc := users.NewService(store)

	user, err := svc.Register(ctx, &models.RegisterRequest{
		Email:     email,
		Password:  password,
		FirstName: "Demo",
		LastName:  "User",
	})
	if err == nil {
		fmt.Println("✅ Created demo account")
		return user, nil
	}

	if domain.IsConflict(err) {
		existing, findErr := store.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
		if findErr != nil {
			return nil, findErr
		}
		if existing == nil {
			return nil, fmt.Errorf("account %s exists but could not be loaded", email)
		}
		fmt.Println("ℹ️  Reusing existing demo account")
		return existing, nil
	}
	return nil, err
}

func isDuplicateBatch(err error) bool {
	var bulkErr mongo.BulkWriteException
	if errors.As(err, &bulkErr) {
		for _, we := range bulkErr.WriteErrors {
			if we.Code != 11000 {
				return false
			}
		}
		return len(bulkErr.WriteErrors) > 0
	}
	return false
}
