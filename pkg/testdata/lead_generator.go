package testdata

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/leadgridhq/leadgrid/pkg/models"
)

// GeneratorConfig controls generated lead distribution.
type GeneratorConfig struct {
	Count          int
	Seed           int64
	QualifiedRate  float64 // probability a lead is marked qualified
	ActivityChance float64 // probability a lead has a recent activity timestamp
}

// DefaultConfig generates a realistic demo data set.
func DefaultConfig(count int) GeneratorConfig {
	return GeneratorConfig{
		Count:          count,
		Seed:           time.Now().UnixNano(),
		QualifiedRate:  0.3,
		ActivityChance: 0.6,
	}
}

// GenerateLeads produces fake leads owned by the given user. Emails embed a
// running index so the per-owner uniqueness constraint never trips during
// seeding.
func GenerateLeads(owner bson.ObjectID, cfg GeneratorConfig) []models.Lead {
	faker := gofakeit.New(cfg.Seed)
	rng := rand.New(rand.NewSource(cfg.Seed))

	leads := make([]models.Lead, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		first := faker.FirstName()
		last := faker.LastName()
		email := fmt.Sprintf("%s.%s.%d@%s",
			strings.ToLower(first), strings.ToLower(last), i, faker.DomainName())

		created := time.Now().UTC().AddDate(0, 0, -rng.Intn(180))
		lead := models.Lead{
			FirstName:   first,
			LastName:    last,
			Email:       email,
			Phone:       fmt.Sprintf("+1%d", 2000000000+rng.Int63n(7999999999)),
			Company:     faker.Company(),
			City:        faker.City(),
			State:       faker.StateAbr(),
			Source:      models.LeadSources[rng.Intn(len(models.LeadSources))],
			Status:      models.LeadStatuses[rng.Intn(len(models.LeadStatuses))],
			Score:       rng.Intn(101),
			LeadValue:   float64(rng.Intn(100000)) / 10.0,
			IsQualified: rng.Float64() < cfg.QualifiedRate,
			CreatedBy:   owner,
			CreatedAt:   created,
			UpdatedAt:   created,
		}
		if rng.Float64() < cfg.ActivityChance {
			activity := created.AddDate(0, 0, rng.Intn(30))
			lead.LastActivityAt = &activity
		}
		leads = append(leads, lead)
	}
	return leads
}
