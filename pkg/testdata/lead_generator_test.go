package testdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/leadgridhq/leadgrid/pkg/models"
)

func TestGenerateLeads(t *testing.T) {
	owner := bson.NewObjectID()
	cfg := DefaultConfig(50)
	cfg.Seed = 42

	leads := GenerateLeads(owner, cfg)
	require.Len(t, leads, 50)

	seen := map[string]bool{}
	for _, l := range leads {
		assert.Equal(t, owner, l.CreatedBy)
		assert.False(t, seen[l.Email], "emails must be unique per owner")
		seen[l.Email] = true
		assert.Contains(t, models.LeadSources, l.Source)
		assert.Contains(t, models.LeadStatuses, l.Status)
		assert.GreaterOrEqual(t, l.Score, 0)
		assert.LessOrEqual(t, l.Score, 100)
		assert.GreaterOrEqual(t, l.LeadValue, 0.0)
	}
}

func TestGenerateLeadsDeterministicWithSeed(t *testing.T) {
	owner := bson.NewObjectID()
	cfg := DefaultConfig(5)
	cfg.Seed = 7

	first := GenerateLeads(owner, cfg)
	second := GenerateLeads(owner, cfg)
	require.Len(t, second, 5)
	for i := range first {
		assert.Equal(t, first[i].Email, second[i].Email)
		assert.Equal(t, first[i].Score, second[i].Score)
	}
}
