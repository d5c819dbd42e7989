package leads

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/leadgridhq/leadgrid/pkg/database"
	"github.com/leadgridhq/leadgrid/pkg/filters"
	"github.com/leadgridhq/leadgrid/pkg/models"
)

// ErrDuplicateEmail is reported when the store's unique (createdBy, email)
// index rejects a write. The index is the authority for the invariant; the
// service's pre-checks exist only for friendlier error messages.
var ErrDuplicateEmail = errors.New("lead email already exists for owner")

// PageOptions selects one slice of a result set.
type PageOptions struct {
	Skip  int64
	Limit int64
	Sort  bson.D
}

// Store is the persistence boundary for leads. Lookups by id are always
// owner-scoped so a foreign record is indistinguishable from a missing one.
type Store interface {
	Find(ctx context.Context, spec *filters.Spec, page PageOptions) ([]models.Lead, error)
	Count(ctx context.Context, spec *filters.Spec) (int64, error)
	Insert(ctx context.Context, lead *models.Lead) error
	Get(ctx context.Context, id, owner bson.ObjectID) (*models.Lead, error)
	FindByEmail(ctx context.Context, owner bson.ObjectID, email string, exclude bson.ObjectID) (*models.Lead, error)
	Replace(ctx context.Context, lead *models.Lead) error
	Delete(ctx context.Context, id, owner bson.ObjectID) error
}

// MongoStore implements Store on the leads collection.
type MongoStore struct {
	col *mongo.Collection
}

// NewMongoStore creates a store backed by the document database.
func NewMongoStore(db *database.Client) *MongoStore {
	return &MongoStore{col: db.Leads()}
}

func (s *MongoStore) Find(ctx context.Context, spec *filters.Spec, page PageOptions) ([]models.Lead, error) {
	opts := options.Find().
		SetSkip(page.Skip).
		SetLimit(page.Limit).
		SetSort(page.Sort)

	cur, err := s.col.Find(ctx, spec.ToBSON(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var leads []models.Lead
	if err := cur.All(ctx, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}

func (s *MongoStore) Count(ctx context.Context, spec *filters.Spec) (int64, error) {
	return s.col.CountDocuments(ctx, spec.ToBSON())
}

func (s *MongoStore) Insert(ctx context.Context, lead *models.Lead) error {
	now := time.Now().UTC()
	lead.CreatedAt = now
	lead.UpdatedAt = now

	res, err := s.col.InsertOne(ctx, lead)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		lead.ID = id
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id, owner bson.ObjectID) (*models.Lead, error) {
	var lead models.Lead
	err := s.col.FindOne(ctx, bson.M{"_id": id, "createdBy": owner}).Decode(&lead)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (s *MongoStore) FindByEmail(ctx context.Context, owner bson.ObjectID, email string, exclude bson.ObjectID) (*models.Lead, error) {
	filter := bson.M{"createdBy": owner, "email": email}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}

	var lead models.Lead
	err := s.col.FindOne(ctx, filter).Decode(&lead)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (s *MongoStore) Replace(ctx context.Context, lead *models.Lead) error {
	lead.UpdatedAt = time.Now().UTC()

	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": lead.ID, "createdBy": lead.CreatedBy}, lead)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (s *MongoStore) Delete(ctx context.Context, id, owner bson.ObjectID) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": id, "createdBy": owner})
	return err
}
