package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/leadgridhq/leadgrid/pkg/auth"
	"github.com/leadgridhq/leadgrid/pkg/database"
	"github.com/leadgridhq/leadgrid/pkg/domain"
	"github.com/leadgridhq/leadgrid/pkg/models"
)

// ErrDuplicateEmail is reported when the unique email index rejects an
// insert.
var ErrDuplicateEmail = errors.New("user email already exists")

// Store is the persistence boundary for user accounts.
type Store interface {
	Insert(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
}

// MongoStore implements Store on the users collection.
type MongoStore struct {
	col *mongo.Collection
}

// NewMongoStore creates a store backed by the document database.
func NewMongoStore(db *database.Client) *MongoStore {
	return &MongoStore{col: db.Users()}
}

func (s *MongoStore) Insert(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := s.col.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		user.ID = id
	}
	return nil
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.col.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MongoStore) FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	var user models.User
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Service handles account registration and credential checks.
type Service struct {
	store Store
}

// NewService creates a new user service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Register creates an account with a hashed password. The unique email index
// backs up the pre-check, so a concurrent registration surfaces the same
// conflict.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	if existing != nil {
		return nil, domain.NewConflictError("User already exists with this email")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}
	if err := s.store.Insert(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, domain.NewConflictError("User already exists with this email")
		}
		return nil, domain.NewInternalError(err)
	}
	return user, nil
}

// Authenticate verifies credentials. Unknown email and wrong password are
// deliberately the same error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.store.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	if user == nil || !auth.CheckPassword(password, user.PasswordHash) {
		return nil, domain.NewUnauthorizedError("Invalid email or password")
	}
	return user, nil
}

// GetByID loads an account by id.
func (s *Service) GetByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	if user == nil {
		return nil, domain.NewNotFoundError("User")
	}
	return user, nil
}
