package users

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/leadgridhq/leadgrid/pkg/domain"
	"github.com/leadgridhq/leadgrid/pkg/models"
)

type fakeStore struct {
	mu    sync.Mutex
	users []models.User
}

func (f *fakeStore) Insert(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	user.ID = bson.NewObjectID()
	f.users = append(f.users, *user)
	return nil
}

func (f *fakeStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindByID(_ context.Context, id bson.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			out := u
			return &out, nil
		}
	}
	return nil, nil
}

func registerRequest(email string) *models.RegisterRequest {
	return &models.RegisterRequest{
		Email:     email,
		Password:  "s3cret-password",
		FirstName: "Jane",
		LastName:  "Doe",
	}
}

func TestRegisterHashesPasswordAndLowercasesEmail(t *testing.T) {
	svc := NewService(&fakeStore{})

	user, err := svc.Register(context.Background(), registerRequest("Jane@Example.COM"))
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.NotEmpty(t, user.PasswordHash)
	assert.False(t, strings.Contains(user.PasswordHash, "s3cret-password"))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewService(&fakeStore{})

	_, err := svc.Register(context.Background(), registerRequest("jane@example.com"))
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), registerRequest("jane@example.com"))
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
}

func TestAuthenticate(t *testing.T) {
	svc := NewService(&fakeStore{})
	_, err := svc.Register(context.Background(), registerRequest("jane@example.com"))
	require.NoError(t, err)

	user, err := svc.Authenticate(context.Background(), "jane@example.com", "s3cret-password")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)

	// wrong password and unknown email produce the same error
	_, badPass := svc.Authenticate(context.Background(), "jane@example.com", "wrong")
	_, noUser := svc.Authenticate(context.Background(), "ghost@example.com", "s3cret-password")
	require.Error(t, badPass)
	require.Error(t, noUser)
	assert.True(t, domain.IsUnauthorized(badPass))
	assert.Equal(t, badPass.Error(), noUser.Error())
}

func TestGetByID(t *testing.T) {
	svc := NewService(&fakeStore{})
	user, err := svc.Register(context.Background(), registerRequest("jane@example.com"))
	require.NoError(t, err)

	found, err := svc.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = svc.GetByID(context.Background(), bson.NewObjectID())
	assert.True(t, domain.IsNotFound(err))
}
