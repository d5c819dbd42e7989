package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User is an account holder. The password hash never leaves the server.
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"passwordHash"`
	FirstName    string        `bson:"firstName"`
	LastName     string        `bson:"lastName"`
	CreatedAt    time.Time     `bson:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt"`
}

// UserInfo is the wire representation of a user.
type UserInfo struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Info projects a user onto its wire representation.
func (u *User) Info() UserInfo {
	return UserInfo{
		ID:        u.ID.Hex(),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
