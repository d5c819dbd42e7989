package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Client holds the document store connection.
type Client struct {
	Mongo *mongo.Client
	DB    *mongo.Database
}

// NewClient connects to the document store and verifies the connection.
func NewClient(uri, dbName string) (*Client, error) {
	opts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed connecting to mongodb: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed pinging mongodb: %w", err)
	}

	log.Println("✅ Database connected")

	return &Client{
		Mongo: client,
		DB:    client.Database(dbName),
	}, nil
}

// Leads returns the leads collection.
func (c *Client) Leads() *mongo.Collection {
	return c.DB.Collection("leads")
}

// Users returns the users collection.
func (c *Client) Users() *mongo.Collection {
	return c.DB.Collection("users")
}

// EnsureIndexes creates the indexes the application relies on. The compound
// unique index on (createdBy, email) is the authority for the per-owner
// email invariant; application-level pre-checks only improve error messages.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	leadIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "createdBy", Value: 1}, {Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "source", Value: 1}}},
		{Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "score", Value: -1}}},
	}
	if _, err := c.Leads().Indexes().CreateMany(ctx, leadIndexes); err != nil {
		return fmt.Errorf("failed creating lead indexes: %w", err)
	}

	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := c.Users().Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed creating user indexes: %w", err)
	}

	log.Println("✅ Indexes ensured")
	return nil
}

// Close disconnects from the document store.
func (c *Client) Close(ctx context.Context) error {
	return c.Mongo.Disconnect(ctx)
}

// Ping checks if the document store is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.Mongo.Ping(ctx, readpref.Primary())
}
