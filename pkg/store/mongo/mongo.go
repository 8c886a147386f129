// Package mongo persists named woven graphs in MongoDB. The server uses
// it to publish weave results that outlive a single process, keyed by a
// user-chosen name.
package mongo

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/flowweave/flowweave/pkg/errors"
	"github.com/flowweave/flowweave/pkg/graph"
)

const collectionName = "graphs"

// Store wraps one MongoDB collection of named graphs.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Info summarizes a stored graph without its node/link payload.
type Info struct {
	Name      string    `bson:"_id" json:"name"`
	GraphHash string    `bson:"graph_hash" json:"graph_hash"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

type document struct {
	Name      string       `bson:"_id"`
	Graph     *graph.Graph `bson:"graph"`
	GraphHash string       `bson:"graph_hash"`
	UpdatedAt time.Time    `bson:"updated_at"`
}

// New connects to MongoDB and verifies the connection with a ping.
func New(ctx context.Context, uri, db string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &Store{
		client: client,
		coll:   client.Database(db).Collection(collectionName),
	}, nil
}

// Save upserts the graph under name.
func (s *Store) Save(ctx context.Context, name string, g *graph.Graph, graphHash string) error {
	if name == "" {
		return errors.New(errors.ErrCodeInvalidDefinition, "graph name is empty")
	}
	doc := document{
		Name:      name,
		Graph:     g,
		GraphHash: graphHash,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": name}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save graph %q: %w", name, err)
	}
	return nil
}

// Load returns the graph stored under name.
func (s *Store) Load(ctx context.Context, name string) (*graph.Graph, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.New(errors.ErrCodeNotFound, "no graph %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("load graph %q: %w", name, err)
	}
	return doc.Graph, nil
}

// List returns summaries of all stored graphs, sorted by name.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	opts := options.Find().
		SetProjection(bson.M{"graph": 0}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list graphs: %w", err)
	}
	defer cur.Close(ctx)

	var out []Info
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode graph list: %w", err)
	}
	return out, nil
}

// Delete removes the graph stored under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": name})
	if err != nil {
		return fmt.Errorf("delete graph %q: %w", name, err)
	}
	if res.DeletedCount == 0 {
		return errors.New(errors.ErrCodeNotFound, "no graph %q", name)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
