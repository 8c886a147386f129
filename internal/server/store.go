package server

import (
	"context"

	"github.com/flowweave/flowweave/pkg/graph"
	mongostore "github.com/flowweave/flowweave/pkg/store/mongo"
)

// MongoGraphStore adapts the mongo store to the GraphStore interface.
type MongoGraphStore struct {
	Store *mongostore.Store
}

func (m MongoGraphStore) Save(ctx context.Context, name string, g *graph.Graph, graphHash string) error {
	return m.Store.Save(ctx, name, g, graphHash)
}

func (m MongoGraphStore) Load(ctx context.Context, name string) (*graph.Graph, error) {
	return m.Store.Load(ctx, name)
}

func (m MongoGraphStore) List(ctx context.Context) ([]GraphInfo, error) {
	infos, err := m.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]GraphInfo, len(infos))
	for i, info := range infos {
		out[i] = GraphInfo{
			Name:      info.Name,
			GraphHash: info.GraphHash,
			UpdatedAt: info.UpdatedAt,
		}
	}
	return out, nil
}

func (m MongoGraphStore) Delete(ctx context.Context, name string) error {
	return m.Store.Delete(ctx, name)
}

var _ GraphStore = MongoGraphStore{}
