package vectordb

import (
	"context"
	"errors"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// Chunk is one embedded fragment of a document, tagged with the ID of the
// record that owns it.
type Chunk struct {
	ID      string
	OwnerID string
	Content string
	Vector  []float32
}

// Scored is one similarity hit.
type Scored struct {
	OwnerID string
	Content string
	Score   float32
}

// Index is a single qdrant collection of document chunks. Chunks carry
// their owner ID and text as payload so a search result can be joined back
// to its relational row.
type Index struct {
	client     *qdrant.Client
	collection string
	dim        uint64
}

func NewIndex(client *qdrant.Client, collection string, dim uint64) *Index {
	return &Index{
		client:     client,
		collection: collection,
		dim:        dim,
	}
}

func (i *Index) Collection() string {
	return i.collection
}

// Ensure creates the collection if it does not exist yet.
func (i *Index) Ensure(ctx context.Context) error {
	if i.client == nil {
		return errors.New("qdrant client not configured")
	}

	exists, err := i.client.CollectionExists(ctx, i.collection)
	if err != nil {
		return fmt.Errorf("check collection %q: %w", i.collection, err)
	}
	if exists {
		return nil
	}

	err = i.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: i.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     i.dim,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %q: %w", i.collection, err)
	}
	return nil
}

func (i *Index) Upsert(ctx context.Context, chunks []Chunk) error {
	if i.client == nil {
		return errors.New("qdrant client not configured")
	}
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for _, c := range chunks {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(c.ID),
			Vectors: qdrant.NewVectors(c.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"owner_id": c.OwnerID,
				"content":  c.Content,
			}),
		})
	}

	_, err := i.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: i.collection,
		Points:         points,
	})
	return err
}

func (i *Index) Query(ctx context.Context, vector []float32, limit uint64) ([]Scored, error) {
	if i.client == nil {
		return nil, errors.New("qdrant client not configured")
	}

	results, err := i.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: i.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(limit),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}

	scored := make([]Scored, 0, len(results))
	for _, r := range results {
		hit := Scored{Score: r.Score}
		if v, ok := r.Payload["owner_id"]; ok {
			hit.OwnerID = v.GetStringValue()
		}
		if v, ok := r.Payload["content"]; ok {
			hit.Content = v.GetStringValue()
		}
		scored = append(scored, hit)
	}
	return scored, nil
}

// Clear drops and recreates the collection, removing every point.
func (i *Index) Clear(ctx context.Context) error {
	if i.client == nil {
		return errors.New("qdrant client not configured")
	}
	if err := i.client.DeleteCollection(ctx, i.collection); err != nil {
		return fmt.Errorf("delete collection %q: %w", i.collection, err)
	}
	return i.Ensure(ctx)
}
