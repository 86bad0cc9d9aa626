package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Passage is one ranked hit from the knowledge-base vector index.
type Passage struct {
	Text  string  `bson:"text"`
	Score float64 `bson:"score"`
}

type DocumentRepository interface {
	// VectorSearch runs an Atlas $vectorSearch over the documents collection
	// and returns up to k passages ranked by similarity. Zero hits is a
	// valid result.
	VectorSearch(ctx context.Context, vector []float32, k int) ([]Passage, error)
}

type documentRepo struct {
	col       *mongo.Collection
	indexName string
}

func NewDocumentRepo(db *mongo.Database) DocumentRepository {
	// Index name and field layout must match the Atlas Search definition
	// created for the deployment.
	return &documentRepo{col: db.Collection("documents"), indexName: "vector_index"}
}

func (r *documentRepo) VectorSearch(ctx context.Context, vector []float32, k int) ([]Passage, error) {
	if k <= 0 {
		k = 5
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: r.indexName},
			{Key: "path", Value: "embedding"},
			{Key: "queryVector", Value: vector},
			{Key: "numCandidates", Value: k * 20},
			{Key: "limit", Value: k},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "text", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Passage
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
