package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"shikkha-content-platform/internal/config"
	"shikkha-content-platform/models"
)

// RankedResult is one similarity hit, referencing the embedded document
// rather than carrying it.
type RankedResult struct {
	RefID   primitive.ObjectID `json:"ref_id"`
	RefKind string             `json:"ref_kind"`
	Score   float64            `json:"score"`
}

// SearchService answers similarity queries over the embeddings collection.
// With an Atlas vector index configured it delegates to $vectorSearch;
// otherwise it scans and ranks in process, which is fine at question-bank
// scale.
type SearchService struct {
	embeddings *mongo.Collection
	embedder   Embedder

	vectorIndexEnabled bool
	vectorIndexName    string
	defaultTopK        int
}

func NewSearchService(db *mongo.Database, embedder Embedder, cfg *config.Config) *SearchService {
	return &SearchService{
		embeddings:         db.Collection("embeddings"),
		embedder:           embedder,
		vectorIndexEnabled: cfg.VectorSearchEnabled,
		vectorIndexName:    cfg.VectorIndexName,
		defaultTopK:        cfg.SearchDefaultTopK,
	}
}

// Search embeds the query payload and returns the topK most similar
// references, optionally restricted to one ref kind (empty matches all).
// topK <= 0 falls back to the configured default.
func (s *SearchService) Search(ctx context.Context, query any, refKind string, topK int) ([]RankedResult, error) {
	if topK <= 0 {
		topK = s.defaultTopK
	}

	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding search query: %w", err)
	}

	if s.vectorIndexEnabled {
		return s.vectorIndexSearch(ctx, queryVector, refKind, topK)
	}
	return s.scanSearch(ctx, queryVector, refKind, topK)
}

func (s *SearchService) vectorIndexSearch(ctx context.Context, queryVector []float32, refKind string, topK int) ([]RankedResult, error) {
	stage := bson.M{
		"index":         s.vectorIndexName,
		"path":          "vector",
		"queryVector":   queryVector,
		"numCandidates": topK * 10,
		"limit":         topK,
	}
	if refKind != "" {
		stage["filter"] = bson.M{"ref_kind": refKind}
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$vectorSearch", Value: stage}},
		bson.D{{Key: "$project", Value: bson.M{
			"ref_id":   1,
			"ref_kind": 1,
			"score":    bson.M{"$meta": "vectorSearchScore"},
		}}},
	}

	cursor, err := s.embeddings.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("vector search aggregate: %w", err)
	}
	defer cursor.Close(ctx)

	var results []RankedResult
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *SearchService) scanSearch(ctx context.Context, queryVector []float32, refKind string, topK int) ([]RankedResult, error) {
	filter := bson.M{}
	if refKind != "" {
		filter["ref_kind"] = refKind
	}

	cursor, err := s.embeddings.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("loading embeddings: %w", err)
	}
	defer cursor.Close(ctx)

	var candidates []models.Embedding
	if err := cursor.All(ctx, &candidates); err != nil {
		return nil, err
	}

	return rankBySimilarity(queryVector, candidates, topK), nil
}

// rankBySimilarity scores every candidate against the query vector and
// returns the topK by descending cosine similarity. Equal scores are ordered
// by ref id so repeated queries rank identically. Candidates whose dimension
// does not match the query are skipped.
func rankBySimilarity(queryVector []float32, candidates []models.Embedding, topK int) []RankedResult {
	results := make([]RankedResult, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Vector) != len(queryVector) {
			continue
		}
		results = append(results, RankedResult{
			RefID:   c.RefID,
			RefKind: c.RefKind,
			Score:   cosineSimilarity(queryVector, c.Vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].RefID.Hex() < results[j].RefID.Hex()
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
