package services

import (
	"math"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"shikkha-content-platform/models"
)

func embeddingWith(id primitive.ObjectID, vector []float32) models.Embedding {
	return models.Embedding{
		ID:      primitive.NewObjectID(),
		RefID:   id,
		RefKind: models.RefKindQuestion,
		Vector:  vector,
		Dim:     len(vector),
	}
}

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := cosineSimilarity(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("cosineSimilarity = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRankBySimilarityOrdering(t *testing.T) {
	query := []float32{1, 0, 0}
	exact := primitive.NewObjectID()
	near := primitive.NewObjectID()
	far := primitive.NewObjectID()

	candidates := []models.Embedding{
		embeddingWith(far, []float32{0, 1, 0}),
		embeddingWith(exact, []float32{2, 0, 0}),
		embeddingWith(near, []float32{1, 1, 0}),
	}

	results := rankBySimilarity(query, candidates, 10)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].RefID != exact {
		t.Errorf("rank 1 = %s, want the colinear vector", results[0].RefID.Hex())
	}
	if results[1].RefID != near {
		t.Errorf("rank 2 = %s, want the diagonal vector", results[1].RefID.Hex())
	}
	if results[2].RefID != far {
		t.Errorf("rank 3 = %s, want the orthogonal vector", results[2].RefID.Hex())
	}
	if math.Abs(results[0].Score-1) > 1e-9 {
		t.Errorf("identical-direction score = %v, want 1", results[0].Score)
	}
}

func TestRankBySimilarityTopKBound(t *testing.T) {
	query := []float32{1, 0}
	var candidates []models.Embedding
	for i := 0; i < 20; i++ {
		candidates = append(candidates, embeddingWith(primitive.NewObjectID(), []float32{1, float32(i)}))
	}

	results := rankBySimilarity(query, candidates, 5)
	if len(results) != 5 {
		t.Fatalf("got %d results, want 5", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not in descending score order at %d", i)
		}
	}
}

func TestRankBySimilarityTieBreakByRefID(t *testing.T) {
	query := []float32{1, 0}
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	lo, hi := a, b
	if b.Hex() < a.Hex() {
		lo, hi = b, a
	}

	// Same vector for both, so scores tie exactly.
	candidates := []models.Embedding{
		embeddingWith(hi, []float32{3, 4}),
		embeddingWith(lo, []float32{3, 4}),
	}

	results := rankBySimilarity(query, candidates, 2)
	if results[0].RefID != lo || results[1].RefID != hi {
		t.Errorf("tied scores must order by ref id ascending, got %s then %s",
			results[0].RefID.Hex(), results[1].RefID.Hex())
	}
}

func TestRankBySimilaritySkipsDimensionMismatch(t *testing.T) {
	query := []float32{1, 0, 0}
	good := primitive.NewObjectID()
	candidates := []models.Embedding{
		embeddingWith(primitive.NewObjectID(), []float32{1, 0}),
		embeddingWith(good, []float32{1, 0, 0}),
	}

	results := rankBySimilarity(query, candidates, 10)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].RefID != good {
		t.Errorf("kept the wrong candidate: %s", results[0].RefID.Hex())
	}
}
