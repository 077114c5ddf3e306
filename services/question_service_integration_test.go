package services

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shikkha-content-platform/models"
)

type countingEmbedder struct {
	calls int
	vec   []float32
}

func (e *countingEmbedder) Embed(ctx context.Context, value any) ([]float32, error) {
	e.calls++
	return e.vec, nil
}

func newTestQuestionService(t *testing.T) (*QuestionService, *countingEmbedder, *mongo.Database) {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("mongo connect: %v", err)
	}
	db := client.Database("shikkha_content_test")
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db.Drop(ctx)
		client.Disconnect(ctx)
	})

	embedder := &countingEmbedder{vec: []float32{0.1, 0.2, 0.3}}
	return NewQuestionService(db, NewTaxonomyService(db), embedder), embedder, db
}

func TestCreateQuestionRoundTrip(t *testing.T) {
	svc, _, db := newTestQuestionService(t)
	ctx := context.Background()

	created, err := svc.CreateQuestion(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Version != 1 {
		t.Errorf("new question version = %d, want 1", created.Version)
	}

	got, err := svc.GetQuestionByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Stem.Text.En != created.Stem.Text.En {
		t.Errorf("stem round trip: got %q", got.Stem.Text.En)
	}
	if got.Meta.Level != models.LevelHSC || got.Meta.Group != models.GroupScience {
		t.Errorf("meta round trip: %+v", got.Meta)
	}

	var emb models.Embedding
	err = db.Collection("embeddings").FindOne(ctx,
		bson.M{"ref_kind": models.RefKindQuestion, "ref_id": created.ID}).Decode(&emb)
	if err != nil {
		t.Fatalf("embedding back-reference missing: %v", err)
	}
	if emb.Dim != len(emb.Vector) || emb.Dim != 3 {
		t.Errorf("embedding dim = %d, vector len = %d", emb.Dim, len(emb.Vector))
	}
}

func TestUpdateQuestionReembedsAndBumpsVersion(t *testing.T) {
	svc, embedder, _ := newTestQuestionService(t)
	ctx := context.Background()

	created, err := svc.CreateQuestion(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if embedder.calls != 1 {
		t.Fatalf("embed calls after create = %d, want 1", embedder.calls)
	}

	newStem := models.QuestionStem{Text: models.BilingualText{En: "revised stem"}}
	updated, err := svc.UpdateQuestion(ctx, created.ID, UpdateQuestionInput{
		Stem:            &newStem,
		ExpectedVersion: 1,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("version after update = %d, want 2", updated.Version)
	}
	if updated.Stem.Text.En != "revised stem" {
		t.Errorf("stem after update = %q", updated.Stem.Text.En)
	}
	if embedder.calls != 2 {
		t.Errorf("embed calls after update = %d, want 2", embedder.calls)
	}

	// A writer holding the old version must not clobber the update.
	_, err = svc.UpdateQuestion(ctx, created.ID, UpdateQuestionInput{
		Stem:            &newStem,
		ExpectedVersion: 1,
	})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("stale version update: err = %v, want ErrConflict", err)
	}
}

func TestUpdateQuestionRejectsInvalidPatch(t *testing.T) {
	svc, _, _ := newTestQuestionService(t)
	ctx := context.Background()

	created, err := svc.CreateQuestion(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// A patch that empties the stem must fail validation before any write.
	_, err = svc.UpdateQuestion(ctx, created.ID, UpdateQuestionInput{
		Stem:            &models.QuestionStem{},
		ExpectedVersion: 1,
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("invalid patch: err = %v, want ValidationError", err)
	}
	if verr.Field != "stem" {
		t.Errorf("validation field = %s, want stem", verr.Field)
	}

	got, err := svc.GetQuestionByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Version != 1 || got.Stem.Text.IsEmpty() {
		t.Errorf("rejected patch must leave the document untouched: version=%d stem=%+v",
			got.Version, got.Stem.Text)
	}
}

func TestDeleteQuestionCascadeIdempotent(t *testing.T) {
	svc, _, db := newTestQuestionService(t)
	ctx := context.Background()

	created, err := svc.CreateQuestion(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.DeleteQuestion(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetQuestionByID(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete: err = %v, want ErrNotFound", err)
	}
	count, err := db.Collection("embeddings").CountDocuments(ctx,
		bson.M{"ref_kind": models.RefKindQuestion, "ref_id": created.ID})
	if err != nil {
		t.Fatalf("count embeddings: %v", err)
	}
	if count != 0 {
		t.Errorf("embedding survived the cascade: count = %d", count)
	}

	if err := svc.DeleteQuestion(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}

	// Deleting a question whose embedding is already gone is not an error.
	orphaned, err := svc.CreateQuestion(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := db.Collection("embeddings").DeleteOne(ctx,
		bson.M{"ref_kind": models.RefKindQuestion, "ref_id": orphaned.ID}); err != nil {
		t.Fatalf("remove embedding: %v", err)
	}
	if err := svc.DeleteQuestion(ctx, orphaned.ID); err != nil {
		t.Errorf("delete without embedding: %v", err)
	}
}
