package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shikkha-content-platform/internal/logger"
	"shikkha-content-platform/models"
)

// ReconciliationReport summarizes one sweep.
type ReconciliationReport struct {
	Repaired      int  `json:"repaired"`
	Failed        int  `json:"failed"`
	StaleRemoved  int  `json:"stale_removed"`
	BatchExceeded bool `json:"batch_exceeded"`
}

// ReconciliationService closes the dual-write gap: questions are always
// written before their embeddings, so a crash between the two writes leaves
// a question without a vector. The sweep finds those questions and embeds
// them, and removes embeddings whose question has been deleted out of band.
type ReconciliationService struct {
	questions  *mongo.Collection
	embeddings *mongo.Collection
	embedder   Embedder
	batchSize  int
}

func NewReconciliationService(db *mongo.Database, embedder Embedder, batchSize int) *ReconciliationService {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ReconciliationService{
		questions:  db.Collection("questions"),
		embeddings: db.Collection("embeddings"),
		embedder:   embedder,
		batchSize:  batchSize,
	}
}

// Run performs one bounded sweep. Individual embedding failures are counted
// and logged but do not stop the batch; the next sweep retries them.
func (s *ReconciliationService) Run(ctx context.Context) (*ReconciliationReport, error) {
	report := &ReconciliationReport{}

	missing, err := s.questionsWithoutEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding unembedded questions: %w", err)
	}
	report.BatchExceeded = len(missing) == s.batchSize

	for _, question := range missing {
		if err := s.embedQuestion(ctx, question); err != nil {
			report.Failed++
			logger.Error("reconciliation failed to embed question",
				"question_id", question.ID.Hex(), "error", err)
			continue
		}
		report.Repaired++
	}

	removed, err := s.removeStaleEmbeddings(ctx)
	if err != nil {
		return report, fmt.Errorf("removing stale embeddings: %w", err)
	}
	report.StaleRemoved = removed

	if report.Repaired > 0 || report.Failed > 0 || report.StaleRemoved > 0 {
		logger.Info("reconciliation sweep finished",
			"repaired", report.Repaired,
			"failed", report.Failed,
			"stale_removed", report.StaleRemoved,
			"batch_exceeded", report.BatchExceeded)
	}

	return report, nil
}

// questionsWithoutEmbeddings joins questions against embeddings and keeps
// those with no question-kind vector, oldest first so long-standing gaps are
// repaired before fresh ones.
func (s *ReconciliationService) questionsWithoutEmbeddings(ctx context.Context) ([]models.Question, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$lookup", Value: bson.M{
			"from": "embeddings",
			"let":  bson.M{"qid": "$_id"},
			"pipeline": []bson.M{
				{"$match": bson.M{"$expr": bson.M{"$and": []bson.M{
					{"$eq": []any{"$ref_id", "$$qid"}},
					{"$eq": []any{"$ref_kind", models.RefKindQuestion}},
				}}}},
			},
			"as": "embedding",
		}}},
		bson.D{{Key: "$match", Value: bson.M{"embedding": bson.M{"$size": 0}}}},
		bson.D{{Key: "$project", Value: bson.M{"embedding": 0}}},
		bson.D{{Key: "$sort", Value: bson.M{"created_at": 1}}},
		bson.D{{Key: "$limit", Value: s.batchSize}},
	}

	cursor, err := s.questions.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var questions []models.Question
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (s *ReconciliationService) embedQuestion(ctx context.Context, question models.Question) error {
	vector, err := s.embedder.Embed(ctx, embeddingProjection(question))
	if err != nil {
		return err
	}

	_, err = s.embeddings.UpdateOne(ctx,
		bson.M{"ref_kind": models.RefKindQuestion, "ref_id": question.ID},
		bson.M{
			"$set": bson.M{
				"vector":     vector,
				"dim":        len(vector),
				"updated_at": time.Now().UTC(),
			},
			"$setOnInsert": bson.M{"_id": primitive.NewObjectID()},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// removeStaleEmbeddings deletes question-kind embeddings whose question no
// longer exists.
func (s *ReconciliationService) removeStaleEmbeddings(ctx context.Context) (int, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"ref_kind": models.RefKindQuestion}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "questions",
			"localField":   "ref_id",
			"foreignField": "_id",
			"as":           "question",
		}}},
		bson.D{{Key: "$match", Value: bson.M{"question": bson.M{"$size": 0}}}},
		bson.D{{Key: "$project", Value: bson.M{"_id": 1}}},
		bson.D{{Key: "$limit", Value: s.batchSize}},
	}

	cursor, err := s.embeddings.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var stale []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &stale); err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	ids := make([]primitive.ObjectID, len(stale))
	for i, doc := range stale {
		ids[i] = doc.ID
	}

	res, err := s.embeddings.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}
