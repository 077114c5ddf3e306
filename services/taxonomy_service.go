package services

import (
	"context"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shikkha-content-platform/models"
)

// TaxonomyService reads the subject/chapter/topic graph for resolution
// during ingestion. Node administration lives elsewhere; this service only
// reads.
type TaxonomyService struct {
	subjects *mongo.Collection
	chapters *mongo.Collection
	topics   *mongo.Collection
}

func NewTaxonomyService(db *mongo.Database) *TaxonomyService {
	return &TaxonomyService{
		subjects: db.Collection("subjects"),
		chapters: db.Collection("chapters"),
		topics:   db.Collection("topics"),
	}
}

// ChaptersBySubject returns the subject's chapters sorted by (order, _id) so
// that name resolution is deterministic.
func (s *TaxonomyService) ChaptersBySubject(ctx context.Context, subjectID primitive.ObjectID) ([]models.Chapter, error) {
	cursor, err := s.chapters.Find(ctx,
		bson.M{"subject_id": subjectID},
		options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var chapters []models.Chapter
	if err := cursor.All(ctx, &chapters); err != nil {
		return nil, err
	}

	return chapters, nil
}

// TopicsByChapter returns the chapter's topics sorted by (order, _id).
func (s *TaxonomyService) TopicsByChapter(ctx context.Context, chapterID primitive.ObjectID) ([]models.Topic, error) {
	cursor, err := s.topics.Find(ctx,
		bson.M{"chapter_id": chapterID},
		options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var topics []models.Topic
	if err := cursor.All(ctx, &topics); err != nil {
		return nil, err
	}

	return topics, nil
}

// SubjectByID fetches a single subject.
func (s *TaxonomyService) SubjectByID(ctx context.Context, id primitive.ObjectID) (*models.Subject, error) {
	var subject models.Subject
	err := s.subjects.FindOne(ctx, bson.M{"_id": id}).Decode(&subject)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

// ResolveChapter matches a free-text chapter name (often noisy model output,
// English or Bangla) against candidate chapters. English names and aliases
// are compared case-insensitively after trimming; Bangla names and aliases
// are compared raw (Bangla has no case). Candidates are matched in (order,
// id) order and the first hit wins. An unmatched name resolves to nil,
// meaning unassigned, never an error.
func ResolveChapter(nameQuery string, candidates []models.Chapter) *primitive.ObjectID {
	normalized := strings.ToLower(strings.TrimSpace(nameQuery))
	raw := strings.TrimSpace(nameQuery)
	if normalized == "" {
		return nil
	}

	sorted := make([]models.Chapter, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Order != sorted[j].Order {
			return sorted[i].Order < sorted[j].Order
		}
		return sorted[i].ID.Hex() < sorted[j].ID.Hex()
	})

	for i := range sorted {
		if nodeMatches(normalized, raw, sorted[i].Name, sorted[i].Aliases) {
			id := sorted[i].ID
			return &id
		}
	}

	return nil
}

// ResolveTopic is ResolveChapter over a chapter's topics.
func ResolveTopic(nameQuery string, candidates []models.Topic) *primitive.ObjectID {
	normalized := strings.ToLower(strings.TrimSpace(nameQuery))
	raw := strings.TrimSpace(nameQuery)
	if normalized == "" {
		return nil
	}

	sorted := make([]models.Topic, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Order != sorted[j].Order {
			return sorted[i].Order < sorted[j].Order
		}
		return sorted[i].ID.Hex() < sorted[j].ID.Hex()
	})

	for i := range sorted {
		if nodeMatches(normalized, raw, sorted[i].Name, sorted[i].Aliases) {
			id := sorted[i].ID
			return &id
		}
	}

	return nil
}

func nodeMatches(normalized, raw string, name models.BilingualText, aliases models.NodeAliases) bool {
	if normalized == strings.ToLower(strings.TrimSpace(name.En)) && name.En != "" {
		return true
	}
	if raw == strings.TrimSpace(name.Bn) && name.Bn != "" {
		return true
	}
	for _, alias := range aliases.En {
		if normalized == strings.ToLower(strings.TrimSpace(alias)) {
			return true
		}
	}
	for _, alias := range aliases.Bn {
		if raw == strings.TrimSpace(alias) {
			return true
		}
	}
	for _, alias := range aliases.Banglish {
		if normalized == strings.ToLower(strings.TrimSpace(alias)) {
			return true
		}
	}
	return false
}
