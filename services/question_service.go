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

// Embedder produces the vector for a payload. *ai.EmbeddingService
// satisfies it.
type Embedder interface {
	Embed(ctx context.Context, value any) ([]float32, error)
}

// PartNameHints carries free-text chapter or topic names per sub-question,
// typically straight from model output.
type PartNameHints struct {
	A string
	B string
	C string
	D string
}

func (h PartNameHints) bySlot() [4]string {
	return [4]string{h.A, h.B, h.C, h.D}
}

// CreateQuestionInput is everything needed to persist a question. Taxonomy
// ids may be given directly on Meta/Parts; the free-text hint fields are
// resolved against the subject's chapter list for anything left unset.
type CreateQuestionInput struct {
	Stem    models.QuestionStem
	Parts   models.QuestionParts
	Meta    models.QuestionMeta
	Source  models.QuestionSource
	Aliases models.BilingualList
	Tags    []string

	MainChapterName string
	PartChapters    PartNameHints
	PartTopics      PartNameHints
}

// UpdateQuestionInput carries the mutable fields plus the version the caller
// last read. Nil pointer fields are left untouched.
type UpdateQuestionInput struct {
	Stem    *models.QuestionStem
	Parts   *models.QuestionParts
	Meta    *models.QuestionMeta
	Source  *models.QuestionSource
	Aliases *models.BilingualList
	Tags    *[]string

	ExpectedVersion int64
}

// QuestionFilter narrows listing to a slice of the question bank.
type QuestionFilter struct {
	SubjectID *primitive.ObjectID
	Level     string
	Group     string
	Limit     int64
	Offset    int64
}

// QuestionService owns the question write path: validation, taxonomy
// resolution, the question insert and the paired embedding write.
type QuestionService struct {
	questions  *mongo.Collection
	embeddings *mongo.Collection
	taxonomy   *TaxonomyService
	embedder   Embedder
}

func NewQuestionService(db *mongo.Database, taxonomy *TaxonomyService, embedder Embedder) *QuestionService {
	return &QuestionService{
		questions:  db.Collection("questions"),
		embeddings: db.Collection("embeddings"),
		taxonomy:   taxonomy,
		embedder:   embedder,
	}
}

// CreateQuestion validates, resolves taxonomy references, inserts the
// question and then writes its embedding. The two writes are not atomic:
// when the embedding write fails the question stays persisted, the gap is
// logged, and the reconciliation sweep repairs it.
func (s *QuestionService) CreateQuestion(ctx context.Context, input CreateQuestionInput) (*models.Question, error) {
	if verr := validateCreate(input); verr != nil {
		return nil, verr
	}

	if err := s.resolveTaxonomy(ctx, &input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	question := models.Question{
		ID:        primitive.NewObjectID(),
		Stem:      input.Stem,
		Parts:     input.Parts,
		Meta:      input.Meta,
		Source:    input.Source,
		Aliases:   input.Aliases,
		Tags:      input.Tags,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.questions.InsertOne(ctx, question); err != nil {
		return nil, fmt.Errorf("%w: inserting question: %v", ErrPersistence, err)
	}

	if err := s.writeEmbedding(ctx, question); err != nil {
		logger.Error("question persisted without embedding, awaiting reconciliation",
			"question_id", question.ID.Hex(), "error", err)
		return nil, fmt.Errorf("%w: embedding write for question %s: %v", ErrPersistence, question.ID.Hex(), err)
	}

	return &question, nil
}

// UpdateQuestion applies the changed fields if and only if the stored
// version still matches ExpectedVersion, then bumps the version and
// refreshes the embedding. Patched fields go through the same validation
// rules as a create, before any write.
func (s *QuestionService) UpdateQuestion(ctx context.Context, id primitive.ObjectID, input UpdateQuestionInput) (*models.Question, error) {
	if verr := validateUpdate(input); verr != nil {
		return nil, verr
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if input.Stem != nil {
		set["stem"] = *input.Stem
	}
	if input.Parts != nil {
		set["parts"] = *input.Parts
	}
	if input.Meta != nil {
		set["meta"] = *input.Meta
	}
	if input.Source != nil {
		set["source"] = *input.Source
	}
	if input.Aliases != nil {
		set["aliases"] = *input.Aliases
	}
	if input.Tags != nil {
		set["tags"] = *input.Tags
	}

	var updated models.Question
	err := s.questions.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "version": input.ExpectedVersion},
		bson.M{"$set": set, "$inc": bson.M{"version": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		// Distinguish a stale version from a missing question.
		count, cerr := s.questions.CountDocuments(ctx, bson.M{"_id": id})
		if cerr != nil {
			return nil, fmt.Errorf("%w: checking question %s: %v", ErrPersistence, id.Hex(), cerr)
		}
		if count > 0 {
			return nil, ErrConflict
		}
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: updating question %s: %v", ErrPersistence, id.Hex(), err)
	}

	if err := s.writeEmbedding(ctx, updated); err != nil {
		logger.Error("question updated without fresh embedding, awaiting reconciliation",
			"question_id", updated.ID.Hex(), "error", err)
		return nil, fmt.Errorf("%w: embedding refresh for question %s: %v", ErrPersistence, updated.ID.Hex(), err)
	}

	return &updated, nil
}

// DeleteQuestion removes the question and its embedding. A missing
// embedding is not an error; the question may predate the embedding write
// or the sweep.
func (s *QuestionService) DeleteQuestion(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.questions.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("%w: deleting question %s: %v", ErrPersistence, id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	if _, err := s.embeddings.DeleteOne(ctx, bson.M{"ref_kind": models.RefKindQuestion, "ref_id": id}); err != nil {
		logger.Error("orphan embedding left behind after question delete",
			"question_id", id.Hex(), "error", err)
	}

	return nil
}

// GetQuestionByID fetches one question.
func (s *QuestionService) GetQuestionByID(ctx context.Context, id primitive.ObjectID) (*models.Question, error) {
	var question models.Question
	err := s.questions.FindOne(ctx, bson.M{"_id": id}).Decode(&question)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &question, nil
}

// ListQuestions pages through the bank, newest first.
func (s *QuestionService) ListQuestions(ctx context.Context, filter QuestionFilter) ([]models.Question, error) {
	query := bson.M{}
	if filter.SubjectID != nil {
		query["meta.subject_id"] = *filter.SubjectID
	}
	if filter.Level != "" {
		query["meta.level"] = filter.Level
	}
	if filter.Group != "" {
		query["meta.group"] = filter.Group
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}
	if filter.Offset > 0 {
		opts.SetSkip(filter.Offset)
	}

	cursor, err := s.questions.Find(ctx, query, opts)
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

// resolveTaxonomy fills unset chapter/topic ids from the free-text hints.
// Unmatched names resolve to nil, never to an error.
func (s *QuestionService) resolveTaxonomy(ctx context.Context, input *CreateQuestionInput) error {
	if input.MainChapterName == "" && input.PartChapters == (PartNameHints{}) && input.PartTopics == (PartNameHints{}) {
		return nil
	}
	partChapters := input.PartChapters.bySlot()
	partTopics := input.PartTopics.bySlot()

	chapters, err := s.taxonomy.ChaptersBySubject(ctx, input.Meta.SubjectID)
	if err != nil {
		return fmt.Errorf("%w: loading chapters for subject %s: %v", ErrPersistence, input.Meta.SubjectID.Hex(), err)
	}

	if input.Meta.MainChapterID == nil && input.MainChapterName != "" {
		input.Meta.MainChapterID = ResolveChapter(input.MainChapterName, chapters)
	}

	resolvePart := func(part *models.QuestionPart, chapterName, topicName string) error {
		if part.ChapterID == nil && chapterName != "" {
			part.ChapterID = ResolveChapter(chapterName, chapters)
		}
		if part.TopicID == nil && topicName != "" && part.ChapterID != nil {
			topics, err := s.taxonomy.TopicsByChapter(ctx, *part.ChapterID)
			if err != nil {
				return fmt.Errorf("%w: loading topics for chapter %s: %v", ErrPersistence, part.ChapterID.Hex(), err)
			}
			part.TopicID = ResolveTopic(topicName, topics)
		}
		return nil
	}

	partPtrs := []*models.QuestionPart{&input.Parts.A, &input.Parts.B, &input.Parts.C, &input.Parts.D}
	for i, part := range partPtrs {
		if err := resolvePart(part, partChapters[i], partTopics[i]); err != nil {
			return err
		}
	}

	return nil
}

// writeEmbedding embeds the question's searchable projection and upserts it
// keyed on (ref_kind, ref_id), so creates and updates share one path.
func (s *QuestionService) writeEmbedding(ctx context.Context, question models.Question) error {
	vector, err := s.embedder.Embed(ctx, embeddingProjection(question))
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.embeddings.UpdateOne(ctx,
		bson.M{"ref_kind": models.RefKindQuestion, "ref_id": question.ID},
		bson.M{
			"$set": bson.M{
				"vector":     vector,
				"dim":        len(vector),
				"updated_at": now,
			},
			"$setOnInsert": bson.M{"_id": primitive.NewObjectID()},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

var validSourceTypes = map[string]bool{
	models.SourceBoard:       true,
	models.SourceAIGenerated: true,
	models.SourceInstitution: true,
}

var validLevels = map[string]bool{
	models.LevelSSC: true,
	models.LevelHSC: true,
}

var validGroups = map[string]bool{
	models.GroupScience:  true,
	models.GroupArts:     true,
	models.GroupCommerce: true,
}

// validateCreate checks the schema and business rules before any write.
func validateCreate(input CreateQuestionInput) *ValidationError {
	if verr := validateStem(input.Stem); verr != nil {
		return verr
	}
	if verr := validateParts(input.Parts); verr != nil {
		return verr
	}
	if verr := validateSource(input.Source); verr != nil {
		return verr
	}
	return validateMeta(input.Meta)
}

// validateUpdate re-runs the create rules on every field the patch touches.
// Nil fields keep their stored value and are not re-checked.
func validateUpdate(input UpdateQuestionInput) *ValidationError {
	if input.Stem != nil {
		if verr := validateStem(*input.Stem); verr != nil {
			return verr
		}
	}
	if input.Parts != nil {
		if verr := validateParts(*input.Parts); verr != nil {
			return verr
		}
	}
	if input.Source != nil {
		if verr := validateSource(*input.Source); verr != nil {
			return verr
		}
	}
	if input.Meta != nil {
		if verr := validateMeta(*input.Meta); verr != nil {
			return verr
		}
	}
	return nil
}

func validateStem(stem models.QuestionStem) *ValidationError {
	if stem.Text.IsEmpty() {
		return &ValidationError{Field: "stem", Message: "stem text is required in at least one language"}
	}
	return nil
}

func validateParts(parts models.QuestionParts) *ValidationError {
	labels := [4]string{"a", "b", "c", "d"}
	for i, part := range parts.PartsSlice() {
		if part.Question.IsEmpty() {
			return &ValidationError{
				Field:   "parts." + labels[i],
				Message: "question text is required in at least one language",
			}
		}
	}
	return nil
}

func validateSource(source models.QuestionSource) *ValidationError {
	if !validSourceTypes[source.Type] {
		return &ValidationError{Field: "source.type", Message: fmt.Sprintf("unknown source type %q", source.Type)}
	}
	if source.Type == models.SourceBoard {
		if source.Board == "" {
			return &ValidationError{Field: "source.board", Message: "board is required for board questions"}
		}
		if source.Year <= 0 {
			return &ValidationError{Field: "source.year", Message: "year is required for board questions"}
		}
	}
	return nil
}

func validateMeta(meta models.QuestionMeta) *ValidationError {
	if !validLevels[meta.Level] {
		return &ValidationError{Field: "meta.level", Message: fmt.Sprintf("unknown level %q", meta.Level)}
	}
	if !validGroups[meta.Group] {
		return &ValidationError{Field: "meta.group", Message: fmt.Sprintf("unknown group %q", meta.Group)}
	}
	if meta.SubjectID.IsZero() {
		return &ValidationError{Field: "meta.subject_id", Message: "subject id is required"}
	}
	return nil
}

// embeddingProjection is the canonical searchable view of a question: stem,
// parts, taxonomy references and cohort metadata. Source, aliases, tags and
// timestamps are excluded so that administrative edits do not shift the
// vector.
func embeddingProjection(q models.Question) map[string]any {
	labels := [4]string{"a", "b", "c", "d"}
	parts := make(map[string]any, 4)
	for i, part := range q.Parts.PartsSlice() {
		entry := map[string]any{
			"question": map[string]any{"en": part.Question.En, "bn": part.Question.Bn},
			"answer":   map[string]any{"en": part.Answer.En, "bn": part.Answer.Bn},
			"marks":    part.Marks,
		}
		if part.ChapterID != nil {
			entry["chapter_id"] = part.ChapterID.Hex()
		}
		if part.TopicID != nil {
			entry["topic_id"] = part.TopicID.Hex()
		}
		parts[labels[i]] = entry
	}

	projection := map[string]any{
		"stem": map[string]any{
			"text":   map[string]any{"en": q.Stem.Text.En, "bn": q.Stem.Text.Bn},
			"images": q.Stem.Images,
		},
		"parts":      parts,
		"level":      q.Meta.Level,
		"group":      q.Meta.Group,
		"subject_id": q.Meta.SubjectID.Hex(),
	}
	if q.Meta.MainChapterID != nil {
		projection["main_chapter_id"] = q.Meta.MainChapterID.Hex()
	}
	return projection
}
