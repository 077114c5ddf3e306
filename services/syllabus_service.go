package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shikkha-content-platform/internal/logger"
	"shikkha-content-platform/models"
)

// TextChunker splits long syllabus text into overlapping chunks on paragraph
// boundaries so each embedded chunk stays self-contained.
type TextChunker struct {
	maxChunkSize   int
	overlap        int
	minChunkSize   int
	sentenceRegex  *regexp.Regexp
	paragraphRegex *regexp.Regexp
}

func NewTextChunker(maxChunkSize, overlap, minChunkSize int) *TextChunker {
	return &TextChunker{
		maxChunkSize:   maxChunkSize,
		overlap:        overlap,
		minChunkSize:   minChunkSize,
		sentenceRegex:  regexp.MustCompile(`[.!?।]+[\s]+`),
		paragraphRegex: regexp.MustCompile(`\n\n+`),
	}
}

// ChunkText splits text paragraph-first. A paragraph that would push the
// current chunk past maxChunkSize closes the chunk, and the next chunk opens
// with trailing sentences from the previous one as overlap.
func (c *TextChunker) ChunkText(text string) []string {
	paragraphs := filterEmpty(c.paragraphRegex.Split(text, -1))
	if len(paragraphs) == 0 {
		return nil
	}

	var chunks []string
	current := new(strings.Builder)

	for _, paragraph := range paragraphs {
		paragraph = strings.TrimSpace(paragraph)

		if current.Len()+len(paragraph) > c.maxChunkSize && current.Len() >= c.minChunkSize {
			chunks = append(chunks, current.String())
			overlap := c.overlapText(current.String())
			current = new(strings.Builder)
			current.WriteString(overlap)
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(paragraph)
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

// overlapText takes trailing sentences of a chunk, up to the configured
// overlap size, preferring sentence boundaries over a hard cut.
func (c *TextChunker) overlapText(text string) string {
	if c.overlap <= 0 {
		return ""
	}
	if len(text) <= c.overlap {
		return text
	}

	sentences := filterEmpty(c.sentenceRegex.Split(text, -1))
	var tail []string
	size := 0
	for i := len(sentences) - 1; i >= 0; i-- {
		if size+len(sentences[i]) > c.overlap {
			break
		}
		tail = append([]string{sentences[i]}, tail...)
		size += len(sentences[i])
	}
	if len(tail) == 0 {
		return text[len(text)-c.overlap:]
	}
	return strings.Join(tail, ". ")
}

func filterEmpty(parts []string) []string {
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			result = append(result, p)
		}
	}
	return result
}

// SyllabusService ingests syllabus PDFs: extract text, chunk it, store the
// chunks and embed each one as a subject_chunk vector so searches can pull
// syllabus context alongside questions.
type SyllabusService struct {
	chunksColl *mongo.Collection
	embeddings *mongo.Collection
	chunker    *TextChunker
	embedder   Embedder
}

func NewSyllabusService(db *mongo.Database, chunker *TextChunker, embedder Embedder) *SyllabusService {
	return &SyllabusService{
		chunksColl: db.Collection("syllabus_chunks"),
		embeddings: db.Collection("embeddings"),
		chunker:    chunker,
		embedder:   embedder,
	}
}

// IngestPDF extracts and chunks one syllabus PDF for a subject, replacing
// any chunks previously ingested from the same source. The temp file is
// removed on all paths.
func (s *SyllabusService) IngestPDF(ctx context.Context, subjectID primitive.ObjectID, filePath, source string) (int, error) {
	defer cleanupFiles([]string{filePath})

	text, err := extractPDFText(filePath)
	if err != nil {
		return 0, fmt.Errorf("extracting syllabus text: %w", err)
	}

	chunks := s.chunker.ChunkText(text)
	if len(chunks) == 0 {
		return 0, &ValidationError{Field: "file", Message: "no extractable text in PDF"}
	}

	if err := s.replaceSource(ctx, subjectID, source); err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	stored := 0
	for order, chunkText := range chunks {
		doc := models.SyllabusChunk{
			ID:        primitive.NewObjectID(),
			SubjectID: subjectID,
			ChunkID:   uuid.NewString(),
			Order:     order,
			Text:      chunkText,
			Source:    source,
			CreatedAt: now,
		}
		if _, err := s.chunksColl.InsertOne(ctx, doc); err != nil {
			return stored, fmt.Errorf("%w: inserting syllabus chunk %d: %v", ErrPersistence, order, err)
		}

		if err := s.embedChunk(ctx, doc); err != nil {
			// The chunk stays; the reconciliation model for syllabus text is
			// simply re-ingesting the source.
			logger.Error("syllabus chunk stored without embedding",
				"chunk_id", doc.ChunkID, "subject_id", subjectID.Hex(), "error", err)
			return stored, fmt.Errorf("%w: embedding syllabus chunk %d: %v", ErrPersistence, order, err)
		}
		stored++
	}

	logger.Info("syllabus ingested",
		"subject_id", subjectID.Hex(), "source", source, "chunks", stored)
	return stored, nil
}

// ChunksBySubject returns the subject's stored syllabus chunks in order.
func (s *SyllabusService) ChunksBySubject(ctx context.Context, subjectID primitive.ObjectID) ([]models.SyllabusChunk, error) {
	cursor, err := s.chunksColl.Find(ctx,
		bson.M{"subject_id": subjectID},
		options.Find().SetSort(bson.D{{Key: "order", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var chunks []models.SyllabusChunk
	if err := cursor.All(ctx, &chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

func (s *SyllabusService) replaceSource(ctx context.Context, subjectID primitive.ObjectID, source string) error {
	cursor, err := s.chunksColl.Find(ctx,
		bson.M{"subject_id": subjectID, "source": source},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return fmt.Errorf("%w: finding previous chunks: %v", ErrPersistence, err)
	}
	defer cursor.Close(ctx)

	var previous []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &previous); err != nil {
		return fmt.Errorf("%w: reading previous chunks: %v", ErrPersistence, err)
	}
	if len(previous) == 0 {
		return nil
	}

	ids := make([]primitive.ObjectID, len(previous))
	for i, doc := range previous {
		ids[i] = doc.ID
	}

	if _, err := s.embeddings.DeleteMany(ctx, bson.M{
		"ref_kind": models.RefKindSubjectChunk,
		"ref_id":   bson.M{"$in": ids},
	}); err != nil {
		return fmt.Errorf("%w: deleting previous chunk embeddings: %v", ErrPersistence, err)
	}
	if _, err := s.chunksColl.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return fmt.Errorf("%w: deleting previous chunks: %v", ErrPersistence, err)
	}
	return nil
}

func (s *SyllabusService) embedChunk(ctx context.Context, chunk models.SyllabusChunk) error {
	vector, err := s.embedder.Embed(ctx, chunk.Text)
	if err != nil {
		return err
	}

	_, err = s.embeddings.InsertOne(ctx, models.Embedding{
		ID:        primitive.NewObjectID(),
		RefID:     chunk.ID,
		RefKind:   models.RefKindSubjectChunk,
		Vector:    vector,
		Dim:       len(vector),
		UpdatedAt: time.Now().UTC(),
	})
	return err
}

// extractPDFText pulls plain text from a PDF, page markers stripped.
func extractPDFText(filePath string) (string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("reading PDF: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}

	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("failed to extract PDF page", "page", i, "error", err)
			continue
		}

		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(text)
	}

	if builder.Len() == 0 {
		return "", fmt.Errorf("no extractable text")
	}
	return builder.String(), nil
}
