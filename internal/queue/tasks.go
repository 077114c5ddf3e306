package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"shikkha-content-platform/internal/logger"
	"shikkha-content-platform/models"
	"shikkha-content-platform/services"
)

const (
	TaskIngestQuestionImages = "ingest:question_images"
	TaskProcessSyllabus      = "syllabus:process"
	TaskReconcileEmbeddings  = "embedding:reconcile"
)

type QuestionImagesPayload struct {
	ImagePaths       []string `json:"image_paths"`
	AnswerImagePaths []string `json:"answer_image_paths,omitempty"`
	Level            string   `json:"level"`
	Group            string   `json:"group"`
	SubjectID        string   `json:"subject_id"`
	SourceType       string   `json:"source_type"`
	Board            string   `json:"board,omitempty"`
	Year             int      `json:"year,omitempty"`
	ExamType         string   `json:"exam_type,omitempty"`
}

type SyllabusPayload struct {
	SubjectID string `json:"subject_id"`
	FilePath  string `json:"file_path"`
	Source    string `json:"source"`
}

// Task creators

func NewQuestionImagesTask(payload QuestionImagesPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestQuestionImages,
		data,
		asynq.MaxRetry(2),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("critical"),
	), nil
}

func NewSyllabusTask(payload SyllabusPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskProcessSyllabus,
		data,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("default"),
	), nil
}

func NewReconcileTask() *asynq.Task {
	return asynq.NewTask(
		TaskReconcileEmbeddings,
		nil,
		asynq.MaxRetry(1),
		asynq.Timeout(5*time.Minute),
		asynq.Queue("default"),
	)
}

// TaskProcessor runs the background side of ingestion.
type TaskProcessor struct {
	extraction     *services.ExtractionService
	questions      *services.QuestionService
	syllabus       *services.SyllabusService
	reconciliation *services.ReconciliationService
}

func NewTaskProcessor(
	extraction *services.ExtractionService,
	questions *services.QuestionService,
	syllabus *services.SyllabusService,
	reconciliation *services.ReconciliationService,
) *TaskProcessor {
	return &TaskProcessor{
		extraction:     extraction,
		questions:      questions,
		syllabus:       syllabus,
		reconciliation: reconciliation,
	}
}

// ProcessQuestionImages extracts question sets from the uploaded images and
// persists each one. Extraction consumes the image files, so a failure after
// that point must not be retried against paths that no longer exist.
func (p *TaskProcessor) ProcessQuestionImages(ctx context.Context, t *asynq.Task) error {
	var payload QuestionImagesPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	subjectID, err := primitive.ObjectIDFromHex(payload.SubjectID)
	if err != nil {
		return fmt.Errorf("bad subject id %q: %w", payload.SubjectID, asynq.SkipRetry)
	}

	sets, err := p.extraction.ExtractQuestions(ctx, payload.ImagePaths)
	if err != nil {
		return err
	}

	var answers *services.ExtractedAnswers
	if len(payload.AnswerImagePaths) > 0 {
		answers, err = p.extraction.ExtractAnswers(ctx, payload.AnswerImagePaths)
		if err != nil {
			logger.Warn("answer extraction failed, ingesting questions without answers", "error", err)
			answers = nil
		}
	}

	meta := models.QuestionMeta{
		Level:     payload.Level,
		Group:     payload.Group,
		SubjectID: subjectID,
	}
	source := models.QuestionSource{
		Type:     payload.SourceType,
		Year:     payload.Year,
		Board:    payload.Board,
		ExamType: payload.ExamType,
	}

	created, failed := 0, 0
	for i, set := range sets {
		input := services.InputFromExtractedSet(set, meta, source)
		if answers != nil && len(sets) == 1 {
			services.ApplyExtractedAnswers(&input, answers)
		}

		question, err := p.questions.CreateQuestion(ctx, input)
		if err != nil {
			failed++
			logger.Error("failed to persist extracted question",
				"set_index", i, "subject_id", payload.SubjectID, "error", err)
			continue
		}
		created++
		logger.Debug("extracted question persisted", "question_id", question.ID.Hex())
	}

	logger.Info("question image ingestion finished",
		"subject_id", payload.SubjectID,
		"extracted", len(sets), "created", created, "failed", failed)

	if failed > 0 && created == 0 && len(sets) > 0 {
		// The images are gone; retrying cannot help.
		return fmt.Errorf("all %d extracted questions failed to persist: %w", failed, asynq.SkipRetry)
	}
	return nil
}

// ProcessSyllabus ingests one syllabus PDF.
func (p *TaskProcessor) ProcessSyllabus(ctx context.Context, t *asynq.Task) error {
	var payload SyllabusPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	subjectID, err := primitive.ObjectIDFromHex(payload.SubjectID)
	if err != nil {
		return fmt.Errorf("bad subject id %q: %w", payload.SubjectID, asynq.SkipRetry)
	}

	chunks, err := p.syllabus.IngestPDF(ctx, subjectID, payload.FilePath, payload.Source)
	if err != nil {
		if services.IsValidationError(err) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	logger.Info("syllabus task finished", "subject_id", payload.SubjectID, "chunks", chunks)
	return nil
}

// ReconcileEmbeddings runs one sweep over the dual-write gap.
func (p *TaskProcessor) ReconcileEmbeddings(ctx context.Context, t *asynq.Task) error {
	report, err := p.reconciliation.Run(ctx)
	if err != nil {
		return err
	}
	if report.BatchExceeded {
		logger.Warn("reconciliation batch was full, more gaps may remain")
	}
	return nil
}
