package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shikkha-content-platform/internal/ai"
	"shikkha-content-platform/internal/logger"
)

// VisionModel is the vision-capable language model the extraction engine
// drives. *ai.GeminiClient satisfies it.
type VisionModel interface {
	GenerateVision(ctx context.Context, prompt string, images []ai.ImagePart) (string, error)
}

// QuestionGroup is one extracted question: the shared stem plus the four
// labeled sub-questions under uniform a-d keys.
type QuestionGroup struct {
	Stem string `json:"stem"`
	A    string `json:"a"`
	B    string `json:"b"`
	C    string `json:"c"`
	D    string `json:"d"`
}

// ExtractedQuestionSet pairs an original-language question group with its
// full translation. The model emits them adjacently; the parser validates
// the pairing instead of handing callers an untyped array.
type ExtractedQuestionSet struct {
	Original   QuestionGroup `json:"original"`
	Translated QuestionGroup `json:"translated"`
}

// AnswerSet holds the four per-part answers.
type AnswerSet struct {
	AAnswer string `json:"aAnswer"`
	BAnswer string `json:"bAnswer"`
	CAnswer string `json:"cAnswer"`
	DAnswer string `json:"dAnswer"`
}

// ExtractedAnswers is the fixed two-object result of answer extraction:
// revised English answers and their Bangla translation.
type ExtractedAnswers struct {
	English AnswerSet `json:"english"`
	Bangla  AnswerSet `json:"bangla"`
}

const questionExtractionPrompt = `You are reading photographed pages of Bangladeshi Srijonshil (creative) exam questions.

Extract every COMPLETE question group on the pages. A group is one stem (uddipok) followed by four labeled sub-questions.

Rules:
1. For each detected group output TWO objects in sequence: first the group in its original language, then a complete translation of the whole group into the other language (Bangla to English, or English to Bangla).
2. Every object must have exactly the keys "stem", "a", "b", "c", "d" — use these keys even when the paper labels parts with Bangla letters (ka, kha, ga, gha).
3. Write all mathematics in LaTeX inside $...$ and escape backslashes for JSON: write \\times, never \times.
4. If a sub-part is missing or unreadable, use "" for its key. Never omit a key.
5. Output a single JSON array and nothing else. No markdown fences, no commentary, no trailing text.`

const answerExtractionPrompt = `You are reading photographed pages containing solved answers to a Bangladeshi Srijonshil (creative) exam question.

Produce a JSON array of EXACTLY two objects:
1. The first object: the answers revised into clear English.
2. The second object: the same answers translated into Bangla.

Each object must have exactly the keys "aAnswer", "bAnswer", "cAnswer", "dAnswer". Use "" for any answer not present on the pages.

Write all mathematics in LaTeX inside $...$ and escape backslashes for JSON: write \\times, never \times. Output the JSON array only — no markdown fences, no commentary.`

// ExtractionService drives the vision model with the fixed Srijonshil
// prompts and normalizes its output.
type ExtractionService struct {
	model   VisionModel
	timeout time.Duration
}

func NewExtractionService(model VisionModel, timeout time.Duration) *ExtractionService {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &ExtractionService{
		model:   model,
		timeout: timeout,
	}
}

// ExtractQuestions submits the images in a single model call and returns the
// extracted original/translated pairs. The temporary image files are removed
// on every path, including timeouts. A response that cannot be parsed at all
// degrades to an empty result ("nothing found"), while transport and model
// failures surface as ErrExtractionFailed.
func (s *ExtractionService) ExtractQuestions(ctx context.Context, imagePaths []string) ([]ExtractedQuestionSet, error) {
	defer cleanupFiles(imagePaths)

	images, err := loadImages(imagePaths)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.model.GenerateVision(ctx, questionExtractionPrompt, images)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	return parseQuestionSets(raw)
}

// ExtractAnswers submits the images and returns the English/Bangla answer
// pair. The result always carries exactly two answer sets or fails with
// ErrInvalidResponseFormat.
func (s *ExtractionService) ExtractAnswers(ctx context.Context, imagePaths []string) (*ExtractedAnswers, error) {
	defer cleanupFiles(imagePaths)

	images, err := loadImages(imagePaths)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.model.GenerateVision(ctx, answerExtractionPrompt, images)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	return parseAnswerSets(raw)
}

// parseQuestionSets turns raw model output into validated pairs. The raw
// array must hold an even number of groups: each original immediately
// followed by its translation.
func parseQuestionSets(raw string) ([]ExtractedQuestionSet, error) {
	doc, err := ai.NormalizeModelJSON(raw)
	if err != nil {
		logger.Warn("unparseable question extraction output", "raw", truncateForLog(raw))
		return []ExtractedQuestionSet{}, nil
	}

	var groups []QuestionGroup
	if err := json.Unmarshal(doc, &groups); err != nil {
		return nil, fmt.Errorf("%w: expected an array of question groups", ErrInvalidResponseFormat)
	}

	if len(groups)%2 != 0 {
		return nil, fmt.Errorf("%w: %d groups, originals and translations must pair up", ErrInvalidResponseFormat, len(groups))
	}

	sets := make([]ExtractedQuestionSet, 0, len(groups)/2)
	for i := 0; i < len(groups); i += 2 {
		sets = append(sets, ExtractedQuestionSet{
			Original:   groups[i],
			Translated: groups[i+1],
		})
	}

	return sets, nil
}

// parseAnswerSets validates the fixed two-object answers contract.
func parseAnswerSets(raw string) (*ExtractedAnswers, error) {
	doc, err := ai.NormalizeModelJSON(raw)
	if err != nil {
		logger.Warn("unparseable answer extraction output", "raw", truncateForLog(raw))
		return &ExtractedAnswers{}, nil
	}

	var sets []AnswerSet
	if err := json.Unmarshal(doc, &sets); err != nil {
		return nil, fmt.Errorf("%w: expected an array of answer objects", ErrInvalidResponseFormat)
	}

	if len(sets) != 2 {
		return nil, fmt.Errorf("%w: got %d answer objects, want exactly 2", ErrInvalidResponseFormat, len(sets))
	}

	return &ExtractedAnswers{
		English: sets[0],
		Bangla:  sets[1],
	}, nil
}

func loadImages(paths []string) ([]ai.ImagePart, error) {
	images := make([]ai.ImagePart, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read image %s: %v", filepath.Base(path), err)
		}
		images = append(images, ai.ImagePart{
			MIMEType: imageMIMEType(path),
			Data:     data,
		})
	}
	return images, nil
}

func imageMIMEType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// cleanupFiles removes temporary upload files. Missing files are fine;
// anything else is logged and otherwise ignored.
func cleanupFiles(paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove temp image", "path", path, "error", err)
		}
	}
}

func truncateForLog(s string) string {
	const limit = 2000
	if len(s) > limit {
		return s[:limit] + "…"
	}
	return s
}
