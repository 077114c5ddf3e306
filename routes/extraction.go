package routes

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"shikkha-content-platform/internal/config"
	"shikkha-content-platform/internal/queue"
	"shikkha-content-platform/services"
	"shikkha-content-platform/utils"
)

// imageExtensionTypes maps accepted image extensions to the MIME type
// checked against the configured ALLOWED_FILE_TYPES list.
var imageExtensionTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

func typeAllowed(cfg *config.Config, mimeType string) bool {
	for _, allowed := range cfg.AllowedTypes {
		if strings.TrimSpace(allowed) == mimeType {
			return true
		}
	}
	return false
}

// saveUploadedImages copies multipart image files into the storage dir and
// returns their paths. On any failure the already-saved files are removed.
func saveUploadedImages(c *gin.Context, cfg *config.Config, files []*multipart.FileHeader) ([]string, error) {
	uploadDir := filepath.Join(cfg.FileStorageDir, "question_images")
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	var paths []string
	cleanup := func() {
		for _, p := range paths {
			os.Remove(p)
		}
	}

	for _, file := range files {
		ext := strings.ToLower(filepath.Ext(file.Filename))
		mimeType, ok := imageExtensionTypes[ext]
		if !ok || !typeAllowed(cfg, mimeType) {
			cleanup()
			return nil, fmt.Errorf("unsupported file type %q", ext)
		}
		if file.Size > cfg.MaxFileSize {
			cleanup()
			return nil, fmt.Errorf("file %s exceeds size limit", file.Filename)
		}

		path := filepath.Join(uploadDir, uuid.NewString()+ext)
		if err := c.SaveUploadedFile(file, path); err != nil {
			cleanup()
			return nil, fmt.Errorf("saving %s: %w", file.Filename, err)
		}
		paths = append(paths, path)
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no image files provided")
	}
	return paths, nil
}

// HandleExtractQuestions runs vision extraction synchronously and returns
// the original/translated pairs without persisting anything. Used by the
// review UI before a human confirms ingestion.
func HandleExtractQuestions(cfg *config.Config, extraction *services.ExtractionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			utils.RespondWithBadRequest(c, "invalid multipart form", nil)
			return
		}

		paths, err := saveUploadedImages(c, cfg, form.File["images"])
		if err != nil {
			utils.RespondWithBadRequest(c, err.Error(), nil)
			return
		}

		sets, err := extraction.ExtractQuestions(c.Request.Context(), paths)
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"question_sets": sets,
			"count":         len(sets),
		})
	}
}

// HandleExtractAnswers runs answer extraction synchronously.
func HandleExtractAnswers(cfg *config.Config, extraction *services.ExtractionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			utils.RespondWithBadRequest(c, "invalid multipart form", nil)
			return
		}

		paths, err := saveUploadedImages(c, cfg, form.File["images"])
		if err != nil {
			utils.RespondWithBadRequest(c, err.Error(), nil)
			return
		}

		answers, err := extraction.ExtractAnswers(c.Request.Context(), paths)
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, answers)
	}
}

// HandleIngestQuestionImages accepts question page images plus cohort
// metadata, enqueues background extraction and persistence, and returns 202
// with the task id.
func HandleIngestQuestionImages(cfg *config.Config, queueClient *asynq.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			utils.RespondWithBadRequest(c, "invalid multipart form", nil)
			return
		}

		subjectID := c.PostForm("subject_id")
		if _, err := primitive.ObjectIDFromHex(subjectID); err != nil {
			utils.RespondWithBadRequest(c, "invalid subject_id", nil)
			return
		}

		paths, err := saveUploadedImages(c, cfg, form.File["images"])
		if err != nil {
			utils.RespondWithBadRequest(c, err.Error(), nil)
			return
		}

		var answerPaths []string
		if answerFiles := form.File["answer_images"]; len(answerFiles) > 0 {
			answerPaths, err = saveUploadedImages(c, cfg, answerFiles)
			if err != nil {
				for _, p := range paths {
					os.Remove(p)
				}
				utils.RespondWithBadRequest(c, err.Error(), nil)
				return
			}
		}

		year, _ := strconv.Atoi(c.PostForm("year"))
		payload := queue.QuestionImagesPayload{
			ImagePaths:       paths,
			AnswerImagePaths: answerPaths,
			Level:            c.PostForm("level"),
			Group:            c.PostForm("group"),
			SubjectID:        subjectID,
			SourceType:       c.PostForm("source_type"),
			Board:            c.PostForm("board"),
			Year:             year,
			ExamType:         c.PostForm("exam_type"),
		}

		task, err := queue.NewQuestionImagesTask(payload)
		if err != nil {
			utils.RespondWithInternalError(c, "failed to create ingestion task", nil)
			return
		}

		info, err := queueClient.Enqueue(task)
		if err != nil {
			utils.RespondWithInternalError(c, "failed to enqueue ingestion task", nil)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"message": "images accepted for extraction",
			"task_id": info.ID,
			"images":  len(paths),
		})
	}
}
