package routes

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
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

// HandleUploadSyllabus accepts a syllabus PDF for a subject and enqueues
// chunking and embedding.
func HandleUploadSyllabus(cfg *config.Config, queueClient *asynq.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		subjectID := c.PostForm("subject_id")
		if _, err := primitive.ObjectIDFromHex(subjectID); err != nil {
			utils.RespondWithBadRequest(c, "invalid subject_id", nil)
			return
		}

		file, err := c.FormFile("pdf")
		if err != nil {
			utils.RespondWithBadRequest(c, "no PDF file provided", nil)
			return
		}
		if !strings.HasSuffix(strings.ToLower(file.Filename), ".pdf") || !typeAllowed(cfg, "application/pdf") {
			utils.RespondWithBadRequest(c, "only PDF files are allowed", nil)
			return
		}
		if file.Size > cfg.MaxFileSize {
			utils.RespondWithBadRequest(c, "file exceeds size limit", nil)
			return
		}

		uploadDir := filepath.Join(cfg.FileStorageDir, "syllabus")
		if err := os.MkdirAll(uploadDir, 0755); err != nil {
			utils.RespondWithInternalError(c, "failed to create upload directory", nil)
			return
		}

		path := filepath.Join(uploadDir, fmt.Sprintf("%s.pdf", uuid.NewString()))
		if err := c.SaveUploadedFile(file, path); err != nil {
			utils.RespondWithInternalError(c, "failed to save file", nil)
			return
		}

		task, err := queue.NewSyllabusTask(queue.SyllabusPayload{
			SubjectID: subjectID,
			FilePath:  path,
			Source:    file.Filename,
		})
		if err != nil {
			os.Remove(path)
			utils.RespondWithInternalError(c, "failed to create syllabus task", nil)
			return
		}

		info, err := queueClient.Enqueue(task)
		if err != nil {
			os.Remove(path)
			utils.RespondWithInternalError(c, "failed to enqueue syllabus task", nil)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"message": "syllabus accepted for processing",
			"task_id": info.ID,
		})
	}
}

// HandleListSyllabusChunks returns a subject's stored syllabus chunks.
func HandleListSyllabusChunks(syllabus *services.SyllabusService) gin.HandlerFunc {
	return func(c *gin.Context) {
		subjectID, err := primitive.ObjectIDFromHex(c.Param("subjectID"))
		if err != nil {
			utils.RespondWithBadRequest(c, "invalid subject id", nil)
			return
		}

		chunks, err := syllabus.ChunksBySubject(c.Request.Context(), subjectID)
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"chunks": chunks,
			"count":  len(chunks),
		})
	}
}
