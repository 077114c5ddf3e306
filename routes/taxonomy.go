package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"shikkha-content-platform/services"
	"shikkha-content-platform/utils"
)

// HandleGetSubject returns one subject.
func HandleGetSubject(taxonomy *services.TaxonomyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			utils.RespondWithBadRequest(c, "invalid subject id", nil)
			return
		}

		subject, err := taxonomy.SubjectByID(c.Request.Context(), id)
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, subject)
	}
}

// HandleListChapters returns a subject's chapters in resolution order.
func HandleListChapters(taxonomy *services.TaxonomyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		subjectID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			utils.RespondWithBadRequest(c, "invalid subject id", nil)
			return
		}

		chapters, err := taxonomy.ChaptersBySubject(c.Request.Context(), subjectID)
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"chapters": chapters})
	}
}

// HandleListTopics returns a chapter's topics in resolution order.
func HandleListTopics(taxonomy *services.TaxonomyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		chapterID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			utils.RespondWithBadRequest(c, "invalid chapter id", nil)
			return
		}

		topics, err := taxonomy.TopicsByChapter(c.Request.Context(), chapterID)
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"topics": topics})
	}
}
