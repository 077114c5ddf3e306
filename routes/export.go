package routes

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"shikkha-content-platform/services"
	"shikkha-content-platform/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HandleExportQuestions streams the matching questions as an XLSX download.
func HandleExportQuestions(export *services.ExportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := services.QuestionFilter{
			Level: c.Query("level"),
			Group: c.Query("group"),
		}
		if hex := c.Query("subject_id"); hex != "" {
			subjectID, err := primitive.ObjectIDFromHex(hex)
			if err != nil {
				utils.RespondWithBadRequest(c, "invalid subject_id", nil)
				return
			}
			filter.SubjectID = &subjectID
		}
		if limit, err := strconv.ParseInt(c.Query("limit"), 10, 64); err == nil && limit > 0 {
			filter.Limit = limit
		}

		buf, count, err := export.ExportQuestionsXLSX(c.Request.Context(), filter)
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		filename := "questions_" + time.Now().Format("20060102_150405") + ".xlsx"
		c.Header("Content-Disposition", "attachment; filename="+filename)
		c.Header("X-Record-Count", strconv.Itoa(count))
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	}
}
