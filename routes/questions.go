package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"shikkha-content-platform/models"
	"shikkha-content-platform/services"
	"shikkha-content-platform/utils"
)

// PartRequest is one sub-question in a create/update body.
type PartRequest struct {
	Question models.BilingualText `json:"question"`
	Answer   models.BilingualText `json:"answer"`
	Marks    int                  `json:"marks"`
	Chapter  string               `json:"chapter,omitempty"`
	Topic    string               `json:"topic,omitempty"`
}

// CreateQuestionRequest is the JSON body for question creation. Chapter and
// topic fields carry free-text names; the service resolves them to ids.
type CreateQuestionRequest struct {
	Stem        models.QuestionStem    `json:"stem"`
	Parts       map[string]PartRequest `json:"parts" binding:"required"`
	Level       string                 `json:"level" binding:"required"`
	Group       string                 `json:"group" binding:"required"`
	SubjectID   string                 `json:"subject_id" binding:"required"`
	MainChapter string                 `json:"main_chapter,omitempty"`
	Source      models.QuestionSource  `json:"source"`
	Aliases     models.BilingualList   `json:"aliases"`
	Tags        []string               `json:"tags"`
}

func (r *CreateQuestionRequest) toInput(subjectID primitive.ObjectID) services.CreateQuestionInput {
	input := services.CreateQuestionInput{
		Stem: r.Stem,
		Meta: models.QuestionMeta{
			Level:     r.Level,
			Group:     r.Group,
			SubjectID: subjectID,
		},
		Source:          r.Source,
		Aliases:         r.Aliases,
		Tags:            r.Tags,
		MainChapterName: r.MainChapter,
	}

	slots := map[string]*models.QuestionPart{
		"a": &input.Parts.A, "b": &input.Parts.B, "c": &input.Parts.C, "d": &input.Parts.D,
	}
	chapterHints := map[string]*string{
		"a": &input.PartChapters.A, "b": &input.PartChapters.B, "c": &input.PartChapters.C, "d": &input.PartChapters.D,
	}
	topicHints := map[string]*string{
		"a": &input.PartTopics.A, "b": &input.PartTopics.B, "c": &input.PartTopics.C, "d": &input.PartTopics.D,
	}
	for key, part := range r.Parts {
		slot, ok := slots[key]
		if !ok {
			continue
		}
		slot.Question = part.Question
		slot.Answer = part.Answer
		slot.Marks = part.Marks
		*chapterHints[key] = part.Chapter
		*topicHints[key] = part.Topic
	}

	return input
}

// HandleCreateQuestion persists a new question with its embedding.
func HandleCreateQuestion(questions *services.QuestionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateQuestionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "invalid request body", err.Error())
			return
		}

		subjectID, err := primitive.ObjectIDFromHex(req.SubjectID)
		if err != nil {
			utils.RespondWithBadRequest(c, "invalid subject_id", nil)
			return
		}

		question, err := questions.CreateQuestion(c.Request.Context(), req.toInput(subjectID))
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		c.JSON(http.StatusCreated, question)
	}
}

// HandleGetQuestion fetches one question by id.
func HandleGetQuestion(questions *services.QuestionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			utils.RespondWithBadRequest(c, "invalid question id", nil)
			return
		}

		question, err := questions.GetQuestionByID(c.Request.Context(), id)
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, question)
	}
}

// UpdateQuestionRequest is a partial update plus the version the caller last
// read; a stale version is rejected with 409.
type UpdateQuestionRequest struct {
	Stem            *models.QuestionStem   `json:"stem,omitempty"`
	Parts           *models.QuestionParts  `json:"parts,omitempty"`
	Meta            *models.QuestionMeta   `json:"meta,omitempty"`
	Source          *models.QuestionSource `json:"source,omitempty"`
	Aliases         *models.BilingualList  `json:"aliases,omitempty"`
	Tags            *[]string              `json:"tags,omitempty"`
	ExpectedVersion int64                  `json:"expected_version" binding:"required"`
}

// HandleUpdateQuestion applies a versioned update and re-embeds.
func HandleUpdateQuestion(questions *services.QuestionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			utils.RespondWithBadRequest(c, "invalid question id", nil)
			return
		}

		var req UpdateQuestionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "invalid request body", err.Error())
			return
		}

		question, err := questions.UpdateQuestion(c.Request.Context(), id, services.UpdateQuestionInput{
			Stem:            req.Stem,
			Parts:           req.Parts,
			Meta:            req.Meta,
			Source:          req.Source,
			Aliases:         req.Aliases,
			Tags:            req.Tags,
			ExpectedVersion: req.ExpectedVersion,
		})
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, question)
	}
}

// HandleDeleteQuestion removes a question and its embedding.
func HandleDeleteQuestion(questions *services.QuestionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			utils.RespondWithBadRequest(c, "invalid question id", nil)
			return
		}

		if err := questions.DeleteQuestion(c.Request.Context(), id); err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// HandleListQuestions pages through the bank with optional filters.
func HandleListQuestions(questions *services.QuestionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := services.QuestionFilter{
			Level: c.Query("level"),
			Group: c.Query("group"),
			Limit: 20,
		}

		if hex := c.Query("subject_id"); hex != "" {
			subjectID, err := primitive.ObjectIDFromHex(hex)
			if err != nil {
				utils.RespondWithBadRequest(c, "invalid subject_id", nil)
				return
			}
			filter.SubjectID = &subjectID
		}
		if limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
		if offset, err := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64); err == nil && offset > 0 {
			filter.Offset = offset
		}

		list, err := questions.ListQuestions(c.Request.Context(), filter)
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"questions": list,
			"count":     len(list),
		})
	}
}
