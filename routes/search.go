package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shikkha-content-platform/services"
	"shikkha-content-platform/utils"
)

// HandleSearch answers similarity queries: GET /api/search?q=...&kind=question&top_k=5
func HandleSearch(search *services.SearchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Query("q")
		if query == "" {
			utils.RespondWithBadRequest(c, "query parameter q is required", nil)
			return
		}

		topK := 0
		if raw := c.Query("top_k"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 || parsed > 100 {
				utils.RespondWithBadRequest(c, "top_k must be an integer between 0 and 100", nil)
				return
			}
			topK = parsed
		}

		results, err := search.Search(c.Request.Context(), query, c.Query("kind"), topK)
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"results": results,
			"count":   len(results),
		})
	}
}
