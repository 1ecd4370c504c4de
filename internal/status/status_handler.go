package status

import (
	"net/http"

	"go-leavedesk/internal/shared/response"

	"github.com/gin-gonic/gin"
)

type StatusResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Handler struct {
	vocabulary Vocabulary
}

func NewHandler(vocabulary Vocabulary) *Handler {
	return &Handler{vocabulary: vocabulary}
}

func (h *Handler) List(c *gin.Context) {
	statuses := h.vocabulary.All()

	resp := make([]StatusResponse, len(statuses))
	for i, s := range statuses {
		resp[i] = StatusResponse{
			ID:   s.ID.String(),
			Name: s.Name,
		}
	}

	response.Success(c, http.StatusOK, resp, nil)
}
