package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bobpay/bobpay-backend/internal/http/handlers/common"
	"github.com/bobpay/bobpay-backend/internal/service"
)

// ActivityHandler предоставляет HTTP слой для ленты событий.
type ActivityHandler struct {
	activity *service.ActivityService
}

// NewActivityHandler создаёт хэндлер.
func NewActivityHandler(activity *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

// ListMine обрабатывает GET /activity.
func (h *ActivityHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit := common.ParseIntQuery(c, "limit", 20)
	offset := common.ParseIntQuery(c, "offset", 0)

	entries, err := h.activity.ListByUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, entries)
}

// ListByProject обрабатывает GET /projects/:id/activity.
// Хронология событий проекта: отклики, сдачи, выплаты, споры.
func (h *ActivityHandler) ListByProject(c *gin.Context) {
	if _, err := common.CurrentUserID(c); err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	projectID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	entries, err := h.activity.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, entries)
}
