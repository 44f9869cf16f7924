package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bobpay/bobpay-backend/internal/dto"
	"github.com/bobpay/bobpay-backend/internal/http/handlers/common"
	"github.com/bobpay/bobpay-backend/internal/service"
)

// MilestoneHandler предоставляет HTTP слой для этапов, сдач и выплат.
type MilestoneHandler struct {
	milestones *service.MilestoneService
}

// NewMilestoneHandler создаёт хэндлер.
func NewMilestoneHandler(milestones *service.MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{milestones: milestones}
}

// Get обрабатывает GET /milestones/:id.
func (h *MilestoneHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	milestoneID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	milestone, err := h.milestones.GetMilestone(c.Request.Context(), milestoneID, userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, milestone)
}

// ListByProject обрабатывает GET /projects/:id/milestones.
func (h *MilestoneHandler) ListByProject(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	projectID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	milestones, err := h.milestones.ListMilestones(c.Request.Context(), projectID, userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, milestones)
}

// SubmitWork обрабатывает POST /milestones/:id/deliver.
func (h *MilestoneHandler) SubmitWork(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	milestoneID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.SubmitWorkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	delivery, err := h.milestones.SubmitWork(c.Request.Context(), userID, service.SubmitWorkInput{
		MilestoneID: milestoneID,
		Files:       req.Files,
		Notes:       req.Notes,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, delivery)
}

// StartReview обрабатывает POST /deliveries/:id/review.
func (h *MilestoneHandler) StartReview(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	deliveryID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.milestones.StartReview(c.Request.Context(), deliveryID, userID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "проверка начата"})
}

// ApproveDelivery обрабатывает POST /deliveries/:id/approve.
func (h *MilestoneHandler) ApproveDelivery(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	deliveryID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.ApproveDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.milestones.ApproveDelivery(c.Request.Context(), deliveryID, userID, req.VerificationScore); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "сдача принята, этап проверен"})
}

// ReleasePayment обрабатывает POST /milestones/:id/release.
// Все условия выплаты проверяет сервер; тело запроса не требуется.
func (h *MilestoneHandler) ReleasePayment(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	milestoneID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.milestones.ReleasePayment(c.Request.Context(), milestoneID, userID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "выплата по этапу проведена"})
}
