package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bobpay/bobpay-backend/internal/dto"
	"github.com/bobpay/bobpay-backend/internal/http/handlers/common"
	"github.com/bobpay/bobpay-backend/internal/service"
)

// DisputeHandler предоставляет HTTP слой для споров и доработок.
type DisputeHandler struct {
	contentions *service.ContentionService
}

// NewDisputeHandler создаёт хэндлер.
func NewDisputeHandler(contentions *service.ContentionService) *DisputeHandler {
	return &DisputeHandler{contentions: contentions}
}

// Raise обрабатывает POST /milestones/:id/disputes.
func (h *DisputeHandler) Raise(c *gin.Context) {
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

	var req dto.RaiseDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.contentions.RaiseDispute(c.Request.Context(), userID, service.RaiseDisputeInput{
		MilestoneID:  milestoneID,
		Reason:       req.Reason,
		Description:  req.Description,
		EvidenceURLs: req.EvidenceURLs,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dispute)
}

// Get обрабатывает GET /disputes/:id.
func (h *DisputeHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.contentions.GetDispute(c.Request.Context(), disputeID, userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dispute)
}

// List обрабатывает GET /disputes.
func (h *DisputeHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputes, err := h.contentions.ListDisputes(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, disputes)
}

// StartReview обрабатывает POST /disputes/:id/review. Только для админа.
func (h *DisputeHandler) StartReview(c *gin.Context) {
	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.contentions.StartDisputeReview(c.Request.Context(), disputeID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "спор взят в рассмотрение"})
}

// Resolve обрабатывает POST /disputes/:id/resolve. Только для админа.
func (h *DisputeHandler) Resolve(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	err = h.contentions.ResolveDispute(c.Request.Context(), userID, service.ResolveDisputeInput{
		DisputeID:  disputeID,
		Resolution: req.Resolution,
		Notes:      req.Notes,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "спор разрешён"})
}

// Cancel обрабатывает POST /disputes/:id/cancel.
func (h *DisputeHandler) Cancel(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.contentions.CancelDispute(c.Request.Context(), disputeID, userID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "спор отменён"})
}

// RequestRevision обрабатывает POST /milestones/:id/revisions.
func (h *DisputeHandler) RequestRevision(c *gin.Context) {
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

	var req dto.RequestRevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	revision, err := h.contentions.RequestRevision(c.Request.Context(), userID, service.RequestRevisionInput{
		MilestoneID: milestoneID,
		Reason:      req.Reason,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, revision)
}

// ListRevisions обрабатывает GET /revisions.
func (h *DisputeHandler) ListRevisions(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	revisions, err := h.contentions.ListRevisions(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, revisions)
}

// StartRevision обрабатывает POST /revisions/:id/start.
func (h *DisputeHandler) StartRevision(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	revisionID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.contentions.StartRevision(c.Request.Context(), revisionID, userID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "доработка взята в работу"})
}

// CompleteRevision обрабатывает POST /revisions/:id/complete.
func (h *DisputeHandler) CompleteRevision(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	revisionID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.contentions.CompleteRevision(c.Request.Context(), revisionID, userID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "доработка завершена, этап снова активен"})
}

// RejectRevision обрабатывает POST /revisions/:id/reject.
func (h *DisputeHandler) RejectRevision(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	revisionID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.contentions.RejectRevision(c.Request.Context(), revisionID, userID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "запрос доработки отклонён"})
}
