package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bobpay/bobpay-backend/internal/dto"
	"github.com/bobpay/bobpay-backend/internal/http/handlers/common"
	"github.com/bobpay/bobpay-backend/internal/models"
	"github.com/bobpay/bobpay-backend/internal/service"
)

// ProjectHandler предоставляет HTTP слой для проектов и откликов.
type ProjectHandler struct {
	projects *service.ProjectService
}

// NewProjectHandler создаёт хэндлер.
func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// Create обрабатывает POST /projects.
func (h *ProjectHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	plan := make([]models.MilestonePlan, len(req.Milestones))
	for i, m := range req.Milestones {
		plan[i] = models.MilestonePlan{
			Title:       m.Title,
			Description: m.Description,
			AmountCents: m.AmountCents,
			DeadlineAt:  m.DeadlineAt,
		}
	}

	project, err := h.projects.CreateProject(c.Request.Context(), userID, service.CreateProjectInput{
		Title:            req.Title,
		Description:      req.Description,
		Category:         req.Category,
		TotalBudgetCents: req.TotalBudgetCents,
		DeadlineAt:       req.DeadlineAt,
		Milestones:       plan,
		Publish:          req.Publish,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, project)
}

// Get обрабатывает GET /projects/:id.
func (h *ProjectHandler) Get(c *gin.Context) {
	projectID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	project, err := h.projects.GetProject(c.Request.Context(), projectID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// ListMine обрабатывает GET /projects/my.
func (h *ProjectHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit := common.ParseIntQuery(c, "limit", 20)
	offset := common.ParseIntQuery(c, "offset", 0)

	projects, err := h.projects.ListMyProjects(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, projects)
}

// ListOpen обрабатывает GET /projects.
func (h *ProjectHandler) ListOpen(c *gin.Context) {
	limit := common.ParseIntQuery(c, "limit", 20)
	offset := common.ParseIntQuery(c, "offset", 0)
	category := c.Query("category")

	projects, err := h.projects.ListOpenProjects(c.Request.Context(), category, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, projects)
}

// Publish обрабатывает POST /projects/:id/publish.
func (h *ProjectHandler) Publish(c *gin.Context) {
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

	if err := h.projects.PublishProject(c.Request.Context(), projectID, userID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "проект опубликован"})
}

// Cancel обрабатывает POST /projects/:id/cancel.
func (h *ProjectHandler) Cancel(c *gin.Context) {
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

	if err := h.projects.CancelProject(c.Request.Context(), projectID, userID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "проект отменён, заморозка возвращена"})
}

// SubmitProposal обрабатывает POST /projects/:id/proposals.
func (h *ProjectHandler) SubmitProposal(c *gin.Context) {
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

	var req dto.CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	proposal, err := h.projects.SubmitProposal(c.Request.Context(), userID, service.SubmitProposalInput{
		ProjectID:           projectID,
		CoverLetter:         req.CoverLetter,
		ProposedBudgetCents: req.ProposedBudgetCents,
		ProposedTimeline:    req.ProposedTimeline,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, proposal)
}

// ListProposals обрабатывает GET /projects/:id/proposals.
func (h *ProjectHandler) ListProposals(c *gin.Context) {
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

	proposals, err := h.projects.ListProposals(c.Request.Context(), projectID, userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, proposals)
}

// AcceptProposal обрабатывает POST /proposals/:id/accept.
// Принятие отклика замораживает бюджет проекта на кошельке заказчика.
func (h *ProjectHandler) AcceptProposal(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	proposalID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.projects.AcceptProposal(c.Request.Context(), proposalID, userID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "отклик принят, бюджет заморожен"})
}
