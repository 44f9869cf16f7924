package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/bobpay/bobpay-backend/internal/http/middleware"
)

// fakeAuth подставляет userID в контекст вместо полной проверки JWT.
func fakeAuth(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, userID)
		c.Next()
	}
}

func TestMilestoneHandler_Get_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &MilestoneHandler{milestones: nil}
	r.GET("/milestones/:id", handler.Get)

	req, _ := http.NewRequest("GET", "/milestones/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMilestoneHandler_Get_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &MilestoneHandler{milestones: nil}
	r.GET("/milestones/:id", fakeAuth(uuid.New()), handler.Get)

	req, _ := http.NewRequest("GET", "/milestones/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMilestoneHandler_SubmitWork_BadPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &MilestoneHandler{milestones: nil}
	r.POST("/milestones/:id/deliver", fakeAuth(uuid.New()), handler.SubmitWork)

	req, _ := http.NewRequest("POST", "/milestones/"+uuid.NewString()+"/deliver", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMilestoneHandler_ReleasePayment_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &MilestoneHandler{milestones: nil}
	r.POST("/milestones/:id/release", handler.ReleasePayment)

	req, _ := http.NewRequest("POST", "/milestones/"+uuid.NewString()+"/release", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMilestoneHandler_ReleasePayment_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &MilestoneHandler{milestones: nil}
	r.POST("/milestones/:id/release", fakeAuth(uuid.New()), handler.ReleasePayment)

	req, _ := http.NewRequest("POST", "/milestones/bad-id/release", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
