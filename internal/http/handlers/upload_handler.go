package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bobpay/bobpay-backend/internal/http/handlers/common"
	"github.com/bobpay/bobpay-backend/internal/storage"
)

// UploadHandler принимает файлы сдач работ.
type UploadHandler struct {
	storage *storage.DeliveryStorage
}

// NewUploadHandler создаёт хэндлер.
func NewUploadHandler(storage *storage.DeliveryStorage) *UploadHandler {
	return &UploadHandler{storage: storage}
}

// Upload обрабатывает POST /uploads.
// Принимает multipart поле "file", проверяет тип по сигнатуре
// и возвращает относительный путь для включения в сдачу работы.
func (h *UploadHandler) Upload(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "файл обязателен")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	relativePath, size, err := h.storage.Save(c.Request.Context(), userID, fileHeader.Filename, file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"path":       relativePath,
		"size_bytes": size,
	})
}
