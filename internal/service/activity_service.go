package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/bobpay/bobpay-backend/internal/logger"
	"github.com/bobpay/bobpay-backend/internal/models"
)

// ActivityRepo описывает зависимости сервиса от репозитория журнала.
type ActivityRepo interface {
	Create(ctx context.Context, a *models.ActivityLog) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ActivityLog, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.ActivityLog, error)
}

// ActivityService ведёт журнал действий по проектам.
type ActivityService struct {
	repo ActivityRepo
}

// NewActivityService создаёт сервис журнала активности.
func NewActivityService(repo ActivityRepo) *ActivityService {
	return &ActivityService{repo: repo}
}

// Record пишет запись журнала. Ошибка логируется и не возвращается:
// журнал вспомогательный и не должен ломать доменные операции.
func (s *ActivityService) Record(ctx context.Context, a *models.ActivityLog) {
	if err := s.repo.Create(ctx, a); err != nil && logger.Log != nil {
		logger.Log.WithFields(map[string]interface{}{
			"action_type": a.ActionType,
			"user_id":     a.UserID,
			"error":       err.Error(),
		}).Warn("activity service: не удалось записать действие")
	}
}

// ListByUser возвращает последние действия пользователя.
func (s *ActivityService) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ActivityLog, error) {
	limit, offset = normalizePage(limit, offset)
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// ListByProject возвращает хронологию действий по проекту.
func (s *ActivityService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.ActivityLog, error) {
	return s.repo.ListByProject(ctx, projectID)
}
