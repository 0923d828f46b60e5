package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kitbuilder587/estimator-agents/internal/domain"
	"github.com/kitbuilder587/estimator-agents/internal/metrics"
	"github.com/kitbuilder587/estimator-agents/internal/repository"
)

const (
	DefaultActivityLimit = 20
	MaxActivityLimit     = 100
)

type ActivityService interface {
	Record(ctx context.Context, activity *domain.AgentActivity) error
	Recent(ctx context.Context, agentName string, limit int) ([]domain.AgentActivity, error)
}

type activityService struct {
	repo    repository.ActivityRepository
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewActivityService(repo repository.ActivityRepository, logger *zap.Logger, m *metrics.Metrics) ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &activityService{
		repo:    repo,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// Record проверяет запись, проставляет id и время и сохраняет её.
func (s *activityService) Record(ctx context.Context, activity *domain.AgentActivity) error {
	if activity == nil {
		return domain.ErrInternal
	}
	activity.AgentName = strings.TrimSpace(activity.AgentName)
	if err := activity.Validate(); err != nil {
		s.observe("invalid")
		return err
	}

	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = s.now().UTC()
	}

	if err := s.repo.Create(ctx, activity); err != nil {
		s.observe("failed")
		s.logger.Error("failed to record agent activity",
			zap.String("agent", activity.AgentName),
			zap.String("task_id", activity.TaskID),
			zap.Error(err),
		)
		return err
	}

	s.observe(activity.Status.String())
	s.logger.Debug("agent activity recorded",
		zap.String("id", activity.ID.String()),
		zap.String("agent", activity.AgentName),
		zap.String("status", activity.Status.String()),
	)
	return nil
}

func (s *activityService) Recent(ctx context.Context, agentName string, limit int) ([]domain.AgentActivity, error) {
	return s.repo.ListRecent(ctx, strings.TrimSpace(agentName), ClampActivityLimit(limit))
}

// ClampActivityLimit: 0 и меньше - значение по умолчанию, сверху режем до 100
func ClampActivityLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultActivityLimit
	case limit > MaxActivityLimit:
		return MaxActivityLimit
	}
	return limit
}

func (s *activityService) observe(status string) {
	if s.metrics != nil {
		s.metrics.RecordActivity(status)
	}
}
