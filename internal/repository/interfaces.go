package repository

import (
	"context"

	"github.com/kitbuilder587/estimator-agents/internal/domain"
)

// ActivityRepository - журнал действий агентов (таблица ai_logs).
type ActivityRepository interface {
	Create(ctx context.Context, activity *domain.AgentActivity) error
	// ListRecent отдаёт записи от новых к старым; пустой agentName - без фильтра
	ListRecent(ctx context.Context, agentName string, limit int) ([]domain.AgentActivity, error)
}
