package repository

import (
	"context"
	"sync"

	"github.com/kitbuilder587/estimator-agents/internal/domain"
)

// InMemoryActivityRepository используется, когда база не настроена, и в тестах.
type InMemoryActivityRepository struct {
	mu      sync.RWMutex
	entries []domain.AgentActivity
}

func NewInMemoryActivityRepository() *InMemoryActivityRepository {
	return &InMemoryActivityRepository{}
}

func (r *InMemoryActivityRepository) Create(ctx context.Context, activity *domain.AgentActivity) error {
	if activity == nil {
		return domain.ErrInternal
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.ID == activity.ID {
			return domain.ErrDuplicateActivity
		}
	}

	stored := *activity
	stored.Details = copyDetails(activity.Details)
	r.entries = append(r.entries, stored)
	return nil
}

func (r *InMemoryActivityRepository) ListRecent(ctx context.Context, agentName string, limit int) ([]domain.AgentActivity, error) {
	if limit <= 0 {
		return []domain.AgentActivity{}, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.AgentActivity, 0, min(limit, len(r.entries)))
	// с конца: вставка идёт по времени, так что это и есть "новые первыми"
	for i := len(r.entries) - 1; i >= 0 && len(result) < limit; i-- {
		e := r.entries[i]
		if agentName != "" && e.AgentName != agentName {
			continue
		}
		e.Details = copyDetails(e.Details)
		result = append(result, e)
	}
	return result, nil
}

func copyDetails(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
