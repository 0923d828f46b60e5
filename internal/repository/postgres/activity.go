package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kitbuilder587/estimator-agents/internal/domain"
)

type ActivityRepo struct {
	db *DB
}

func NewActivityRepo(db *DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

func (r *ActivityRepo) Create(ctx context.Context, activity *domain.AgentActivity) error {
	details, err := marshalDetails(activity.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	query := `
		INSERT INTO ai_logs (id, agent_name, task_id, status, summary, related_entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err = r.db.Pool.QueryRow(ctx, query,
		activity.ID,
		activity.AgentName,
		nullString(activity.TaskID),
		activity.Status.String(),
		nullString(activity.Summary),
		nullString(activity.RelatedEntityID),
		details,
		activity.CreatedAt,
	).Scan(&activity.CreatedAt)

	if err != nil {
		if isDuplicateError(err) {
			return domain.ErrDuplicateActivity
		}
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

func (r *ActivityRepo) ListRecent(ctx context.Context, agentName string, limit int) ([]domain.AgentActivity, error) {
	query := `
		SELECT id, agent_name, task_id, status, summary, related_entity_id, details, created_at
		FROM ai_logs
		WHERE ($1 = '' OR agent_name = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, agentName, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var result []domain.AgentActivity
	for rows.Next() {
		var (
			a                        domain.AgentActivity
			status                   string
			taskID, summary, related *string
			details                  []byte
		)
		if err := rows.Scan(&a.ID, &a.AgentName, &taskID, &status, &summary, &related, &details, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Status = domain.ActivityStatus(status)
		a.TaskID = derefString(taskID)
		a.Summary = derefString(summary)
		a.RelatedEntityID = derefString(related)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &a.Details); err != nil {
				return nil, fmt.Errorf("unmarshal details: %w", err)
			}
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity: %w", err)
	}

	return result, nil
}

func marshalDetails(details map[string]any) ([]byte, error) {
	if details == nil {
		return nil, nil
	}
	return json.Marshal(details)
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// isDuplicateError - нарушение уникальности (23505)
func isDuplicateError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
