package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/kitbuilder587/estimator-agents/internal/domain"
	"github.com/kitbuilder587/estimator-agents/internal/tool"
)

type chatRequest struct {
	Message    string `json:"message" validate:"max=8000"`
	EntityType string `json:"entityType" validate:"max=100"`
	EntityID   string `json:"entityId" validate:"max=200"`
	SessionID  string `json:"sessionId" validate:"max=200"`
}

type activityRequest struct {
	AgentName       string         `json:"agentName" validate:"required,max=100"`
	TaskID          string         `json:"taskId" validate:"max=200"`
	Status          string         `json:"status" validate:"required,oneof=started completed failed"`
	Summary         string         `json:"summary" validate:"max=2000"`
	RelatedEntityID string         `json:"relatedEntityId" validate:"max=200"`
	Details         map[string]any `json:"details"`
}

type activityQuery struct {
	Agent string `query:"agent" validate:"max=100"`
	Limit int    `query:"limit"`
}

type activityResponse struct {
	ID              uuid.UUID      `json:"id"`
	AgentName       string         `json:"agentName"`
	TaskID          string         `json:"taskId,omitempty"`
	Status          string         `json:"status"`
	Summary         string         `json:"summary,omitempty"`
	RelatedEntityID string         `json:"relatedEntityId,omitempty"`
	Details         map[string]any `json:"details,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

func toActivityResponse(a domain.AgentActivity) activityResponse {
	return activityResponse{
		ID:              a.ID,
		AgentName:       a.AgentName,
		TaskID:          a.TaskID,
		Status:          a.Status.String(),
		Summary:         a.Summary,
		RelatedEntityID: a.RelatedEntityID,
		Details:         a.Details,
		CreatedAt:       a.CreatedAt,
	}
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listAgents(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{"agents": s.agents.Names()})
}

func (s *Server) chat(c echo.Context) error {
	name := c.Param("name")
	a, err := s.agents.Get(name)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}

	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	resp, err := a.Respond(ctx, domain.ChatRequest{
		Message:    req.Message,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		SessionID:  req.SessionID,
	})

	entry := &domain.AgentActivity{
		AgentName:       name,
		TaskID:          req.SessionID,
		RelatedEntityID: req.EntityID,
		Details:         map[string]any{"kind": "chat", "entityType": req.EntityType},
	}
	if err != nil {
		entry.Status = domain.ActivityFailed
		entry.Summary = err.Error()
		s.record(ctx, entry)
		return err
	}

	s.metrics.RecordAgentReply(name)
	entry.Status = domain.ActivityCompleted
	entry.Summary = truncate(resp.AIResponse, 200)
	s.record(ctx, entry)

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) listTools(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]tool.Descriptor{"tools": s.tools.List()})
}

// callTool отдаёт строку инструмента как есть. {"error": ...} - тоже результат, поэтому 200.
func (s *Server) callTool(c echo.Context) error {
	name := c.Param("name")
	if _, ok := s.tools.Get(name); !ok {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("%s: %s", tool.ErrToolNotFound, name))
	}

	args, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read request body")
	}

	ctx := c.Request().Context()
	result, err := s.tools.Call(ctx, name, args)

	entry := &domain.AgentActivity{
		AgentName: name,
		TaskID:    requestID(c),
		Details:   map[string]any{"kind": "tool_call", "tool": name},
	}
	switch {
	case err != nil:
		entry.Status = domain.ActivityFailed
		entry.Summary = err.Error()
	case tool.IsErrorPayload(result):
		entry.Status = domain.ActivityFailed
		entry.Summary = truncate(result, 200)
	default:
		entry.Status = domain.ActivityCompleted
		entry.Summary = "tool call completed"
	}
	s.record(ctx, entry)

	if err != nil {
		if errors.Is(err, tool.ErrToolNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}

	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(result))
}

func (s *Server) logActivity(c echo.Context) error {
	var req activityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	entry := &domain.AgentActivity{
		AgentName:       req.AgentName,
		TaskID:          req.TaskID,
		Status:          domain.ActivityStatus(req.Status),
		Summary:         req.Summary,
		RelatedEntityID: req.RelatedEntityID,
		Details:         req.Details,
	}
	if err := s.activity.Record(c.Request().Context(), entry); err != nil {
		if errors.Is(err, domain.ErrEmptyAgentName) || errors.Is(err, domain.ErrInvalidActivityState) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Agent activity logged successfully",
		"data":    []activityResponse{toActivityResponse(*entry)},
	})
}

func (s *Server) recentActivity(c echo.Context) error {
	var q activityQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	if err := c.Validate(q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	entries, err := s.activity.Recent(c.Request().Context(), q.Agent, q.Limit)
	if err != nil {
		return err
	}

	data := make([]activityResponse, 0, len(entries))
	for _, e := range entries {
		data = append(data, toActivityResponse(e))
	}
	return c.JSON(http.StatusOK, map[string]any{"data": data})
}

// record пишет журнал; запрос из-за этого не падает
func (s *Server) record(ctx context.Context, entry *domain.AgentActivity) {
	if err := s.activity.Record(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Warn("could not record agent activity",
			zap.String("agent", entry.AgentName),
			zap.String("status", entry.Status.String()),
			zap.Error(err),
		)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
