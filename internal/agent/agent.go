package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kitbuilder587/estimator-agents/internal/domain"
)

const (
	AgentEcho          = "echo"
	AgentLeadAssistant = "lead-assistant"
)

type Agent interface {
	Name() string
	Respond(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error)
}

// EchoAgent повторяет сообщение с привязкой к сущности CRM
type EchoAgent struct {
	logger *zap.Logger
}

func NewEchoAgent(logger *zap.Logger) *EchoAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EchoAgent{logger: logger}
}

func (a *EchoAgent) Name() string { return AgentEcho }

func (a *EchoAgent) Respond(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	message := orDefault(req.Message, "No message received")
	entityType := orDefault(req.EntityType, "unknown")
	entityID := orDefault(req.EntityID, "unknown")

	reply := fmt.Sprintf("Echo agent received for %s %s: '%s'", entityType, entityID, message)

	a.logger.Debug("echo reply",
		zap.String("entity_type", entityType),
		zap.String("entity_id", entityID),
	)
	return domain.NewExchange(message, reply), nil
}

// LeadAssistant - заглушка ассистента по лидам.
// Диалоговый граф не реализован, пока отвечаем эхом с id лида.
type LeadAssistant struct {
	logger *zap.Logger
}

func NewLeadAssistant(logger *zap.Logger) *LeadAssistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeadAssistant{logger: logger}
}

func (a *LeadAssistant) Name() string { return AgentLeadAssistant }

func (a *LeadAssistant) Respond(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	message := orDefault(req.Message, "No message")
	leadID := orDefault(req.EntityID, "unknown_lead")

	reply := fmt.Sprintf("Lead assistant received for lead %s: '%s'", leadID, message)

	a.logger.Debug("lead assistant reply",
		zap.String("lead_id", leadID),
		zap.String("session_id", req.SessionID),
	)
	return domain.NewExchange(message, reply), nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
