package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ActivityStatus string

const (
	ActivityStarted   ActivityStatus = "started"
	ActivityCompleted ActivityStatus = "completed"
	ActivityFailed    ActivityStatus = "failed"
)

func (s ActivityStatus) IsValid() bool {
	switch s {
	case ActivityStarted, ActivityCompleted, ActivityFailed:
		return true
	}
	return false
}

func (s ActivityStatus) String() string { return string(s) }

// AgentActivity - запись журнала ai_logs: что делал агент или инструмент и чем закончилось
type AgentActivity struct {
	ID              uuid.UUID
	AgentName       string
	TaskID          string
	Status          ActivityStatus
	Summary         string
	RelatedEntityID string
	Details         map[string]any
	CreatedAt       time.Time
}

func (a *AgentActivity) Validate() error {
	if strings.TrimSpace(a.AgentName) == "" {
		return ErrEmptyAgentName
	}
	if !a.Status.IsValid() {
		return ErrInvalidActivityState
	}
	return nil
}
