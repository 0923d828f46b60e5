package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/estimator-agents/internal/metrics"
)

var (
	ErrToolNotFound  = errors.New("tool not found")
	ErrDuplicateTool = errors.New("tool already registered")
	ErrEmptyToolName = errors.New("tool name cannot be empty")
)

// Tool - возможность, которую агентный фреймворк вызывает по имени.
// Call всегда отдаёт JSON-строку; ошибки предметной области живут внутри неё как {"error": ...},
// error возвращается только если вызвать инструмент вообще не удалось.
type Tool interface {
	Name() string
	Description() string
	Call(ctx context.Context, args json.RawMessage) (string, error)
}

type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewRegistry(logger *zap.Logger, m *metrics.Metrics) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		tools:   make(map[string]Tool),
		logger:  logger,
		metrics: m,
	}
}

func (r *Registry) Register(tools ...Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range tools {
		name := t.Name()
		if name == "" {
			return ErrEmptyToolName
		}
		if _, exists := r.tools[name]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
		}
		r.tools[name] = t
		r.logger.Info("tool registered", zap.String("tool", name))
	}
	return nil
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List - описания инструментов, отсортированы по имени
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, Descriptor{Name: t.Name(), Description: t.Description()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (string, error) {
	t, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	start := time.Now()
	result, err := t.Call(ctx, args)
	elapsed := time.Since(start)

	status := "ok"
	switch {
	case err != nil:
		status = "failed"
	case IsErrorPayload(result):
		status = "error_payload"
	}

	if r.metrics != nil {
		r.metrics.RecordToolCall(name, status, elapsed)
	}

	if err != nil {
		r.logger.Error("tool call failed",
			zap.String("tool", name),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return "", fmt.Errorf("call %s: %w", name, err)
	}

	r.logger.Debug("tool call finished",
		zap.String("tool", name),
		zap.String("status", status),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}

// IsErrorPayload - true, если результат инструмента является объектом с ключом error
func IsErrorPayload(result string) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(result), &probe); err != nil {
		return false
	}
	_, ok := probe["error"]
	return ok
}
