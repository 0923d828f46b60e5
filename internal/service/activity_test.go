package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kitbuilder587/estimator-agents/internal/domain"
	"github.com/kitbuilder587/estimator-agents/internal/metrics"
	"github.com/kitbuilder587/estimator-agents/internal/repository"
)

type failingRepo struct {
	repository.ActivityRepository
	err error
}

func (r *failingRepo) Create(ctx context.Context, a *domain.AgentActivity) error { return r.err }

// spyRepo запоминает limit, с которым пришёл ListRecent
type spyRepo struct {
	*repository.InMemoryActivityRepository
	gotAgent string
	gotLimit int
}

func (r *spyRepo) ListRecent(ctx context.Context, agentName string, limit int) ([]domain.AgentActivity, error) {
	r.gotAgent = agentName
	r.gotLimit = limit
	return r.InMemoryActivityRepository.ListRecent(ctx, agentName, limit)
}

func TestActivityService_Record(t *testing.T) {
	tests := []struct {
		name     string
		activity domain.AgentActivity
		wantErr  error
	}{
		{
			name:     "valid",
			activity: domain.AgentActivity{AgentName: "echo", Status: domain.ActivityCompleted, Summary: "ok"},
		},
		{
			name:     "agent name trimmed",
			activity: domain.AgentActivity{AgentName: "  echo ", Status: domain.ActivityStarted},
		},
		{
			name:     "empty agent name",
			activity: domain.AgentActivity{AgentName: "   ", Status: domain.ActivityCompleted},
			wantErr:  domain.ErrEmptyAgentName,
		},
		{
			name:     "unknown status",
			activity: domain.AgentActivity{AgentName: "echo", Status: "done"},
			wantErr:  domain.ErrInvalidActivityState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := repository.NewInMemoryActivityRepository()
			svc := NewActivityService(repo, zap.NewNop(), nil)

			a := tt.activity
			err := svc.Record(context.Background(), &a)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Record() error = %v, wantErr %v", err, tt.wantErr)
				}
				stored, _ := repo.ListRecent(context.Background(), "", 10)
				if len(stored) != 0 {
					t.Errorf("invalid activity was stored: %+v", stored)
				}
				return
			}

			if err != nil {
				t.Fatalf("Record() unexpected error = %v", err)
			}
			if a.ID == uuid.Nil {
				t.Error("Record() did not assign an id")
			}
			if a.CreatedAt.IsZero() {
				t.Error("Record() did not assign a timestamp")
			}
			if a.AgentName != "echo" {
				t.Errorf("AgentName = %q, want %q", a.AgentName, "echo")
			}
		})
	}
}

func TestActivityService_RecordKeepsGivenIDAndTime(t *testing.T) {
	repo := repository.NewInMemoryActivityRepository()
	svc := NewActivityService(repo, zap.NewNop(), nil)

	id := uuid.New()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a := &domain.AgentActivity{ID: id, AgentName: "echo", Status: domain.ActivityCompleted, CreatedAt: at}

	if err := svc.Record(context.Background(), a); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if a.ID != id || !a.CreatedAt.Equal(at) {
		t.Errorf("Record() overwrote id/time: %v %v", a.ID, a.CreatedAt)
	}
}

func TestActivityService_RecordUsesClock(t *testing.T) {
	repo := repository.NewInMemoryActivityRepository()
	svc := NewActivityService(repo, zap.NewNop(), nil).(*activityService)
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	a := &domain.AgentActivity{AgentName: "echo", Status: domain.ActivityCompleted}
	if err := svc.Record(context.Background(), a); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if !a.CreatedAt.Equal(fixed) {
		t.Errorf("CreatedAt = %v, want %v", a.CreatedAt, fixed)
	}
}

func TestActivityService_RecordRepoError(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	repoErr := errors.New("connection refused")
	svc := NewActivityService(&failingRepo{err: repoErr}, zap.NewNop(), m)

	err := svc.Record(context.Background(), &domain.AgentActivity{AgentName: "echo", Status: domain.ActivityCompleted})
	if !errors.Is(err, repoErr) {
		t.Errorf("Record() error = %v, want %v", err, repoErr)
	}
	if got := testutil.ToFloat64(m.ActivityRecordsTotal.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed activity records = %v, want 1", got)
	}
}

func TestActivityService_RecordMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := NewActivityService(repository.NewInMemoryActivityRepository(), zap.NewNop(), m)
	ctx := context.Background()

	_ = svc.Record(ctx, &domain.AgentActivity{AgentName: "echo", Status: domain.ActivityCompleted})
	_ = svc.Record(ctx, &domain.AgentActivity{AgentName: "echo", Status: domain.ActivityFailed})
	_ = svc.Record(ctx, &domain.AgentActivity{AgentName: "", Status: domain.ActivityFailed})

	if got := testutil.ToFloat64(m.ActivityRecordsTotal.WithLabelValues("completed")); got != 1 {
		t.Errorf("completed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ActivityRecordsTotal.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ActivityRecordsTotal.WithLabelValues("invalid")); got != 1 {
		t.Errorf("invalid = %v, want 1", got)
	}
}

func TestActivityService_RecentClampsLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"default on zero", 0, DefaultActivityLimit},
		{"default on negative", -5, DefaultActivityLimit},
		{"passes through", 7, 7},
		{"lower bound", 1, 1},
		{"upper bound", 100, 100},
		{"clamped", 1000, MaxActivityLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := &spyRepo{InMemoryActivityRepository: repository.NewInMemoryActivityRepository()}
			svc := NewActivityService(spy, zap.NewNop(), nil)

			if _, err := svc.Recent(context.Background(), " echo ", tt.limit); err != nil {
				t.Fatalf("Recent() error = %v", err)
			}
			if spy.gotLimit != tt.want {
				t.Errorf("repo limit = %d, want %d", spy.gotLimit, tt.want)
			}
			if spy.gotAgent != "echo" {
				t.Errorf("repo agent = %q, want %q", spy.gotAgent, "echo")
			}
		})
	}
}

func TestActivityService_RecentOrder(t *testing.T) {
	svc := NewActivityService(repository.NewInMemoryActivityRepository(), zap.NewNop(), nil)
	ctx := context.Background()

	for _, summary := range []string{"first", "second", "third"} {
		if err := svc.Record(ctx, &domain.AgentActivity{AgentName: "echo", Status: domain.ActivityCompleted, Summary: summary}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	got, err := svc.Recent(ctx, "", 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 || got[0].Summary != "third" || got[1].Summary != "second" {
		t.Errorf("Recent() = %+v", got)
	}
}
