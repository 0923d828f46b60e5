package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kitbuilder587/estimator-agents/internal/domain"
)

func newActivity(agent string, status domain.ActivityStatus) *domain.AgentActivity {
	return &domain.AgentActivity{
		ID:        uuid.New(),
		AgentName: agent,
		Status:    status,
		Summary:   agent + " " + status.String(),
		CreatedAt: time.Now(),
	}
}

func TestInMemoryActivityRepository_CreateAndList(t *testing.T) {
	repo := NewInMemoryActivityRepository()
	ctx := context.Background()

	first := newActivity("echo", domain.ActivityStarted)
	second := newActivity("lead-assistant", domain.ActivityCompleted)
	third := newActivity("echo", domain.ActivityCompleted)

	for _, a := range []*domain.AgentActivity{first, second, third} {
		if err := repo.Create(ctx, a); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	all, err := repo.ListRecent(ctx, "", 10)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListRecent() returned %d entries, want 3", len(all))
	}
	if all[0].ID != third.ID || all[2].ID != first.ID {
		t.Errorf("ListRecent() order = %v, %v, %v; want newest first", all[0].ID, all[1].ID, all[2].ID)
	}

	echo, err := repo.ListRecent(ctx, "echo", 10)
	if err != nil {
		t.Fatalf("ListRecent(echo) error = %v", err)
	}
	if len(echo) != 2 {
		t.Errorf("ListRecent(echo) returned %d entries, want 2", len(echo))
	}
	for _, a := range echo {
		if a.AgentName != "echo" {
			t.Errorf("ListRecent(echo) returned agent %q", a.AgentName)
		}
	}
}

func TestInMemoryActivityRepository_Limit(t *testing.T) {
	repo := NewInMemoryActivityRepository()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := repo.Create(ctx, newActivity("echo", domain.ActivityCompleted)); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"below size", 2, 2},
		{"equal size", 5, 5},
		{"above size", 50, 5},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ListRecent(ctx, "", tt.limit)
			if err != nil {
				t.Fatalf("ListRecent() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("ListRecent(%d) returned %d entries, want %d", tt.limit, len(got), tt.want)
			}
		})
	}
}

func TestInMemoryActivityRepository_Duplicate(t *testing.T) {
	repo := NewInMemoryActivityRepository()
	ctx := context.Background()

	a := newActivity("echo", domain.ActivityStarted)
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(ctx, a); !errors.Is(err, domain.ErrDuplicateActivity) {
		t.Errorf("Create() duplicate error = %v, want ErrDuplicateActivity", err)
	}
}

func TestInMemoryActivityRepository_DetailsAreCopied(t *testing.T) {
	repo := NewInMemoryActivityRepository()
	ctx := context.Background()

	a := newActivity("echo", domain.ActivityCompleted)
	a.Details = map[string]any{"tool": "search_products"}
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	a.Details["tool"] = "changed"

	got, _ := repo.ListRecent(ctx, "", 1)
	if got[0].Details["tool"] != "search_products" {
		t.Errorf("stored details changed through caller map: %v", got[0].Details)
	}
}

func TestInMemoryActivityRepository_Concurrent(t *testing.T) {
	repo := NewInMemoryActivityRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = repo.Create(ctx, newActivity(fmt.Sprintf("agent-%d", i%3), domain.ActivityCompleted))
			_, _ = repo.ListRecent(ctx, "", 5)
		}(i)
	}
	wg.Wait()

	got, _ := repo.ListRecent(ctx, "", 100)
	if len(got) != 20 {
		t.Errorf("stored %d entries, want 20", len(got))
	}
}
