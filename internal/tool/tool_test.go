package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kitbuilder587/estimator-agents/internal/metrics"
)

type stubTool struct {
	name   string
	result string
	err    error
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub " + s.name }
func (s *stubTool) Call(ctx context.Context, args json.RawMessage) (string, error) {
	return s.result, s.err
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry(zap.NewNop(), nil)

	if err := r.Register(&stubTool{name: "a"}, &stubTool{name: "b"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := r.Register(&stubTool{name: "a"}); !errors.Is(err, ErrDuplicateTool) {
		t.Errorf("Register(duplicate) error = %v, want ErrDuplicateTool", err)
	}
	if err := r.Register(&stubTool{name: ""}); !errors.Is(err, ErrEmptyToolName) {
		t.Errorf("Register(empty) error = %v, want ErrEmptyToolName", err)
	}

	if _, ok := r.Get("a"); !ok {
		t.Error("Get(a) not found")
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) found")
	}
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry(nil, nil)
	r.Register(&stubTool{name: "zeta"}, &stubTool{name: "alpha"}, &stubTool{name: "mid"})

	list := r.List()
	want := []string{"alpha", "mid", "zeta"}
	if len(list) != len(want) {
		t.Fatalf("List() = %v", list)
	}
	for i, d := range list {
		if d.Name != want[i] {
			t.Errorf("List()[%d] = %s, want %s", i, d.Name, want[i])
		}
		if d.Description == "" {
			t.Errorf("List()[%d] has empty description", i)
		}
	}
}

func TestRegistry_Call(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := NewRegistry(zap.NewNop(), m)
	r.Register(
		&stubTool{name: "ok", result: `[]`},
		&stubTool{name: "payload", result: `{"error":"credential not configured"}`},
		&stubTool{name: "broken", err: errors.New("boom")},
	)

	got, err := r.Call(context.Background(), "ok", nil)
	if err != nil || got != `[]` {
		t.Errorf("Call(ok) = %q, %v", got, err)
	}

	got, err = r.Call(context.Background(), "payload", nil)
	if err != nil || got != `{"error":"credential not configured"}` {
		t.Errorf("Call(payload) = %q, %v", got, err)
	}

	if _, err := r.Call(context.Background(), "broken", nil); err == nil {
		t.Error("Call(broken) expected error")
	}

	if _, err := r.Call(context.Background(), "missing", nil); !errors.Is(err, ErrToolNotFound) {
		t.Errorf("Call(missing) error = %v, want ErrToolNotFound", err)
	}

	checks := map[[2]string]float64{
		{"ok", "ok"}:                 1,
		{"payload", "error_payload"}: 1,
		{"broken", "failed"}:         1,
	}
	for labels, want := range checks {
		if got := testutil.ToFloat64(m.ToolCallsTotal.WithLabelValues(labels[0], labels[1])); got != want {
			t.Errorf("tool_calls_total%v = %v, want %v", labels, got, want)
		}
	}
}

func TestIsErrorPayload(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{`{"error":"x"}`, true},
		{`{"error":{"code":1}}`, true},
		{`[{"title":"a"}]`, false},
		{`{"items":[{"error":"x"}]}`, false},
		{`not json`, false},
	}

	for _, tt := range tests {
		if got := IsErrorPayload(tt.in); got != tt.want {
			t.Errorf("IsErrorPayload(%s) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
