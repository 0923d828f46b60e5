package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kitbuilder587/estimator-agents/internal/domain"
	"github.com/kitbuilder587/estimator-agents/internal/search"
)

func title(s string) domain.ProductRecord { return domain.ProductRecord{Title: &s} }

func TestMockClient_Search(t *testing.T) {
	client := New().WithProducts([]domain.ProductRecord{title("Test 1"), title("Test 2")})

	products, err := client.Search(context.Background(), domain.SearchRequest{SearchTerm: "test"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(products) != 2 {
		t.Errorf("Search() got %d products, want 2", len(products))
	}
	if client.LastRequest.SortMode != domain.SortBestSeller {
		t.Errorf("LastRequest.SortMode = %s, want defaults applied", client.LastRequest.SortMode)
	}
}

func TestMockClient_Limit(t *testing.T) {
	client := New().WithProducts([]domain.ProductRecord{title("a"), title("b"), title("c")})

	products, _ := client.Search(context.Background(), domain.SearchRequest{SearchTerm: "x", ResultLimit: 2})
	if len(products) != 2 {
		t.Errorf("Search() got %d products, want 2", len(products))
	}
}

func TestMockClient_ByTerm(t *testing.T) {
	client := New().
		WithProducts([]domain.ProductRecord{title("default")}).
		WithTerm("paint", []domain.ProductRecord{title("Gallon of paint")})

	products, _ := client.Search(context.Background(), domain.SearchRequest{SearchTerm: "paint"})
	if len(products) != 1 || *products[0].Title != "Gallon of paint" {
		t.Errorf("Search(paint) = %+v", products)
	}
}

func TestMockClient_Error(t *testing.T) {
	want := search.NewError(search.ErrUpstreamStatus, "Error response 500")
	client := New().WithError(want)

	_, err := client.Search(context.Background(), domain.SearchRequest{SearchTerm: "test"})
	if !errors.Is(err, search.ErrUpstreamStatus) {
		t.Errorf("Search() error = %v, want ErrUpstreamStatus", err)
	}
}

func TestMockClient_InvalidArgument(t *testing.T) {
	client := New()

	_, err := client.Search(context.Background(), domain.SearchRequest{})
	if !errors.Is(err, search.ErrInvalidArgument) {
		t.Errorf("Search() error = %v, want ErrInvalidArgument", err)
	}
}

func TestMockClient_ContextCancellation(t *testing.T) {
	client := New().
		WithProducts([]domain.ProductRecord{title("Test")}).
		WithDelay(1 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Search(ctx, domain.SearchRequest{SearchTerm: "test"})
	if err != context.DeadlineExceeded {
		t.Errorf("Search() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestMockClient_Reset(t *testing.T) {
	client := New()
	client.Search(context.Background(), domain.SearchRequest{SearchTerm: "a"})
	client.Search(context.Background(), domain.SearchRequest{SearchTerm: "b"})

	if client.Calls() != 2 {
		t.Errorf("Calls() = %d, want 2", client.Calls())
	}

	client.Reset()
	if client.Calls() != 0 || len(client.AllRequests) != 0 {
		t.Errorf("after Reset() calls = %d, requests = %d", client.Calls(), len(client.AllRequests))
	}
}
