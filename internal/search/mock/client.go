package mock

import (
	"context"
	"sync"
	"time"

	"github.com/kitbuilder587/estimator-agents/internal/domain"
	"github.com/kitbuilder587/estimator-agents/internal/search"
)

type Client struct {
	Products []domain.ProductRecord
	Error    error
	Delay    time.Duration

	// ByTerm перекрывает Products для конкретного search_term
	ByTerm map[string][]domain.ProductRecord

	CallCount   int
	LastRequest domain.SearchRequest
	AllRequests []domain.SearchRequest

	mu sync.Mutex
}

var _ search.Client = (*Client)(nil)

func New() *Client {
	return &Client{ByTerm: make(map[string][]domain.ProductRecord)}
}

func (c *Client) WithProducts(products []domain.ProductRecord) *Client {
	c.Products = products
	return c
}

func (c *Client) WithTerm(term string, products []domain.ProductRecord) *Client {
	c.ByTerm[term] = products
	return c
}

func (c *Client) WithError(err error) *Client {
	c.Error = err
	return c
}

func (c *Client) WithDelay(delay time.Duration) *Client {
	c.Delay = delay
	return c
}

func (c *Client) Search(ctx context.Context, req domain.SearchRequest) ([]domain.ProductRecord, error) {
	req = req.WithDefaults()

	c.mu.Lock()
	c.CallCount++
	c.LastRequest = req
	c.AllRequests = append(c.AllRequests, req)
	delay := c.Delay
	err := c.Error
	products, ok := c.ByTerm[req.SearchTerm]
	if !ok {
		products = c.Products
	}
	c.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if verr := req.Validate(); verr != nil {
		return nil, search.NewError(search.ErrInvalidArgument, "invalid argument: "+verr.Error())
	}

	if err != nil {
		return nil, err
	}

	if len(products) > req.ResultLimit {
		products = products[:req.ResultLimit]
	}
	return products, nil
}

func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CallCount
}

func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallCount = 0
	c.LastRequest = domain.SearchRequest{}
	c.AllRequests = nil
}
