package bigbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/estimator-agents/internal/domain"
	"github.com/kitbuilder587/estimator-agents/internal/metrics"
	"github.com/kitbuilder587/estimator-agents/internal/search"
)

const (
	DefaultBaseURL = "https://api.bigboxapi.com"
	DefaultTimeout = 30 * time.Second

	// тело ответа читаем не больше 8 МБ, первая страница поиска весит десятки КБ
	maxBodySize = 8 << 20
)

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client - адаптер к BigBox API (каталог Home Depot).
// Состояния между вызовами не держит, безопасен для конкурентного использования.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func New(cfg Config, logger *zap.Logger, m *metrics.Metrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
		metrics: m,
	}
}

func (c *Client) Configured() bool { return c.apiKey != "" }

type bigboxResult struct {
	Product json.RawMessage `json:"product"`
	Offers  json.RawMessage `json:"offers"`
}

func (c *Client) Search(ctx context.Context, req domain.SearchRequest) (products []domain.ProductRecord, err error) {
	start := time.Now()
	req = req.WithDefaults()
	defer func() {
		c.observe(req, len(products), err, time.Since(start))
	}()

	if verr := req.Validate(); verr != nil {
		return nil, search.NewError(search.ErrInvalidArgument, "invalid argument: "+verr.Error())
	}

	if c.apiKey == "" {
		return nil, search.NewError(search.ErrCredentialMissing, "credential not configured")
	}

	target := c.requestURL(req)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, search.NewError(search.ErrTransport,
			fmt.Sprintf("error requesting %s: %v", c.displayURL(req), err))
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		// url.Error печатает полный URL вместе с api_key, поэтому берём только причину
		cause := err
		var uerr *url.Error
		if errors.As(err, &uerr) {
			cause = uerr.Err
		}
		return nil, search.NewError(search.ErrTransport,
			fmt.Sprintf("error requesting %s: %v", c.displayURL(req), cause))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, search.NewError(search.ErrTransport,
			fmt.Sprintf("error reading response from %s: %v", c.displayURL(req), err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, search.NewError(search.ErrUpstreamStatus,
			fmt.Sprintf("Error response %d while requesting %s: %s",
				resp.StatusCode, c.displayURL(req), strings.TrimSpace(string(body))))
	}

	return c.parse(body, req.ResultLimit)
}

func (c *Client) parse(body []byte, limit int) ([]domain.ProductRecord, error) {
	if !json.Valid(body) {
		return nil, search.NewError(search.ErrDecode, "failed to decode response")
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil || doc == nil {
		return nil, search.NewError(search.ErrUnexpectedShape, "unexpected response format")
	}

	if upstreamErr, ok := doc["error"]; ok {
		var compact bytes.Buffer
		if err := json.Compact(&compact, body); err != nil {
			return nil, search.NewError(search.ErrDecode, "failed to decode response")
		}
		return nil, &search.Error{
			Kind:    search.ErrUpstreamReported,
			Message: upstreamMessage(upstreamErr),
			Payload: compact.Bytes(),
		}
	}

	raw, ok := doc["search_results"]
	if !ok || isNull(raw) {
		return nil, search.NewError(search.ErrUnexpectedShape, "unexpected response format")
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, search.NewError(search.ErrUnexpectedShape, "unexpected response format")
	}

	if len(items) > limit {
		items = items[:limit]
	}

	products := make([]domain.ProductRecord, 0, len(items))
	for i, item := range items {
		products = append(products, c.normalize(i, item))
	}
	return products, nil
}

// normalize вытаскивает product.* и offers.primary.* по одному полю:
// поле не того типа становится nil, соседние поля не трогает
func (c *Client) normalize(pos int, raw json.RawMessage) domain.ProductRecord {
	var rec domain.ProductRecord

	var item bigboxResult
	if err := json.Unmarshal(raw, &item); err != nil {
		c.logger.Warn("skipping malformed search result", zap.Int("position", pos), zap.Error(err))
		return rec
	}

	if product, ok := c.object(pos, "product", item.Product); ok {
		rec.Title = stringField(product, "title")
		rec.ItemID = stringField(product, "item_id")
		rec.Link = stringField(product, "link")
		rec.Brand = stringField(product, "brand")
	}

	if offers, ok := c.object(pos, "offers", item.Offers); ok {
		if primary, ok := c.object(pos, "offers.primary", offers["primary"]); ok {
			rec.Price = parsePrice(primary["price"])
			rec.Currency = stringField(primary, "currency")
		}
	}

	return rec
}

func (c *Client) object(pos int, name string, raw json.RawMessage) (map[string]json.RawMessage, bool) {
	if isNull(raw) {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		c.logger.Debug("malformed "+name+" object", zap.Int("position", pos), zap.Error(err))
		return nil, false
	}
	return obj, true
}

func stringField(obj map[string]json.RawMessage, key string) *string {
	raw, ok := obj[key]
	if !ok || isNull(raw) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

func (c *Client) requestURL(req domain.SearchRequest) string {
	q := c.query(req)
	q.Set("api_key", c.apiKey)
	return c.baseURL + "/request?" + q.Encode()
}

// displayURL - тот же запрос, но без ключа; идёт в сообщения об ошибках и логи
func (c *Client) displayURL(req domain.SearchRequest) string {
	return c.baseURL + "/request?" + c.query(req).Encode()
}

func (c *Client) query(req domain.SearchRequest) url.Values {
	q := url.Values{}
	q.Set("type", "search")
	q.Set("search_term", req.SearchTerm)
	q.Set("sort_by", req.SortMode.String())
	q.Set("page", "1")
	if req.LocationCode != "" {
		q.Set("customer_zipcode", req.LocationCode)
	}
	return q
}

func (c *Client) observe(req domain.SearchRequest, n int, err error, elapsed time.Duration) {
	status := search.KindOf(err)
	if c.metrics != nil {
		c.metrics.RecordSearchRequest(status, elapsed)
	}

	fields := []zap.Field{
		zap.String("search_term", req.SearchTerm),
		zap.String("sort_by", req.SortMode.String()),
		zap.String("status", status),
		zap.Duration("elapsed", elapsed),
	}
	if req.LocationCode != "" {
		fields = append(fields, zap.String("customer_zipcode", req.LocationCode))
	}

	switch {
	case err == nil:
		c.logger.Info("product search completed", append(fields, zap.Int("results", n))...)
	case errors.Is(err, search.ErrTransport), errors.Is(err, search.ErrUpstreamStatus):
		c.logger.Error("product search failed", append(fields, zap.Error(err))...)
	default:
		c.logger.Warn("product search returned error", append(fields, zap.Error(err))...)
	}
}

func parsePrice(raw json.RawMessage) *float64 {
	if isNull(raw) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	// иногда цена приходит строкой
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &f
		}
	}
	return nil
}

func upstreamMessage(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
