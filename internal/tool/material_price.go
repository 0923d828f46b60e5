package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kitbuilder587/estimator-agents/internal/domain"
	"github.com/kitbuilder587/estimator-agents/internal/search"
)

const (
	MaterialPriceName        = "get_material_price"
	materialPriceDescription = "Estimates the price of construction materials from the BigBox API. " +
		"Args: material_name (e.g. '2x4 lumber', 'drywall sheet'), quantity (default 1), unit, location_code; " +
		"or items: [{material_name, quantity, unit, location_code}, ...] to price a list. " +
		"Uses the best-selling match for each material."

	maxBatchItems         = 25
	defaultMaxConcurrency = 4
	materialPriceSource   = "BigBox API"
)

type MaterialItem struct {
	MaterialName string  `json:"material_name" validate:"required,max=200"`
	Quantity     float64 `json:"quantity" validate:"gte=0"`
	Unit         string  `json:"unit" validate:"max=32"`
	LocationCode string  `json:"location_code" validate:"max=16"`
}

type materialPriceArgs struct {
	MaterialName string         `json:"material_name" validate:"max=200"`
	Quantity     float64        `json:"quantity" validate:"gte=0"`
	Unit         string         `json:"unit" validate:"max=32"`
	LocationCode string         `json:"location_code" validate:"max=16"`
	Items        []MaterialItem `json:"items" validate:"max=25,dive"`
}

type MaterialQuote struct {
	MaterialName string   `json:"material_name"`
	Quantity     float64  `json:"quantity"`
	Unit         string   `json:"unit,omitempty"`
	PricePerUnit *float64 `json:"price_per_unit,omitempty"`
	TotalPrice   *float64 `json:"total_price,omitempty"`
	Currency     *string  `json:"currency,omitempty"`
	ProductTitle *string  `json:"product_title,omitempty"`
	ItemID       *string  `json:"item_id,omitempty"`
	Link         *string  `json:"link,omitempty"`
	Source       string   `json:"source,omitempty"`
	Error        string   `json:"error,omitempty"`
}

type materialBatch struct {
	Items []MaterialQuote `json:"items"`
}

// MaterialPrice оценивает стоимость материалов поверх поиска товаров.
// Для каждого материала - один поиск с лимитом 1.
type MaterialPrice struct {
	client         search.Client
	maxConcurrency int
}

func NewMaterialPrice(client search.Client, maxConcurrency int) *MaterialPrice {
	if maxConcurrency <= 0 {
		maxConcurrency = defaultMaxConcurrency
	}
	return &MaterialPrice{client: client, maxConcurrency: maxConcurrency}
}

func (t *MaterialPrice) Name() string        { return MaterialPriceName }
func (t *MaterialPrice) Description() string { return materialPriceDescription }

func (t *MaterialPrice) Call(ctx context.Context, args json.RawMessage) (string, error) {
	var in materialPriceArgs
	if err := decodeArgs(args, &in); err != nil {
		return search.Encode(nil, err), nil
	}

	if len(in.Items) > 0 {
		quotes := t.QuoteAll(ctx, in.Items)
		return marshal(materialBatch{Items: quotes})
	}

	if strings.TrimSpace(in.MaterialName) == "" {
		return search.Encode(nil, search.NewError(search.ErrInvalidArgument,
			"invalid argument: material_name or items is required")), nil
	}

	quote := t.Quote(ctx, MaterialItem{
		MaterialName: in.MaterialName,
		Quantity:     in.Quantity,
		Unit:         in.Unit,
		LocationCode: in.LocationCode,
	})
	return marshal(quote)
}

// QuoteAll считает позиции параллельно, не больше maxConcurrency поисков одновременно.
// Порядок ответа совпадает с порядком входа; ошибка одной позиции не валит остальные.
// Позиции сверх maxBatchItems отбрасываются.
func (t *MaterialPrice) QuoteAll(ctx context.Context, items []MaterialItem) []MaterialQuote {
	if len(items) > maxBatchItems {
		items = items[:maxBatchItems]
	}

	quotes := make([]MaterialQuote, len(items))

	var g errgroup.Group
	g.SetLimit(t.maxConcurrency)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			quotes[i] = t.Quote(ctx, item)
			return nil
		})
	}
	// Quote не возвращает ошибок, ошибка позиции живёт в MaterialQuote.Error
	_ = g.Wait()

	return quotes
}

func (t *MaterialPrice) Quote(ctx context.Context, item MaterialItem) MaterialQuote {
	quantity := item.Quantity
	if quantity == 0 {
		quantity = 1
	}

	quote := MaterialQuote{
		MaterialName: item.MaterialName,
		Quantity:     quantity,
		Unit:         item.Unit,
	}

	products, err := t.client.Search(ctx, domain.SearchRequest{
		SearchTerm:   item.MaterialName,
		LocationCode: item.LocationCode,
		SortMode:     domain.SortBestSeller,
		ResultLimit:  1,
	})
	if err != nil {
		quote.Error = quoteError(err)
		return quote
	}
	if len(products) == 0 {
		quote.Error = fmt.Sprintf("no products found for %q", item.MaterialName)
		return quote
	}

	p := products[0]
	quote.ProductTitle = p.Title
	quote.ItemID = p.ItemID
	quote.Link = p.Link
	quote.Currency = p.Currency
	quote.Source = materialPriceSource

	if p.Price == nil {
		quote.Error = "price not available for the best matching product"
		return quote
	}

	unitPrice := *p.Price
	total := math.Round(unitPrice*quantity*100) / 100
	quote.PricePerUnit = &unitPrice
	quote.TotalPrice = &total
	return quote
}

func quoteError(err error) string {
	var serr *search.Error
	if errors.As(err, &serr) {
		return serr.Message
	}
	return err.Error()
}

func marshal(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return string(data), nil
}
