package tool

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/kitbuilder587/estimator-agents/internal/domain"
	"github.com/kitbuilder587/estimator-agents/internal/search"
)

const ProductSearchName = "search_products"

// список режимов берётся из domain.SortModes
var productSearchDescription = "Searches Home Depot products via the BigBox API. Args: search_term (required), " +
	"location_code (customer zipcode, optional), sort_mode (" + sortModeList() + "; default " +
	domain.DefaultSortMode.String() + "), result_limit (default 5). " +
	"Returns a JSON list of {title, price, currency, item_id, link, brand} or {\"error\": ...}."

func sortModeList() string {
	modes := domain.SortModes()
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = m.String()
	}
	return strings.Join(names, ", ")
}

type productSearchArgs struct {
	SearchTerm   string `json:"search_term" validate:"required,max=200"`
	LocationCode string `json:"location_code" validate:"max=16"`
	SortMode     string `json:"sort_mode" validate:"omitempty,oneof=best_seller most_popular price_high_to_low price_low_to_high highest_rating"`
	ResultLimit  int    `json:"result_limit" validate:"gte=0,lte=50"`
}

func (a productSearchArgs) request() domain.SearchRequest {
	return domain.SearchRequest{
		SearchTerm:   a.SearchTerm,
		LocationCode: a.LocationCode,
		SortMode:     domain.SortMode(a.SortMode),
		ResultLimit:  a.ResultLimit,
	}
}

// ProductSearch - адаптер поиска в виде инструмента
type ProductSearch struct {
	client search.Client
}

func NewProductSearch(client search.Client) *ProductSearch {
	return &ProductSearch{client: client}
}

func (t *ProductSearch) Name() string        { return ProductSearchName }
func (t *ProductSearch) Description() string { return productSearchDescription }

func (t *ProductSearch) Call(ctx context.Context, args json.RawMessage) (string, error) {
	var in productSearchArgs
	if err := decodeArgs(args, &in); err != nil {
		return search.Encode(nil, err), nil
	}
	return t.Search(ctx, in.request()), nil
}

// Search - типизированный вход: search(search_term, location_code?, sort_mode, result_limit) -> JSON
func (t *ProductSearch) Search(ctx context.Context, req domain.SearchRequest) string {
	products, err := t.client.Search(ctx, req)
	return search.Encode(products, err)
}
