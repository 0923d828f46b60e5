package domain

import (
	"fmt"
	"strings"
)

type SortMode string

const (
	SortBestSeller     SortMode = "best_seller"
	SortMostPopular    SortMode = "most_popular"
	SortPriceHighToLow SortMode = "price_high_to_low"
	SortPriceLowToHigh SortMode = "price_low_to_high"
	SortHighestRating  SortMode = "highest_rating"
)

const (
	DefaultSortMode    = SortBestSeller
	DefaultResultLimit = 5
)

func (m SortMode) IsValid() bool {
	switch m {
	case SortBestSeller, SortMostPopular, SortPriceHighToLow, SortPriceLowToHigh, SortHighestRating:
		return true
	}
	return false
}

func (m SortMode) String() string { return string(m) }

// SortModes - все поддерживаемые режимы сортировки в порядке документации апстрима
func SortModes() []SortMode {
	return []SortMode{SortBestSeller, SortMostPopular, SortPriceHighToLow, SortPriceLowToHigh, SortHighestRating}
}

type SearchRequest struct {
	SearchTerm   string
	LocationCode string
	SortMode     SortMode
	ResultLimit  int
}

// WithDefaults подставляет best_seller и лимит 5 для незаданных полей.
// Отрицательный лимит не трогаем, его отсекает Validate.
func (r SearchRequest) WithDefaults() SearchRequest {
	r.SearchTerm = strings.TrimSpace(r.SearchTerm)
	r.LocationCode = strings.TrimSpace(r.LocationCode)
	if r.SortMode == "" {
		r.SortMode = DefaultSortMode
	}
	if r.ResultLimit == 0 {
		r.ResultLimit = DefaultResultLimit
	}
	return r
}

func (r SearchRequest) Validate() error {
	if strings.TrimSpace(r.SearchTerm) == "" {
		return ErrEmptySearchTerm
	}
	if !r.SortMode.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidSortMode, r.SortMode)
	}
	if r.ResultLimit <= 0 {
		return ErrInvalidResultLimit
	}
	return nil
}

// ProductRecord - упрощённая карточка товара для агента.
// Все поля опциональны: апстрим может их не прислать, тогда в JSON уходит null.
type ProductRecord struct {
	Title    *string  `json:"title"`
	Price    *float64 `json:"price"`
	Currency *string  `json:"currency"`
	ItemID   *string  `json:"item_id"`
	Link     *string  `json:"link"`
	Brand    *string  `json:"brand"`
}

// ErrorPayload - единственное представление ошибки, которое видит вызывающая сторона
type ErrorPayload struct {
	Error string `json:"error"`
}
