package tool

import "github.com/kitbuilder587/estimator-agents/internal/search"

// NewAllTools собирает все инструменты поверх одного клиента поиска
func NewAllTools(client search.Client, maxConcurrency int) []Tool {
	return []Tool{
		NewProductSearch(client),
		NewMaterialPrice(client, maxConcurrency),
	}
}
