// Package catalog реализует поиск, фильтрацию и сортировку товаров каталога.
package catalog

import (
	"slices"
	"strings"

	"github.com/mmeshcher/novastore/internal/model"
)

// Sort задаёт порядок выдачи каталога.
type Sort string

const (
	SortRelevance Sort = "relevance"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	SortNameAsc   Sort = "name_asc"
)

const (
	// CategoryAll отключает фильтр по категории.
	CategoryAll = "all"

	DefaultSuggestLimit = 20
	DefaultTopCount     = 8
)

// Category описывает раздел каталога на главной странице.
type Category struct {
	Label string `json:"label"`
	Slug  string `json:"cat"`
}

// Categories содержит фиксированный список разделов витрины.
var Categories = []Category{
	{Label: "Phones", Slug: "phones"},
	{Label: "Laptops", Slug: "laptops"},
	{Label: "Accessories", Slug: "accessories"},
	{Label: "Cameras", Slug: "cameras"},
	{Label: "Monitors", Slug: "monitors"},
	{Label: "Tablets", Slug: "tablets"},
}

// Query описывает параметры выборки каталога.
type Query struct {
	Text     string
	Category string
	Sort     Sort
}

func haystack(p model.Product) string {
	return strings.ToLower(p.Title + " " + p.Desc + " " + p.Category)
}

// Filter возвращает товары, подходящие под запрос, в заданном порядке.
// Исходный срез не изменяется.
func Filter(products []model.Product, q Query) []model.Product {
	needle := strings.ToLower(strings.TrimSpace(q.Text))
	cat := strings.ToLower(strings.TrimSpace(q.Category))
	if cat == "" {
		cat = CategoryAll
	}

	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if !strings.Contains(haystack(p), needle) {
			continue
		}
		if cat != CategoryAll && strings.ToLower(p.Category) != cat {
			continue
		}
		out = append(out, p)
	}

	switch q.Sort {
	case SortPriceAsc:
		slices.SortStableFunc(out, func(a, b model.Product) int { return a.Price.Cmp(b.Price) })
	case SortPriceDesc:
		slices.SortStableFunc(out, func(a, b model.Product) int { return b.Price.Cmp(a.Price) })
	case SortNameAsc:
		slices.SortStableFunc(out, func(a, b model.Product) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		})
	}

	return out
}

// Suggest возвращает первые limit совпадений для строки поиска.
// Пустой запрос подсказок не даёт.
func Suggest(products []model.Product, text string, limit int) []model.Product {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}

	var out []model.Product
	for _, p := range products {
		if strings.Contains(haystack(p), needle) {
			out = append(out, p)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// Top возвращает n самых дорогих товаров.
func Top(products []model.Product, n int) []model.Product {
	if n <= 0 {
		n = DefaultTopCount
	}
	out := Filter(products, Query{Sort: SortPriceDesc})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
