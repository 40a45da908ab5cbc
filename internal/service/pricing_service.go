package service

import (
	"context"
	"sort"

	"catalog-pricing/internal/domain"
	"catalog-pricing/internal/repository"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// categoryOrder is the fixed display order for category results. Categories
// outside this list sort after all listed ones, by name.
var categoryOrder = []string{
	"tops", "outer", "pants", "sneakers", "bag", "hat", "socks", "accessory",
}

var pricePrinter = message.NewPrinter(language.English)

// PricingService defines the aggregate pricing queries over the catalog.
type PricingService interface {
	LowestPriceByCategory(ctx context.Context) (*domain.LowestPriceSummary, error)
	CheapestBrandBasket(ctx context.Context) (*domain.BrandBasketSummary, error)
	CategoryPriceRange(ctx context.Context, category string) (*domain.CategoryPriceRange, error)
}

type pricingService struct {
	pricingRepo repository.PricingRepository
}

// NewPricingService creates a new instance of PricingService
func NewPricingService(pricingRepo repository.PricingRepository) PricingService {
	return &pricingService{pricingRepo: pricingRepo}
}

// LowestPriceByCategory returns the cheapest product per category in display
// order, plus the sum of the selected prices. Ties at a category's minimum
// resolve to the greatest brand name (the store query guarantees it).
func (s *pricingService) LowestPriceByCategory(ctx context.Context) (*domain.LowestPriceSummary, error) {
	rows, err := s.pricingRepo.LowestPriceByCategory(ctx)
	if err != nil {
		return nil, retrievalFailed("failed to retrieve lowest prices by category", err)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return categoryLess(rows[i].Category, rows[j].Category)
	})

	var total int64
	for _, row := range rows {
		total += row.Price
	}

	return &domain.LowestPriceSummary{
		Categories: rows,
		TotalPrice: total,
	}, nil
}

// CheapestBrandBasket returns the brand whose one-of-each-category basket is
// cheapest overall. A brand's basket sums only the categories it carries.
// An empty catalog is an error: a basket needs at least one category.
func (s *pricingService) CheapestBrandBasket(ctx context.Context) (*domain.BrandBasketSummary, error) {
	totals, err := s.pricingRepo.BrandTotals(ctx)
	if err != nil {
		return nil, retrievalFailed("failed to retrieve brand totals", err)
	}
	if len(totals) == 0 {
		return nil, emptyCatalog("no brand or product data to aggregate")
	}

	winner := totals[0]

	mins, err := s.pricingRepo.MinPricePerCategory(ctx, winner.BrandName)
	if err != nil {
		return nil, retrievalFailed("failed to retrieve basket breakdown", err)
	}

	sort.SliceStable(mins, func(i, j int) bool {
		return categoryLess(mins[i].Category, mins[j].Category)
	})

	entries := make([]domain.BasketEntry, 0, len(mins))
	for _, m := range mins {
		entries = append(entries, domain.BasketEntry{
			Category: m.Category,
			Price:    FormatPrice(m.Price),
		})
	}

	return &domain.BrandBasketSummary{
		LowestPrice: domain.BrandBasket{
			Brand:      winner.BrandName,
			Categories: entries,
			TotalPrice: FormatPrice(winner.Total),
		},
	}, nil
}

// CategoryPriceRange reports every product tied at the minimum and at the
// maximum price within the category. A category with no products is not an
// error; both lists come back empty.
func (s *pricingService) CategoryPriceRange(ctx context.Context, category string) (*domain.CategoryPriceRange, error) {
	lowest, err := s.pricingRepo.LowestPriceProducts(ctx, category)
	if err != nil {
		return nil, retrievalFailed("failed to retrieve lowest price products", err)
	}

	highest, err := s.pricingRepo.HighestPriceProducts(ctx, category)
	if err != nil {
		return nil, retrievalFailed("failed to retrieve highest price products", err)
	}

	return &domain.CategoryPriceRange{
		Category:     category,
		LowestPrice:  toBrandPrices(lowest),
		HighestPrice: toBrandPrices(highest),
	}, nil
}

func toBrandPrices(rows []repository.PriceRow) []domain.BrandPrice {
	result := make([]domain.BrandPrice, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.BrandPrice{
			Brand: row.Brand,
			Price: FormatPrice(row.Price),
		})
	}
	return result
}

// categoryLess orders categories by display position, unknown categories
// after all known ones, ties by name.
func categoryLess(a, b string) bool {
	ai, bi := categoryIndex(a), categoryIndex(b)
	if ai != bi {
		return ai < bi
	}
	return a < b
}

func categoryIndex(category string) int {
	for i, c := range categoryOrder {
		if c == category {
			return i
		}
	}
	return len(categoryOrder)
}

// FormatPrice renders an integer price with thousands separators, e.g.
// 12345 -> "12,345".
func FormatPrice(price int64) string {
	return pricePrinter.Sprintf("%d", price)
}
