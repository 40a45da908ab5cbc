package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"catalog-pricing/internal/domain"
	"catalog-pricing/internal/repository"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// catalogProduct is one live product row the mock store aggregates over.
type catalogProduct struct {
	brand    string
	category string
	price    int64
}

// mockPricingRepository aggregates over an in-memory product list with the
// same semantics the SQL queries guarantee.
type mockPricingRepository struct {
	products []catalogProduct
	err      error
}

func (m *mockPricingRepository) LowestPriceByCategory(ctx context.Context) ([]domain.CategoryPrice, error) {
	if m.err != nil {
		return nil, m.err
	}
	best := make(map[string]catalogProduct)
	for _, p := range m.products {
		current, ok := best[p.category]
		if !ok || p.price < current.price ||
			(p.price == current.price && p.brand > current.brand) {
			best[p.category] = p
		}
	}
	rows := make([]domain.CategoryPrice, 0, len(best))
	for _, p := range best {
		rows = append(rows, domain.CategoryPrice{Category: p.category, Brand: p.brand, Price: p.price})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Category < rows[j].Category })
	return rows, nil
}

func (m *mockPricingRepository) BrandTotals(ctx context.Context) ([]repository.BrandTotal, error) {
	if m.err != nil {
		return nil, m.err
	}
	mins := make(map[string]map[string]int64)
	for _, p := range m.products {
		if mins[p.brand] == nil {
			mins[p.brand] = make(map[string]int64)
		}
		if current, ok := mins[p.brand][p.category]; !ok || p.price < current {
			mins[p.brand][p.category] = p.price
		}
	}
	totals := make([]repository.BrandTotal, 0, len(mins))
	for brand, categories := range mins {
		var total int64
		for _, price := range categories {
			total += price
		}
		totals = append(totals, repository.BrandTotal{BrandName: brand, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Total != totals[j].Total {
			return totals[i].Total < totals[j].Total
		}
		return totals[i].BrandName < totals[j].BrandName
	})
	return totals, nil
}

func (m *mockPricingRepository) MinPricePerCategory(ctx context.Context, brandName string) ([]repository.CategoryMin, error) {
	if m.err != nil {
		return nil, m.err
	}
	mins := make(map[string]int64)
	for _, p := range m.products {
		if p.brand != brandName {
			continue
		}
		if current, ok := mins[p.category]; !ok || p.price < current {
			mins[p.category] = p.price
		}
	}
	result := make([]repository.CategoryMin, 0, len(mins))
	for category, price := range mins {
		result = append(result, repository.CategoryMin{Category: category, Price: price})
	}
	return result, nil
}

func (m *mockPricingRepository) LowestPriceProducts(ctx context.Context, category string) ([]repository.PriceRow, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.extremeProducts(category, true), nil
}

func (m *mockPricingRepository) HighestPriceProducts(ctx context.Context, category string) ([]repository.PriceRow, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.extremeProducts(category, false), nil
}

func (m *mockPricingRepository) extremeProducts(category string, lowest bool) []repository.PriceRow {
	var extreme int64
	found := false
	for _, p := range m.products {
		if p.category != category {
			continue
		}
		if !found || (lowest && p.price < extreme) || (!lowest && p.price > extreme) {
			extreme = p.price
			found = true
		}
	}
	rows := []repository.PriceRow{}
	if !found {
		return rows
	}
	for _, p := range m.products {
		if p.category == category && p.price == extreme {
			rows = append(rows, repository.PriceRow{Brand: p.brand, Price: p.price})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Brand < rows[j].Brand })
	return rows
}

func TestLowestPriceByCategory_PicksMinimumPerCategory(t *testing.T) {
	repo := &mockPricingRepository{products: []catalogProduct{
		{brand: "A", category: "tops", price: 10000},
		{brand: "B", category: "tops", price: 15000},
		{brand: "B", category: "pants", price: 20000},
	}}
	svc := NewPricingService(repo)

	summary, err := svc.LowestPriceByCategory(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(summary.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(summary.Categories))
	}

	// Display order puts tops before pants
	if summary.Categories[0].Category != "tops" || summary.Categories[0].Brand != "A" || summary.Categories[0].Price != 10000 {
		t.Errorf("unexpected first entry: %+v", summary.Categories[0])
	}
	if summary.Categories[1].Category != "pants" || summary.Categories[1].Brand != "B" || summary.Categories[1].Price != 20000 {
		t.Errorf("unexpected second entry: %+v", summary.Categories[1])
	}
	if summary.TotalPrice != 30000 {
		t.Errorf("expected total 30000, got %d", summary.TotalPrice)
	}
}

func TestLowestPriceByCategory_TieBreaksOnGreatestBrandName(t *testing.T) {
	repo := &mockPricingRepository{products: []catalogProduct{
		{brand: "A", category: "hat", price: 1500},
		{brand: "Z", category: "hat", price: 1500},
		{brand: "M", category: "hat", price: 1500},
		{brand: "B", category: "hat", price: 1600},
	}}
	svc := NewPricingService(repo)

	summary, err := svc.LowestPriceByCategory(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(summary.Categories) != 1 {
		t.Fatalf("expected 1 category, got %d", len(summary.Categories))
	}
	if summary.Categories[0].Brand != "Z" {
		t.Errorf("expected tie to resolve to brand Z, got %s", summary.Categories[0].Brand)
	}
}

func TestLowestPriceByCategory_EmptyCatalog(t *testing.T) {
	svc := NewPricingService(&mockPricingRepository{})

	summary, err := svc.LowestPriceByCategory(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(summary.Categories) != 0 {
		t.Errorf("expected no categories, got %d", len(summary.Categories))
	}
	if summary.TotalPrice != 0 {
		t.Errorf("expected total 0, got %d", summary.TotalPrice)
	}
}

func TestLowestPriceByCategory_StoreErrorIsWrapped(t *testing.T) {
	storeErr := errors.New("connection refused")
	svc := NewPricingService(&mockPricingRepository{err: storeErr})

	_, err := svc.LowestPriceByCategory(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}

	var retrievalErr *RetrievalError
	if !errors.As(err, &retrievalErr) {
		t.Fatalf("expected RetrievalError, got %T", err)
	}
	if retrievalErr.Code != CodeRetrievalFailed {
		t.Errorf("expected code %s, got %s", CodeRetrievalFailed, retrievalErr.Code)
	}
	if !errors.Is(err, storeErr) {
		t.Error("expected wrapped store error to survive")
	}
}

func TestCheapestBrandBasket_PicksGlobalMinimum(t *testing.T) {
	repo := &mockPricingRepository{products: []catalogProduct{
		{brand: "D", category: "tops", price: 10100},
		{brand: "D", category: "pants", price: 3000},
		{brand: "D", category: "hat", price: 1500},
		{brand: "A", category: "tops", price: 11200},
		{brand: "A", category: "pants", price: 4200},
		{brand: "A", category: "hat", price: 1700},
	}}
	svc := NewPricingService(repo)

	summary, err := svc.CheapestBrandBasket(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	basket := summary.LowestPrice
	if basket.Brand != "D" {
		t.Errorf("expected brand D, got %s", basket.Brand)
	}
	if basket.TotalPrice != "14,600" {
		t.Errorf("expected total \"14,600\", got %q", basket.TotalPrice)
	}

	// Breakdown follows the display order
	expected := []struct {
		category string
		price    string
	}{
		{"tops", "10,100"},
		{"pants", "3,000"},
		{"hat", "1,500"},
	}
	if len(basket.Categories) != len(expected) {
		t.Fatalf("expected %d entries, got %d", len(expected), len(basket.Categories))
	}
	for i, want := range expected {
		got := basket.Categories[i]
		if got.Category != want.category || got.Price != want.price {
			t.Errorf("entry %d: expected %+v, got %+v", i, want, got)
		}
	}
}

func TestCheapestBrandBasket_PartialCoverageStillWins(t *testing.T) {
	// A carries only tops; its basket sums just that category
	repo := &mockPricingRepository{products: []catalogProduct{
		{brand: "A", category: "tops", price: 10000},
		{brand: "B", category: "tops", price: 15000},
		{brand: "B", category: "pants", price: 20000},
	}}
	svc := NewPricingService(repo)

	summary, err := svc.CheapestBrandBasket(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.LowestPrice.Brand != "A" {
		t.Errorf("expected brand A, got %s", summary.LowestPrice.Brand)
	}
	if summary.LowestPrice.TotalPrice != "10,000" {
		t.Errorf("expected total \"10,000\", got %q", summary.LowestPrice.TotalPrice)
	}
}

func TestCheapestBrandBasket_EmptyCatalogIsDistinguishable(t *testing.T) {
	svc := NewPricingService(&mockPricingRepository{})

	_, err := svc.CheapestBrandBasket(context.Background())
	if err == nil {
		t.Fatal("expected error for empty catalog")
	}

	var retrievalErr *RetrievalError
	if !errors.As(err, &retrievalErr) {
		t.Fatalf("expected RetrievalError, got %T", err)
	}
	if retrievalErr.Code != CodeEmptyCatalog {
		t.Errorf("expected code %s, got %s", CodeEmptyCatalog, retrievalErr.Code)
	}
}

func TestCategoryPriceRange_ReportsTiesAtBothExtremes(t *testing.T) {
	repo := &mockPricingRepository{products: []catalogProduct{
		{brand: "A", category: "tops", price: 10000},
		{brand: "B", category: "tops", price: 10000},
		{brand: "C", category: "tops", price: 11400},
		{brand: "D", category: "tops", price: 11400},
		{brand: "E", category: "pants", price: 3000},
	}}
	svc := NewPricingService(repo)

	priceRange, err := svc.CategoryPriceRange(context.Background(), "tops")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if priceRange.Category != "tops" {
		t.Errorf("expected category echoed back, got %s", priceRange.Category)
	}
	if len(priceRange.LowestPrice) != 2 {
		t.Fatalf("expected 2 lowest entries, got %d", len(priceRange.LowestPrice))
	}
	if priceRange.LowestPrice[0].Brand != "A" || priceRange.LowestPrice[0].Price != "10,000" {
		t.Errorf("unexpected lowest entry: %+v", priceRange.LowestPrice[0])
	}
	if len(priceRange.HighestPrice) != 2 {
		t.Fatalf("expected 2 highest entries, got %d", len(priceRange.HighestPrice))
	}
	if priceRange.HighestPrice[1].Brand != "D" || priceRange.HighestPrice[1].Price != "11,400" {
		t.Errorf("unexpected highest entry: %+v", priceRange.HighestPrice[1])
	}
}

func TestCategoryPriceRange_UnmatchedCategoryIsNotAnError(t *testing.T) {
	repo := &mockPricingRepository{products: []catalogProduct{
		{brand: "A", category: "tops", price: 10000},
	}}
	svc := NewPricingService(repo)

	priceRange, err := svc.CategoryPriceRange(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if priceRange.Category != "nonexistent" {
		t.Errorf("expected category echoed back, got %s", priceRange.Category)
	}
	if len(priceRange.LowestPrice) != 0 || len(priceRange.HighestPrice) != 0 {
		t.Errorf("expected both lists empty, got %d/%d",
			len(priceRange.LowestPrice), len(priceRange.HighestPrice))
	}
	if priceRange.LowestPrice == nil || priceRange.HighestPrice == nil {
		t.Error("expected empty lists, not nil")
	}
}

func TestFormatPrice(t *testing.T) {
	cases := []struct {
		price int64
		want  string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{12345, "12,345"},
		{1234567, "1,234,567"},
	}

	for _, tc := range cases {
		if got := FormatPrice(tc.price); got != tc.want {
			t.Errorf("FormatPrice(%d) = %q, want %q", tc.price, got, tc.want)
		}
	}
}

// The summary total must always equal the sum of the returned per-category
// prices, and no category may appear twice.
func TestProperty_LowestPriceSummaryTotalsAreConsistent(t *testing.T) {
	brands := []string{"A", "B", "C", "D", "E"}
	categories := []string{"tops", "outer", "pants", "sneakers", "bag", "hat", "socks", "accessory", "zzz-custom"}

	properties := gopter.NewProperties(nil)

	properties.Property("total equals sum and categories are unique", prop.ForAll(
		func(prices []int64) bool {
			repo := &mockPricingRepository{}
			for i, price := range prices {
				repo.products = append(repo.products, catalogProduct{
					brand:    brands[i%len(brands)],
					category: categories[(i*7)%len(categories)],
					price:    price,
				})
			}

			svc := NewPricingService(repo)
			summary, err := svc.LowestPriceByCategory(context.Background())
			if err != nil {
				return false
			}

			var sum int64
			seen := make(map[string]bool)
			for _, entry := range summary.Categories {
				if seen[entry.Category] {
					return false
				}
				seen[entry.Category] = true
				sum += entry.Price
			}

			return sum == summary.TotalPrice
		},
		gen.SliceOf(gen.Int64Range(0, 1000000)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// The winning basket's total must never exceed any other brand's total.
func TestProperty_CheapestBasketIsGlobalMinimum(t *testing.T) {
	categories := []string{"tops", "pants", "hat"}

	properties := gopter.NewProperties(nil)

	properties.Property("no brand undercuts the winner", prop.ForAll(
		func(prices []int64) bool {
			if len(prices) == 0 {
				return true // empty catalog is the error path, tested separately
			}

			repo := &mockPricingRepository{}
			for i, price := range prices {
				repo.products = append(repo.products, catalogProduct{
					brand:    fmt.Sprintf("brand-%d", i%4),
					category: categories[i%len(categories)],
					price:    price,
				})
			}

			svc := NewPricingService(repo)
			summary, err := svc.CheapestBrandBasket(context.Background())
			if err != nil {
				return false
			}

			totals, err := repo.BrandTotals(context.Background())
			if err != nil {
				return false
			}

			var winnerTotal int64
			found := false
			for _, bt := range totals {
				if bt.BrandName == summary.LowestPrice.Brand {
					winnerTotal = bt.Total
					found = true
					break
				}
			}
			if !found {
				return false
			}

			for _, bt := range totals {
				if bt.Total < winnerTotal {
					return false
				}
			}
			return FormatPrice(winnerTotal) == summary.LowestPrice.TotalPrice
		},
		gen.SliceOf(gen.Int64Range(0, 100000)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Known categories must come out in display order, unknown ones after them
// in name order.
func TestProperty_CategoriesRespectDisplayOrder(t *testing.T) {
	known := []string{"tops", "outer", "pants", "sneakers", "bag", "hat", "socks", "accessory"}

	properties := gopter.NewProperties(nil)

	properties.Property("output ordering is the display order", prop.ForAll(
		func(seed int, extra []int64) bool {
			if seed < 0 {
				seed = -seed
			}

			repo := &mockPricingRepository{}
			// A rotating subset of known categories plus some unknown ones
			for i, c := range known {
				if (seed>>i)&1 == 0 {
					continue
				}
				repo.products = append(repo.products, catalogProduct{
					brand: "A", category: c, price: int64(1000 + i),
				})
			}
			for i := range extra {
				repo.products = append(repo.products, catalogProduct{
					brand: "B", category: fmt.Sprintf("custom-%02d", i%5), price: extra[i],
				})
			}

			svc := NewPricingService(repo)
			summary, err := svc.LowestPriceByCategory(context.Background())
			if err != nil {
				return false
			}

			for i := 1; i < len(summary.Categories); i++ {
				prev, curr := summary.Categories[i-1].Category, summary.Categories[i].Category
				if !categoryLess(prev, curr) && prev != curr {
					return false
				}
			}
			return true
		},
		gen.Int(),
		gen.SliceOf(gen.Int64Range(0, 10000)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
