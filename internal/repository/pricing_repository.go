package repository

import (
	"context"
	"database/sql"
	"fmt"

	"catalog-pricing/internal/domain"
)

// BrandTotal is one row of the brand-basket ranking: a brand name and the
// sum of its minimum price per category.
type BrandTotal struct {
	BrandName string
	Total     int64
}

// CategoryMin is a brand's minimum price within one of its categories.
type CategoryMin struct {
	Category string
	Price    int64
}

// PriceRow is a brand/price pair for one product at a category extreme.
type PriceRow struct {
	Brand string
	Price int64
}

// PricingRepository defines the read-side queries the pricing aggregator
// needs. Every query excludes soft-deleted brands and products.
type PricingRepository interface {
	LowestPriceByCategory(ctx context.Context) ([]domain.CategoryPrice, error)
	LowestPriceProducts(ctx context.Context, category string) ([]PriceRow, error)
	HighestPriceProducts(ctx context.Context, category string) ([]PriceRow, error)
	BrandTotals(ctx context.Context) ([]BrandTotal, error)
	MinPricePerCategory(ctx context.Context, brandName string) ([]CategoryMin, error)
}

type pricingRepository struct {
	db *sql.DB
}

// NewPricingRepository creates a new instance of PricingRepository
func NewPricingRepository(db *sql.DB) PricingRepository {
	return &pricingRepository{db: db}
}

// LowestPriceByCategory returns the cheapest product per category. Ties at
// the minimum price resolve to the greatest brand name.
func (r *pricingRepository) LowestPriceByCategory(ctx context.Context) ([]domain.CategoryPrice, error) {
	query := `
		SELECT DISTINCT ON (p.category) p.category, b.name, p.price
		FROM products p
		JOIN brands b ON b.id = p.brand_id
		WHERE p.deleted_at IS NULL AND b.deleted_at IS NULL
		ORDER BY p.category ASC, p.price ASC, b.name DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query lowest price by category: %w", err)
	}
	defer rows.Close()

	results := []domain.CategoryPrice{}
	for rows.Next() {
		var cp domain.CategoryPrice
		if err := rows.Scan(&cp.Category, &cp.Brand, &cp.Price); err != nil {
			return nil, fmt.Errorf("failed to scan category price: %w", err)
		}
		results = append(results, cp)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category prices: %w", err)
	}

	return results, nil
}

// LowestPriceProducts returns every product tied at the minimum price for
// the category.
func (r *pricingRepository) LowestPriceProducts(ctx context.Context, category string) ([]PriceRow, error) {
	query := `
		SELECT b.name, p.price
		FROM products p
		JOIN brands b ON b.id = p.brand_id
		WHERE p.category = $1 AND p.deleted_at IS NULL AND b.deleted_at IS NULL
		  AND p.price = (
			SELECT MIN(p2.price)
			FROM products p2
			JOIN brands b2 ON b2.id = p2.brand_id
			WHERE p2.category = $1 AND p2.deleted_at IS NULL AND b2.deleted_at IS NULL
		  )
		ORDER BY b.name ASC
	`

	return r.queryPriceRows(ctx, query, category)
}

// HighestPriceProducts returns every product tied at the maximum price for
// the category.
func (r *pricingRepository) HighestPriceProducts(ctx context.Context, category string) ([]PriceRow, error) {
	query := `
		SELECT b.name, p.price
		FROM products p
		JOIN brands b ON b.id = p.brand_id
		WHERE p.category = $1 AND p.deleted_at IS NULL AND b.deleted_at IS NULL
		  AND p.price = (
			SELECT MAX(p2.price)
			FROM products p2
			JOIN brands b2 ON b2.id = p2.brand_id
			WHERE p2.category = $1 AND p2.deleted_at IS NULL AND b2.deleted_at IS NULL
		  )
		ORDER BY b.name ASC
	`

	return r.queryPriceRows(ctx, query, category)
}

func (r *pricingRepository) queryPriceRows(ctx context.Context, query, category string) ([]PriceRow, error) {
	rows, err := r.db.QueryContext(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to query price extremes for category %q: %w", category, err)
	}
	defer rows.Close()

	results := []PriceRow{}
	for rows.Next() {
		var row PriceRow
		if err := rows.Scan(&row.Brand, &row.Price); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		results = append(results, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price rows: %w", err)
	}

	return results, nil
}

// BrandTotals ranks brands by the sum of their minimum price per category,
// cheapest first. A brand sums only the categories it actually carries.
func (r *pricingRepository) BrandTotals(ctx context.Context) ([]BrandTotal, error) {
	query := `
		SELECT b.name, SUM(m.min_price)::bigint AS total
		FROM brands b
		JOIN (
			SELECT brand_id, category, MIN(price) AS min_price
			FROM products
			WHERE deleted_at IS NULL
			GROUP BY brand_id, category
		) m ON m.brand_id = b.id
		WHERE b.deleted_at IS NULL
		GROUP BY b.id, b.name
		ORDER BY total ASC, b.name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query brand totals: %w", err)
	}
	defer rows.Close()

	results := []BrandTotal{}
	for rows.Next() {
		var bt BrandTotal
		if err := rows.Scan(&bt.BrandName, &bt.Total); err != nil {
			return nil, fmt.Errorf("failed to scan brand total: %w", err)
		}
		results = append(results, bt)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating brand totals: %w", err)
	}

	return results, nil
}

// MinPricePerCategory returns the brand's minimum price in each of its
// categories. These are exactly the rows BrandTotals sums for the brand.
func (r *pricingRepository) MinPricePerCategory(ctx context.Context, brandName string) ([]CategoryMin, error) {
	query := `
		SELECT p.category, MIN(p.price)::bigint
		FROM products p
		JOIN brands b ON b.id = p.brand_id
		WHERE b.name = $1 AND p.deleted_at IS NULL AND b.deleted_at IS NULL
		GROUP BY p.category
	`

	rows, err := r.db.QueryContext(ctx, query, brandName)
	if err != nil {
		return nil, fmt.Errorf("failed to query category minimums for brand %q: %w", brandName, err)
	}
	defer rows.Close()

	results := []CategoryMin{}
	for rows.Next() {
		var cm CategoryMin
		if err := rows.Scan(&cm.Category, &cm.Price); err != nil {
			return nil, fmt.Errorf("failed to scan category minimum: %w", err)
		}
		results = append(results, cm)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category minimums: %w", err)
	}

	return results, nil
}
