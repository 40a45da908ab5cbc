package domain

import (
	"time"

	"github.com/google/uuid"
)

// Brand is the aggregate root of the catalog: it owns its products and is
// the sole entry point for mutating them.
type Brand struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Products  []Product  `json:"products"`
	Version   int64      `json:"version" db:"version"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Product belongs to exactly one brand for its lifetime. It carries the
// owning brand's id rather than a back-pointer.
type Product struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	BrandID   uuid.UUID  `json:"brand_id" db:"brand_id"`
	Category  string     `json:"category" db:"category"`
	Price     int64      `json:"price" db:"price"`
	Version   int64      `json:"version" db:"version"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// IsDeleted reports whether the brand has been soft-deleted.
func (b *Brand) IsDeleted() bool {
	return b.DeletedAt != nil
}

// IsDeleted reports whether the product has been soft-deleted.
func (p *Product) IsDeleted() bool {
	return p.DeletedAt != nil
}

// AddProduct attaches a product to the brand and sets its back-id.
func (b *Brand) AddProduct(p Product) {
	p.BrandID = b.ID
	b.Products = append(b.Products, p)
}

// CategoryPrice is the cheapest product's data for one category.
type CategoryPrice struct {
	Category string `json:"category"`
	Brand    string `json:"brand"`
	Price    int64  `json:"price"`
}

// LowestPriceSummary lists the cheapest product per category plus the sum of
// those prices. Recomputed per request, never persisted.
type LowestPriceSummary struct {
	Categories []CategoryPrice `json:"categories"`
	TotalPrice int64           `json:"totalPrice"`
}

// BrandPrice is a formatted brand/price pair used in presentation payloads.
type BrandPrice struct {
	Brand string `json:"brand"`
	Price string `json:"price"`
}

// BasketEntry is one category of a brand's basket with a formatted price.
type BasketEntry struct {
	Category string `json:"category"`
	Price    string `json:"price"`
}

// BrandBasket describes the brand whose one-of-each-category basket is the
// cheapest overall.
type BrandBasket struct {
	Brand      string        `json:"brand"`
	Categories []BasketEntry `json:"categories"`
	TotalPrice string        `json:"totalPrice"`
}

// BrandBasketSummary wraps the winning basket under the key the API exposes.
type BrandBasketSummary struct {
	LowestPrice BrandBasket `json:"lowestPrice"`
}

// CategoryPriceRange reports every product tied at the minimum and maximum
// price within a single category.
type CategoryPriceRange struct {
	Category     string       `json:"category"`
	LowestPrice  []BrandPrice `json:"lowestPrice"`
	HighestPrice []BrandPrice `json:"highestPrice"`
}

// MutationResult is the uniform outcome of every catalog mutation.
type MutationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
