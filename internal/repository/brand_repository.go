package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"catalog-pricing/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrBrandNotFound   = errors.New("brand not found")
	ErrVersionConflict = errors.New("brand was modified concurrently")
)

// BrandRepository defines the write-side access to brand aggregates. Every
// mutation commits the whole aggregate in one transaction.
type BrandRepository interface {
	Create(ctx context.Context, brand *domain.Brand) error
	Update(ctx context.Context, brand *domain.Brand, changed, created []domain.Product) error
	SoftDelete(ctx context.Context, brand *domain.Brand, deletedAt time.Time) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Brand, error)
	FindByName(ctx context.Context, name string) (*domain.Brand, error)
}

type brandRepository struct {
	db *sql.DB
}

// NewBrandRepository creates a new instance of BrandRepository
func NewBrandRepository(db *sql.DB) BrandRepository {
	return &brandRepository{db: db}
}

// Create inserts the brand and all its products atomically.
func (r *brandRepository) Create(ctx context.Context, brand *domain.Brand) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	brandQuery := `
		INSERT INTO brands (id, name, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.ExecContext(ctx, brandQuery,
		brand.ID, brand.Name, brand.Version, brand.CreatedAt, brand.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create brand: %w", err)
	}

	for i := range brand.Products {
		if err := insertProduct(ctx, tx, &brand.Products[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit brand creation: %w", err)
	}

	return nil
}

// Update renames the brand and applies product changes atomically. The
// brand's version must already be bumped; the previous version guards the
// write so concurrent updates fail instead of silently overwriting.
func (r *brandRepository) Update(ctx context.Context, brand *domain.Brand, changed, created []domain.Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	brandQuery := `
		UPDATE brands
		SET name = $2, version = $3, updated_at = $4
		WHERE id = $1 AND version = $5 AND deleted_at IS NULL
	`
	result, err := tx.ExecContext(ctx, brandQuery,
		brand.ID, brand.Name, brand.Version, brand.UpdatedAt, brand.Version-1,
	)
	if err != nil {
		return fmt.Errorf("failed to update brand: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrVersionConflict
	}

	productQuery := `
		UPDATE products
		SET category = $2, price = $3, version = $4, updated_at = $5
		WHERE id = $1 AND brand_id = $6 AND deleted_at IS NULL
	`
	for i := range changed {
		p := &changed[i]
		if _, err := tx.ExecContext(ctx, productQuery,
			p.ID, p.Category, p.Price, p.Version, p.UpdatedAt, brand.ID,
		); err != nil {
			return fmt.Errorf("failed to update product %s: %w", p.ID, err)
		}
	}

	for i := range created {
		if err := insertProduct(ctx, tx, &created[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit brand update: %w", err)
	}

	return nil
}

// SoftDelete marks the brand and all its live products deleted with a
// shared timestamp, bumping every touched row's version.
func (r *brandRepository) SoftDelete(ctx context.Context, brand *domain.Brand, deletedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	brandQuery := `
		UPDATE brands
		SET deleted_at = $2, updated_at = $2, version = version + 1
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := tx.ExecContext(ctx, brandQuery, brand.ID, deletedAt)
	if err != nil {
		return fmt.Errorf("failed to delete brand: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrBrandNotFound
	}

	productQuery := `
		UPDATE products
		SET deleted_at = $2, updated_at = $2, version = version + 1
		WHERE brand_id = $1 AND deleted_at IS NULL
	`
	if _, err := tx.ExecContext(ctx, productQuery, brand.ID, deletedAt); err != nil {
		return fmt.Errorf("failed to delete products: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit brand deletion: %w", err)
	}

	return nil
}

// FindByID retrieves a non-deleted brand with its live products.
func (r *brandRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Brand, error) {
	query := `
		SELECT id, name, version, created_at, updated_at
		FROM brands
		WHERE id = $1 AND deleted_at IS NULL
	`

	brand := &domain.Brand{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&brand.ID, &brand.Name, &brand.Version, &brand.CreatedAt, &brand.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBrandNotFound
		}
		return nil, fmt.Errorf("failed to find brand by ID: %w", err)
	}

	if err := r.loadProducts(ctx, brand); err != nil {
		return nil, err
	}

	return brand, nil
}

// FindByName retrieves a non-deleted brand by name with its live products.
func (r *brandRepository) FindByName(ctx context.Context, name string) (*domain.Brand, error) {
	query := `
		SELECT id, name, version, created_at, updated_at
		FROM brands
		WHERE name = $1 AND deleted_at IS NULL
	`

	brand := &domain.Brand{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&brand.ID, &brand.Name, &brand.Version, &brand.CreatedAt, &brand.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBrandNotFound
		}
		return nil, fmt.Errorf("failed to find brand by name: %w", err)
	}

	if err := r.loadProducts(ctx, brand); err != nil {
		return nil, err
	}

	return brand, nil
}

func (r *brandRepository) loadProducts(ctx context.Context, brand *domain.Brand) error {
	query := `
		SELECT id, brand_id, category, price, version, created_at, updated_at
		FROM products
		WHERE brand_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, brand.ID)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	defer rows.Close()

	brand.Products = []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.BrandID, &p.Category, &p.Price, &p.Version, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to scan product: %w", err)
		}
		brand.Products = append(brand.Products, p)
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating products: %w", err)
	}

	return nil
}

func insertProduct(ctx context.Context, tx *sql.Tx, p *domain.Product) error {
	query := `
		INSERT INTO products (id, brand_id, category, price, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := tx.ExecContext(ctx, query,
		p.ID, p.BrandID, p.Category, p.Price, p.Version, p.CreatedAt, p.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}
