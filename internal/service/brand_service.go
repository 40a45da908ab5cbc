package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog-pricing/internal/domain"
	"catalog-pricing/internal/repository"

	"github.com/google/uuid"
)

// ProductInput is one product row of a brand mutation request. A nil or
// unknown ID means "create"; an ID matching one of the brand's live
// products means "update in place".
type ProductInput struct {
	ID       *uuid.UUID
	Category string
	Price    int64
}

// BrandService defines the catalog mutations. Every operation validates
// before touching the store and converts all failures into a uniform
// result; errors never escape this boundary.
type BrandService interface {
	AddBrandWithProducts(ctx context.Context, name string, products []ProductInput) domain.MutationResult
	UpdateBrandWithProducts(ctx context.Context, brandID uuid.UUID, newName string, products []ProductInput) domain.MutationResult
	DeleteBrandWithProducts(ctx context.Context, brandID uuid.UUID) domain.MutationResult
}

type brandService struct {
	brandRepo repository.BrandRepository
}

// NewBrandService creates a new instance of BrandService
func NewBrandService(brandRepo repository.BrandRepository) BrandService {
	return &brandService{brandRepo: brandRepo}
}

// AddBrandWithProducts creates a brand and its products atomically, all at
// version 1.
func (s *brandService) AddBrandWithProducts(ctx context.Context, name string, products []ProductInput) domain.MutationResult {
	if err := s.validateAdd(ctx, name, products); err != nil {
		return failure("add", err)
	}

	now := time.Now()
	brand := &domain.Brand{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, input := range products {
		brand.AddProduct(domain.Product{
			ID:        uuid.New(),
			Category:  input.Category,
			Price:     input.Price,
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if err := s.brandRepo.Create(ctx, brand); err != nil {
		return failure("add", err)
	}

	return success("added")
}

// UpdateBrandWithProducts renames the brand and merges the product set:
// matched ids update category and price in place, unmatched inputs become
// new products, existing products not referenced stay untouched.
func (s *brandService) UpdateBrandWithProducts(ctx context.Context, brandID uuid.UUID, newName string, products []ProductInput) domain.MutationResult {
	if err := validateName(newName); err != nil {
		return failure("update", err)
	}
	if err := validateProducts(products); err != nil {
		return failure("update", err)
	}

	brand, err := s.brandRepo.FindByID(ctx, brandID)
	if err != nil {
		return failure("update", err)
	}

	now := time.Now()
	brand.Name = strings.TrimSpace(newName)
	brand.Version++
	brand.UpdatedAt = now

	owned := make(map[uuid.UUID]*domain.Product, len(brand.Products))
	for i := range brand.Products {
		owned[brand.Products[i].ID] = &brand.Products[i]
	}

	var changed, created []domain.Product
	for _, input := range products {
		if input.ID != nil {
			if p, ok := owned[*input.ID]; ok {
				p.Category = input.Category
				p.Price = input.Price
				p.Version++
				p.UpdatedAt = now
				changed = append(changed, *p)
				continue
			}
		}
		created = append(created, domain.Product{
			ID:        uuid.New(),
			BrandID:   brand.ID,
			Category:  input.Category,
			Price:     input.Price,
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if err := s.brandRepo.Update(ctx, brand, changed, created); err != nil {
		return failure("update", err)
	}

	return success("updated")
}

// DeleteBrandWithProducts soft-deletes the brand and every live product it
// owns, sharing one delete timestamp.
func (s *brandService) DeleteBrandWithProducts(ctx context.Context, brandID uuid.UUID) domain.MutationResult {
	brand, err := s.brandRepo.FindByID(ctx, brandID)
	if err != nil {
		return failure("delete", err)
	}

	if err := s.brandRepo.SoftDelete(ctx, brand, time.Now()); err != nil {
		return failure("delete", err)
	}

	return success("deleted")
}

func (s *brandService) validateAdd(ctx context.Context, name string, products []ProductInput) error {
	if err := validateName(name); err != nil {
		return err
	}
	if len(products) == 0 {
		return errors.New("at least one product is required")
	}
	if err := validateProducts(products); err != nil {
		return err
	}

	existing, err := s.brandRepo.FindByName(ctx, strings.TrimSpace(name))
	if err != nil && !errors.Is(err, repository.ErrBrandNotFound) {
		return err
	}
	if existing != nil {
		return errors.New("brand with this name already exists")
	}

	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("brand name is required")
	}
	return nil
}

func validateProducts(products []ProductInput) error {
	for _, p := range products {
		if strings.TrimSpace(p.Category) == "" {
			return errors.New("product category is required")
		}
		if p.Price < 0 {
			return errors.New("product price must not be negative")
		}
	}
	return nil
}

func success(verb string) domain.MutationResult {
	return domain.MutationResult{
		Success: true,
		Message: fmt.Sprintf("Brand and products %s successfully", verb),
	}
}

func failure(op string, err error) domain.MutationResult {
	return domain.MutationResult{
		Success: false,
		Message: fmt.Sprintf("Failed to %s brand and products: %s", op, err.Error()),
	}
}
