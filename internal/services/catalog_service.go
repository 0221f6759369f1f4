package services

import (
	"context"
	"fmt"

	"shopledger/internal/core"
	ports "shopledger/internal/gateway"
	"shopledger/internal/log"
)

// CatalogService fronts the product and category ports. Filter validation
// happens here so an invalid query never produces a request.
type CatalogService struct {
	catalog ports.Catalog
	logger  *log.Logger
}

func NewCatalogService(backend ports.Backend, logger *log.Logger) *CatalogService {
	return &CatalogService{
		catalog: backend,
		logger:  logger.WithComponent(log.ComponentCatalog),
	}
}

// Products runs a validated product query. Validation errors come back
// directly so handlers can render them inline.
func (s *CatalogService) Products(ctx context.Context, q ports.ProductQuery) (ports.ProductPage, error) {
	if err := q.Validate(); err != nil {
		return ports.ProductPage{}, err
	}
	page, err := s.catalog.Products(ctx, q)
	if err != nil {
		return ports.ProductPage{}, fmt.Errorf("list products: %w", err)
	}
	return page, nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]core.Category, error) {
	cats, err := s.catalog.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (core.Category, error) {
	c, err := s.catalog.CreateCategory(ctx, name)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	s.logger.InfoContext(ctx, "category created",
		log.FieldOperation, log.OpCreate, log.FieldCategory, c.Name)
	return c, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	if err := s.catalog.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.logger.InfoContext(ctx, "category deleted",
		log.FieldOperation, log.OpDelete, log.FieldCategory, id)
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, input ports.ProductInput) error {
	if err := validateProductInput(input); err != nil {
		return err
	}
	if err := s.catalog.CreateProduct(ctx, input); err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	s.logger.InfoContext(ctx, "product created",
		log.FieldOperation, log.OpCreate, log.FieldProduct, input.SKU)
	return nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, input ports.ProductInput) error {
	if err := validateProductInput(input); err != nil {
		return err
	}
	if err := s.catalog.UpdateProduct(ctx, id, input); err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	s.logger.InfoContext(ctx, "product updated",
		log.FieldOperation, log.OpUpdate, log.FieldProduct, id)
	return nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	if err := s.catalog.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.logger.InfoContext(ctx, "product deleted",
		log.FieldOperation, log.OpDelete, log.FieldProduct, id)
	return nil
}

func validateProductInput(input ports.ProductInput) error {
	if input.Name == "" {
		return core.ErrEmptyName
	}
	if input.SKU == "" {
		return core.ErrEmptySKU
	}
	if input.Price < 0 {
		return core.ErrNegativeAmount
	}
	if input.Quantity < 0 {
		return core.ErrInvalidQuantity
	}
	return nil
}
