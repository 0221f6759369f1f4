package services

import (
	"context"
	"errors"
	"testing"

	"shopledger/internal/core"
	ports "shopledger/internal/gateway"
	"shopledger/internal/gateway/memory"
)

func TestProductsFilterValidation(t *testing.T) {
	svc := NewCatalogService(memory.NewSeeded(), testLogger())

	neg := int64(-1)
	lo, hi := int64(5000), int64(1000)
	tests := []struct {
		name    string
		query   ports.ProductQuery
		wantErr error
	}{
		{"negative min", ports.ProductQuery{MinPrice: &neg}, core.ErrNegativeAmount},
		{"negative max", ports.ProductQuery{MaxPrice: &neg}, core.ErrNegativeAmount},
		{"inverted range", ports.ProductQuery{MinPrice: &lo, MaxPrice: &hi}, core.ErrPriceRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Products(context.Background(), tt.query); !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestProductQueryAndPaging(t *testing.T) {
	svc := NewCatalogService(memory.NewSeeded(), testLogger())

	page, err := svc.Products(context.Background(), ports.ProductQuery{Search: "tea"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(page.Products) != 1 || page.Products[0].Name != "Green tea" {
		t.Fatalf("search results: %+v", page.Products)
	}

	page, err = svc.Products(context.Background(), ports.ProductQuery{Limit: 2, Page: 1, SortBy: "price", Order: "asc"})
	if err != nil {
		t.Fatalf("paged: %v", err)
	}
	if len(page.Products) != 2 || page.TotalPages != 2 {
		t.Fatalf("page = %d items / %d pages, want 2/2", len(page.Products), page.TotalPages)
	}
	if page.Products[0].Price.Amount > page.Products[1].Price.Amount {
		t.Error("not sorted by price ascending")
	}
}

func TestCategoryLifecycle(t *testing.T) {
	svc := NewCatalogService(memory.New(), testLogger())

	c, err := svc.CreateCategory(context.Background(), "Snacks")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateCategory(context.Background(), "snacks"); err == nil {
		t.Error("duplicate category accepted")
	}
	if _, err := svc.CreateCategory(context.Background(), "  "); !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("blank name: err = %v", err)
	}

	if err := svc.DeleteCategory(context.Background(), c.ID, false); !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("unconfirmed delete: err = %v", err)
	}
	if err := svc.DeleteCategory(context.Background(), c.ID, true); err != nil {
		t.Fatalf("delete: %v", err)
	}
	cats, err := svc.Categories(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cats) != 0 {
		t.Errorf("categories after delete: %+v", cats)
	}
}

func TestProductInputValidation(t *testing.T) {
	svc := NewCatalogService(memory.New(), testLogger())

	tests := []struct {
		name    string
		input   ports.ProductInput
		wantErr error
	}{
		{"no name", ports.ProductInput{SKU: "S-1", Price: 100}, core.ErrEmptyName},
		{"no sku", ports.ProductInput{Name: "Thing", Price: 100}, core.ErrEmptySKU},
		{"negative price", ports.ProductInput{Name: "Thing", SKU: "S-1", Price: -1}, core.ErrNegativeAmount},
		{"negative stock", ports.ProductInput{Name: "Thing", SKU: "S-1", Price: 1, Quantity: -2}, core.ErrInvalidQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.CreateProduct(context.Background(), tt.input); !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := svc.CreateProduct(context.Background(), ports.ProductInput{Name: "Thing", SKU: "S-1", Price: 100, Quantity: 3}); err != nil {
		t.Fatalf("valid product: %v", err)
	}
	page, err := svc.Products(context.Background(), ports.ProductQuery{})
	if err != nil || len(page.Products) != 1 {
		t.Fatalf("list after create: %v, %+v", err, page.Products)
	}
	if page.Products[0].Status != core.ProductInStock {
		t.Errorf("status not derived from stock: %s", page.Products[0].Status)
	}
}
