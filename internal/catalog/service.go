package catalog

import (
	"context"
	"fmt"

	"github.com/atelier-commerce/atelier/internal/inventory"
	"github.com/atelier-commerce/atelier/internal/shared"
)

// HomepageLimit is the number of newest products shown on the landing page.
const HomepageLimit = 8

// Service coordinates catalog reads for the storefront.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Page is one page of catalog results.
type Page struct {
	Products   []Listing
	Pagination shared.Pagination
}

// Browse returns one page of the filtered catalog sorted by name.
func (s *Service) Browse(ctx context.Context, filter Filter) (Page, error) {
	pagination := shared.NewPagination(filter.Page, PageSize, 0)
	products, total, err := s.repo.List(ctx, filter, pagination.PerPage, pagination.Offset())
	if err != nil {
		return Page{}, fmt.Errorf("list products: %w", err)
	}
	annotateStockStatus(products)
	return Page{
		Products:   products,
		Pagination: shared.NewPagination(filter.Page, PageSize, total),
	}, nil
}

// Homepage returns the newest published fashion products.
func (s *Service) Homepage(ctx context.Context) ([]Listing, error) {
	products, err := s.repo.Newest(ctx, HomepageLimit)
	if err != nil {
		return nil, fmt.Errorf("newest products: %w", err)
	}
	annotateStockStatus(products)
	return products, nil
}

// Get loads a single product listing.
func (s *Service) Get(ctx context.Context, id int64) (Listing, error) {
	listing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Listing{}, err
	}
	listing.StockStatus = string(inventory.StatusFor(listing.QtyAvailable, listing.MinStockLevel))
	return listing, nil
}

// Facets returns the sidebar filter options for the published catalog.
func (s *Service) Facets(ctx context.Context) (Facets, error) {
	return s.repo.Facets(ctx)
}

// Suggest returns autocomplete hits for terms of at least two characters.
func (s *Service) Suggest(ctx context.Context, term string) ([]Suggestion, error) {
	if len(term) < 2 {
		return []Suggestion{}, nil
	}
	return s.repo.Suggest(ctx, term, 10)
}

// B2BPriced lists storefront products carrying a configured B2B price.
func (s *Service) B2BPriced(ctx context.Context) ([]Listing, error) {
	products, err := s.repo.B2BPriced(ctx)
	if err != nil {
		return nil, err
	}
	annotateStockStatus(products)
	return products, nil
}

func annotateStockStatus(products []Listing) {
	for i := range products {
		products[i].StockStatus = string(inventory.StatusFor(products[i].QtyAvailable, products[i].MinStockLevel))
	}
}
