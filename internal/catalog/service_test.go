package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atelier-commerce/atelier/internal/inventory"
	"github.com/atelier-commerce/atelier/internal/shared"
)

type fakeRepo struct {
	products []Listing
}

func (f *fakeRepo) List(_ context.Context, _ Filter, limit, offset int) ([]Listing, int, error) {
	total := len(f.products)
	if offset >= total {
		return []Listing{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return f.products[offset:end], total, nil
}

func (f *fakeRepo) Newest(_ context.Context, limit int) ([]Listing, error) {
	if len(f.products) > limit {
		return f.products[:limit], nil
	}
	return f.products, nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (Listing, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return Listing{}, shared.ErrNotFound
}

func (f *fakeRepo) Facets(_ context.Context) (Facets, error) {
	return Facets{}, nil
}

func (f *fakeRepo) Suggest(_ context.Context, term string, limit int) ([]Suggestion, error) {
	return []Suggestion{{Name: term}}, nil
}

func (f *fakeRepo) B2BPriced(_ context.Context) ([]Listing, error) {
	out := []Listing{}
	for _, p := range f.products {
		if p.B2BPrice > 0 {
			out = append(out, p)
		}
	}
	return out, nil
}

func seedProducts(n int) []Listing {
	products := make([]Listing, 0, n)
	for i := 1; i <= n; i++ {
		l := Listing{}
		l.ID = int64(i)
		l.Name = fmt.Sprintf("Product %03d", i)
		l.QtyAvailable = float64(i)
		l.MinStockLevel = 5
		products = append(products, l)
	}
	return products
}

func TestBrowsePaginates(t *testing.T) {
	repo := &fakeRepo{products: seedProducts(45)}
	svc := NewService(repo)
	ctx := context.Background()

	page, err := svc.Browse(ctx, Filter{Page: 1})
	require.NoError(t, err)
	require.Len(t, page.Products, 20)
	require.Equal(t, 45, page.Pagination.Total)
	require.Equal(t, 3, page.Pagination.TotalPages)

	page, err = svc.Browse(ctx, Filter{Page: 3})
	require.NoError(t, err)
	require.Len(t, page.Products, 5)
}

func TestBrowseBeyondRangeIsEmptyNotError(t *testing.T) {
	repo := &fakeRepo{products: seedProducts(10)}
	svc := NewService(repo)

	page, err := svc.Browse(context.Background(), Filter{Page: 99})
	require.NoError(t, err)
	require.Empty(t, page.Products)
	require.Equal(t, 10, page.Pagination.Total)
}

func TestBrowseAnnotatesStockStatus(t *testing.T) {
	low := Listing{}
	low.ID = 1
	low.QtyAvailable = 5
	low.MinStockLevel = 10
	repo := &fakeRepo{products: []Listing{low}}
	svc := NewService(repo)

	page, err := svc.Browse(context.Background(), Filter{Page: 1})
	require.NoError(t, err)
	require.Equal(t, string(inventory.StatusLowStock), page.Products[0].StockStatus)
}

func TestHomepageLimit(t *testing.T) {
	repo := &fakeRepo{products: seedProducts(30)}
	svc := NewService(repo)

	products, err := svc.Homepage(context.Background())
	require.NoError(t, err)
	require.Len(t, products, HomepageLimit)
}

func TestSuggestRequiresTwoChars(t *testing.T) {
	svc := NewService(&fakeRepo{})

	suggestions, err := svc.Suggest(context.Background(), "a")
	require.NoError(t, err)
	require.Empty(t, suggestions)

	suggestions, err = svc.Suggest(context.Background(), "ja")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
}
