package catalog

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-commerce/atelier/internal/shared"
)

// Repository loads catalog data from PostgreSQL.
type Repository interface {
	List(ctx context.Context, filter Filter, limit, offset int) ([]Listing, int, error)
	Newest(ctx context.Context, limit int) ([]Listing, error)
	Get(ctx context.Context, id int64) (Listing, error)
	Facets(ctx context.Context) (Facets, error)
	Suggest(ctx context.Context, term string, limit int) ([]Suggestion, error)
	B2BPriced(ctx context.Context) ([]Listing, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// listingSelect joins products against the stock ledger and published
// reviews in one pass so listings never fan out into per-product queries.
const listingSelect = `SELECT p.id, p.code, p.name, p.description, p.brand, p.target_audience, p.color, p.size,
	p.season, p.material, p.price, p.b2b_price, p.min_stock_level, p.max_stock_level,
	p.is_published, p.is_saleable, p.created_at, p.updated_at,
	COALESCE(s.qty, 0) AS qty_available,
	COALESCE(r.review_count, 0) AS review_count,
	COALESCE(r.average_rating, 0) AS average_rating
FROM products p
LEFT JOIN (
	SELECT product_id, SUM(qty) AS qty FROM stock_moves GROUP BY product_id
) s ON s.product_id = p.id
LEFT JOIN (
	SELECT product_id, COUNT(*) AS review_count, ROUND(AVG(rating)::numeric, 1) AS average_rating
	FROM reviews WHERE state = 'published' GROUP BY product_id
) r ON r.product_id = p.id`

const storefrontWhere = ` WHERE p.is_published AND p.is_saleable AND p.target_audience <> ''`

func (r *repository) List(ctx context.Context, filter Filter, limit, offset int) ([]Listing, int, error) {
	where := storefrontWhere
	args := []interface{}{}
	argCount := 0

	if filter.Audience != "" {
		argCount++
		where += ` AND p.target_audience = $` + strconv.Itoa(argCount)
		args = append(args, filter.Audience)
	}
	if filter.Brand != "" {
		argCount++
		where += ` AND p.brand ILIKE $` + strconv.Itoa(argCount)
		args = append(args, "%"+filter.Brand+"%")
	}
	if filter.Color != "" {
		argCount++
		where += ` AND p.color ILIKE $` + strconv.Itoa(argCount)
		args = append(args, "%"+filter.Color+"%")
	}
	if filter.Size != "" {
		argCount++
		where += ` AND p.size = $` + strconv.Itoa(argCount)
		args = append(args, filter.Size)
	}
	if filter.Search != "" {
		argCount++
		where += ` AND (p.name ILIKE $` + strconv.Itoa(argCount) + ` OR p.brand ILIKE $` + strconv.Itoa(argCount) + ` OR p.description ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.MinPrice != nil {
		argCount++
		where += ` AND p.price >= $` + strconv.Itoa(argCount)
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		argCount++
		where += ` AND p.price <= $` + strconv.Itoa(argCount)
		args = append(args, *filter.MaxPrice)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products p`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := listingSelect + where + ` ORDER BY p.name ASC`
	if limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	listings, err := scanListings(rows)
	if err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

func (r *repository) Newest(ctx context.Context, limit int) ([]Listing, error) {
	rows, err := r.db.Query(ctx, listingSelect+storefrontWhere+` ORDER BY p.created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanListings(rows)
}

func (r *repository) Get(ctx context.Context, id int64) (Listing, error) {
	rows, err := r.db.Query(ctx, listingSelect+` WHERE p.id = $1`, id)
	if err != nil {
		return Listing{}, err
	}
	defer rows.Close()
	listings, err := scanListings(rows)
	if err != nil {
		return Listing{}, err
	}
	if len(listings) == 0 {
		return Listing{}, shared.ErrNotFound
	}
	return listings[0], nil
}

func (r *repository) Facets(ctx context.Context) (Facets, error) {
	const query = `SELECT
	ARRAY(SELECT DISTINCT brand FROM products` + facetWhere + ` AND brand <> '' ORDER BY brand),
	ARRAY(SELECT DISTINCT color FROM products` + facetWhere + ` AND color <> '' ORDER BY color),
	COALESCE((SELECT MIN(price) FROM products` + facetWhere + `), 0),
	COALESCE((SELECT MAX(price) FROM products` + facetWhere + `), 0)`
	var f Facets
	err := r.db.QueryRow(ctx, query).Scan(&f.Brands, &f.Colors, &f.MinPrice, &f.MaxPrice)
	if err != nil {
		return Facets{}, err
	}
	return f, nil
}

const facetWhere = ` WHERE is_published AND is_saleable AND target_audience <> ''`

func (r *repository) Suggest(ctx context.Context, term string, limit int) ([]Suggestion, error) {
	const query = `SELECT id, name, brand, price FROM products` + facetWhere + `
	AND (name ILIKE $1 OR brand ILIKE $1)
	ORDER BY name ASC LIMIT $2`
	rows, err := r.db.Query(ctx, query, "%"+term+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suggestions := []Suggestion{}
	for rows.Next() {
		var s Suggestion
		if err := rows.Scan(&s.ID, &s.Name, &s.Brand, &s.Price); err != nil {
			return nil, err
		}
		suggestions = append(suggestions, s)
	}
	return suggestions, rows.Err()
}

func (r *repository) B2BPriced(ctx context.Context) ([]Listing, error) {
	rows, err := r.db.Query(ctx, listingSelect+storefrontWhere+` AND p.b2b_price > 0 ORDER BY p.name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanListings(rows)
}

func scanListings(rows pgx.Rows) ([]Listing, error) {
	listings := []Listing{}
	for rows.Next() {
		var l Listing
		if err := rows.Scan(
			&l.ID, &l.Code, &l.Name, &l.Description, &l.Brand, &l.TargetAudience, &l.Color, &l.Size,
			&l.Season, &l.Material, &l.Price, &l.B2BPrice, &l.MinStockLevel, &l.MaxStockLevel,
			&l.IsPublished, &l.IsSaleable, &l.CreatedAt, &l.UpdatedAt,
			&l.QtyAvailable, &l.ReviewCount, &l.AverageRating,
		); err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return listings, nil
		}
		return nil, err
	}
	return listings, nil
}
